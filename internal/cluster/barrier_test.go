package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinCleanExit(t *testing.T) {
	spec := testSpec(t, "exit 0")

	nodes, err := NewLauncher().Launch(spec)
	require.NoError(t, err)

	result := Join(nil, nodes)
	require.Len(t, result.Nodes, 4)
	for _, n := range result.Nodes {
		require.Zero(t, n.ExitCode)
		require.False(t, n.TornDown)
	}
	require.Empty(t, result.Failed())
	require.NoError(t, result.Err())
}

func TestJoinAggregatesAbnormalExits(t *testing.T) {
	spec := testSpec(t, "exit 7")

	nodes, err := NewLauncher().Launch(spec)
	require.NoError(t, err)

	result := Join(nil, nodes)
	require.Equal(t, []int{0, 1, 2, 3}, result.Failed())
	for _, n := range result.Nodes {
		require.Equal(t, 7, n.ExitCode)
	}
	require.Error(t, result.Err())
	require.Contains(t, result.Err().Error(), "exited abnormally")
}

func TestJoinReturnsOnlyWhenAllExited(t *testing.T) {
	spec := testSpec(t, "sleep 0.2")

	nodes, err := NewLauncher().Launch(spec)
	require.NoError(t, err)

	result := Join(nil, nodes)
	for _, n := range nodes {
		_, exited := n.ExitCode()
		require.True(t, exited, "join returned before node %d had a terminal status", n.Index)
	}
	require.Empty(t, result.Failed())
}

func TestJoinTeardownExitsAreNotFailures(t *testing.T) {
	spec := testSpec(t, "sleep 30")

	nodes, err := NewLauncher().Launch(spec)
	require.NoError(t, err)
	relay := ArmRelay(nodes, 2*time.Second)

	relay.Fire()
	result := Join(relay, nodes)

	require.Empty(t, result.Failed())
	require.NoError(t, result.Err())
	for _, n := range result.Nodes {
		require.True(t, n.TornDown)
		require.NotZero(t, n.ExitCode, "a TERMed sleeper should not report code 0")
	}
}
