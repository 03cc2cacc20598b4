//go:build unix

package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// A termination request delivered to the harness process must take the
// whole cluster down within the grace bound.
func TestRelayTerminationPropagation(t *testing.T) {
	spec := testSpec(t, "sleep 30")

	nodes, err := NewLauncher().Launch(spec)
	require.NoError(t, err)
	relay := ArmRelay(nodes, 2*time.Second)
	t.Cleanup(func() { killAll(t, nodes) })

	require.NoError(t, unix.Kill(unix.Getpid(), unix.SIGTERM))

	for _, n := range nodes {
		select {
		case <-n.Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("node %d still running after harness interrupt", n.Index)
		}
	}
	require.True(t, relay.Fired())
}
