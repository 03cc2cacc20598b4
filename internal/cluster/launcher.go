package cluster

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bftnet/internal/telemetry"
)

// Launcher starts a fixed-size cluster all-or-nothing: either every node
// in the spec is running when Launch returns, or none is.
type Launcher struct {
	spawn func(index int, executable, configPath, discoveryPath string) (*Node, error)
}

func NewLauncher() *Launcher {
	return &Launcher{spawn: Spawn}
}

// Launch spawns spec.Count nodes in index order. The nodes run
// concurrently from the moment they start; there is no readiness
// handshake — cluster formation belongs to the discovery protocol inside
// the node binary. If any spawn fails, already-spawned siblings are
// killed before the error propagates.
func (l *Launcher) Launch(spec Spec) ([]*Node, error) {
	if spec.Count <= 0 {
		return nil, fmt.Errorf("launch: invalid node count %d", spec.Count)
	}

	start := time.Now()
	nodes := make([]*Node, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		n, err := l.spawn(i, spec.Executable, spec.ConfigPath(i), spec.Discovery)
		if err != nil {
			l.unwind(nodes)
			telemetry.CounterGlobal("bftnet_launch_failures", 1, map[string]string{
				"component": "launcher",
			})
			return nil, fmt.Errorf("launch: %w", err)
		}
		nodes = append(nodes, n)
	}

	telemetry.CounterGlobal("bftnet_nodes_spawned", float64(len(nodes)), map[string]string{
		"component": "launcher",
	})
	telemetry.TimerGlobal("bftnet_launch_duration", time.Since(start), map[string]string{
		"component": "launcher",
	})
	log.Info().Int("count", len(nodes)).Str("executable", spec.Executable).
		Str("discovery", spec.Discovery).Msg("cluster launched")
	return nodes, nil
}

// unwind kills the partial cluster and waits for every handle to settle,
// so a failed launch leaves zero live processes behind.
func (l *Launcher) unwind(nodes []*Node) {
	for _, n := range nodes {
		if err := n.Kill(); err != nil {
			log.Warn().Int("node", n.Index).Err(err).Msg("failed to kill sibling during unwind")
		}
	}
	for _, n := range nodes {
		<-n.Done()
	}
	if len(nodes) > 0 {
		log.Warn().Int("killed", len(nodes)).Msg("partial cluster unwound after spawn failure")
	}
}
