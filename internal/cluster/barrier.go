package cluster

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bftnet/pkg/api"
)

// Result aggregates how every node in the cluster exited.
type Result struct {
	Nodes []api.NodeExit
}

// Failed returns the indices of nodes that exited abnormally on their
// own. Exits caused by harness teardown are excluded: a TERM from the
// relay is the expected end of a test run, not a node failure.
func (r Result) Failed() []int {
	var failed []int
	for _, n := range r.Nodes {
		if n.ExitCode != 0 && !n.TornDown {
			failed = append(failed, n.Index)
		}
	}
	return failed
}

// Err returns a summary error when any node failed, nil otherwise.
func (r Result) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, len(failed))
	for i, idx := range failed {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return fmt.Errorf("node(s) %s exited abnormally", strings.Join(parts, ", "))
}

// Join blocks until every node has a terminal exit status, in whatever
// order the nodes reach it, and reports the aggregate. Nonzero exits are
// recorded, never thrown mid-wait; whether a degraded cluster still has
// quorum is the consensus layer's business, not the harness's.
func Join(relay *Relay, nodes []*Node) Result {
	results := make([]api.NodeExit, len(nodes))
	var g errgroup.Group
	for i, n := range nodes {
		i, n := i, n
		g.Go(func() error {
			<-n.Done()
			code, _ := n.ExitCode()
			results[i] = api.NodeExit{
				Index:    n.Index,
				ExitCode: code,
				TornDown: relay != nil && relay.Fired(),
			}
			log.Debug().Int("node", n.Index).Int("code", code).Msg("node exited")
			return nil
		})
	}
	_ = g.Wait()
	return Result{Nodes: results}
}
