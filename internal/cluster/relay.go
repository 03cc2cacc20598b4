package cluster

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"bftnet/internal/telemetry"
)

// DefaultGrace bounds how long teardown waits after TERM before
// escalating to KILL.
const DefaultGrace = 5 * time.Second

// Process is the surface the relay needs from a tracked node.
type Process interface {
	Terminate() error
	Kill() error
	Done() <-chan struct{}
}

// Relay guarantees that no node process outlives the harness. It arms
// immediately after a successful launch and fires exactly once, on the
// first of: an interrupt/termination signal, or the harness's own exit
// path. Leaked consensus nodes would poison subsequent test runs sharing
// the same discovery file, so firing must be unconditional; double firing
// must be impossible, so the armed->fired transition is a single
// compare-and-swap.
type Relay struct {
	procs []Process
	grace time.Duration

	fired atomic.Bool
	sigc  chan os.Signal
}

// NewRelay builds a relay over an arbitrary tracked set. Most callers
// want ArmRelay.
func NewRelay(procs []Process, grace time.Duration) *Relay {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Relay{procs: procs, grace: grace}
}

// ArmRelay tracks the launched nodes and subscribes to interrupt and
// termination signals for the rest of the harness's lifetime.
func ArmRelay(nodes []*Node, grace time.Duration) *Relay {
	procs := make([]Process, len(nodes))
	for i, n := range nodes {
		procs[i] = n
	}
	r := NewRelay(procs, grace)
	r.arm()
	return r
}

func (r *Relay) arm() {
	r.sigc = make(chan os.Signal, 1)
	signal.Notify(r.sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		if sig, ok := <-r.sigc; ok {
			log.Info().Str("signal", sig.String()).Msg("interrupt received, tearing down cluster")
			r.Fire()
		}
	}()
}

// Fire terminates every tracked process, once. Subsequent calls are
// no-ops, whichever path (signal or normal exit) got here first.
func (r *Relay) Fire() {
	if !r.fired.CompareAndSwap(false, true) {
		return
	}
	telemetry.CounterGlobal("bftnet_teardown_fired", 1, map[string]string{
		"component": "relay",
	})
	for _, p := range r.procs {
		// The process may already be gone; that is fine.
		_ = p.Terminate()
	}
	r.escalate()
}

// escalate KILLs anything still alive once the grace period runs out.
func (r *Relay) escalate() {
	ctx, cancel := context.WithTimeout(context.Background(), r.grace)
	defer cancel()
	for _, p := range r.procs {
		select {
		case <-p.Done():
		case <-ctx.Done():
			log.Warn().Msg("node ignored TERM within grace period, killing")
			_ = p.Kill()
		}
	}
}

// Fired reports whether teardown has been issued.
func (r *Relay) Fired() bool { return r.fired.Load() }
