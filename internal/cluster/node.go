package cluster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// SpawnError reports an OS-level failure to create a node process. It is
// fatal to the whole launch: an incomplete BFT set cannot reach quorum.
type SpawnError struct {
	Index int
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn node %d: %v", e.Index, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Node is one spawned consensus node. The node binary owns all node-to-node
// coordination through the shared discovery file; the harness only holds the
// process handle.
type Node struct {
	Index         int
	ConfigPath    string
	DiscoveryPath string

	cmd  *exec.Cmd
	done chan struct{}
	code int
}

// Spawn starts one node process. The config file's existence is the
// caller's responsibility; a missing file fails at the OS level when the
// node binary tries to read it.
func Spawn(index int, executable, configPath, discoveryPath string) (*Node, error) {
	cmd := exec.Command(executable, "--config", configPath, "--ip", discoveryPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Index: index, Err: err}
	}

	n := &Node{
		Index:         index,
		ConfigPath:    configPath,
		DiscoveryPath: discoveryPath,
		cmd:           cmd,
		done:          make(chan struct{}),
	}
	go n.reap()

	log.Debug().Int("node", index).Int("pid", cmd.Process.Pid).
		Str("config", configPath).Msg("node spawned")
	return n, nil
}

// reap collects the exit status exactly once. All other observers go
// through the done channel.
func (n *Node) reap() {
	err := n.cmd.Wait()
	n.code = exitCode(err)
	close(n.done)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the process was killed by a signal.
		return exitErr.ExitCode()
	}
	return -1
}

// Done is closed once the node has a terminal exit status.
func (n *Node) Done() <-chan struct{} { return n.done }

// ExitCode reports the terminal status; ok is false until the node exits.
func (n *Node) ExitCode() (code int, ok bool) {
	select {
	case <-n.done:
		return n.code, true
	default:
		return 0, false
	}
}

// Wait blocks until the node exits or ctx is cancelled.
func (n *Node) Wait(ctx context.Context) (int, error) {
	select {
	case <-n.done:
		return n.code, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Terminate requests a graceful stop. Errors are ignorable: the process
// may already have exited.
func (n *Node) Terminate() error {
	if n.cmd.Process == nil {
		return nil
	}
	return terminateProcess(n.cmd.Process)
}

// Kill forcibly ends the node and anything left in its process group.
func (n *Node) Kill() error {
	if n.cmd.Process == nil {
		return nil
	}
	return killProcess(n.cmd.Process)
}
