//go:build !unix

package cluster

import (
	"os"
	"os/exec"
)

// No process groups outside unix; teardown iterates the tracked handles,
// which is the portable path anyway.
func setProcessGroup(cmd *exec.Cmd) {}

func terminateProcess(p *os.Process) error { return p.Kill() }

func killProcess(p *os.Process) error { return p.Kill() }
