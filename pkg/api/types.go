package api

import "time"

// v0 contains public types for early SDK usage.

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// NodeExit records how one consensus node left the cluster.
type NodeExit struct {
	Index    int `json:"index" yaml:"index"`
	ExitCode int `json:"exit_code" yaml:"exit_code"`
	// TornDown marks exits caused by harness teardown rather than the
	// node's own control flow; these do not count as failures.
	TornDown bool `json:"torn_down" yaml:"torn_down"`
}

// Run is one recorded harness invocation.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	Variant    string     `json:"variant" yaml:"variant"`
	TestDir    string     `json:"test_dir" yaml:"test_dir"`
	Status     RunStatus  `json:"status" yaml:"status"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time  `json:"finished_at" yaml:"finished_at"`
	Nodes      []NodeExit `json:"nodes" yaml:"nodes"`
}
