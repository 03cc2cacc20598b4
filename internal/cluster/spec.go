package cluster

import (
	"fmt"
	"path/filepath"
)

// ConfigPattern is the per-node config file convention of the consensus
// testbed: nodes-0.json, nodes-1.json, ...
const ConfigPattern = "nodes-%d.json"

// Spec describes one fixed-size local cluster. It is immutable once a
// launch begins; the count never changes for the life of the cluster.
type Spec struct {
	Count      int
	Executable string
	ConfigDir  string
	// Discovery is the peer-discovery file shared by every node. The
	// harness only passes the path through; it never reads the file.
	Discovery string
}

// ConfigPath derives the config file for one node index.
func (s Spec) ConfigPath(index int) string {
	return filepath.Join(s.ConfigDir, fmt.Sprintf(ConfigPattern, index))
}
