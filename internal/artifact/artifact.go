package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides consumed by Resolve. Flags take precedence over
// these; both take precedence over the YAML config.
const (
	EnvType    = "BFTNET_TYPE"
	EnvTestDir = "BFTNET_TESTDIR"
)

const (
	DefaultVariant = "release"
	DefaultTestDir = "testdata/local"
	DefaultBaseDir = "target"
	DefaultBinary  = "node"
)

// ConfigurationError reports a resolved executable that does not exist.
// It is raised before any node is spawned so a missing build fails the
// whole run with a diagnosable message instead of four spawn errors.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("node executable not found at %s (build the node binary or override %s)", e.Path, EnvType)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Paths holds the resolved artifact locations for one run.
type Paths struct {
	Executable string
	ConfigDir  string
	Variant    string
}

// Resolver computes artifact paths from explicit overrides, environment
// overrides and defaults, in that order. Zero values mean "not overridden".
type Resolver struct {
	Variant string
	TestDir string
	BaseDir string
	Binary  string
}

// Resolve produces the executable path and config directory for a run.
// The only side effect is the existence check on the executable.
func (r Resolver) Resolve() (Paths, error) {
	variant := firstNonEmpty(r.Variant, os.Getenv(EnvType), DefaultVariant)
	testDir := firstNonEmpty(r.TestDir, os.Getenv(EnvTestDir), DefaultTestDir)
	baseDir := firstNonEmpty(r.BaseDir, DefaultBaseDir)
	binary := firstNonEmpty(r.Binary, DefaultBinary)

	exe := filepath.Join(baseDir, variant, binary)
	if _, err := os.Stat(exe); err != nil {
		return Paths{}, &ConfigurationError{Path: exe, Err: err}
	}
	return Paths{Executable: exe, ConfigDir: testDir, Variant: variant}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
