package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

// TestFullWorkflow tests the complete end-to-end workflow against a fake
// node binary.
func TestFullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("integration workspace uses shell scripts")
	}

	binary := buildHarness(t)

	t.Run("Resolve", func(t *testing.T) {
		ws := newWorkspace(t, "sleep 30")
		out, err := runHarness(ws, binary, "resolve")
		if err != nil {
			t.Fatalf("resolve failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, filepath.Join("target", "release", "node")) {
			t.Errorf("resolve output missing executable path:\n%s", out)
		}
		if !strings.Contains(out, "nodes-3.json") {
			t.Errorf("resolve output missing node 3 config path:\n%s", out)
		}
	})

	t.Run("Up_CleanExit", func(t *testing.T) {
		ws := newWorkspace(t, "exit 0")
		out, err := runHarness(ws, binary, "up")
		if err != nil {
			t.Fatalf("up should succeed when all nodes exit 0: %v\n%s", err, out)
		}
	})

	t.Run("Up_NodeFailure", func(t *testing.T) {
		ws := newWorkspace(t, "exit 3")
		out, err := runHarness(ws, binary, "up")
		if err == nil {
			t.Fatalf("up should fail when nodes exit nonzero:\n%s", out)
		}
	})

	t.Run("Up_MissingExecutable", func(t *testing.T) {
		ws := newWorkspace(t, "exit 0")
		if err := os.Remove(filepath.Join(ws, "target", "release", "node")); err != nil {
			t.Fatal(err)
		}
		out, err := runHarness(ws, binary, "up")
		if err == nil {
			t.Fatalf("up should fail before spawning when the executable is missing:\n%s", out)
		}
		if !strings.Contains(out, "not found") {
			t.Errorf("expected a configuration error, got:\n%s", out)
		}
	})

	t.Run("Up_Interrupt", func(t *testing.T) {
		ws := newWorkspace(t, "sleep 30")
		cmd := harnessCmd(ws, binary, "up", "--grace", "2s")
		var buf strings.Builder
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		if err := cmd.Start(); err != nil {
			t.Fatal(err)
		}
		time.Sleep(500 * time.Millisecond)
		if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
			t.Fatal(err)
		}

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case err := <-done:
			// Teardown-by-signal is not a node failure.
			if err != nil {
				t.Errorf("interrupted run should exit cleanly: %v\n%s", err, buf.String())
			}
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
			t.Fatalf("harness did not tear down within bound\n%s", buf.String())
		}
	})

	t.Run("History", func(t *testing.T) {
		ws := newWorkspace(t, "exit 0")
		if out, err := runHarness(ws, binary, "up"); err != nil {
			t.Fatalf("up failed: %v\n%s", err, out)
		}
		out, err := runHarness(ws, binary, "history")
		if err != nil {
			t.Fatalf("history failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "succeeded") {
			t.Errorf("history output missing recorded run:\n%s", out)
		}
	})
}

func buildHarness(t *testing.T) string {
	t.Helper()
	binary := filepath.Join(t.TempDir(), "bftnet")
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/bftnet")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, output)
	}
	return binary
}

// newWorkspace lays out the directory structure the harness expects:
// a built node binary under target/release and fixtures for four nodes.
func newWorkspace(t *testing.T, script string) string {
	t.Helper()
	ws := t.TempDir()

	binDir := filepath.Join(ws, "target", "release")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	node := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(filepath.Join(binDir, "node"), []byte(node), 0o755); err != nil {
		t.Fatal(err)
	}

	cfgDir := filepath.Join(ws, "testdata", "local")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		cfg := filepath.Join(cfgDir, fmt.Sprintf("nodes-%d.json", i))
		if err := os.WriteFile(cfg, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(ws, "ips_file"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	return ws
}

func harnessCmd(ws, binary string, args ...string) *exec.Cmd {
	cmd := exec.Command(binary, args...)
	cmd.Dir = ws
	cmd.Env = append(os.Environ(),
		"HOME="+ws,
		"XDG_CONFIG_HOME="+filepath.Join(ws, ".config"),
		"XDG_STATE_HOME="+filepath.Join(ws, ".state"),
	)
	return cmd
}

func runHarness(ws, binary string, args ...string) (string, error) {
	cmd := harnessCmd(ws, binary, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
