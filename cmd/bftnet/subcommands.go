package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bftnet/internal/artifact"
	"bftnet/internal/cluster"
	"bftnet/internal/config"
	"bftnet/internal/history"
	"bftnet/internal/telemetry"
	"bftnet/pkg/api"
)

// Resolve the harness configuration
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	return config.Load(cfgPath)
}

// Resolve artifact paths with flag > env > config > default precedence.
func resolveArtifacts(cmd *cobra.Command, cfg config.Config) (artifact.Paths, error) {
	variant, _ := cmd.Flags().GetString("type")
	testDir, _ := cmd.Flags().GetString("testdir")
	res := artifact.Resolver{
		Variant: override(variant, os.Getenv(artifact.EnvType), cfg.Cluster.Variant),
		TestDir: override(testDir, os.Getenv(artifact.EnvTestDir), cfg.Cluster.TestDir),
		BaseDir: cfg.Cluster.BaseDir,
		Binary:  cfg.Cluster.Binary,
	}
	return res.Resolve()
}

func override(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Launch the cluster and wait for it
func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the consensus cluster and wait until every node has exited",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := resolveArtifacts(cmd, cfg)
			if err != nil {
				return err
			}
			discovery, _ := cmd.Flags().GetString("ip")
			if discovery == "" {
				discovery = cfg.Cluster.Discovery
			}
			grace, _ := cmd.Flags().GetDuration("grace")
			if grace <= 0 {
				grace = time.Duration(cfg.Cluster.GraceSeconds) * time.Second
			}

			spec := cluster.Spec{
				Count:      cfg.Cluster.Count,
				Executable: paths.Executable,
				ConfigDir:  paths.ConfigDir,
				Discovery:  discovery,
			}

			started := time.Now()
			nodes, err := cluster.NewLauncher().Launch(spec)
			if err != nil {
				return err
			}
			defer func() { _ = telemetry.Shutdown() }()
			relay := cluster.ArmRelay(nodes, grace)
			// Normal-exit teardown path; a no-op when the signal path
			// or natural completion got there first.
			defer relay.Fire()

			result := cluster.Join(relay, nodes)
			recordRun(cmd.Context(), cfg, paths, started, result)

			if err := result.Err(); err != nil {
				return err
			}
			log.Info().Int("count", len(nodes)).Msg("all nodes exited cleanly")
			return nil
		},
	}
	cmd.Flags().String("type", "", "build variant of the node binary (default release)")
	cmd.Flags().String("testdir", "", "directory holding per-node config files")
	cmd.Flags().String("ip", "", "shared peer-discovery file passed to every node")
	cmd.Flags().Duration("grace", 0, "teardown grace period before TERM escalates to KILL")
	return cmd
}

// Record the finished run; history failures never fail the run itself.
func recordRun(ctx context.Context, cfg config.Config, paths artifact.Paths, started time.Time, result cluster.Result) {
	status := api.RunSucceeded
	if len(result.Failed()) > 0 {
		status = api.RunFailed
	}
	run := api.Run{
		ID:         uuid.NewString(),
		Variant:    paths.Variant,
		TestDir:    paths.ConfigDir,
		Status:     status,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Nodes:      result.Nodes,
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warn().Err(err).Msg("history store unavailable, run not recorded")
		return
	}
	defer store.Close()
	if err := store.RecordRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
		return
	}
	log.Debug().Str("run", run.ID).Str("status", string(status)).Msg("run recorded")
}

// Print resolved artifact paths without launching
func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved node executable and config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := resolveArtifacts(cmd, cfg)
			if err != nil {
				return err
			}
			spec := cluster.Spec{
				Count:     cfg.Cluster.Count,
				ConfigDir: paths.ConfigDir,
				Discovery: cfg.Cluster.Discovery,
			}
			fmt.Printf("executable: %s\n", paths.Executable)
			fmt.Printf("variant:    %s\n", paths.Variant)
			fmt.Printf("discovery:  %s\n", spec.Discovery)
			for i := 0; i < spec.Count; i++ {
				fmt.Printf("node %d:     %s\n", i, spec.ConfigPath(i))
			}
			return nil
		},
	}
	cmd.Flags().String("type", "", "build variant of the node binary (default release)")
	cmd.Flags().String("testdir", "", "directory holding per-node config files")
	return cmd
}

// List recorded runs
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent harness runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s\t%s\t%s\t%s\t%d nodes\n",
					r.StartedAt.Format(time.RFC3339), r.ID, r.Variant, r.Status, len(r.Nodes))
				for _, n := range r.Nodes {
					fmt.Printf("\tnode %d\texit %d\ttorn_down=%v\n", n.Index, n.ExitCode, n.TornDown)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum runs to list")
	return cmd
}
