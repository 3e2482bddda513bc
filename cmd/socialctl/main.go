package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/social-core/internal/bootstrap"
	"github.com/DaDevFox/task-systems/social-core/internal/config"
	"github.com/DaDevFox/task-systems/social-core/internal/events"
	"github.com/DaDevFox/task-systems/social-core/internal/hierarchy"
	"github.com/DaDevFox/task-systems/social-core/internal/logging"
	"github.com/DaDevFox/task-systems/social-core/internal/metrics"
	"github.com/DaDevFox/task-systems/social-core/internal/repository"
	"github.com/DaDevFox/task-systems/social-core/internal/service"
)

// app is the directory assembled for one invocation
type app struct {
	configPath string
	logLevel   string
	seedFile   string
	demo       bool

	logger    *logrus.Logger
	svc       *service.DirectoryService
	collector *metrics.Collector
}

func main() {
	a := &app{}
	err := newRootCommand(a).Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "socialctl",
		Short: "Inspect and drive a social directory",
		Long: "socialctl builds a directory of groups and users from a seed, then runs one command against it: " +
			"listing the tree, computing statistics, following users and publishing posts.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.seedFile, "seed", "", "YAML seed file applied after the root is created")
	rootCmd.PersistentFlags().BoolVar(&a.demo, "demo", false, "Start from the sample directory")

	// Add commands
	rootCmd.AddCommand(newTreeCommand(a))
	rootCmd.AddCommand(newStatsCommand(a))
	rootCmd.AddCommand(newFollowingCommand(a))
	rootCmd.AddCommand(newFeedCommand(a))
	rootCmd.AddCommand(newInfoCommand(a))
	rootCmd.AddCommand(newPostCommand(a))
	rootCmd.AddCommand(newFollowCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))

	return rootCmd
}

func (a *app) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.seedFile != "" {
		cfg.SeedFile = a.seedFile
	}

	a.logger = logging.New(cfg.LogLevel, cfg.LogFormat)

	feeds, err := repository.NewFeedRepository(repository.DatabaseType(cfg.FeedStore), cfg.DataDir, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open feed store: %w", err)
	}

	bus := events.NewBus(a.logger)
	a.svc = service.NewDirectoryService(hierarchy.New(nil), feeds, bus, a.logger)
	a.collector = metrics.NewCollector(a.svc)
	a.collector.ObserveBus(bus)

	if _, err := a.svc.CreateRoot(ctx, cfg.RootName); err != nil {
		return err
	}
	if a.demo {
		if err := bootstrap.SeedDemo(ctx, a.svc, a.logger); err != nil {
			return err
		}
	}
	if cfg.SeedFile != "" {
		if err := bootstrap.SeedFromFile(ctx, a.svc, cfg.SeedFile, a.logger); err != nil {
			return err
		}
	}

	a.logger.WithFields(logrus.Fields{
		"root":       cfg.RootName,
		"feed_store": cfg.FeedStore,
		"entries":    len(a.svc.AllEntries()),
	}).Debug("directory ready")
	return nil
}

func (a *app) close() error {
	if a.svc == nil {
		return nil
	}
	return a.svc.Close()
}
