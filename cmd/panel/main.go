// Package main implements the panel CLI: chart loading and notification
// handling for the lesson dashboard, against saved pages or a live browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lessonpanel/internal/config"
	"lessonpanel/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "panel",
	Short: "Lesson dashboard interaction layer",
	Long: `panel loads the dashboard charts and marks notifications read.

It works on a saved server-rendered page (charts render, notify read --page)
or on a live browser tab driven over DevTools (browser open).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		if err := logging.Initialize(c.Logging.Runtime()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger = logging.Get(logging.CategoryBoot)
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "lessonpanel.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(chartsCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(fixtureCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings returns the loaded config, or the defaults when a command runs
// without the root pre-run.
func settings() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func categoryLogger(c logging.Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logging.Get(c)
}

// commandContext ends on SIGINT or SIGTERM. The --timeout deadline applies
// only when the flag was given explicitly.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	f := cmd.Root().PersistentFlags().Lookup("timeout")
	if f == nil || !f.Changed {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
