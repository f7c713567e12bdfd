package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/meshcast/app"
	"github.com/kilianp07/meshcast/config"
	coremon "github.com/kilianp07/meshcast/core/monitoring"
	"github.com/kilianp07/meshcast/infra/logger"
	"github.com/kilianp07/meshcast/infra/monitoring"
	"github.com/kilianp07/meshcast/internal/printer"
)

var (
	cfgPath  string
	envFile  string
	logLevel string
	dryRun   bool
	delay    float64

	cfg *config.Config
)

// newService builds the service for a command; tests replace it.
var newService = func(c *config.Config, opts ...app.Option) (*app.Service, error) {
	return app.New(c, opts...)
}

var rootCmd = &cobra.Command{
	Use:               "meshcast",
	Short:             "Broadcast messages to MeshCore channels",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "meshcore.keys", "configuration file (.keys, .yaml or .json)")
	pf.StringVar(&envFile, "env-file", ".env", "environment file loaded before the configuration")
	pf.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.BoolVar(&dryRun, "dry-run", false, "build and print messages without sending")
	pf.Float64Var(&delay, "delay", 0, "seconds between messages (overrides broadcast.delay_seconds)")
}

// Execute runs the CLI until it completes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}
	if cmd.Flags().Changed("delay") {
		c.Broadcast.DelaySeconds = delay
		if err := c.Broadcast.Validate(); err != nil {
			return err
		}
	}
	if err := logger.Configure(c.Log.Level, c.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}
	mon, err := monitoring.NewSentryMonitor(c.Sentry)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}
	cfg = c
	return nil
}

func openService() (*app.Service, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return newService(cfg, app.WithDryRun(dryRun), app.WithLogger(logger.New("service")))
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}

func out(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
