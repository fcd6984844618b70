package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/villagehq/village/internal/app/bootstrap"
	"github.com/villagehq/village/internal/app/system/logging"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "village",
		Short: "Village data and synchronization service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	bootstrap.ApplyDefaults(viper.GetViper())
	defaults := bootstrap.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("data-dir", defaults.GetString("store.data_dir"), "Document store directory")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Duration("expiry-interval", defaults.GetDuration("expiry.interval"), "Pin expiry scan interval")
	cmd.PersistentFlags().Duration("upcoming-horizon", defaults.GetDuration("pins.upcoming_horizon"), "Upper bound for upcoming-pin queries")
	cmd.PersistentFlags().String("session-key", "", "Session cookie signing key (overrides env)")

	bindFlag(cmd, "store.data_dir", "data-dir")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "expiry.interval", "expiry-interval")
	bindFlag(cmd, "pins.upcoming_horizon", "upcoming-horizon")
	bindFlag(cmd, "session.key", "session-key")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}
	return nil
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	deps, err := bootstrap.BuildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	deps.Expiry.Start()
	defer deps.Expiry.Stop()

	// The HTTP layer (routes, map UI, auth) mounts on top of deps: the
	// repositories, deps.WebSessions with deps.SessionName as cookie name,
	// and deps.UpcomingHorizon for pin feeds. This process hosts the data
	// core and its background worker.
	logger.Info("village core started",
		zap.String("data_dir", cfg.DataDir),
		zap.String("session_cookie", deps.SessionName))

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-signalCtx.Done()

	logger.Info("shutting down")
	return nil
}
