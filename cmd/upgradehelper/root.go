// Package upgradehelper is the command line of the upgrade helper.
package upgradehelper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/metrics"
)

const envPrefix = "UPGRADE_HELPER"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewRootCmd builds the command tree with a fresh configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), metrics: metrics.New(), now: time.Now}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:           "upgrade-helper",
		Short:         "Prepare software upgrade proposals for a Cosmos SDK chain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	addPersistentFlags(rootCmd)
	if err := bindFlags(a.v, rootCmd.PersistentFlags(), persistentBindings); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(a.newGenerateProposalCmd(), a.newGenerateCommandCmd())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	envFile, _ := flags.GetString(flagEnvFile)
	err := godotenv.Load(envFile)
	if err != nil && (flags.Changed(flagEnvFile) || !errors.Is(err, fs.ErrNotExist)) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	if err := config.BindEnv(a.v, envPrefix); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}

	configFile, _ := flags.GetString(flagConfig)
	if err := a.readConfigFile(configFile); err != nil {
		return err
	}

	level, _ := flags.GetString(flagLogLevel)
	return setLogger(level)
}

func (a *app) readConfigFile(path string) error {
	if path != "" {
		a.v.SetConfigFile(path)
	} else {
		a.v.SetConfigName("upgrade-helper")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.config/upgrade-helper")
	}

	err := a.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		slog.Debug("Loaded config file", "path", a.v.ConfigFileUsed())
		return nil
	case path == "" && errors.As(err, &notFound):
		return nil
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}
}

func setLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// finish writes the metrics file, if one was requested, and passes err through.
func (a *app) finish(cmd *cobra.Command, err error) error {
	path, _ := cmd.Flags().GetString(flagMetricsFile)
	if path == "" {
		return err
	}
	if werr := a.metrics.WriteToTextfile(path); werr != nil {
		slog.Warn("Failed to write metrics", "path", path, "error", werr)
	}
	return err
}
