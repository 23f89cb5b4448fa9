package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomcast/internal/app"
	"github.com/vovakirdan/roomcast/internal/auth"
	"github.com/vovakirdan/roomcast/internal/config"
	logpkg "github.com/vovakirdan/roomcast/internal/log"
	"github.com/vovakirdan/roomcast/internal/store/migrate"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
	logJSON    bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "roomcast",
		Short:        "Real-time chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON lines")
	flags.StringVar(&opts.overrides.DBDriver, "db-driver", "", "database driver (sqlite, postgres)")
	flags.StringVar(&opts.overrides.DBDSN, "db-dsn", "", "database DSN or sqlite file path")
	flags.StringVar(&opts.overrides.JWTSecret, "jwt-secret", "", "HMAC secret for access tokens")
	flags.DurationVar(&opts.overrides.SendTimeout, "send-timeout", 0, "per-recipient send timeout")
	flags.IntVar(&opts.overrides.RateLimitPerMinute, "rate-limit", 0, "inbound events per session per minute")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newUserCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// load resolves configuration: defaults < file < env < flags.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *zerolog.Logger, error) {
	bootLogger := logpkg.New("info")
	cfg, path, err := config.Load(bootLogger, o.configPath)
	if err != nil {
		return cfg, bootLogger, err
	}
	cfg.UpdateFrom(o.overrides)
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = o.logJSON
	}

	logger := logpkg.NewWithOutput(cfg.LogLevel, cfg.LogJSON, os.Stdout)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, logger, err := opts.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting roomcast server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := migrate.Run(cfg.DBDriver, cfg.DBDSN, args[0]); err != nil {
				return err
			}
			logger.Info().Str("direction", args[0]).Str("db_driver", cfg.DBDriver).Msg("migrations applied")
			return nil
		},
	}
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage chat users",
	}

	var email, name, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.CreateUser(cmd.Context(), email, name, hash)
			if err != nil {
				return err
			}
			logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user created")
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "user email")
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&password, "password", "", "password (min 6 characters)")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("password")

	userCmd.AddCommand(add)
	return userCmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(userID, 10, 64)
			if err != nil || id <= 0 {
				return errors.New("--user-id must be a positive integer")
			}
			token, err := auth.GenerateToken(app.JWTConfig(&cfg), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id placed in the sub claim")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
