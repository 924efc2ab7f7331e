package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"debounced/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type serveFlags struct {
	configPath   string
	addr         string
	defaultWait  time.Duration
	logLevel     string
	logFormat    string
	redisAddr    string
	redisChannel string
	corsOrigins  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "debounced",
		Short:         "Per-key event debouncer daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, os.Getenv)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a .yaml, .json or .toml config file")
	fl.StringVar(&f.addr, "addr", config.DefaultAddr, "HTTP listen address, e.g. :8080")
	fl.DurationVar(&f.defaultWait, "default-wait", 0, "Default debounce wait (e.g. 250ms); 0 keeps the configured value")
	fl.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	fl.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format: json|console")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for the emission relay (disabled when empty)")
	fl.StringVar(&f.redisChannel, "redis-channel", "", "Redis channel for relayed emissions")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (disabled when empty)")
	return cmd
}

// resolveConfig layers flags over env over the config file over defaults.
// Only flags the user actually set override lower layers.
func resolveConfig(cmd *cobra.Command, f serveFlags, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg = cfg.ApplyEnv(getenv)

	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("default-wait") && f.defaultWait > 0 {
		cfg.Debounce = f.defaultWait
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("redis-addr") {
		cfg.RedisAddr = f.redisAddr
	}
	if changed("redis-channel") {
		cfg.RedisChannel = f.redisChannel
	}
	if changed("cors-origins") {
		cfg.CORSOrigins = splitCSV(f.corsOrigins)
	}
	cfg = cfg.WithDefaults()
	if _, err := cfg.DebounceOptions(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// splitCSV splits a comma-separated list, trimming blanks and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
