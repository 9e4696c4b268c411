package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/docksweep/internal/config"
	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/session"
)

// rootCmd represents the base command; without a subcommand it opens the
// interactive dashboard.
var rootCmd = &cobra.Command{
	Use:   "docksweep",
	Short: "Interactive dashboard for inspecting and reclaiming Docker disk space",
	Long: `Docksweep shows where the Docker engine's disk space went: images with
their shared layers, container writable layers, volumes and build cache.
Resources can be selected and deleted safely, respecting the dependencies
between them. Run without a subcommand for the interactive dashboard, or use
df, report and prune for one-shot operation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

type exitCoder interface {
	ExitCode() int
}

// ExitError allows commands to exit with a specific exit code.
// If Err is nil, no error message is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) ExitCode() int { return e.Code }
func (e ExitError) Unwrap() error { return e.Err }
func (e ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if ee, ok := err.(exitCoder); ok {
			if msg := strings.TrimSpace(err.Error()); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ee.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(3)
	}
}

var (
	configFile string
	hostFlag   string
	logLevel   string

	toolVersion = "dev"
	gitCommit   = ""
	buildTime   = ""
)

// SetVersion records build metadata for the version command and reports.
func SetVersion(version, commit, built string) {
	if version != "" {
		toolVersion = version
	}
	gitCommit = commit
	buildTime = built
	rootCmd.Version = toolVersion
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runDash(cmd.Context())
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "docksweep.yml", "config file")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "engine host (overrides config and DOCKER_HOST)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the config file, falling back to defaults when the default
// file is simply absent. Flags override the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			cfg = config.Default()
		} else {
			return nil, err
		}
	}
	if hostFlag != "" {
		cfg.Engine.Host = hostFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger per config. TUI commands must log to a
// file (or nowhere); writing to stderr would fight the terminal.
func newLogger(cfg *config.Config, toFileOnly bool) (*log.Logger, func(), error) {
	level, _ := log.ParseLevel(cfg.Log.Level)

	out := os.Stderr
	cleanup := func() {}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	} else if toFileOnly {
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, err
		}
		out = f
		cleanup = func() { f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, cleanup, nil
}

// newSession connects to the engine and wraps it in a session. Connection
// failure maps to exit code 2, matching the unreachable-engine contract.
func newSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session.Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Engine.Timeout)*time.Second)
	defer cancel()

	client, err := engine.NewDockerClient(dialCtx, cfg.Engine.Host, logger)
	if err != nil {
		if errors.Is(err, engine.ErrEngineUnreachable) {
			return nil, ExitError{Code: 2, Err: fmt.Errorf("cannot connect to the engine: %w (is the daemon running?)", err)}
		}
		return nil, err
	}

	return session.New(client, session.Options{
		Logger:        logger,
		ProtectLabels: cfg.Reclaim.Protect,
		Force:         cfg.Reclaim.Force,
	}), nil
}
