package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
	"github.com/synthizer/synthizer-rust-rewrite/internal/config"
	"github.com/synthizer/synthizer-rust-rewrite/internal/fs"
	"github.com/synthizer/synthizer-rust-rewrite/internal/source"
)

const Version = "0.3.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	fs               afero.Fs
	configManager    *config.ConfigManager
	backendFactory   audio.BackendFactory
	terminalDetector TerminalDetector
	decoders         *source.Registry

	registry *prometheus.Registry
	metrics  *audio.Metrics

	cfg     *config.Config
	logFile io.Closer
}

// NewCLI creates a CLI bound to the real filesystem and audio hardware
func NewCLI() *CLI {
	filesystem := fs.NewDefaultFactory().Production()
	return NewCLIWithDependencies(
		filesystem,
		config.NewConfigManagerWithFilesystem(filesystem),
		audio.NewBackendFactory(),
		&DefaultTerminalDetector{},
	)
}

// NewCLIWithDependencies creates a CLI with injected collaborators for testing
func NewCLIWithDependencies(filesystem afero.Fs, configManager *config.ConfigManager,
	factory audio.BackendFactory, detector TerminalDetector) *CLI {
	slog.Debug("creating new CLI instance")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &CLI{
		fs:               fs.NewDefaultFactory().ReadOnly(filesystem),
		configManager:    configManager,
		backendFactory:   factory,
		terminalDetector: detector,
		decoders:         source.DefaultRegistry(),
		registry:         registry,
	}

	rootCmd := &cobra.Command{
		Use:   "syzaudio",
		Short: "Audio device enumeration and playback",
		Long: "syzaudio lists playback devices and streams tones or sound files " +
			"through the audio device layer.",
		SilenceUsage:      true,
		PersistentPreRunE: c.prepare,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("backend", "", fmt.Sprintf("Audio backend (%s)", joinBackends()))
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	}

	rootCmd.AddCommand(
		c.newDevicesCommand(),
		c.newToneCommand(),
		c.newPlayCommand(),
		newVersionCommand(),
	)

	c.rootCmd = rootCmd
	return c
}

// Run executes the CLI with the given arguments and I/O streams and returns
// the process exit code
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		printVersion(stdout)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer c.closeLogFile()

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

// prepare loads configuration and installs logging before any subcommand runs
func (c *CLI) prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadAndValidateConfig(cmd)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.setupLogging(cfg, cmd.ErrOrStderr())
	return nil
}

// loadAndValidateConfig loads configuration from flags and files, applies
// overrides, and validates
func (c *CLI) loadAndValidateConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = c.configManager.LoadFromFile(configFile)
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("config file not found, using defaults", "file", configFile)
			cfg, err = c.configManager.GetDefaultConfig(), nil
		}
	} else {
		cfg, err = c.configManager.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg = c.configManager.ApplyEnvironmentOverrides(cfg)

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.AudioBackend = backend
		slog.Debug("backend override applied", "value", backend)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics = &config.MetricsConfig{Enabled: true, Address: addr}
	}

	if err := c.configManager.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging sends records at the configured level to stderr and, when
// file logging is enabled, everything down to debug to a rotating file
func (c *CLI) setupLogging(cfg *config.Config, stderrWriter io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level}),
	}

	fileEnabled := cfg.FileLogging != nil && cfg.FileLogging.Enabled
	if fileEnabled {
		logFilePath := c.configManager.ResolveLogFilePath(cfg.FileLogging.Filename)
		fileWriter := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    cfg.FileLogging.MaxSizeMB,
			MaxBackups: cfg.FileLogging.MaxBackups,
			MaxAge:     cfg.FileLogging.MaxAgeDays,
			Compress:   cfg.FileLogging.Compress,
		}
		c.closeLogFile()
		c.logFile = fileWriter
		handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	slog.SetDefault(slog.New(NewFanoutHandler(handlers...)))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"handlers", len(handlers),
		"file_enabled", fileEnabled)
}

func (c *CLI) closeLogFile() {
	if c.logFile == nil {
		return
	}
	if err := c.logFile.Close(); err != nil {
		slog.Warn("failed to close log file", "error", err)
	}
	c.logFile = nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Runs without loading configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())

			report := audio.DetectPlatform()
			fmt.Fprintf(cmd.OutOrStdout(), "auto backend: %s (cgo=%t, wsl=%t)\n",
				report.Preferred, report.CgoEnabled, report.WSL)
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "syzaudio version %s\n", Version)
}

func joinBackends() string {
	return strings.Join(audio.SupportedBackends(), ", ")
}
