package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rtss/internal/config"
	"rtss/internal/runner"
	"rtss/pkg/durfmt"
)

const version = "0.5.0"

var (
	start time.Time

	usePTY     bool
	sortable   bool
	configPath string
	logLevel   string

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "rtss [--pty] [--] [COMMAND [ARGS ...]]",
	Short: "Prepend output lines with elapsed times since program start and previous line",
	Long: `Prepends output lines with elapsed times since program start and previous line.

Use either to wrap stdout and stderr of a given command, or as a filter.
Lines from stdout are marked with '|', lines from stderr with '#'.

Use --pty/--tty to unbuffer commands like tcpdump when ran under rtss.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, warnings, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		level, err := cfg.Level()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		for _, w := range warnings {
			slog.Warn(w)
		}

		format, err := cfg.Formatter()
		if err != nil {
			return err
		}

		r := runner.New(start)
		r.PTY = cfg.PTY
		r.Format = format
		r.Logger = logger
		exitCode = r.Execute(args)
		return nil
	},
}

// resolveConfig loads the config file and applies command line overrides.
func resolveConfig(cmd *cobra.Command) (config.Config, []string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	result, err := config.LoadFrom(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg := result.Config
	flags := cmd.Flags()
	if flags.Changed("pty") || flags.Changed("tty") {
		cfg.PTY = usePTY
	}
	if sortable {
		cfg.Format = durfmt.NameSortable
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, result.Warnings, nil
}

func init() {
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().BoolVar(&usePTY, "pty", false, "Run the command with a pseudo-terminal as stdout")
	rootCmd.Flags().BoolVar(&usePTY, "tty", false, "Alias for --pty")
	_ = rootCmd.Flags().MarkHidden("tty")
	rootCmd.Flags().BoolVar(&sortable, "sortable", false, "Print durations as fixed width HH:MM:SS.ffffff")
	rootCmd.Flags().StringVar(&configPath, "config", "", fmt.Sprintf("Config file (default: $%s or ~/.config/rtss/config.toml)", config.EnvPath))
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for rtss' own messages: debug, info, warn, error")

	rootCmd.SetVersionTemplate("rtss version {{.Version}}\n")
}

func main() {
	start = time.Now()

	// Writes to a closed stdout or stderr must fail with EPIPE so the pump
	// can report it, rather than killing rtss.
	signal.Ignore(syscall.SIGPIPE)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
