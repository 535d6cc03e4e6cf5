package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/willibrandon/pageview/internal/config"
	"github.com/willibrandon/pageview/internal/logger"
	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/ui/report"
)

// Version info (set by ldflags)
var version = "dev"

// app holds state shared by every subcommand.
type app struct {
	configPath string
	debug      bool

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pageview",
		Short: "Inspect the page layout of SQLite database files",
		Long: `pageview decodes the header and every page header of a SQLite database
file and reports page types, free space and utilization.

  pageview inspect <file> [--json] [--pages]   Summarize a database file
  pageview page <file> <n> [--json]            Show one page
  pageview watch <file>                        Reparse on every change
  pageview history <file>                      Show stored parse history
  pageview config show                         Print the effective configuration`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (default ~/.config/pageview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newInspectCmd(a),
		newPageCmd(a),
		newWatchCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return rootCmd
}

// init loads configuration and starts the file logger.
func (a *app) init() error {
	cfg, err := config.LoadFromPath(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.Debug {
		level = logger.LevelDebug
	}
	logger.InitLogger(level, cfg.Log.Path)
	logger.Debug("pageview starting", "version", version, "config", a.configPath)
	return nil
}

func (a *app) engine() *parser.Engine {
	return parser.NewEngine(a.cfg.Parse)
}

// fail prints err with guidance to w and returns a short error for cobra.
func fail(w io.Writer, err error) error {
	fmt.Fprintln(w, report.FormatParseError(err, terminalWidth()))
	return err
}

// terminalWidth returns the width of stdout, or the report default when
// stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return report.DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return report.DefaultWidth
	}
	return width
}
