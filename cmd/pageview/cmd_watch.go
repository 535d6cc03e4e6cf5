package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/pageview/internal/logger"
	"github.com/willibrandon/pageview/internal/metrics"
	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/storage/sqlite"
	"github.com/willibrandon/pageview/internal/ui/components"
	"github.com/willibrandon/pageview/internal/ui/report"
	"github.com/willibrandon/pageview/internal/ui/styles"
	"github.com/willibrandon/pageview/internal/watcher"
)

// sessionSparkWidth is the width of the parse duration sparkline.
const sessionSparkWidth = 24

func newWatchCmd(a *app) *cobra.Command {
	var (
		showProgress bool
		withHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Reparse a database file whenever it changes",
		Long: `Parse the file, then watch it and reparse after every change.

Press Ctrl-C once to cancel a parse in progress, again to stop watching.
Watching stops on its own after repeated failures or when the file is deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if withHistory {
				a.cfg.History.Enabled = true
			}
			return a.watch(cmd.Context(), args[0], cmd.OutOrStdout(), showProgress)
		},
	}

	cmd.Flags().BoolVar(&showProgress, "progress", false, "print parse progress events")
	cmd.Flags().BoolVar(&withHistory, "history", false, "record every parse in the history database")
	return cmd
}

func (a *app) watch(ctx context.Context, path string, out io.Writer, showProgress bool) error {
	parseCfg := a.cfg.Parse
	parseCfg.EnableCancellation = true

	collector := metrics.NewCollector(metrics.WithSlowThreshold(a.cfg.Watcher.ReloadTimeout))
	opts := []watcher.Option{watcher.WithMetrics(collector)}

	var store *sqlite.SnapshotStore
	if a.cfg.History.Enabled {
		db, err := sqlite.Open(a.cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer db.Close()
		store = sqlite.NewSnapshotStore(db)
		opts = append(opts, watcher.WithHistory(store, sqlite.NewSessionID()))
	}

	mgr := watcher.NewManager(a.cfg.Watcher, parser.NewEngine(parseCfg), opts...)

	terminal := make(chan watcher.Event, 1)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range mgr.Events() {
			if ev.Kind == watcher.EventParseProgress && !showProgress {
				continue
			}
			fmt.Fprintln(out, report.FormatEvent(ev))
			if ev.Kind.IsTerminal() {
				select {
				case terminal <- ev:
				default:
				}
			}
		}
	}()

	if _, err := mgr.OpenFile(ctx, path); err != nil {
		logger.Warn("Initial parse failed", "path", path, "error", err)
		fmt.Fprintln(os.Stderr, report.FormatParseError(err, terminalWidth()))
	}
	if err := mgr.StartWatching(path); err != nil {
		mgr.Close()
		<-printed
		return fail(os.Stderr, err)
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var final watcher.Event
	done := ctx.Done()
loop:
	for {
		select {
		case final = <-terminal:
			break loop
		case <-done:
			done = nil
			mgr.StopWatching()
		case sig := <-sigCh:
			if sig == os.Interrupt && mgr.State() == watcher.StateReparsing {
				mgr.CancelCurrentParse()
				fmt.Fprintln(out, styles.MutedStyle.Render("cancelling parse, press Ctrl-C again to stop watching"))
				continue
			}
			mgr.StopWatching()
		}
	}

	if err := mgr.Close(); err != nil {
		logger.Warn("Closing watcher", "error", err)
	}
	<-printed

	if store != nil {
		if n, err := store.Prune(context.Background(), a.cfg.History.Keep); err != nil {
			logger.Warn("Pruning parse history", "error", err)
		} else if n > 0 {
			logger.Debug("Pruned parse history", "rows", n)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSessionStats(collector))

	if final.Kind == watcher.EventWatchingFailed {
		return final.Err
	}
	return nil
}

// renderSessionStats summarizes the parses of a watch session.
func renderSessionStats(c *metrics.Collector) string {
	if !c.HasData(metrics.SeriesParseDuration) {
		return styles.MutedStyle.Render("no parses recorded")
	}

	s := c.Summary(metrics.SeriesParseDuration)
	durations := c.Values(metrics.SeriesParseDuration)
	slowMs := float64(c.SlowThreshold()) / float64(time.Millisecond)

	line := fmt.Sprintf("%d parses  %s  min %.1fms  mean %.1fms  max %.1fms  %.0f pages/s",
		s.Count,
		components.RenderDurationSparkline(durations, sessionSparkWidth, slowMs),
		s.Min, s.Mean, s.Max,
		c.Throughput(),
	)
	if slow := c.SlowParses(); slow > 0 {
		line += "  " + styles.WarningBadgeStyle.Render(fmt.Sprintf("%d slow", slow))
	}
	return line
}
