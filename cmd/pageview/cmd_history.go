package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/storage/sqlite"
	"github.com/willibrandon/pageview/internal/ui/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "Show stored parse history for a file",
		Long: `Show the parses of a file recorded by 'pageview watch --history' or
by 'pageview history --record', newest first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()

			db, err := sqlite.Open(a.cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer db.Close()
			store := sqlite.NewSnapshotStore(db)

			if record {
				start := time.Now()
				info, err := a.engine().ParseFile(ctx, path, parser.ParseOptions{})
				if err != nil {
					return fail(cmd.ErrOrStderr(), err)
				}
				if _, err := store.Save(ctx, sqlite.NewSessionID(), path, info, time.Since(start)); err != nil {
					return err
				}
			}

			records, err := store.GetHistory(ctx, path, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return report.WriteJSON(cmd.OutOrStdout(), report.NewHistoryViews(records))
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderHistory(records, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", sqlite.DefaultHistoryLimit, "maximum number of records")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&record, "record", false, "parse the file now and store the result first")
	return cmd
}
