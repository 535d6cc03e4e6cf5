package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/ui/report"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		showPages  bool
		pageType   string
		noChart    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			filter, err := parsePageType(pageType)
			if err != nil {
				return err
			}

			info, err := a.engine().ParseFile(cmd.Context(), path, parser.ParseOptions{})
			if err != nil {
				return fail(cmd.ErrOrStderr(), err)
			}

			if jsonOutput {
				view := report.NewSummaryView(path, info, showPages)
				if filter != nil && showPages {
					view.Pages = info.PagesByType(*filter)
				}
				return report.WriteJSON(out, view)
			}

			opts := report.DefaultSummaryOptions()
			opts.Width = terminalWidth()
			opts.ShowChart = !noChart
			fmt.Fprintln(out, report.RenderSummary(path, info, opts))

			if showPages {
				pages := info.Pages()
				if filter != nil {
					pages = info.PagesByType(*filter)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, report.RenderPageTable(pages, info.PageSize()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&showPages, "pages", false, "list every page")
	cmd.Flags().StringVar(&pageType, "type", "", "only list pages of this type (e.g. TBL, IBI)")
	cmd.Flags().BoolVar(&noChart, "no-chart", false, "omit charts")
	return cmd
}

func newPageCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "page <file> <number>",
		Short: "Show the header of one page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid page number %q: pages are numbered from 1", args[1])
			}

			info, err := a.engine().ParseFile(cmd.Context(), args[0], parser.ParseOptions{})
			if err != nil {
				return fail(cmd.ErrOrStderr(), err)
			}

			if jsonOutput {
				p, ok := info.GetPage(uint32(n))
				if !ok {
					return fmt.Errorf("%w: page %d", report.ErrPageNotFound, n)
				}
				return report.WriteJSON(cmd.OutOrStdout(), report.NewPageView(p, info.PageSize()))
			}

			out, err := report.RenderPage(info, uint32(n))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

// parsePageType accepts a short name (TBL) or a display name (table b-tree leaf).
func parsePageType(name string) (*models.PageType, error) {
	if name == "" {
		return nil, nil
	}
	for _, t := range models.AllPageTypes {
		if strings.EqualFold(name, t.ShortName()) || strings.EqualFold(name, t.String()) {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unknown page type %q", name)
}
