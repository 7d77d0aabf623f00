package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/taigrr/randopen/internal/search"
	"github.com/taigrr/randopen/internal/types"
)

func newListCmd(opts *options) *cobra.Command {
	var params types.QueryParams

	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "Show the cached file list",
		Long: `list prints the cached files in their current shuffled order. It never
walks the tree; run randopen once (or with --refresh) to build the cache.`,
		Example: `randopen list ~/Videos --query alien
randopen list --regex --query '\.mkv$' --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(cmd, args, opts)
			if err != nil {
				return err
			}

			files, err := svc.selector(nil, false, true).Cached(cmd.Context())
			if err != nil {
				return err
			}
			if files == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "no cache at %s; run randopen to create it\n", svc.store.Path())
				return nil
			}

			results, total, err := search.Query(files, params)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderFileTable(results, total))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&params.Query, "query", "q", "", "only show paths containing this text")
	f.BoolVar(&params.UseRegex, "regex", false, "treat --query as a regular expression")
	f.BoolVar(&params.CaseSensitive, "case-sensitive", false, "match --query case sensitively")
	f.IntVar(&params.Limit, "limit", 0, "maximum rows to show (0 shows all)")
	f.IntVar(&params.Offset, "offset", 0, "skip the first N matches")

	return cmd
}

func renderFileTable(results []types.QueryResult, total int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Path"})

	for _, r := range results {
		tw.AppendRow(table.Row{strconv.Itoa(r.Index + 1), r.Path})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d", len(results), total)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
