package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/export"
	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rank <votes-file>",
		Short: "Print the ranking and category utilization of a votes file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printRanking(cmd.OutOrStdout(), snap, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of candidates to print (default: all)")
	return cmd
}

func printRanking(w io.Writer, snap *repository.Snapshot, limit int) error {
	ranking := snap.Ranking
	if limit > 0 && limit < len(ranking) {
		ranking = ranking[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tCANDIDATE\tVOTES\tSCORE\t")
	for _, e := range ranking {
		mark := ""
		if e.Top {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s%d\t%s\t%s\t%s\t\n", mark, e.Rank, e.Name, humanize.Comma(int64(e.TotalVotes)), export.FormatScore(e.Score))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CATEGORY\tUSED\tMAX\tUSE\tSTATUS\t")
	for _, u := range snap.Usage {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", u.Label, humanize.Comma(int64(u.Used)), humanize.Comma(int64(u.Max)), export.FormatPercent(u.Percent), u.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s votes in %d categories, top score %s, %d over limit\n",
		humanize.Comma(int64(snap.Summary.TotalVotes)), snap.Summary.CategoriesUsed,
		export.FormatScore(snap.Summary.TopScore), snap.OverLimit)
	return err
}
