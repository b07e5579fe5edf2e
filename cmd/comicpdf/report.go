// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/comicpdf/internal/process"
	"github.com/pdiddy/comicpdf/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Print a run report written by convert --report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := process.ReadReport(args[0])
		if err != nil {
			return err
		}
		failedOnly, _ := cmd.Flags().GetBool("failed")
		return printReport(os.Stdout, summary, failedOnly)
	},
}

func init() {
	reportCmd.Flags().Bool("failed", false, "list only failed archives and chapters")

	rootCmd.AddCommand(reportCmd)
}

// printReport writes one line per chapter followed by the run totals.
func printReport(w io.Writer, s types.RunSummary, failedOnly bool) error {
	if s.NothingFound {
		fmt.Fprintln(w, "No archives found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVE\tCHAPTER\tSTATUS\tPAGES\tERROR")
	for _, a := range s.Archives {
		if failedOnly && !a.Failed() {
			continue
		}
		if a.Error != "" && !hasFailedChapter(a) {
			fmt.Fprintf(tw, "%s\t-\t%s\t-\t%s\n", a.File, types.ChapterFailed, a.Error)
		}
		for _, c := range a.Chapters {
			if failedOnly && c.Status != types.ChapterFailed {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.File, c.Name, c.Status, c.Pages, c.Error)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d archive(s): %d generated, %d skipped, %d failed (%s)\n",
		s.Processed, s.Generated, s.Skipped, s.Failed, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	return err
}

func hasFailedChapter(a types.ArchiveResult) bool {
	for _, c := range a.Chapters {
		if c.Status == types.ChapterFailed {
			return true
		}
	}
	return false
}
