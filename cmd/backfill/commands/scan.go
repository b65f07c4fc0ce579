package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fortuna/clueboard/internal/artifact"
)

var scanData *string

func init() {
	scanData = scanCmd.Flags().String("data", getEnv("DATA_DIR", artifact.DefaultRoot), "Directory holding the artifacts.")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [--data <dir>]",
	Short: "Loads every stored transcript, logging the ones that cannot be read.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := artifact.Scan(*scanData)
		if err != nil {
			return err
		}

		summary := summarize(results)
		for _, r := range results {
			if !r.OK() {
				slog.Warn("skipping artifact", "path", r.Path, "status", r.Status, "reason", r.Reason)
			}
		}

		slog.Info("scan complete",
			"files", summary.Files,
			"ok", summary.OK,
			"skipped", summary.Skipped,
			"clues", summary.Clues,
			"triple_stumpers", summary.TripleStumpers,
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d transcripts, %d skipped, %d clues\n", summary.OK, summary.Skipped, summary.Clues)
		return nil
	},
}

type scanSummary struct {
	Files          int
	OK             int
	Skipped        int
	Clues          int
	TripleStumpers int
}

func summarize(results []artifact.Result) scanSummary {
	s := scanSummary{Files: len(results)}
	for _, r := range results {
		if !r.OK() {
			s.Skipped++
			continue
		}
		s.OK++
		s.Clues += r.Transcript.ClueCount()
		s.TripleStumpers += r.Transcript.TripleStumpers()
	}
	return s
}
