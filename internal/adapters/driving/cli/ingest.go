package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestTags []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Bring local files under management",
	Long: `Copies local files into the managed storage namespace, writes their
sidecars, parses their content, and records them in the database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVarP(&ingestTags, "tag", "t", nil, "tags to attach to the documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	failed := 0

	for _, path := range args {
		doc, err := ingestService.Ingest(ctx, path, ingestTags)
		if err != nil {
			if doc != nil {
				// Recorded but not parsed; sync --reparse can retry.
				cmd.Printf("  %s -> %s (status %s: %v)\n", path, doc.ID, doc.Status, err)
				continue
			}
			cmd.Printf("  %s: FAILED: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("  %s -> %s (%d pages)\n", path, doc.ID, doc.PageCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}
