package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

var (
	searchLimit int
	searchTags  []string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search document content",
	Long:  `Performs full-text search across all parsed documents.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "only return documents carrying all of these tags")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{
		Limit: searchLimit,
		Tags:  searchTags,
	})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		name := results[i].Document.OriginalName
		if name == "" {
			name = results[i].Document.ID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, name, results[i].Score)
		if len(results[i].Highlights) > 0 {
			cmd.Printf("      %s\n", results[i].Highlights[0])
		}
		cmd.Println()
	}
	return nil
}
