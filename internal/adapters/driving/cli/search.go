package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calder-labs/mirador/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [tenant-id] [query]",
	Short: "Search a tenant's indexed documents",
	Long: `Embeds the query and runs a similarity search over the
tenant's vector namespace.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearchCmd,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	tenantID, query := args[0], args[1]

	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	hits, err := app.searcher.Search(ctx, tenantID, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range hits {
		h := &hits[i]
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, h.Name, h.Position, h.Similarity)

		snippet := h.Text
		if len(snippet) > 160 {
			snippet = snippet[:160] + "..."
		}
		cmd.Printf("      %s\n", snippet)
	}
	return nil
}
