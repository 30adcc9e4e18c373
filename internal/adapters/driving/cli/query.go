package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

var (
	queryNResults int
	queryModel    string
	queryAPIKey   string
	queryOutput   string
)

var queryCmd = &cobra.Command{
	Use:   "query [DATABASE_ID] TEXT",
	Short: "Find the chunks closest to a query",
	Long: `Embeds the query text and returns the nearest chunks of a database.

With --api-key the database is taken from the key, the query is counted in
the usage ledger and the database must be completed.

Examples:
  vdb query 3f2a... "what is the refund policy"
  vdb query --api-key vdb-XXXX "what is the refund policy"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if queryAPIKey != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryNResults, "n-results", "n", 0, "maximum number of results (default from settings)")
	queryCmd.Flags().StringVar(&queryModel, "model", "", "embedding model (must match the one used at ingestion)")
	queryCmd.Flags().StringVar(&queryAPIKey, "api-key", "", "query through an API key")
	addOutputFlag(queryCmd, &queryOutput)
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx := context.Background()
	var (
		results []domain.QueryResult
		err     error
	)
	if queryAPIKey != "" {
		results, err = queryService.QueryWithKey(ctx, queryAPIKey, args[0], queryNResults, queryModel)
	} else {
		results, err = queryService.Query(ctx, domain.QueryRequest{
			DatabaseID: args[0],
			Text:       args[1],
			NResults:   queryNResults,
			Model:      queryModel,
		})
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return render(cmd, queryOutput, results, func() {
		if len(results) == 0 {
			cmd.Println("No results found.")
			return
		}
		cmd.Println("Results:")
		cmd.Println()
		for i, r := range results {
			cmd.Printf("  [%d] %s (%.4f)\n", i+1, r.Source, r.Score)
			cmd.Printf("      %s\n", truncate(r.Text, 200))
			cmd.Println()
		}
	})
}
