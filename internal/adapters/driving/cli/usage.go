package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var (
	usageUser   string
	usageKey    string
	usageOutput string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show query usage",
	Long: `Shows the usage ledger: queries per user and per API key.

Without flags the whole ledger is shown. Use --output json to export it.`,
	Args: cobra.NoArgs,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&usageUser, "user", "", "usage of one user")
	usageCmd.Flags().StringVar(&usageKey, "key", "", "usage of one API key")
	addOutputFlag(usageCmd, &usageOutput)
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	if usageService == nil {
		return errors.New("usage service not configured")
	}
	if usageUser != "" && usageKey != "" {
		return errors.New("pass at most one of --user or --key")
	}

	ctx := context.Background()
	switch {
	case usageUser != "":
		u, err := usageService.UserUsage(ctx, usageUser)
		if err != nil {
			return fmt.Errorf("failed to read usage: %w", err)
		}
		return render(cmd, usageOutput, u, func() {
			cmd.Printf("User %s: %d queries\n", usageUser, u.TotalQueries)
			for _, db := range slices.Sorted(maps.Keys(u.Databases)) {
				cmd.Printf("  %s  %d\n", db, u.Databases[db])
			}
		})

	case usageKey != "":
		k, err := usageService.KeyUsage(ctx, usageKey)
		if err != nil {
			return fmt.Errorf("failed to read usage: %w", err)
		}
		return render(cmd, usageOutput, k, func() {
			cmd.Printf("Key %s: %d queries on database %s\n", maskAPIKey(usageKey), k.TotalQueries, k.DatabaseID)
		})

	default:
		report, err := usageService.AllUsage(ctx)
		if err != nil {
			return fmt.Errorf("failed to read usage: %w", err)
		}
		return render(cmd, usageOutput, report, func() {
			if len(report.Users) == 0 {
				cmd.Println("No queries recorded.")
				return
			}
			cmd.Println("Users:")
			for _, id := range slices.Sorted(maps.Keys(report.Users)) {
				cmd.Printf("  %-24s %d\n", id, report.Users[id].TotalQueries)
			}
			cmd.Println("API keys:")
			for _, key := range slices.Sorted(maps.Keys(report.APIKeys)) {
				k := report.APIKeys[key]
				cmd.Printf("  %-24s %d  db=%s\n", maskAPIKey(key), k.TotalQueries, k.DatabaseID)
			}
		})
	}
}
