package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

var (
	keysUser     string
	keysDatabase string
	keysOutput   string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage database API keys",
	Long:  `Issue, list and revoke API keys. A key grants query access to one database.`,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create DATABASE_ID",
	Short: "Issue a new API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysCreate,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys of a database or user",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke KEY",
	Short: "Deactivate an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

func init() {
	keysCreateCmd.Flags().StringVar(&keysUser, "user", "", "owning user (default anonymous)")
	keysListCmd.Flags().StringVar(&keysDatabase, "database", "", "list keys of this database")
	keysListCmd.Flags().StringVar(&keysUser, "user", "", "list keys owned by this user")
	addOutputFlag(keysListCmd, &keysOutput)

	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	if apiKeyService == nil {
		return errors.New("api key service not configured")
	}

	key, err := apiKeyService.Generate(context.Background(), args[0], keysUser)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	cmd.Printf("API key for database %s (user %s):\n\n", key.DatabaseID, key.UserID)
	cmd.Printf("  %s\n\n", key.Key)
	cmd.Println("Store it now; it grants query access to this database.")
	return nil
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	if apiKeyService == nil {
		return errors.New("api key service not configured")
	}
	if (keysDatabase == "") == (keysUser == "") {
		return errors.New("pass exactly one of --database or --user")
	}

	ctx := context.Background()
	var (
		keys []domain.APIKey
		err  error
	)
	if keysDatabase != "" {
		keys, err = apiKeyService.ListForDatabase(ctx, keysDatabase)
	} else {
		keys, err = apiKeyService.ListForUser(ctx, keysUser)
	}
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	return render(cmd, keysOutput, keys, func() {
		if len(keys) == 0 {
			cmd.Println("No API keys found.")
			return
		}
		for i := range keys {
			state := "active"
			if !keys[i].Active {
				state = "revoked"
			}
			cmd.Printf("  %s  db=%s  user=%s  %s  %s\n",
				maskAPIKey(keys[i].Key), keys[i].DatabaseID, keys[i].UserID,
				keys[i].CreatedAt.Format("2006-01-02 15:04:05"), state)
		}
	})
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	if apiKeyService == nil {
		return errors.New("api key service not configured")
	}

	if err := apiKeyService.Revoke(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	cmd.Printf("API key %s revoked.\n", maskAPIKey(args[0]))
	return nil
}
