package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

var (
	statusOutput string
	infoOutput   string
	listOutput   string
	listOwner    string

	updateName        string
	updateDescription string
	updateSector      string
)

var statusCmd = &cobra.Command{
	Use:   "status DATABASE_ID",
	Short: "Show the processing status of a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var infoCmd = &cobra.Command{
	Use:   "info DATABASE_ID",
	Short: "Show database metadata",
	Long: `Shows the metadata record of a database after checking it against its
vector collection. A completed database whose collection has disappeared is
reported as error.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete DATABASE_ID",
	Short: "Delete a database",
	Long:  `Removes the collection, uploads, inspection file, metadata and API keys of a database.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var updateCmd = &cobra.Command{
	Use:   "update DATABASE_ID",
	Short: "Update database name, description or sector",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	addOutputFlag(statusCmd, &statusOutput)
	addOutputFlag(infoCmd, &infoOutput)
	addOutputFlag(listCmd, &listOutput)
	listCmd.Flags().StringVar(&listOwner, "owner", "", "only databases created by this user")

	updateCmd.Flags().StringVar(&updateName, "name", "", "new name")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "new description")
	updateCmd.Flags().StringVar(&updateSector, "sector", "", "new sector")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(updateCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	id := args[0]
	status := databaseService.Status(context.Background(), id)

	out := map[string]string{"database_id": id, "status": status.String()}
	return render(cmd, statusOutput, out, func() {
		cmd.Println(status)
	})
}

func runInfo(cmd *cobra.Command, args []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	db, err := databaseService.Reconcile(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	return render(cmd, infoOutput, db, func() {
		printDatabase(cmd, db)
	})
}

func printDatabase(cmd *cobra.Command, db *domain.Database) {
	cmd.Printf("Database: %s\n\n", db.ID)
	cmd.Printf("  Name:        %s\n", db.Name)
	if db.Description != "" {
		cmd.Printf("  Description: %s\n", db.Description)
	}
	if db.Sector != "" {
		cmd.Printf("  Sector:      %s\n", db.Sector)
	}
	if db.CreatedBy != "" {
		cmd.Printf("  Owner:       %s\n", db.CreatedBy)
	}
	cmd.Printf("  Status:      %s\n", db.Status)
	if db.ErrorMessage != "" {
		cmd.Printf("  Error:       %s\n", db.ErrorMessage)
	}
	cmd.Printf("  Files:       %d (%s)\n", db.FileCount, formatBytes(db.TotalFileSize))
	cmd.Printf("  Chunks:      %d\n", db.DocumentCount)
	cmd.Printf("  Size:        %s\n", formatBytes(db.DatabaseSize))
	cmd.Printf("  Created:     %s\n", db.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", db.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func runList(cmd *cobra.Command, _ []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	dbs, err := databaseService.List(context.Background(), listOwner)
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	return render(cmd, listOutput, dbs, func() {
		if len(dbs) == 0 {
			cmd.Println("No databases found.")
			return
		}
		cmd.Printf("%-36s  %-20s  %-10s  %6s  %10s\n", "ID", "NAME", "STATUS", "CHUNKS", "SIZE")
		for i := range dbs {
			cmd.Printf("%-36s  %-20s  %-10s  %6d  %10s\n",
				dbs[i].ID, truncate(dbs[i].Name, 20), dbs[i].Status, dbs[i].DocumentCount, formatBytes(dbs[i].DatabaseSize))
		}
		cmd.Printf("\nTotal: %d databases\n", len(dbs))
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	if err := databaseService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	cmd.Printf("Database %s deleted.\n", args[0])
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	var update domain.DatabaseUpdate
	if cmd.Flags().Changed("name") {
		update.Name = &updateName
	}
	if cmd.Flags().Changed("description") {
		update.Description = &updateDescription
	}
	if cmd.Flags().Changed("sector") {
		update.Sector = &updateSector
	}
	if update.IsEmpty() {
		return errors.New("nothing to update: pass --name, --description or --sector")
	}

	ok, err := databaseService.UpdateMetadata(context.Background(), args[0], update)
	if err != nil {
		return fmt.Errorf("failed to update database: %w", err)
	}
	if !ok {
		return fmt.Errorf("database %s not found", args[0])
	}
	cmd.Printf("Database %s updated.\n", args[0])
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
