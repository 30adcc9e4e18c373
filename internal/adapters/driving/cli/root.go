// Package cli implements the vdb command line interface with cobra.
//
// Services are injected once by main through SetServices; every command
// reads them from package state and fails cleanly when one is missing.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vdb/internal/core/ports/driving"
	"github.com/custodia-labs/vdb/internal/logger"
)

// version is set at build time via ldflags or SetVersion.
var version = "dev"

var verbose bool

var (
	databaseService driving.DatabaseService
	queryService    driving.QueryService
	apiKeyService   driving.APIKeyService
	usageService    driving.UsageService
	settingsService driving.SettingsService
)

// Services holds the driving ports the CLI dispatches to.
type Services struct {
	Database driving.DatabaseService
	Query    driving.QueryService
	APIKeys  driving.APIKeyService
	Usage    driving.UsageService
	Settings driving.SettingsService
}

// SetServices injects the driving ports.
func SetServices(s Services) {
	databaseService = s.Database
	queryService = s.Query
	apiKeyService = s.APIKeys
	usageService = s.Usage
	settingsService = s.Settings
}

// SetVersion sets the version string reported by "vdb version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "vdb",
	Short: "Build and query vector databases from documents",
	Long: `vdb turns uploaded documents into searchable vector databases.

Files are extracted to text, split into chunks, embedded with the configured
provider and stored in a per-database collection. Databases are queried
directly or through API keys, which also drive usage accounting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
