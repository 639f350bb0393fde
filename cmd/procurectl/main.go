package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

var rootCmd = &cobra.Command{
	Use:   "procurectl",
	Short: "Maintenance commands for the procurement backend",
	Long: `procurectl runs one-off maintenance jobs against the procurement database:
schema migration, balance rebuilds, reconciliation checks and development seed data.

Connection settings come from the same environment variables as the server
(DB_DRIVER, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.ConnectDatabaseWithRetry()
		if config.GetDB() == nil {
			return fmt.Errorf("database not initialized")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		config.CloseDatabase()
	},
}

func init() {
	rootCmd.PersistentFlags().String("business-id", "", "Business id the command runs for")
}

// businessContext returns a system context for the required --business-id flag.
func businessContext(cmd *cobra.Command) (context.Context, string, error) {
	businessId, _ := cmd.Flags().GetString("business-id")
	businessId = strings.TrimSpace(businessId)
	if businessId == "" {
		return nil, "", fmt.Errorf("--business-id is required")
	}
	return utils.SystemContext(cmd.Context(), businessId), businessId, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
