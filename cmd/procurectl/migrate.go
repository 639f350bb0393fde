package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Runs AutoMigrate for every table. Use it when the server runs with
SKIP_MIGRATIONS=true.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.MigrateTable(); err != nil {
			return err
		}
		config.GetLogger().WithFields(logrus.Fields{"field": "migrations"}).Info("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
