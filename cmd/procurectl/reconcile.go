package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/workflow"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check stored quantities and balances against their sources",
	Long: `Compares received and invoiced quantities with purchase order lines and
stored balances with settlement applications. Mismatches are saved as
reconciliation reports and printed. Without --business-id every business
that has suppliers is checked.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().Bool("fail-on-mismatch", false, "Exit non-zero when any mismatch is found")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	logger := config.GetLogger()
	businessId, _ := cmd.Flags().GetString("business-id")
	failOnMismatch, _ := cmd.Flags().GetBool("fail-on-mismatch")

	businessIds := []string{businessId}
	if businessId == "" {
		ids, err := models.ListBusinessIds(cmd.Context())
		if err != nil {
			return err
		}
		businessIds = ids
	}

	total := 0
	for _, id := range businessIds {
		found, err := workflow.RunReconciliationChecks(cmd.Context(), logger, id)
		if err != nil {
			return fmt.Errorf("business %s: %w", id, err)
		}
		for _, r := range found {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s #%d\t%s\n", id, r.CheckType, r.EntityType, r.EntityId, r.Details)
		}
		total += len(found)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d mismatches in %d businesses\n", total, len(businessIds))
	if failOnMismatch && total > 0 {
		return fmt.Errorf("%d reconciliation mismatches", total)
	}
	return nil
}
