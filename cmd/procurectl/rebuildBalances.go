package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

var rebuildBalancesCmd = &cobra.Command{
	Use:   "rebuild-balances",
	Short: "Recompute stored invoice, payment and credit balances",
	Long: `Recomputes paid amounts, outstanding balances and statuses from the stored
settlement applications. Running it twice gives the same result.`,
	Example: `  # Every document of a business
  procurectl rebuild-balances --business-id 7d1c...

  # A single supplier invoice
  procurectl rebuild-balances --business-id 7d1c... --invoice-id 42`,
	RunE: runRebuildBalances,
}

func init() {
	rootCmd.AddCommand(rebuildBalancesCmd)
	rebuildBalancesCmd.Flags().Int("invoice-id", 0, "Only rebuild this supplier invoice")
}

func runRebuildBalances(cmd *cobra.Command, args []string) error {
	ctx, businessId, err := businessContext(cmd)
	if err != nil {
		return err
	}
	var invoiceId *int
	if id, _ := cmd.Flags().GetInt("invoice-id"); id > 0 {
		invoiceId = &id
	}
	count, err := models.RebuildBalances(ctx, invoiceId)
	if err != nil {
		return err
	}
	config.GetLogger().WithFields(logrus.Fields{
		"business_id": businessId,
		"documents":   count,
	}).Info("balances rebuilt")
	fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d documents\n", count)
	return nil
}
