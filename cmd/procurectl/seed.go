package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load development master data for a business",
	Long: `Creates a "Count" unit category (Each, Dozen, Box of 24), a "Weight" category
(Gram, Kilogram), a sample supplier and two products. Businesses that already
have unit categories are left untouched.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedUnit struct {
	name   string
	abbr   string
	rate   string
	isBase bool
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, businessId, err := businessContext(cmd)
	if err != nil {
		return err
	}
	existing, err := models.ListUnitCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "business %s already has %d unit categories; nothing to do\n", businessId, len(existing))
		return nil
	}

	count, err := seedCategory(ctx, "Count", []seedUnit{
		{"Each", "ea", "1", true},
		{"Dozen", "dz", "12", false},
		{"Box of 24", "box", "24", false},
	})
	if err != nil {
		return err
	}
	weight, err := seedCategory(ctx, "Weight", []seedUnit{
		{"Gram", "g", "1", true},
		{"Kilogram", "kg", "1000", false},
	})
	if err != nil {
		return err
	}

	terms := 30
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name:         "Sample Supplier",
		Email:        "ap@sample-supplier.test",
		PaymentTerms: &terms,
	})
	if err != nil {
		return err
	}
	products := []models.NewProduct{
		{Name: "Widget", Sku: "WID-001", UnitCategoryId: count.ID, PurchasePrice: decimal.RequireFromString("10.00")},
		{Name: "Flour", Sku: "FLR-001", UnitCategoryId: weight.ID, PurchasePrice: decimal.RequireFromString("0.002")},
	}
	for i := range products {
		if _, err := models.CreateProduct(ctx, &products[i]); err != nil {
			return err
		}
	}

	config.GetLogger().WithFields(logrus.Fields{
		"business_id": businessId,
		"supplier_id": supplier.ID,
	}).Info("seed data created")
	fmt.Fprintf(cmd.OutOrStdout(), "seeded business %s\n", businessId)
	return nil
}

func seedCategory(ctx context.Context, name string, units []seedUnit) (*models.UnitCategory, error) {
	category, err := models.CreateUnitCategory(ctx, &models.NewUnitCategory{Name: name})
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if _, err := models.CreateUom(ctx, &models.NewUom{
			UnitCategoryId: category.ID,
			Name:           u.name,
			Abbreviation:   u.abbr,
			ConversionRate: decimal.RequireFromString(u.rate),
			BaseUnit:       u.isBase,
		}); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.name, err)
		}
	}
	return category, nil
}
