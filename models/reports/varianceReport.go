package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type VarianceLine struct {
	PurchaseOrderId       int              `json:"purchase_order_id"`
	OrderNumber           string           `json:"order_number"`
	PurchaseOrderDetailId int              `json:"purchase_order_detail_id"`
	ProductId             int              `json:"product_id"`
	ProductName           *string          `json:"product_name,omitempty"`
	OrderedBaseQuantity   decimal.Decimal  `json:"ordered_base_quantity"`
	ReceivedBaseQuantity  decimal.Decimal  `json:"received_base_quantity"`
	InvoicedBaseQuantity  decimal.Decimal  `json:"invoiced_base_quantity"`
	QuantityVariance      decimal.Decimal  `json:"quantity_variance"`
	OrderedUnitPrice      decimal.Decimal  `json:"ordered_unit_price"`
	InvoicedUnitPrice     *decimal.Decimal `json:"invoiced_unit_price"`
	PriceVariance         decimal.Decimal  `json:"price_variance"`
	PriceVariancePercent  decimal.Decimal  `json:"price_variance_percent"`
	InvoiceLineCount      int              `json:"invoice_line_count"`
}

type VarianceReport struct {
	Variances []*VarianceLine `json:"variances"`
}

// GetVarianceReport compares every purchase line with what was received and invoiced against
// it. Lines without invoice lines carry no invoiced price and a zero price variance.
func GetVarianceReport(ctx context.Context, purchaseOrderId *int) (*VarianceReport, error) {
	sqlTemplate := `
WITH Received AS (
    SELECT purchase_order_detail_id, SUM(base_quantity_received) AS qty
    FROM goods_receipt_details
    GROUP BY purchase_order_detail_id
),
Invoiced AS (
    SELECT
        purchase_order_detail_id,
        SUM(base_quantity) AS qty,
        AVG(unit_price) AS avg_price,
        COUNT(*) AS line_count
    FROM supplier_invoice_details
    GROUP BY purchase_order_detail_id
)
SELECT
    purchase_orders.id AS purchase_order_id,
    purchase_orders.order_number,
    pod.id AS purchase_order_detail_id,
    pod.product_id,
    products.name AS product_name,
    pod.base_quantity AS ordered_base_quantity,
    COALESCE(Received.qty, 0) AS received_base_quantity,
    COALESCE(Invoiced.qty, 0) AS invoiced_base_quantity,
    pod.unit_price AS ordered_unit_price,
    Invoiced.avg_price AS invoiced_unit_price,
    COALESCE(Invoiced.line_count, 0) AS invoice_line_count
FROM
    purchase_order_details pod
    JOIN purchase_orders ON purchase_orders.id = pod.purchase_order_id
    LEFT JOIN products ON products.id = pod.product_id
    LEFT JOIN Received ON Received.purchase_order_detail_id = pod.id
    LEFT JOIN Invoiced ON Invoiced.purchase_order_detail_id = pod.id
WHERE
    purchase_orders.business_id = @businessId
    {{- if .purchaseOrderId }} AND purchase_orders.id = @purchaseOrderId {{- end }}
ORDER BY
    purchase_orders.id, pod.id
`
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, models.ErrBusinessIdRequired
	}
	if purchaseOrderId != nil {
		if _, err := models.GetPurchaseOrder(ctx, *purchaseOrderId); err != nil {
			return nil, err
		}
	}
	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"purchaseOrderId": utils.DereferencePtr(purchaseOrderId, 0),
	})
	if err != nil {
		return nil, err
	}

	var lines []*VarianceLine
	if err := config.GetDB().WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId":      businessId,
		"purchaseOrderId": utils.DereferencePtr(purchaseOrderId, 0),
	}).Scan(&lines).Error; err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	for _, l := range lines {
		l.ReceivedBaseQuantity = l.ReceivedBaseQuantity.Round(models.UnitPrecision)
		l.InvoicedBaseQuantity = l.InvoicedBaseQuantity.Round(models.UnitPrecision)
		l.QuantityVariance = l.InvoicedBaseQuantity.Sub(l.ReceivedBaseQuantity)
		l.PriceVariance = decimal.Zero
		l.PriceVariancePercent = decimal.Zero
		if l.InvoicedUnitPrice == nil || l.InvoiceLineCount == 0 {
			l.InvoicedUnitPrice = nil
			continue
		}
		avg := l.InvoicedUnitPrice.Round(models.MoneyPrecision)
		l.InvoicedUnitPrice = &avg
		l.PriceVariance = avg.Sub(l.OrderedUnitPrice)
		if l.OrderedUnitPrice.IsPositive() {
			l.PriceVariancePercent = l.PriceVariance.Div(l.OrderedUnitPrice).Mul(hundred).Round(2)
		}
	}
	if lines == nil {
		lines = make([]*VarianceLine, 0)
	}
	return &VarianceReport{Variances: lines}, nil
}
