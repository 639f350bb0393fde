package reports

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type APAgingDetail struct {
	SupplierInvoiceId int                          `json:"supplier_invoice_id"`
	InvoiceNumber     string                       `json:"invoice_number"`
	InvoiceDate       *time.Time                   `json:"invoice_date"`
	DueDate           time.Time                    `json:"due_date"`
	Status            models.SupplierInvoiceStatus `json:"status"`
	SupplierId        int                          `json:"supplier_id"`
	SupplierName      *string                      `json:"supplier_name,omitempty"`
	DaysPastDue       int                          `json:"days_past_due"`
	TotalAmount       decimal.Decimal              `json:"total_amount"`
	OutstandingAmount decimal.Decimal              `json:"outstanding_amount"`
}

type APAgingBucket struct {
	Range            string           `json:"range"`
	Count            int              `json:"count"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
	Invoices         []*APAgingDetail `json:"invoices"`
}

type APAgingReport struct {
	AsOf    time.Time        `json:"as_of"`
	Buckets []*APAgingBucket `json:"buckets"`
}

type agingRange struct {
	label string
	from  int
	to    int
}

var agingRanges = []agingRange{
	{"0-30", 0, 30},
	{"31-60", 31, 60},
	{"61-90", 61, 90},
	{"90+", 91, math.MaxInt32},
}

// daysPastDue is floor((asOf - dueDate) / 24h).
func daysPastDue(asOf time.Time, dueDate time.Time) int {
	return int(math.Floor(asOf.Sub(dueDate).Hours() / 24))
}

// GetAPAgingReport groups posted and partially paid invoices with a due date by days past due.
// Invoices that are not yet due fall in no bucket.
func GetAPAgingReport(ctx context.Context, asOf time.Time) (*APAgingReport, error) {
	sql := `
SELECT
    supplier_invoices.id AS supplier_invoice_id,
    supplier_invoices.invoice_number,
    supplier_invoices.invoice_date,
    supplier_invoices.due_date,
    supplier_invoices.status,
    supplier_invoices.supplier_id,
    suppliers.name AS supplier_name,
    supplier_invoices.total_amount,
    supplier_invoices.outstanding_amount
FROM
    supplier_invoices
    LEFT JOIN suppliers ON suppliers.id = supplier_invoices.supplier_id
WHERE
    supplier_invoices.business_id = @businessId
    AND supplier_invoices.status IN @statuses
    AND supplier_invoices.due_date IS NOT NULL
ORDER BY
    supplier_invoices.due_date, supplier_invoices.id
`
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, models.ErrBusinessIdRequired
	}
	var details []*APAgingDetail
	if err := config.GetDB().WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId": businessId,
		"statuses": []models.SupplierInvoiceStatus{
			models.SupplierInvoiceStatusPosted,
			models.SupplierInvoiceStatusPartiallyPaid,
		},
	}).Scan(&details).Error; err != nil {
		return nil, err
	}

	report := &APAgingReport{AsOf: asOf}
	for _, r := range agingRanges {
		report.Buckets = append(report.Buckets, &APAgingBucket{
			Range:            r.label,
			TotalOutstanding: decimal.Zero,
			Invoices:         make([]*APAgingDetail, 0),
		})
	}
	for _, d := range details {
		d.DaysPastDue = daysPastDue(asOf, d.DueDate)
		for i, r := range agingRanges {
			if d.DaysPastDue >= r.from && d.DaysPastDue <= r.to {
				bucket := report.Buckets[i]
				bucket.Invoices = append(bucket.Invoices, d)
				bucket.Count++
				bucket.TotalOutstanding = bucket.TotalOutstanding.Add(d.OutstandingAmount)
				break
			}
		}
	}
	return report, nil
}
