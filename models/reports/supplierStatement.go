package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

type StatementInvoice struct {
	SupplierInvoiceId int                          `json:"supplier_invoice_id"`
	InvoiceNumber     string                       `json:"invoice_number"`
	InvoiceDate       *time.Time                   `json:"invoice_date"`
	DueDate           *time.Time                   `json:"due_date"`
	TotalAmount       decimal.Decimal              `json:"total_amount"`
	PaidAmount        decimal.Decimal              `json:"paid_amount"`
	CreditAmount      decimal.Decimal              `json:"credit_amount"`
	OutstandingAmount decimal.Decimal              `json:"outstanding_amount"`
	Status            models.SupplierInvoiceStatus `json:"status"`
}

type StatementApplication struct {
	SupplierInvoiceId int             `json:"supplier_invoice_id"`
	Amount            decimal.Decimal `json:"amount"`
}

type StatementPayment struct {
	SupplierPaymentId int                     `json:"supplier_payment_id"`
	PaymentNumber     string                  `json:"payment_number"`
	PaymentDate       time.Time               `json:"payment_date"`
	Amount            decimal.Decimal         `json:"amount"`
	Applications      []*StatementApplication `json:"applications"`
}

type StatementCredit struct {
	SupplierCreditId  int                         `json:"supplier_credit_id"`
	CreditNumber      string                      `json:"credit_number"`
	CreditDate        time.Time                   `json:"credit_date"`
	TotalAmount       decimal.Decimal             `json:"total_amount"`
	AppliedAmount     decimal.Decimal             `json:"applied_amount"`
	OutstandingAmount decimal.Decimal             `json:"outstanding_amount"`
	Status            models.SupplierCreditStatus `json:"status"`
}

type StatementSummary struct {
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalCredited    decimal.Decimal `json:"total_credited"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

type SupplierStatement struct {
	SupplierId   int                 `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	Invoices     []*StatementInvoice `json:"invoices"`
	Payments     []*StatementPayment `json:"payments"`
	Credits      []*StatementCredit  `json:"credits"`
	Summary      StatementSummary    `json:"summary"`
}

// GetSupplierStatement lists a supplier's invoices, payments and credits as stored. Total paid
// is the sum of payment amounts, applied or not.
func GetSupplierStatement(ctx context.Context, supplierId int) (*SupplierStatement, error) {
	supplier, err := models.GetSupplier(ctx, supplierId)
	if err != nil {
		return nil, err
	}
	invoices, err := models.ListSupplierInvoices(ctx, &supplierId, nil)
	if err != nil {
		return nil, err
	}
	payments, err := models.ListSupplierPayments(ctx, &supplierId)
	if err != nil {
		return nil, err
	}
	credits, err := models.ListSupplierCredits(ctx, &supplierId)
	if err != nil {
		return nil, err
	}

	creditByInvoice := make(map[int]decimal.Decimal)
	for _, c := range credits {
		for _, app := range c.Applications {
			creditByInvoice[app.SupplierInvoiceId] = creditByInvoice[app.SupplierInvoiceId].Add(app.Amount)
		}
	}

	statement := &SupplierStatement{
		SupplierId:   supplier.ID,
		SupplierName: supplier.Name,
		Invoices:     make([]*StatementInvoice, 0, len(invoices)),
		Payments:     make([]*StatementPayment, 0, len(payments)),
		Credits:      make([]*StatementCredit, 0, len(credits)),
		Summary: StatementSummary{
			TotalInvoiced:    decimal.Zero,
			TotalPaid:        decimal.Zero,
			TotalCredited:    decimal.Zero,
			TotalOutstanding: decimal.Zero,
		},
	}
	for _, inv := range invoices {
		statement.Invoices = append(statement.Invoices, &StatementInvoice{
			SupplierInvoiceId: inv.ID,
			InvoiceNumber:     inv.InvoiceNumber,
			InvoiceDate:       inv.InvoiceDate,
			DueDate:           inv.DueDate,
			TotalAmount:       inv.TotalAmount,
			PaidAmount:        inv.PaidAmount,
			CreditAmount:      creditByInvoice[inv.ID],
			OutstandingAmount: inv.OutstandingAmount,
			Status:            inv.Status,
		})
		statement.Summary.TotalInvoiced = statement.Summary.TotalInvoiced.Add(inv.TotalAmount)
		statement.Summary.TotalOutstanding = statement.Summary.TotalOutstanding.Add(inv.OutstandingAmount)
	}
	for _, p := range payments {
		sp := &StatementPayment{
			SupplierPaymentId: p.ID,
			PaymentNumber:     p.PaymentNumber,
			PaymentDate:       p.PaymentDate,
			Amount:            p.Amount,
			Applications:      make([]*StatementApplication, 0, len(p.Applications)),
		}
		for _, app := range p.Applications {
			sp.Applications = append(sp.Applications, &StatementApplication{
				SupplierInvoiceId: app.SupplierInvoiceId,
				Amount:            app.Amount,
			})
		}
		statement.Payments = append(statement.Payments, sp)
		statement.Summary.TotalPaid = statement.Summary.TotalPaid.Add(p.Amount)
	}
	for _, c := range credits {
		statement.Credits = append(statement.Credits, &StatementCredit{
			SupplierCreditId:  c.ID,
			CreditNumber:      c.CreditNumber,
			CreditDate:        c.CreditDate,
			TotalAmount:       c.TotalAmount,
			AppliedAmount:     c.AppliedAmount,
			OutstandingAmount: c.OutstandingAmount,
			Status:            c.Status,
		})
		statement.Summary.TotalCredited = statement.Summary.TotalCredited.Add(c.AppliedAmount)
	}
	return statement, nil
}
