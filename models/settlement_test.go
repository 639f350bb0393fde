package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

func TestPaymentSettlesInvoiceAndBlocksCredit(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)

	payment, err := f.pay(inv.ID, "500", "500")
	if err != nil {
		t.Fatalf("pay 500: %v", err)
	}
	assertDecimal(t, "applied", payment.AppliedAmount, "500")
	if payment.PaymentNumber != "PAY-0001" {
		t.Fatalf("payment number = %s", payment.PaymentNumber)
	}

	paid := f.reloadInvoice(t, inv.ID)
	if paid.Status != models.SupplierInvoiceStatusPaid {
		t.Fatalf("invoice status = %s, want PAID", paid.Status)
	}
	assertDecimal(t, "outstanding", paid.OutstandingAmount, "0")

	_, err = f.credit(inv.ID, "50", "50")
	if !utils.IsValidation(err) {
		t.Fatalf("credit on a paid invoice: expected validation error, got %v", err)
	}
	if _, ok := utils.ValidationFields(err)["applications[0].amount"]; !ok {
		t.Fatalf("missing application amount error: %v", utils.ValidationFields(err))
	}
}

func TestPaymentApplicationLimits(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)

	if _, err := f.pay(inv.ID, "100", "150"); !utils.IsValidation(err) {
		t.Fatalf("applications above payment amount: expected validation error, got %v", err)
	}
	if _, err := f.pay(inv.ID, "600", "600"); !utils.IsValidation(err) {
		t.Fatalf("application above outstanding: expected validation error, got %v", err)
	}
	if _, err := f.pay(inv.ID, "0", ""); !utils.IsValidation(err) {
		t.Fatalf("zero payment: expected validation error, got %v", err)
	}

	// unapplied payment is allowed and leaves the invoice untouched
	if _, err := f.pay(inv.ID, "100", ""); err != nil {
		t.Fatalf("unapplied payment: %v", err)
	}
	assertDecimal(t, "outstanding", f.reloadInvoice(t, inv.ID).OutstandingAmount, "500")
}

func TestCreditUsesTotalMinusPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)

	if _, err := f.pay(inv.ID, "200", "200"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	credit, err := f.credit(inv.ID, "300", "250")
	if err != nil {
		t.Fatalf("credit 250: %v", err)
	}
	if credit.Status != models.SupplierCreditStatusPartiallyApplied {
		t.Fatalf("credit status = %s", credit.Status)
	}
	assertDecimal(t, "credit outstanding", credit.OutstandingAmount, "50")

	invoice := f.reloadInvoice(t, inv.ID)
	assertDecimal(t, "credited", invoice.CreditedAmount, "250")
	assertDecimal(t, "invoice outstanding", invoice.OutstandingAmount, "50")
	if invoice.Status != models.SupplierInvoiceStatusPartiallyPaid {
		t.Fatalf("credits must not move the paid status: %s", invoice.Status)
	}

	// total - paid is still 300, so a further 50 fits by default
	if _, err := f.credit(inv.ID, "50", "50"); err != nil {
		t.Fatalf("second credit under default remainder: %v", err)
	}
}

func TestStrictCreditRemainder(t *testing.T) {
	f := newFixture(t)
	t.Setenv("STRICT_CREDIT_REMAINDER", "true")
	inv := f.invoiceFor500(t)

	if _, err := f.credit(inv.ID, "400", "400"); err != nil {
		t.Fatalf("credit 400: %v", err)
	}
	if _, err := f.credit(inv.ID, "200", "200"); !utils.IsValidation(err) {
		t.Fatalf("credit beyond outstanding: expected validation error, got %v", err)
	}
}

func TestCreditStatusCannotBeDerivedValue(t *testing.T) {
	f := newFixture(t)
	status := models.SupplierCreditStatusFullyApplied
	_, err := models.CreateSupplierCredit(f.ctx, &models.NewSupplierCredit{
		SupplierId:  f.supplier.ID,
		CreditDate:  time.Now().UTC(),
		TotalAmount: dec("10"),
		Status:      &status,
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeletePaymentRules(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)

	payment, err := f.pay(inv.ID, "500", "500")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := models.DeleteSupplierPayment(f.ctx, payment.ID); !utils.IsConflict(err) {
		t.Fatalf("deleting a posted payment with applications: expected conflict, got %v", err)
	}

	applicationId := payment.Applications[0].ID
	detached, err := models.DeleteSupplierPaymentApplication(f.ctx, payment.ID, applicationId)
	if err != nil {
		t.Fatalf("DeleteSupplierPaymentApplication: %v", err)
	}
	assertDecimal(t, "applied after detach", detached.AppliedAmount, "0")

	reopened := f.reloadInvoice(t, inv.ID)
	if reopened.Status != models.SupplierInvoiceStatusPosted {
		t.Fatalf("invoice status after detach = %s, want POSTED", reopened.Status)
	}
	assertDecimal(t, "outstanding after detach", reopened.OutstandingAmount, "500")

	if _, err := models.DeleteSupplierPayment(f.ctx, payment.ID); err != nil {
		t.Fatalf("DeleteSupplierPayment: %v", err)
	}
	if _, err := models.GetSupplierPayment(f.ctx, payment.ID); !utils.IsNotFound(err) {
		t.Fatalf("payment still readable after delete: %v", err)
	}
}

func TestDeleteCreditRules(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)

	credit, err := f.credit(inv.ID, "100", "100")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if credit.Status != models.SupplierCreditStatusFullyApplied {
		t.Fatalf("credit status = %s, want FULLY_APPLIED", credit.Status)
	}
	if _, err := models.DeleteSupplierCredit(f.ctx, credit.ID); !utils.IsConflict(err) {
		t.Fatalf("deleting an applied credit: expected conflict, got %v", err)
	}

	detached, err := models.DeleteSupplierCreditApplication(f.ctx, credit.ID, credit.Applications[0].ID)
	if err != nil {
		t.Fatalf("DeleteSupplierCreditApplication: %v", err)
	}
	if detached.Status != models.SupplierCreditStatusPosted {
		t.Fatalf("credit status after detach = %s, want POSTED", detached.Status)
	}
	assertDecimal(t, "credited after detach", f.reloadInvoice(t, inv.ID).CreditedAmount, "0")
	if _, err := models.DeleteSupplierCredit(f.ctx, credit.ID); err != nil {
		t.Fatalf("deleting a credit without applications: %v", err)
	}

	draft := models.SupplierCreditStatusDraft
	draftCredit, err := models.CreateSupplierCredit(f.ctx, &models.NewSupplierCredit{
		SupplierId:  f.supplier.ID,
		CreditDate:  time.Now().UTC(),
		TotalAmount: dec("50"),
		Status:      &draft,
	})
	if err != nil {
		t.Fatalf("draft credit: %v", err)
	}
	if draftCredit.Status != models.SupplierCreditStatusDraft {
		t.Fatalf("unapplied draft status = %s", draftCredit.Status)
	}
	if _, err := models.DeleteSupplierCredit(f.ctx, draftCredit.ID); err != nil {
		t.Fatalf("deleting a draft credit: %v", err)
	}

	if _, err := models.DeleteSupplierCreditApplication(f.ctx, 9999, 1); !utils.IsNotFound(err) {
		t.Fatalf("unknown credit: expected not found, got %v", err)
	}
}
