package models

import (
	"encoding/json"
	"errors"
)

func unmarshalEnum[T ~string](data []byte, allowed map[string]T, name string) (T, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return "", errors.New(name + " must be string")
	}
	v, ok := allowed[str]
	if !ok {
		return "", errors.New("invalid " + name)
	}
	return v, nil
}

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "Confirmed"
	PurchaseOrderStatusPartial   PurchaseOrderStatus = "Partially Received"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "Closed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "Cancelled"
)

func (s *PurchaseOrderStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, map[string]PurchaseOrderStatus{
		"Draft":              PurchaseOrderStatusDraft,
		"Confirmed":          PurchaseOrderStatusConfirmed,
		"Partially Received": PurchaseOrderStatusPartial,
		"Closed":             PurchaseOrderStatusClosed,
		"Cancelled":          PurchaseOrderStatusCancelled,
	}, "purchase order status")
	return err
}

type PurchaseOrderItemStatus string

const (
	PurchaseOrderItemStatusNew      PurchaseOrderItemStatus = "New"
	PurchaseOrderItemStatusPartial  PurchaseOrderItemStatus = "Partial"
	PurchaseOrderItemStatusReceived PurchaseOrderItemStatus = "Received"
)

type GoodsReceiptStatus string

const (
	GoodsReceiptStatusPending  GoodsReceiptStatus = "PENDING"
	GoodsReceiptStatusPartial  GoodsReceiptStatus = "PARTIAL"
	GoodsReceiptStatusComplete GoodsReceiptStatus = "COMPLETE"
)

type SupplierInvoiceStatus string

const (
	SupplierInvoiceStatusDraft         SupplierInvoiceStatus = "DRAFT"
	SupplierInvoiceStatusPosted        SupplierInvoiceStatus = "POSTED"
	SupplierInvoiceStatusPartiallyPaid SupplierInvoiceStatus = "PARTIALLY_PAID"
	SupplierInvoiceStatusPaid          SupplierInvoiceStatus = "PAID"
	SupplierInvoiceStatusClosed        SupplierInvoiceStatus = "CLOSED"
)

func (s *SupplierInvoiceStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, map[string]SupplierInvoiceStatus{
		"DRAFT":          SupplierInvoiceStatusDraft,
		"POSTED":         SupplierInvoiceStatusPosted,
		"PARTIALLY_PAID": SupplierInvoiceStatusPartiallyPaid,
		"PAID":           SupplierInvoiceStatusPaid,
		"CLOSED":         SupplierInvoiceStatusClosed,
	}, "supplier invoice status")
	return err
}

type SupplierPaymentStatus string

const (
	SupplierPaymentStatusDraft  SupplierPaymentStatus = "DRAFT"
	SupplierPaymentStatusPosted SupplierPaymentStatus = "POSTED"
)

func (s *SupplierPaymentStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, map[string]SupplierPaymentStatus{
		"DRAFT":  SupplierPaymentStatusDraft,
		"POSTED": SupplierPaymentStatusPosted,
	}, "supplier payment status")
	return err
}

type SupplierCreditStatus string

const (
	SupplierCreditStatusDraft            SupplierCreditStatus = "DRAFT"
	SupplierCreditStatusPosted           SupplierCreditStatus = "POSTED"
	SupplierCreditStatusPartiallyApplied SupplierCreditStatus = "PARTIALLY_APPLIED"
	SupplierCreditStatusFullyApplied     SupplierCreditStatus = "FULLY_APPLIED"
)

func (s *SupplierCreditStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, map[string]SupplierCreditStatus{
		"DRAFT":             SupplierCreditStatusDraft,
		"POSTED":            SupplierCreditStatusPosted,
		"PARTIALLY_APPLIED": SupplierCreditStatusPartiallyApplied,
		"FULLY_APPLIED":     SupplierCreditStatusFullyApplied,
	}, "supplier credit status")
	return err
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodCheque       PaymentMethod = "Cheque"
	PaymentMethodCredit       PaymentMethod = "Credit"
)

func (s *PaymentMethod) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, map[string]PaymentMethod{
		"":              "",
		"Cash":          PaymentMethodCash,
		"Bank Transfer": PaymentMethodBankTransfer,
		"Cheque":        PaymentMethodCheque,
		"Credit":        PaymentMethodCredit,
	}, "payment method")
	return err
}

// DocumentReferenceType names a document kind in histories and document events.
type DocumentReferenceType string

const (
	DocumentReferenceTypePurchaseOrder   DocumentReferenceType = "PO"
	DocumentReferenceTypeGoodsReceipt    DocumentReferenceType = "GRN"
	DocumentReferenceTypeSupplierInvoice DocumentReferenceType = "AP"
	DocumentReferenceTypeSupplierPayment DocumentReferenceType = "PAY"
	DocumentReferenceTypeSupplierCredit  DocumentReferenceType = "CREDIT"
	DocumentReferenceTypeUom             DocumentReferenceType = "UOM"
)

type DocumentAction string

const (
	DocumentActionCreate DocumentAction = "C"
	DocumentActionUpdate DocumentAction = "U"
	DocumentActionDelete DocumentAction = "D"
)
