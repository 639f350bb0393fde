package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func listPurchaseOrders(c *gin.Context) {
	supplierId, ok := queryId(c, "supplier_id")
	if !ok {
		return
	}
	var status *models.PurchaseOrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PurchaseOrderStatus(raw)
		status = &s
	}
	results, err := models.ListPurchaseOrders(c.Request.Context(), supplierId, status)
	respond(c, "purchase_order", "list", http.StatusOK, results, err)
}

func getPurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetPurchaseOrder(c.Request.Context(), id)
	respond(c, "purchase_order", "get", http.StatusOK, result, err)
}

func createPurchaseOrder(c *gin.Context) {
	var input models.NewPurchaseOrder
	if !bindJSON(c, "purchase_order", "create", &input) {
		return
	}
	result, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
	respond(c, "purchase_order", "create", http.StatusCreated, result, err)
}

func updatePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPurchaseOrder
	if !bindJSON(c, "purchase_order", "update", &input) {
		return
	}
	result, err := models.UpdatePurchaseOrder(c.Request.Context(), id, &input)
	respond(c, "purchase_order", "update", http.StatusOK, result, err)
}

func deletePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeletePurchaseOrder(c.Request.Context(), id)
	respond(c, "purchase_order", "delete", http.StatusOK, result, err)
}

func getPurchaseOrderReceiptSummary(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetPurchaseOrderReceiptSummary(c.Request.Context(), id)
	respond(c, "purchase_order", "receipt_summary", http.StatusOK, result, err)
}

func listGoodsReceipts(c *gin.Context) {
	purchaseOrderId, ok := queryId(c, "purchase_order_id")
	if !ok {
		return
	}
	results, err := models.ListGoodsReceipts(c.Request.Context(), purchaseOrderId)
	respond(c, "goods_receipt", "list", http.StatusOK, results, err)
}

func getGoodsReceipt(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetGoodsReceipt(c.Request.Context(), id)
	respond(c, "goods_receipt", "get", http.StatusOK, result, err)
}

func createGoodsReceipt(c *gin.Context) {
	var input models.NewGoodsReceipt
	if !bindJSON(c, "goods_receipt", "create", &input) {
		return
	}
	result, err := models.CreateGoodsReceipt(c.Request.Context(), &input)
	respond(c, "goods_receipt", "create", http.StatusCreated, result, err)
}

func updateGoodsReceipt(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewGoodsReceipt
	if !bindJSON(c, "goods_receipt", "update", &input) {
		return
	}
	result, err := models.UpdateGoodsReceipt(c.Request.Context(), id, &input)
	respond(c, "goods_receipt", "update", http.StatusOK, result, err)
}

func deleteGoodsReceipt(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteGoodsReceipt(c.Request.Context(), id)
	respond(c, "goods_receipt", "delete", http.StatusOK, result, err)
}

func listSupplierInvoices(c *gin.Context) {
	supplierId, ok := queryId(c, "supplier_id")
	if !ok {
		return
	}
	var status *models.SupplierInvoiceStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SupplierInvoiceStatus(raw)
		status = &s
	}
	results, err := models.ListSupplierInvoices(c.Request.Context(), supplierId, status)
	respond(c, "supplier_invoice", "list", http.StatusOK, results, err)
}

func getSupplierInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSupplierInvoice(c.Request.Context(), id)
	respond(c, "supplier_invoice", "get", http.StatusOK, result, err)
}

func createSupplierInvoice(c *gin.Context) {
	var input models.NewSupplierInvoice
	if !bindJSON(c, "supplier_invoice", "create", &input) {
		return
	}
	result, err := models.CreateSupplierInvoice(c.Request.Context(), &input)
	respond(c, "supplier_invoice", "create", http.StatusCreated, result, err)
}

func updateSupplierInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewSupplierInvoice
	if !bindJSON(c, "supplier_invoice", "update", &input) {
		return
	}
	result, err := models.UpdateSupplierInvoice(c.Request.Context(), id, &input)
	respond(c, "supplier_invoice", "update", http.StatusOK, result, err)
}

func deleteSupplierInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteSupplierInvoice(c.Request.Context(), id)
	respond(c, "supplier_invoice", "delete", http.StatusOK, result, err)
}

func getInvoiceOutstanding(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetInvoiceOutstanding(c.Request.Context(), id)
	respond(c, "supplier_invoice", "outstanding", http.StatusOK, result, err)
}

func listSupplierPayments(c *gin.Context) {
	supplierId, ok := queryId(c, "supplier_id")
	if !ok {
		return
	}
	results, err := models.ListSupplierPayments(c.Request.Context(), supplierId)
	respond(c, "supplier_payment", "list", http.StatusOK, results, err)
}

func getSupplierPayment(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSupplierPayment(c.Request.Context(), id)
	respond(c, "supplier_payment", "get", http.StatusOK, result, err)
}

func createSupplierPayment(c *gin.Context) {
	var input models.NewSupplierPayment
	if !bindJSON(c, "supplier_payment", "create", &input) {
		return
	}
	result, err := models.CreateSupplierPayment(c.Request.Context(), &input)
	respond(c, "supplier_payment", "create", http.StatusCreated, result, err)
}

func deleteSupplierPayment(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteSupplierPayment(c.Request.Context(), id)
	respond(c, "supplier_payment", "delete", http.StatusOK, result, err)
}

func deleteSupplierPaymentApplication(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	applicationId, ok := pathId(c, "applicationId")
	if !ok {
		return
	}
	result, err := models.DeleteSupplierPaymentApplication(c.Request.Context(), id, applicationId)
	respond(c, "supplier_payment", "delete_application", http.StatusOK, result, err)
}

func listSupplierCredits(c *gin.Context) {
	supplierId, ok := queryId(c, "supplier_id")
	if !ok {
		return
	}
	results, err := models.ListSupplierCredits(c.Request.Context(), supplierId)
	respond(c, "supplier_credit", "list", http.StatusOK, results, err)
}

func getSupplierCredit(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSupplierCredit(c.Request.Context(), id)
	respond(c, "supplier_credit", "get", http.StatusOK, result, err)
}

func createSupplierCredit(c *gin.Context) {
	var input models.NewSupplierCredit
	if !bindJSON(c, "supplier_credit", "create", &input) {
		return
	}
	result, err := models.CreateSupplierCredit(c.Request.Context(), &input)
	respond(c, "supplier_credit", "create", http.StatusCreated, result, err)
}

func deleteSupplierCredit(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteSupplierCredit(c.Request.Context(), id)
	respond(c, "supplier_credit", "delete", http.StatusOK, result, err)
}

func deleteSupplierCreditApplication(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	applicationId, ok := pathId(c, "applicationId")
	if !ok {
		return
	}
	result, err := models.DeleteSupplierCreditApplication(c.Request.Context(), id, applicationId)
	respond(c, "supplier_credit", "delete_application", http.StatusOK, result, err)
}
