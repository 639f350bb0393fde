package handlers

import (
	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/procurement_backend/middlewares"
)

// RegisterRoutes mounts the tenant-scoped API on r.
func RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1", middlewares.RequireBusiness())

	api.GET("/unit-categories", listUnitCategories)
	api.POST("/unit-categories", createUnitCategory)
	api.GET("/uoms", listUoms)
	api.POST("/uoms", createUom)
	api.GET("/uoms/:id", getUom)
	api.PUT("/uoms/:id", updateUom)
	api.GET("/products", listProducts)
	api.POST("/products", createProduct)
	api.GET("/products/:id", getProduct)
	api.GET("/suppliers", listSuppliers)
	api.POST("/suppliers", createSupplier)
	api.GET("/suppliers/:id", getSupplier)

	api.GET("/purchase-orders", listPurchaseOrders)
	api.POST("/purchase-orders", createPurchaseOrder)
	api.GET("/purchase-orders/:id", getPurchaseOrder)
	api.PUT("/purchase-orders/:id", updatePurchaseOrder)
	api.DELETE("/purchase-orders/:id", deletePurchaseOrder)
	api.GET("/purchase-orders/:id/receipt-summary", getPurchaseOrderReceiptSummary)

	api.GET("/goods-receipts", listGoodsReceipts)
	api.POST("/goods-receipts", createGoodsReceipt)
	api.GET("/goods-receipts/:id", getGoodsReceipt)
	api.PUT("/goods-receipts/:id", updateGoodsReceipt)
	api.DELETE("/goods-receipts/:id", deleteGoodsReceipt)

	api.GET("/supplier-invoices", listSupplierInvoices)
	api.POST("/supplier-invoices", createSupplierInvoice)
	api.GET("/supplier-invoices/:id", getSupplierInvoice)
	api.PUT("/supplier-invoices/:id", updateSupplierInvoice)
	api.DELETE("/supplier-invoices/:id", deleteSupplierInvoice)
	api.GET("/supplier-invoices/:id/outstanding", getInvoiceOutstanding)

	api.GET("/supplier-payments", listSupplierPayments)
	api.POST("/supplier-payments", createSupplierPayment)
	api.GET("/supplier-payments/:id", getSupplierPayment)
	api.DELETE("/supplier-payments/:id", deleteSupplierPayment)
	api.DELETE("/supplier-payments/:id/applications/:applicationId", deleteSupplierPaymentApplication)

	api.GET("/supplier-credits", listSupplierCredits)
	api.POST("/supplier-credits", createSupplierCredit)
	api.GET("/supplier-credits/:id", getSupplierCredit)
	api.DELETE("/supplier-credits/:id", deleteSupplierCredit)
	api.DELETE("/supplier-credits/:id/applications/:applicationId", deleteSupplierCreditApplication)

	api.GET("/reports/ap-aging", getAPAgingReport)
	api.GET("/reports/ap-aging/export", exportAPAgingReport)
	api.GET("/reports/supplier-statement/:supplierId", getSupplierStatement)
	api.GET("/reports/variance", getVarianceReport)

	api.GET("/histories/:referenceType/:referenceId", listHistories)
	api.POST("/reconciliation/run", runReconciliation)
	api.GET("/reconciliation/reports", listReconciliationReports)
	api.POST("/balances/rebuild", rebuildBalances)
}
