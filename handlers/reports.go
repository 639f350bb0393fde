package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/models/reports"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"bitbucket.org/mmdatafocus/procurement_backend/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// asOfDate reads ?as_of=YYYY-MM-DD, defaulting to now.
func asOfDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid as_of",
			Fields: map[string]string{"as_of": "must be a date in YYYY-MM-DD format"},
		})
		return time.Time{}, false
	}
	return asOf, true
}

func getAPAgingReport(c *gin.Context) {
	asOf, ok := asOfDate(c)
	if !ok {
		return
	}
	result, err := reports.GetAPAgingReport(c.Request.Context(), asOf)
	respond(c, "report", "ap_aging", http.StatusOK, result, err)
}

func exportAPAgingReport(c *gin.Context) {
	asOf, ok := asOfDate(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := reports.ExportAPAgingReport(c.Request.Context(), asOf, &buf); err != nil {
		respondError(c, "report", "ap_aging_export", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=ap-aging-"+asOf.Format("2006-01-02")+".xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func getSupplierStatement(c *gin.Context) {
	supplierId, ok := pathId(c, "supplierId")
	if !ok {
		return
	}
	result, err := reports.GetSupplierStatement(c.Request.Context(), supplierId)
	respond(c, "report", "supplier_statement", http.StatusOK, result, err)
}

func getVarianceReport(c *gin.Context) {
	purchaseOrderId, ok := queryId(c, "purchase_order_id")
	if !ok {
		return
	}
	result, err := reports.GetVarianceReport(c.Request.Context(), purchaseOrderId)
	respond(c, "report", "variance", http.StatusOK, result, err)
}

func runReconciliation(c *gin.Context) {
	businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
	found, err := workflow.RunReconciliationChecks(c.Request.Context(), config.GetLogger(), businessId)
	respond(c, "reconciliation", "run", http.StatusOK, gin.H{"mismatches": found}, err)
}

func listReconciliationReports(c *gin.Context) {
	results, err := models.ListReconciliationReports(c.Request.Context(), c.Query("correlation_id"))
	respond(c, "reconciliation", "list", http.StatusOK, results, err)
}

func rebuildBalances(c *gin.Context) {
	invoiceId, ok := queryId(c, "supplier_invoice_id")
	if !ok {
		return
	}
	count, err := models.RebuildBalances(c.Request.Context(), invoiceId)
	respond(c, "balance", "rebuild", http.StatusOK, gin.H{"documents": count}, err)
}
