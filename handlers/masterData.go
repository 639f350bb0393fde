package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func listUnitCategories(c *gin.Context) {
	results, err := models.ListUnitCategories(c.Request.Context())
	respond(c, "unit_category", "list", http.StatusOK, results, err)
}

func createUnitCategory(c *gin.Context) {
	var input models.NewUnitCategory
	if !bindJSON(c, "unit_category", "create", &input) {
		return
	}
	result, err := models.CreateUnitCategory(c.Request.Context(), &input)
	respond(c, "unit_category", "create", http.StatusCreated, result, err)
}

func listUoms(c *gin.Context) {
	categoryId, ok := queryId(c, "unit_category_id")
	if !ok {
		return
	}
	results, err := models.ListUoms(c.Request.Context(), categoryId)
	respond(c, "uom", "list", http.StatusOK, results, err)
}

func getUom(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetUom(c.Request.Context(), id)
	respond(c, "uom", "get", http.StatusOK, result, err)
}

func createUom(c *gin.Context) {
	var input models.NewUom
	if !bindJSON(c, "uom", "create", &input) {
		return
	}
	result, err := models.CreateUom(c.Request.Context(), &input)
	respond(c, "uom", "create", http.StatusCreated, result, err)
}

func updateUom(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewUom
	if !bindJSON(c, "uom", "update", &input) {
		return
	}
	result, err := models.UpdateUom(c.Request.Context(), id, &input)
	respond(c, "uom", "update", http.StatusOK, result, err)
}

func listProducts(c *gin.Context) {
	results, err := models.ListProducts(c.Request.Context())
	respond(c, "product", "list", http.StatusOK, results, err)
}

func getProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetProduct(c.Request.Context(), id)
	respond(c, "product", "get", http.StatusOK, result, err)
}

func createProduct(c *gin.Context) {
	var input models.NewProduct
	if !bindJSON(c, "product", "create", &input) {
		return
	}
	result, err := models.CreateProduct(c.Request.Context(), &input)
	respond(c, "product", "create", http.StatusCreated, result, err)
}

func listSuppliers(c *gin.Context) {
	results, err := models.ListSuppliers(c.Request.Context())
	respond(c, "supplier", "list", http.StatusOK, results, err)
}

func getSupplier(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSupplier(c.Request.Context(), id)
	respond(c, "supplier", "get", http.StatusOK, result, err)
}

func createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if !bindJSON(c, "supplier", "create", &input) {
		return
	}
	result, err := models.CreateSupplier(c.Request.Context(), &input)
	respond(c, "supplier", "create", http.StatusCreated, result, err)
}

func listHistories(c *gin.Context) {
	id, ok := pathId(c, "referenceId")
	if !ok {
		return
	}
	results, err := models.ListHistories(c.Request.Context(), c.Param("referenceType"), id)
	respond(c, "history", "list", http.StatusOK, results, err)
}
