package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/middlewares"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorStatus maps error kinds to HTTP status and the metrics outcome label.
func errorStatus(err error) (int, string) {
	switch {
	case utils.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case utils.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case utils.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrBusinessIdRequired):
		return http.StatusBadRequest, "validation"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func respondError(c *gin.Context, document string, operation string, err error) {
	status, outcome := errorStatus(err)
	middlewares.RecordDocumentOperation(document, operation, outcome)
	body := errorResponse{Error: err.Error(), Fields: utils.ValidationFields(err)}
	if status == http.StatusInternalServerError {
		config.LogError(config.GetLogger(), "handlers", operation, document, nil, err)
		body.Error = "internal server error"
	}
	c.JSON(status, body)
}

func respond(c *gin.Context, document string, operation string, status int, result any, err error) {
	if err != nil {
		respondError(c, document, operation, err)
		return
	}
	middlewares.RecordDocumentOperation(document, operation, "ok")
	c.JSON(status, result)
}

func bindJSON(c *gin.Context, document string, operation string, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		middlewares.RecordDocumentOperation(document, operation, "validation")
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid " + name,
			Fields: map[string]string{name: "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

// queryId reads an optional positive integer query parameter.
func queryId(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid " + name,
			Fields: map[string]string{name: "must be a positive integer"},
		})
		return nil, false
	}
	return &id, true
}
