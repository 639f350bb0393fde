package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/middlewares"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "handlers.db"))
	config.ConnectDatabaseWithRetry()
	t.Cleanup(func() { _ = config.CloseDatabase() })
	require.NoError(t, models.MigrateTable())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.SessionMiddleware())
	RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method string, path string, businessId string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if businessId != "" {
		req.Header.Set(middlewares.HeaderBusinessId, businessId)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		outcome string
	}{
		{utils.NewValidationError("name", "required"), http.StatusBadRequest, "validation"},
		{utils.NewNotFoundError("supplier", 1), http.StatusNotFound, "not_found"},
		{utils.NewConflictError("receipt %d is complete", 1), http.StatusConflict, "conflict"},
		{models.ErrBusinessIdRequired, http.StatusBadRequest, "validation"},
		{errors.New("boom"), http.StatusInternalServerError, "error"},
	}
	for _, c := range cases {
		status, outcome := errorStatus(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
		assert.Equal(t, c.outcome, outcome, c.err.Error())
	}
}

func TestMissingBusinessHeaderIsRejected(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/suppliers", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), middlewares.HeaderBusinessId)
	assert.NotEmpty(t, w.Header().Get(middlewares.HeaderCorrelationId))
}

func TestSupplierCreateAndGet(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/suppliers", "biz-http", map[string]any{"name": "Globex", "payment_terms": 15})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Globex", created.Name)
	assert.Equal(t, "biz-http", created.BusinessId)

	w = doJSON(r, http.MethodGet, "/api/v1/suppliers/"+strconv.Itoa(created.ID), "biz-http", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// another tenant cannot see it
	w = doJSON(r, http.MethodGet, "/api/v1/suppliers/"+strconv.Itoa(created.ID), "biz-other", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/suppliers/abc", "biz-http", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationErrorEnvelope(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/unit-categories", "biz-http", map[string]any{"name": "Count"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.UnitCategory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &category))

	w = doJSON(r, http.MethodPost, "/api/v1/uoms", "biz-http", map[string]any{
		"unit_category_id": category.ID,
		"name":             "Broken",
		"conversion_rate":  "-1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Fields)

	w = doJSON(r, http.MethodPost, "/api/v1/uoms", "biz-http", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}
