package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) (int, map[string]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/orders/:id", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/1", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestAccountIDMissingIsUnauthenticated(t *testing.T) {
	code, body := serve(t, func(c *gin.Context) {
		if _, ok := accountID(c); ok {
			c.Status(http.StatusOK)
		}
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", body["kind"])
	assert.Equal(t, "User not authenticated", body["error"])
}

func TestRespondErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKind   services.Kind
		wantError  string
	}{
		{fmt.Errorf("%w: id 3", services.ErrOrderNotFound), http.StatusNotFound, services.KindNotFound, "order not found: id 3"},
		{&services.InsufficientStockError{ProductName: "Widget", Available: 3, Requested: 5}, http.StatusConflict, services.KindInsufficientStock, "Insufficient stock for Widget. Available: 3, requested: 5."},
		{services.ErrProductInUse, http.StatusConflict, services.KindConflict, services.ErrProductInUse.Error()},
		{&services.ValidationError{Field: "items", Message: "at least one item is required"}, http.StatusBadRequest, services.KindValidation, "items: at least one item is required"},
		{errors.New("connection refused"), http.StatusInternalServerError, services.KindStorage, "Database error"},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantKind), func(t *testing.T) {
			code, body := serve(t, func(c *gin.Context) { respondError(c, tt.err) })
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, string(tt.wantKind), body["kind"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}
