package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaymentControllerTest(t *testing.T) *gin.Engine {
	t.Helper()

	ctrl := NewPaymentController(service.NewPaymentService(service.NewMemoryCounter()))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/payments/validate", ctrl.Validate)
	return router
}

func TestPaymentController_Validate(t *testing.T) {
	router := setupPaymentControllerTest(t)

	body := gin.H{"creditCard": "4111111111111111"}

	// First two attempts pass, the third is declined
	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/payments/validate", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	}

	w := doJSON(t, router, http.MethodPost, "/api/payments/validate", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	// The cycle restarts
	w = doJSON(t, router, http.MethodPost, "/api/payments/validate", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentController_Validate_MissingCard(t *testing.T) {
	router := setupPaymentControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/payments/validate", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
