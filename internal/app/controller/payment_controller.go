package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type ValidatePaymentRequest struct {
	CreditCard string `json:"creditCard" binding:"required"`
}

// Validate runs the payment check. The simulated processor declines every
// third attempt across all callers.
// POST /api/payments/validate
func (ctrl *PaymentController) Validate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ValidatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "creditCard is required")
		return
	}

	if err := ctrl.paymentService.Validate(c.Request.Context(), req.CreditCard); err != nil {
		if errors.Is(err, service.ErrPaymentDeclined) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   apperrors.PaymentDeclined,
				"message": "Payment was declined",
			})
			return
		}
		log.Error("Payment validation failed", err)
		apperrors.InternalError(c, "Payment validation failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment accepted",
	})
}
