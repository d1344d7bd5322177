package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

// CustomerController is the admin surface over user accounts.
type CustomerController struct {
	authService service.AuthService
}

func NewCustomerController(authService service.AuthService) *CustomerController {
	return &CustomerController{
		authService: authService,
	}
}

// List returns all customers
// GET /api/customers (admin)
func (ctrl *CustomerController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customers, err := ctrl.authService.ListCustomers()
	if err != nil {
		log.Error("Failed to list customers", err)
		apperrors.InternalError(c, "Failed to fetch customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}

// Get returns a single customer
// GET /api/customers/:id (admin)
func (ctrl *CustomerController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid customer id")
		return
	}

	customer, err := ctrl.authService.GetCustomer(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Customer not found")
			return
		}
		log.Error("Failed to fetch customer", err, map[string]interface{}{
			"customer_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// Update edits a customer's contact fields
// PUT /api/customers/:id (admin)
func (ctrl *CustomerController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid customer id")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	customer, err := ctrl.authService.UpdateCustomer(uint(id), service.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Customer not found")
			return
		}
		log.Error("Failed to update customer", err, map[string]interface{}{
			"customer_id": id,
		})
		apperrors.InternalError(c, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}
