package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

// History date filters use plain calendar dates.
const historyDateLayout = "2006-01-02"

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type PlaceOrderRequest struct {
	CartID          string `json:"cartId" binding:"required"`
	ShippingAddress string `json:"shippingAddress" binding:"required"`
	BillingAddress  string `json:"billingAddress"`
}

// PlaceOrder checks out the cart
// POST /api/orders (auth)
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid place order request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "cartId and shippingAddress are required")
		return
	}

	if req.BillingAddress == "" {
		req.BillingAddress = req.ShippingAddress
	}

	order, err := ctrl.orderService.PlaceOrder(req.CartID, userID, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
		case errors.Is(err, service.ErrCartAccessDenied):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.CartAccessDenied, "This cart belongs to another user")
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Cannot place an order from an empty cart")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "A product in the cart no longer exists")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.BadRequest(c, apperrors.InsufficientStock, err.Error())
		default:
			log.Error("Failed to place order", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": req.CartID,
			})
			apperrors.InternalError(c, "Failed to place order")
		}
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
	})

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrder returns a single order; owners and admins only
// GET /api/orders/:orderId (auth)
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order id")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	role, _ := middleware.GetUserRole(c)
	if order.UserID != userID && role != model.RoleAdmin {
		log.Warn("Order access denied", map[string]interface{}{
			"order_id": order.ID,
			"owner_id": order.UserID,
			"user_id":  userID,
		})
		apperrors.Forbidden(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListMyOrders returns the caller's purchase history
// GET /api/orders (auth)
func (ctrl *OrderController) ListMyOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func parseHistoryFilter(c *gin.Context) (repository.HistoryFilter, error) {
	var filter repository.HistoryFilter

	if raw := c.Query("customerId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, fmt.Errorf("invalid customerId %q", raw)
		}
		id := uint(parsed)
		filter.CustomerID = &id
	}

	if raw := c.Query("startDate"); raw != "" {
		from, err := time.Parse(historyDateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid startDate %q", raw)
		}
		filter.From = &from
	}

	if raw := c.Query("endDate"); raw != "" {
		to, err := time.Parse(historyDateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid endDate %q", raw)
		}
		// Inclusive end of day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	return filter, nil
}

// History returns the admin order history, filterable by customer and dates
// GET /api/orders/history?customerId=&startDate=&endDate= (admin)
func (ctrl *OrderController) History(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, err := parseHistoryFilter(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	orders, err := ctrl.orderService.History(filter)
	if err != nil {
		log.Error("Failed to fetch order history", err)
		apperrors.InternalError(c, "Failed to fetch order history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// ExportHistory streams the filtered order history as a spreadsheet
// GET /api/orders/history/export (admin)
func (ctrl *OrderController) ExportHistory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, err := parseHistoryFilter(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	data, err := ctrl.orderService.ExportHistoryXLSX(filter)
	if err != nil {
		log.Error("Failed to export order history", err)
		apperrors.InternalError(c, "Failed to export order history")
		return
	}

	filename := fmt.Sprintf("sales-history-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
