package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
	"github.com/shopsmith/storefront-backend/pkg/logger"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

func respondCartError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrCartNotFound):
		apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
	case errors.Is(err, service.ErrCartAccessDenied):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.CartAccessDenied, "This cart belongs to another user")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Product is not in the cart")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrOutOfStock):
		apperrors.BadRequest(c, apperrors.ProductOutOfStock, "Product is out of stock")
	case errors.Is(err, service.ErrInsufficientStock):
		apperrors.BadRequest(c, apperrors.InsufficientStock, "Not enough stock for the requested quantity")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Quantity is out of range")
	default:
		log.Error("Cart operation failed", err)
		apperrors.InternalError(c, "Cart operation failed")
	}
}

// optionalUserIDQuery reads the userId query parameter used by the anonymous
// cart surface.
func optionalUserIDQuery(c *gin.Context) (*uint, bool) {
	raw := c.Query("userId")
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	id := uint(parsed)
	return &id, true
}

type CreateCartRequest struct {
	UserID *uint `json:"userId"`
}

// CreateCart creates a cart, optionally bound to a user
// POST /api/cart
func (ctrl *CartController) CreateCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid create cart request", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
			return
		}
	}

	cart, err := ctrl.cartService.CreateCart(req.UserID)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cart": cart})
}

// GetCart returns a cart by its public id
// GET /api/cart/:cartId?userId=
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := optionalUserIDQuery(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid userId")
		return
	}

	cart, err := ctrl.cartService.GetCart(c.Param("cartId"), userID)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type AddItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// AddItem puts a product into the cart
// POST /api/cart/:cartId/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"cart_id": c.Param("cartId"),
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "productId and a positive quantity are required")
		return
	}

	cart, err := ctrl.cartService.AddItem(c.Param("cartId"), req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateItem sets a line's quantity; zero removes the line
// PUT /api/cart/:cartId/items/:productId
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update item request", map[string]interface{}{
			"cart_id": c.Param("cartId"),
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(c.Param("cartId"), uint(productID), *req.Quantity)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveItem deletes a line from the cart
// DELETE /api/cart/:cartId/items/:productId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	cart, err := ctrl.cartService.RemoveItem(c.Param("cartId"), uint(productID))
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type BindOwnerRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// BindOwner associates the cart with a user
// PUT /api/cart/:cartId/user
func (ctrl *CartController) BindOwner(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BindOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "userId is required")
		return
	}

	cart, err := ctrl.cartService.BindOwner(c.Param("cartId"), req.UserID)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type MergeCartRequest struct {
	CurrentCartID string `json:"currentCartId"`
}

// MergeCart folds a guest cart into the user's cart after sign-in
// POST /api/cart/user/:userId
func (ctrl *CartController) MergeCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user id")
		return
	}

	var req MergeCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
			return
		}
	}

	cart, err := ctrl.cartService.MergeOnLogin(uint(userID), req.CurrentCartID)
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// GetUserCart returns the cart owned by a user
// GET /api/cart/user/:userId
func (ctrl *CartController) GetUserCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user id")
		return
	}

	cart, err := ctrl.cartService.GetUserCart(uint(userID))
	if err != nil {
		respondCartError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}
