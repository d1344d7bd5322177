package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
	cartService service.CartService
}

func NewAuthController(authService service.AuthService, cartService service.CartService) *AuthController {
	return &AuthController{
		authService: authService,
		cartService: cartService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Register creates an account and signs the user in
// POST /api/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "email, a password of at least 8 characters and name are required")
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Email, req.Password, req.Name, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

type LoginRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	CurrentCartID string `json:"currentCartId"`
}

// Login authenticates and, when the client carries a guest cart, merges it
// into the user's cart
// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "email and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "Login failed")
		return
	}

	response := gin.H{
		"user":   user,
		"tokens": tokens,
	}

	cart, err := ctrl.cartService.MergeOnLogin(user.ID, req.CurrentCartID)
	if err != nil {
		// A cart problem must not block the sign-in
		log.Error("Cart merge on login failed", err, map[string]interface{}{
			"user_id":       user.ID,
			"guest_cart_id": req.CurrentCartID,
		})
	} else {
		response["cart"] = cart
	}

	c.JSON(http.StatusOK, response)
}

// Me returns the authenticated user's profile
// GET /api/auth/me (auth)
func (ctrl *AuthController) Me(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// UpdateMe updates the authenticated user's profile
// PUT /api/auth/me (auth)
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, service.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// pathUserMatchesCaller allows the caller to act on their own resources;
// admins may act on anyone's.
func pathUserMatchesCaller(c *gin.Context) (uint, bool) {
	pathID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user id")
		return 0, false
	}

	callerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return 0, false
	}

	role, _ := middleware.GetUserRole(c)
	if uint(pathID) != callerID && role != model.RoleAdmin {
		apperrors.Forbidden(c, "")
		return 0, false
	}
	return uint(pathID), true
}

type AddCardRequest struct {
	CardNumber string `json:"cardNumber" binding:"required"`
	ExpiryDate string `json:"expiryDate" binding:"required"`
	CVV        string `json:"cvv" binding:"required"`
}

// AddCard stores a payment card for the user
// POST /api/users/:id/credit-cards (auth)
func (ctrl *AuthController) AddCard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := pathUserMatchesCaller(c)
	if !ok {
		return
	}

	var req AddCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "cardNumber, expiryDate and cvv are required")
		return
	}

	card, err := ctrl.authService.AddPaymentCard(userID, req.CardNumber, req.ExpiryDate, req.CVV)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to add payment card", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to add payment card")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// RemoveCard deletes a stored payment card
// DELETE /api/users/:id/credit-cards/:cardId (auth)
func (ctrl *AuthController) RemoveCard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := pathUserMatchesCaller(c)
	if !ok {
		return
	}

	if err := ctrl.authService.RemovePaymentCard(userID, c.Param("cardId")); err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			apperrors.NotFound(c, apperrors.CardNotFound, "Payment card not found")
			return
		}
		log.Error("Failed to remove payment card", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to remove payment card")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment card removed"})
}
