package controller

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	"github.com/shopsmith/storefront-backend/internal/db"
	"github.com/shopsmith/storefront-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, *AuthController) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	authService := service.NewAuthService(userRepo, "controller-test-secret", time.Hour, 24*time.Hour)
	cartService := service.NewCartService(cartRepo, productRepo)
	ctrl := NewAuthController(authService, cartService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/register", ctrl.Register)
	router.POST("/api/auth/login", ctrl.Login)

	return router, testDB, ctrl
}

type authEnvelope struct {
	User   model.User `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
	Cart *model.Cart `json:"cart"`
}

func TestAuthController_Register(t *testing.T) {
	router, _, _ := setupAuthControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "secret123",
		"name":     "New User",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope authEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotZero(t, envelope.User.ID)
	assert.NotEmpty(t, envelope.Tokens.AccessToken)
	// The password hash never leaves the server
	assert.NotContains(t, w.Body.String(), "password_hash")

	// Same email again conflicts
	w = doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "secret123",
		"name":     "Clone",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthController_Register_Validation(t *testing.T) {
	router, _, _ := setupAuthControllerTest(t)

	// Short password
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "short@example.com",
		"password": "abc",
		"name":     "Short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad email
	w = doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "not-an-email",
		"password": "secret123",
		"name":     "Bad Email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthController_Login(t *testing.T) {
	router, _, _ := setupAuthControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "login@example.com",
		"password": "secret123",
		"name":     "Login User",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "login@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope authEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Tokens.AccessToken)
	// Login always resolves a cart for the user
	require.NotNil(t, envelope.Cart)
	require.NotNil(t, envelope.Cart.UserID)
	assert.Equal(t, envelope.User.ID, *envelope.Cart.UserID)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "login@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_MeAndCards(t *testing.T) {
	router, _, ctrl := setupAuthControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "me@example.com",
		"password": "secret123",
		"name":     "Me User",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var registered authEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))

	authed := gin.New()
	withUser := func(c *gin.Context) {
		c.Set(middleware.UserIDKey, registered.User.ID)
		c.Set(middleware.UserRoleKey, model.RoleUser)
		c.Next()
	}
	authed.GET("/api/auth/me", withUser, ctrl.Me)
	authed.PUT("/api/auth/me", withUser, ctrl.UpdateMe)
	authed.POST("/api/users/:id/credit-cards", withUser, ctrl.AddCard)
	authed.DELETE("/api/users/:id/credit-cards/:cardId", withUser, ctrl.RemoveCard)

	w = doJSON(t, authed, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me@example.com")

	w = doJSON(t, authed, http.MethodPut, "/api/auth/me", gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Renamed")

	// Add a card, then remove it by its generated id
	w = doJSON(t, authed, http.MethodPost, "/api/users/1/credit-cards", gin.H{
		"cardNumber": "4111111111111111",
		"expiryDate": "12/27",
		"cvv":        "123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var cardEnvelope struct {
		Card model.PaymentCard `json:"card"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cardEnvelope))
	require.NotEmpty(t, cardEnvelope.Card.CardID)
	// CVV never leaves the server
	assert.NotContains(t, w.Body.String(), `"cvv"`)

	w = doJSON(t, authed, http.MethodDelete, "/api/users/1/credit-cards/"+cardEnvelope.Card.CardID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, authed, http.MethodDelete, "/api/users/1/credit-cards/"+cardEnvelope.Card.CardID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Acting on another user's cards is forbidden
	w = doJSON(t, authed, http.MethodPost, "/api/users/999/credit-cards", gin.H{
		"cardNumber": "4111111111111111",
		"expiryDate": "12/27",
		"cvv":        "123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
