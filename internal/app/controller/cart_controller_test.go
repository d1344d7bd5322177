package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	"github.com/shopsmith/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := service.NewCartService(cartRepo, productRepo)
	ctrl := NewCartController(cartService)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	product := &model.Product{
		SKU:           "SKU-CC-1",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 10,
		CategoryPath:  "misc/other",
		Names:         []model.ProductName{{LanguageTag: "en_US", Value: "Test Product"}},
	}
	testDB.Create(product)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/cart", ctrl.CreateCart)
	router.GET("/api/cart/:cartId", ctrl.GetCart)
	router.POST("/api/cart/:cartId/items", ctrl.AddItem)
	router.PUT("/api/cart/:cartId/items/:productId", ctrl.UpdateItem)
	router.DELETE("/api/cart/:cartId/items/:productId", ctrl.RemoveItem)
	router.PUT("/api/cart/:cartId/user", ctrl.BindOwner)
	router.POST("/api/cart/user/:userId", ctrl.MergeCart)
	router.GET("/api/cart/user/:userId", ctrl.GetUserCart)

	return router, testDB, user, product
}

type cartEnvelope struct {
	Cart model.Cart `json:"cart"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) model.Cart {
	t.Helper()
	var envelope cartEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Cart
}

func TestCartController_CreateCart(t *testing.T) {
	router, _, _, _ := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	cart := decodeCart(t, w)
	assert.NotEmpty(t, cart.CartID)
	assert.Nil(t, cart.UserID)
}

func TestCartController_AddAndGet(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	cart := decodeCart(t, w)

	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": product.ID,
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeCart(t, w)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("20.00").Equal(cart.TotalAmount))

	w = doJSON(t, router, http.MethodGet, "/api/cart/"+cart.CartID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_AddItem_Validation(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	cart := decodeCart(t, w)

	// Missing quantity
	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": product.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown product
	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": 99999,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// More than stock
	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": product.ID,
		"quantity":  11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PRODUCT_INSUFFICIENT_STOCK")
}

func TestCartController_UpdateItem_ZeroRemoves(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	cart := decodeCart(t, w)

	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": product.ID,
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/cart/%s/items/%d", cart.CartID, product.ID)
	w = doJSON(t, router, http.MethodPut, path, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeCart(t, w)
	assert.Empty(t, cart.Items)
}

func TestCartController_RemoveItem(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	cart := decodeCart(t, w)

	w = doJSON(t, router, http.MethodPost, "/api/cart/"+cart.CartID+"/items", gin.H{
		"productId": product.ID,
		"quantity":  1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/cart/%s/items/%d", cart.CartID, product.ID)
	w = doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeCart(t, w)
	assert.Empty(t, cart.Items)
}

func TestCartController_OwnedCartAccess(t *testing.T) {
	router, _, user, _ := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", gin.H{"userId": user.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	cart := decodeCart(t, w)

	// Without userId the owned cart is off limits
	w = doJSON(t, router, http.MethodGet, "/api/cart/"+cart.CartID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// With the owner's id it works
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/cart/%s?userId=%d", cart.CartID, user.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_MergeCart(t *testing.T) {
	router, _, user, product := setupCartControllerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/cart", nil)
	guest := decodeCart(t, w)

	w = doJSON(t, router, http.MethodPost, "/api/cart/"+guest.CartID+"/items", gin.H{
		"productId": product.ID,
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/cart/user/%d", user.ID), gin.H{
		"currentCartId": guest.CartID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	merged := decodeCart(t, w)
	require.NotNil(t, merged.UserID)
	assert.Equal(t, user.ID, *merged.UserID)
	require.Len(t, merged.Items, 1)

	// Owned-cart lookup resolves to the merged cart
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/cart/user/%d", user.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	owned := decodeCart(t, w)
	assert.Equal(t, merged.CartID, owned.CartID)
}
