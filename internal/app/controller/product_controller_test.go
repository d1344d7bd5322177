package controller

import (
	"encoding/json"
	"net/http"
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

func setupProductControllerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productService := service.NewProductService(repository.NewProductRepository(testDB))
	ctrl := NewProductController(productService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/products", ctrl.List)
	router.GET("/api/products/search", ctrl.Search)
	router.GET("/api/products/:id", ctrl.GetByID)
	router.PUT("/api/products/:id/quantity", ctrl.SetQuantity)

	return router, testDB
}

func seedControllerProduct(t *testing.T, testDB *gorm.DB, sku, name, brand, categoryPath string, image []byte) *model.Product {
	t.Helper()
	product := &model.Product{
		SKU:           sku,
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: 5,
		CategoryPath:  categoryPath,
		MainImage:     image,
		Names:         []model.ProductName{{LanguageTag: "en_US", Value: name}},
		Brands:        []model.ProductBrand{{LanguageTag: "en_US", Value: brand}},
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

type productListEnvelope struct {
	Products   []ProductView      `json:"products"`
	Pagination service.Pagination `json:"pagination"`
	Categories []string           `json:"categories"`
}

func TestProductController_List(t *testing.T) {
	router, testDB := setupProductControllerTest(t)

	for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
		seedControllerProduct(t, testDB, sku, "Item "+sku, "Brand", "misc/other", nil)
	}

	w := doJSON(t, router, http.MethodGet, "/api/products?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope productListEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Products, 2)
	assert.Equal(t, int64(3), envelope.Pagination.TotalProducts)
	assert.True(t, envelope.Pagination.HasNextPage)
}

func TestProductController_Search(t *testing.T) {
	router, testDB := setupProductControllerTest(t)

	seedControllerProduct(t, testDB, "SKU-B1", "Road Bike", "Velox", "sports/cycling/road", nil)
	seedControllerProduct(t, testDB, "SKU-B2", "Bike Lock", "Guardian", "accessories/security/locks", nil)
	seedControllerProduct(t, testDB, "SKU-B3", "Tent", "Peakline", "outdoors/camping", nil)

	w := doJSON(t, router, http.MethodGet, "/api/products/search?q=bike", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope productListEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Products, 2)
	assert.Equal(t, []string{"cycling", "security"}, envelope.Categories)

	// Narrowed by category facet
	w = doJSON(t, router, http.MethodGet, "/api/products/search?q=bike&categories=security", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Products, 1)
	assert.Equal(t, "Bike Lock", envelope.Products[0].Name)
}

func TestProductController_GetByID(t *testing.T) {
	router, testDB := setupProductControllerTest(t)

	created := seedControllerProduct(t, testDB, "SKU-IMG", "Lamp", "Lumina", "home/lighting/desk", []byte{0xFF, 0xD8, 0xFF})

	w := doJSON(t, router, http.MethodGet, "/api/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Product ProductView `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, created.SKU, envelope.Product.SKU)
	assert.Equal(t, "Lamp", envelope.Product.Name)
	assert.Equal(t, "lighting", envelope.Product.Category)
	assert.Contains(t, envelope.Product.Image, "data:image/jpeg;base64,")

	w = doJSON(t, router, http.MethodGet, "/api/products/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_SetQuantity(t *testing.T) {
	router, testDB := setupProductControllerTest(t)

	created := seedControllerProduct(t, testDB, "SKU-Q", "Kettle", "Brewster", "home/kitchen", nil)

	w := doJSON(t, router, http.MethodPut, "/api/products/1/quantity", gin.H{"quantity": 42})
	require.Equal(t, http.StatusOK, w.Code)

	var fresh model.Product
	require.NoError(t, testDB.First(&fresh, created.ID).Error)
	assert.Equal(t, 42, fresh.StockQuantity)

	w = doJSON(t, router, http.MethodPut, "/api/products/1/quantity", gin.H{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PRODUCT_INVALID_STOCK")

	w = doJSON(t, router, http.MethodPut, "/api/products/99999/quantity", gin.H{"quantity": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
