package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*gorm.DB, ProductService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	return testDB, NewProductService(repository.NewProductRepository(testDB))
}

func seedCatalogProduct(t *testing.T, testDB *gorm.DB, sku, name, brand, categoryPath string) *model.Product {
	t.Helper()
	product := &model.Product{
		SKU:           sku,
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 5,
		CategoryPath:  categoryPath,
		Names:         []model.ProductName{{LanguageTag: "en_US", Value: name}},
		Brands:        []model.ProductBrand{{LanguageTag: "en_US", Value: brand}},
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func TestProductService_ListProducts_Pagination(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	for i := 0; i < 7; i++ {
		seedCatalogProduct(t, testDB, "SKU-L"+string(rune('A'+i)), "Item", "Brand", "misc/other")
	}

	products, meta, err := svc.ListProducts(1, 3)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(7), meta.TotalProducts)
	assert.True(t, meta.HasNextPage)
	assert.False(t, meta.HasPrevPage)

	products, meta, err = svc.ListProducts(3, 3)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.False(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)
}

func TestProductService_ListProducts_DefaultsBadInput(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	seedCatalogProduct(t, testDB, "SKU-D1", "Item", "Brand", "misc/other")

	_, meta, err := svc.ListProducts(-2, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, int64(1), meta.TotalProducts)
}

func TestProductService_SearchProducts(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	seedCatalogProduct(t, testDB, "SKU-S1", "Road Bike", "Velox", "sports/cycling/road")
	seedCatalogProduct(t, testDB, "SKU-S2", "Mountain Bike", "Peakline", "sports/hiking/boots")
	seedCatalogProduct(t, testDB, "SKU-S3", "Bike Pump", "Velox", "tools")

	products, meta, facets, err := svc.SearchProducts("bike", 1, 10, nil)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, int64(3), meta.TotalProducts)
	// "tools" has no second path segment so it contributes no facet
	assert.Equal(t, []string{"cycling", "hiking"}, facets)
}

func TestProductService_SearchProducts_CategoryFilter(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	road := seedCatalogProduct(t, testDB, "SKU-C1", "Road Bike", "Velox", "sports/cycling/road")
	seedCatalogProduct(t, testDB, "SKU-C2", "Hiking Bike Rack", "Peakline", "sports/hiking/racks")

	products, meta, facets, err := svc.SearchProducts("bike", 1, 10, []string{"cycling"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, road.ID, products[0].ID)
	assert.Equal(t, int64(1), meta.TotalProducts)
	// Facets still describe the full match set
	assert.Equal(t, []string{"cycling", "hiking"}, facets)
}

func TestProductService_GetProductByID(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	created := seedCatalogProduct(t, testDB, "SKU-G1", "Desk Lamp", "Lumina", "home/lighting")

	found, err := svc.GetProductByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", found.DisplayName())

	_, err = svc.GetProductByID(99999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_SetStockQuantity(t *testing.T) {
	testDB, svc := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	created := seedCatalogProduct(t, testDB, "SKU-Q1", "Kettle", "Brewster", "home/kitchen")

	updated, err := svc.SetStockQuantity(created.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, updated.StockQuantity)

	_, err = svc.SetStockQuantity(created.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.SetStockQuantity(99999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
