package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	apperrors "github.com/shopsmith/storefront-backend/internal/errors"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductView is the catalog wire shape. The image ships inline as a base64
// data URI; localized name and brand collapse to their display values.
type ProductView struct {
	ID           uint            `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	CategoryPath string          `json:"category_path"`
	Category     string          `json:"category"`
	Image        string          `json:"image,omitempty"`
}

func toProductView(p *model.Product) ProductView {
	return ProductView{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.DisplayName(),
		Brand:        p.DisplayBrand(),
		Price:        p.Price,
		Quantity:     p.StockQuantity,
		CategoryPath: p.CategoryPath,
		Category:     p.CategoryFacet(),
		Image:        p.ImageDataURI(),
	}
}

func toProductViews(products []model.Product) []ProductView {
	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = toProductView(&products[i])
	}
	return views
}

// List returns one catalog page
// GET /api/products?page=&limit=
func (ctrl *ProductController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, pagination, err := ctrl.productService.ListProducts(page, limit)
	if err != nil {
		log.Error("Failed to list products", err, map[string]interface{}{
			"page": page,
		})
		apperrors.InternalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   toProductViews(products),
		"pagination": pagination,
	})
}

// Search filters the catalog by a text query and category facets
// GET /api/products/search?q=&page=&limit=&categories=a,b
func (ctrl *ProductController) Search(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	query := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var categories []string
	if raw := c.Query("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				categories = append(categories, trimmed)
			}
		}
	}

	products, pagination, facets, err := ctrl.productService.SearchProducts(query, page, limit, categories)
	if err != nil {
		log.Error("Failed to search products", err, map[string]interface{}{
			"query": query,
		})
		apperrors.InternalError(c, "Failed to search products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   toProductViews(products),
		"pagination": pagination,
		"categories": facets,
	})
}

// GetByID returns a single product
// GET /api/products/:id
func (ctrl *ProductController) GetByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	product, err := ctrl.productService.GetProductByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": toProductView(product)})
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SetQuantity replaces a product's on-hand stock
// PUT /api/products/:id/quantity (admin)
func (ctrl *ProductController) SetQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid quantity request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	product, err := ctrl.productService.SetStockQuantity(uint(id), *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.BadRequest(c, apperrors.InvalidStockRequest, "Quantity must not be negative")
		default:
			log.Error("Failed to set product quantity", err, map[string]interface{}{
				"product_id": id,
			})
			apperrors.InternalError(c, "Failed to update product quantity")
		}
		return
	}

	log.Info("Product quantity updated", map[string]interface{}{
		"product_id": product.ID,
		"quantity":   product.StockQuantity,
	})

	c.JSON(http.StatusOK, gin.H{"product": toProductView(product)})
}
