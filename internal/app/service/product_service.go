package service

import (
	"errors"
	"sort"

	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination is the page metadata attached to every catalog listing.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

type ProductService interface {
	ListProducts(page, limit int) ([]model.Product, Pagination, error)
	SearchProducts(query string, page, limit int, categories []string) ([]model.Product, Pagination, []string, error)
	GetProductByID(id uint) (*model.Product, error)
	SetStockQuantity(id uint, quantity int) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func buildPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
}

func (s *productService) ListProducts(page, limit int) ([]model.Product, Pagination, error) {
	page, limit = normalizePaging(page, limit)

	logger.Debug("Listing products", map[string]interface{}{
		"page":  page,
		"limit": limit,
	})

	products, total, err := s.productRepo.FindPage(limit, (page-1)*limit)
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"page":  page,
			"limit": limit,
		})
		return nil, Pagination{}, err
	}

	logger.Debug("Products listed", map[string]interface{}{
		"page":  page,
		"count": len(products),
		"total": total,
	})
	return products, buildPagination(page, limit, total), nil
}

// SearchProducts matches the query against localized names and brands, then
// filters by category facet. The facet is derived from the category path in
// Go, so filtering and paging run over the full match set.
func (s *productService) SearchProducts(query string, page, limit int, categories []string) ([]model.Product, Pagination, []string, error) {
	page, limit = normalizePaging(page, limit)

	logger.Debug("Searching products", map[string]interface{}{
		"query":      query,
		"page":       page,
		"limit":      limit,
		"categories": categories,
	})

	matches, err := s.productRepo.SearchAll(query)
	if err != nil {
		logger.Error("Failed to search products", err, map[string]interface{}{
			"query": query,
		})
		return nil, Pagination{}, nil, err
	}

	// Facet list covers every match, before the category filter narrows it
	facetSet := make(map[string]struct{})
	for i := range matches {
		if facet := matches[i].CategoryFacet(); facet != "" {
			facetSet[facet] = struct{}{}
		}
	}
	facets := make([]string, 0, len(facetSet))
	for facet := range facetSet {
		facets = append(facets, facet)
	}
	sort.Strings(facets)

	filtered := matches
	if len(categories) > 0 {
		wanted := make(map[string]struct{}, len(categories))
		for _, c := range categories {
			wanted[c] = struct{}{}
		}
		filtered = make([]model.Product, 0, len(matches))
		for i := range matches {
			if _, ok := wanted[matches[i].CategoryFacet()]; ok {
				filtered = append(filtered, matches[i])
			}
		}
	}

	total := int64(len(filtered))
	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	logger.Debug("Product search completed", map[string]interface{}{
		"query":  query,
		"total":  total,
		"facets": len(facets),
	})
	return filtered[start:end], buildPagination(page, limit, total), facets, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Getting product by ID", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) SetStockQuantity(id uint, quantity int) (*model.Product, error) {
	logger.Info("Setting product stock quantity", map[string]interface{}{
		"product_id": id,
		"quantity":   quantity,
	})

	if quantity < 0 {
		logger.Warn("Stock update rejected: negative quantity", map[string]interface{}{
			"product_id": id,
			"quantity":   quantity,
		})
		return nil, ErrInvalidQuantity
	}

	rows, err := s.productRepo.SetStock(id, quantity)
	if err != nil {
		logger.Error("Failed to set product stock", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	if rows == 0 {
		logger.Warn("Stock update failed: product not found", map[string]interface{}{
			"product_id": id,
		})
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	logger.Info("Product stock quantity set", map[string]interface{}{
		"product_id": id,
		"quantity":   quantity,
	})
	return product, nil
}
