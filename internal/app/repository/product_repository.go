package repository

import (
	"strings"

	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	CreateBatch(products []model.Product) error
	FindPage(limit, offset int) ([]model.Product, int64, error)
	SearchAll(query string) ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	Update(product *model.Product) error
	SetStock(id uint, quantity int) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Product{}).
		Preload("Names").
		Preload("Brands")
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"sku":           product.SKU,
		"category_path": product.CategoryPath,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"sku": product.SKU,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return nil
}

func (r *productRepository) CreateBatch(products []model.Product) error {
	logger.Debug("Creating products in batch", map[string]interface{}{
		"count": len(products),
	})

	if err := r.db.CreateInBatches(products, 100).Error; err != nil {
		logger.Error("Failed to create products in batch", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}
	return nil
}

// FindPage returns one page of the catalog plus the fresh total count.
func (r *productRepository) FindPage(limit, offset int) ([]model.Product, int64, error) {
	logger.Debug("Finding product page in database", map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})

	var total int64
	if err := r.db.Model(&model.Product{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count products in database", err)
		return nil, 0, err
	}

	var products []model.Product
	err := r.baseQuery().
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find product page in database", err, map[string]interface{}{
			"limit":  limit,
			"offset": offset,
		})
		return nil, 0, err
	}

	logger.Debug("Product page found in database", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

// escapeLike neutralizes LIKE metacharacters so query text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SearchAll returns every product whose localized name or brand contains the
// query, case-insensitively. Category facets are derived from the path in Go,
// so filtering and pagination happen in the service after this fetch.
func (r *productRepository) SearchAll(query string) ([]model.Product, error) {
	logger.Debug("Searching products in database", map[string]interface{}{
		"query": query,
	})

	q := r.baseQuery().Order("products.id ASC")

	if query != "" {
		like := "%" + escapeLike(query) + "%"
		q = q.Where(
			"EXISTS (SELECT 1 FROM product_names pn WHERE pn.product_id = products.id AND LOWER(pn.value) LIKE LOWER(?) ESCAPE '\\')"+
				" OR EXISTS (SELECT 1 FROM product_brands pb WHERE pb.product_id = products.id AND LOWER(pb.value) LIKE LOWER(?) ESCAPE '\\')",
			like, like,
		)
	}

	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		logger.Error("Failed to search products in database", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	logger.Debug("Product search completed in database", map[string]interface{}{
		"query": query,
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.baseQuery().First(&product, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return &product, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

// SetStock replaces the on-hand quantity outright and reports how many rows
// matched, so callers can distinguish an unknown product from a no-op.
func (r *productRepository) SetStock(id uint, quantity int) (int64, error) {
	logger.Debug("Setting product stock in database", map[string]interface{}{
		"product_id": id,
		"quantity":   quantity,
	})

	result := r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", quantity)
	if result.Error != nil {
		logger.Error("Failed to set product stock in database", result.Error, map[string]interface{}{
			"product_id": id,
			"quantity":   quantity,
		})
		return 0, result.Error
	}

	logger.Debug("Product stock set in database", map[string]interface{}{
		"product_id":    id,
		"quantity":      quantity,
		"rows_affected": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
