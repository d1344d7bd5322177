package repository

import (
	"time"

	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// HistoryFilter narrows the admin order-history query. Nil fields match
// everything; From/To bound CreatedAt inclusively.
type HistoryFilter struct {
	CustomerID *uint
	From       *time.Time
	To         *time.Time
}

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindHistory(filter HistoryFilter) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Names").
		Preload("Items.Product.Brands")
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	err := r.preloaded().Preload("User").First(&order, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"item_count": len(order.Items),
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	err := r.preloaded().
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindHistory(filter HistoryFilter) ([]model.Order, error) {
	logger.Debug("Finding order history in database", map[string]interface{}{
		"customer_id": filter.CustomerID,
		"from":        filter.From,
		"to":          filter.To,
	})

	query := r.preloaded().Preload("User")

	if filter.CustomerID != nil {
		query = query.Where("user_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find order history in database", err, map[string]interface{}{
			"customer_id": filter.CustomerID,
		})
		return nil, err
	}

	logger.Debug("Order history found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}
