package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	Create(cart *model.Cart) error
	FindByCartID(cartID string) (*model.Cart, error)
	FindByCartIDUnscoped(cartID string) (*model.Cart, error)
	FindByUserID(userID uint) (*model.Cart, error)
	AddItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(id uint) error
	SetOwner(id uint, userID *uint) error
	UpdateTotal(id uint, total decimal.Decimal) error
	Delete(id uint) error
	DeleteStaleGuestCarts(olderThan time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Names").
		Preload("Items.Product.Brands")
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"cart_id": cart.CartID,
		"user_id": cart.UserID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"cart_id": cart.CartID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.CartID,
		"user_id": cart.UserID,
	})
	return nil
}

func (r *cartRepository) FindByCartID(cartID string) (*model.Cart, error) {
	logger.Debug("Finding cart by cart ID in database", map[string]interface{}{
		"cart_id": cartID,
	})

	var cart model.Cart
	err := r.preloaded().Where("cart_id = ?", cartID).First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by cart ID in database", err, map[string]interface{}{
				"cart_id": cartID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart found by cart ID in database", map[string]interface{}{
		"cart_id":    cart.CartID,
		"user_id":    cart.UserID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

// FindByCartIDUnscoped looks the cart up including soft-deleted rows. A
// soft-deleted hit means the id once existed and was destroyed, which callers
// treat differently from an id that was never issued.
func (r *cartRepository) FindByCartIDUnscoped(cartID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Unscoped().Where("cart_id = ?", cartID).First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart unscoped in database", err, map[string]interface{}{
				"cart_id": cartID,
			})
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.preloaded().Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id":    cart.CartID,
		"user_id":    userID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) AddItem(item *model.CartItem) error {
	logger.Debug("Adding cart item in database", map[string]interface{}{
		"cart_ref_id": item.CartRefID,
		"product_id":  item.ProductID,
		"quantity":    item.Quantity,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to add cart item in database", err, map[string]interface{}{
			"cart_ref_id": item.CartRefID,
			"product_id":  item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	err := r.db.Model(&model.CartItem{}).
		Where("id = ?", item.ID).
		Update("quantity", item.Quantity).Error
	if err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(id uint) error {
	logger.Debug("Deleting cart item in database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item in database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) SetOwner(id uint, userID *uint) error {
	logger.Debug("Setting cart owner in database", map[string]interface{}{
		"cart_pk": id,
		"user_id": userID,
	})

	err := r.db.Model(&model.Cart{}).
		Where("id = ?", id).
		Update("user_id", userID).Error
	if err != nil {
		logger.Error("Failed to set cart owner in database", err, map[string]interface{}{
			"cart_pk": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateTotal(id uint, total decimal.Decimal) error {
	logger.Debug("Updating cart total in database", map[string]interface{}{
		"cart_pk": id,
		"total":   total.String(),
	})

	err := r.db.Model(&model.Cart{}).
		Where("id = ?", id).
		Update("total_amount", total).Error
	if err != nil {
		logger.Error("Failed to update cart total in database", err, map[string]interface{}{
			"cart_pk": id,
		})
		return err
	}
	return nil
}

// Delete soft-deletes the cart and its line items. The cart row stays behind
// as a tombstone so the public id can never be reused.
func (r *cartRepository) Delete(id uint) error {
	logger.Debug("Deleting cart in database", map[string]interface{}{
		"cart_pk": id,
	})

	if err := r.db.Where("cart_ref_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items in database", err, map[string]interface{}{
			"cart_pk": id,
		})
		return err
	}
	if err := r.db.Delete(&model.Cart{}, id).Error; err != nil {
		logger.Error("Failed to delete cart in database", err, map[string]interface{}{
			"cart_pk": id,
		})
		return err
	}

	logger.Debug("Cart deleted in database", map[string]interface{}{
		"cart_pk": id,
	})
	return nil
}

func (r *cartRepository) DeleteStaleGuestCarts(olderThan time.Time) (int64, error) {
	logger.Debug("Deleting stale guest carts in database", map[string]interface{}{
		"older_than": olderThan,
	})

	var stale []model.Cart
	err := r.db.Where("user_id IS NULL AND updated_at < ?", olderThan).Find(&stale).Error
	if err != nil {
		logger.Error("Failed to find stale guest carts in database", err)
		return 0, err
	}

	for _, cart := range stale {
		if err := r.Delete(cart.ID); err != nil {
			return 0, err
		}
	}

	logger.Debug("Stale guest carts deleted in database", map[string]interface{}{
		"count": len(stale),
	})
	return int64(len(stale)), nil
}
