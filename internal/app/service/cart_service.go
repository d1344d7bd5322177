package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartAccessDenied  = errors.New("cart does not belong to this user")
	ErrCartItemNotFound  = errors.New("product is not in the cart")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")
)

type CartService interface {
	CreateCart(userID *uint) (*model.Cart, error)
	GetCart(cartID string, requestingUserID *uint) (*model.Cart, error)
	GetUserCart(userID uint) (*model.Cart, error)
	AddItem(cartID string, productID uint, quantity int) (*model.Cart, error)
	UpdateItemQuantity(cartID string, productID uint, quantity int) (*model.Cart, error)
	RemoveItem(cartID string, productID uint) (*model.Cart, error)
	BindOwner(cartID string, userID uint) (*model.Cart, error)
	MergeOnLogin(userID uint, guestCartID string) (*model.Cart, error)
	PurgeStaleGuestCarts(olderThan time.Duration) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) CreateCart(userID *uint) (*model.Cart, error) {
	logger.Info("Creating cart", map[string]interface{}{
		"user_id": userID,
	})

	// A signed-in user keeps a single cart
	if userID != nil {
		existing, err := s.cartRepo.FindByUserID(*userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			logger.Debug("Returning existing cart for user", map[string]interface{}{
				"user_id": *userID,
				"cart_id": existing.CartID,
			})
			return s.refreshTotal(existing)
		}
	}

	cart := &model.Cart{
		CartID: uuid.New().String(),
		UserID: userID,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Cart created", map[string]interface{}{
		"cart_id": cart.CartID,
		"user_id": userID,
	})
	return cart, nil
}

// resolveCart loads the cart for a client-held id, materializing an empty
// cart when the id was never issued. An id whose cart was destroyed stays
// dead: the soft-deleted row acts as a tombstone.
func (s *cartService) resolveCart(cartID string, userID *uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByCartID(cartID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, tombErr := s.cartRepo.FindByCartIDUnscoped(cartID); tombErr == nil {
		logger.Warn("Cart id refers to a destroyed cart", map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, ErrCartNotFound
	} else if !errors.Is(tombErr, gorm.ErrRecordNotFound) {
		return nil, tombErr
	}

	// Keep the one-cart-per-user invariant: only bind the new cart to the
	// caller when they do not already own one.
	owner := userID
	if userID != nil {
		if _, ownErr := s.cartRepo.FindByUserID(*userID); ownErr == nil {
			owner = nil
		} else if !errors.Is(ownErr, gorm.ErrRecordNotFound) {
			return nil, ownErr
		}
	}

	cart = &model.Cart{CartID: cartID, UserID: owner}
	if err := s.cartRepo.Create(cart); err != nil {
		logger.Error("Failed to materialize cart", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}

	logger.Info("Materialized empty cart for unknown id", map[string]interface{}{
		"cart_id": cartID,
		"user_id": owner,
	})
	return cart, nil
}

func (s *cartService) GetCart(cartID string, requestingUserID *uint) (*model.Cart, error) {
	logger.Debug("Getting cart", map[string]interface{}{
		"cart_id": cartID,
		"user_id": requestingUserID,
	})

	cart, err := s.resolveCart(cartID, requestingUserID)
	if err != nil {
		return nil, err
	}

	if cart.UserID != nil {
		if requestingUserID == nil || *requestingUserID != *cart.UserID {
			logger.Warn("Cart access denied", map[string]interface{}{
				"cart_id":    cartID,
				"owner_id":   *cart.UserID,
				"request_by": requestingUserID,
			})
			return nil, ErrCartAccessDenied
		}
	}

	return s.refreshTotal(cart)
}

func (s *cartService) GetUserCart(userID uint) (*model.Cart, error) {
	logger.Debug("Getting cart for user", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return s.refreshTotal(cart)
}

func (s *cartService) AddItem(cartID string, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.resolveCart(cartID, nil)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add item: product not found", map[string]interface{}{
				"cart_id":    cartID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if product.IsOutOfStock() {
		logger.Warn("Cannot add item: product out of stock", map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, ErrOutOfStock
	}

	existing := cart.ItemFor(productID)
	inCart := 0
	if existing != nil {
		inCart = existing.Quantity
	}
	if quantity+inCart > product.StockQuantity {
		logger.Warn("Cannot add item: insufficient stock", map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
			"requested":  quantity,
			"in_cart":    inCart,
			"available":  product.StockQuantity,
		})
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		existing.Quantity += quantity
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			return nil, err
		}
	} else {
		item := &model.CartItem{
			CartRefID: cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.AddItem(item); err != nil {
			return nil, err
		}
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.reload(cart.CartID)
}

func (s *cartService) UpdateItemQuantity(cartID string, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(cartID, productID)
	}

	cart, err := s.resolveCart(cartID, nil)
	if err != nil {
		return nil, err
	}

	existing := cart.ItemFor(productID)
	if existing == nil {
		logger.Warn("Cannot update quantity: product not in cart", map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, ErrCartItemNotFound
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if quantity > product.StockQuantity {
		logger.Warn("Cannot update quantity: insufficient stock", map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
			"requested":  quantity,
			"available":  product.StockQuantity,
		})
		return nil, ErrInsufficientStock
	}

	existing.Quantity = quantity
	if err := s.cartRepo.UpdateItem(existing); err != nil {
		return nil, err
	}

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.reload(cart.CartID)
}

func (s *cartService) RemoveItem(cartID string, productID uint) (*model.Cart, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	cart, err := s.resolveCart(cartID, nil)
	if err != nil {
		return nil, err
	}

	existing := cart.ItemFor(productID)
	if existing == nil {
		// Removing an absent line is a no-op
		return s.refreshTotal(cart)
	}

	if err := s.cartRepo.DeleteItem(existing.ID); err != nil {
		return nil, err
	}

	logger.Info("Item removed from cart", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})
	return s.reload(cart.CartID)
}

func (s *cartService) BindOwner(cartID string, userID uint) (*model.Cart, error) {
	logger.Info("Binding cart to user", map[string]interface{}{
		"cart_id": cartID,
		"user_id": userID,
	})

	cart, err := s.resolveCart(cartID, &userID)
	if err != nil {
		return nil, err
	}

	if cart.UserID == nil || *cart.UserID != userID {
		if err := s.cartRepo.SetOwner(cart.ID, &userID); err != nil {
			return nil, err
		}
	}

	logger.Info("Cart bound to user", map[string]interface{}{
		"cart_id": cartID,
		"user_id": userID,
	})
	return s.reload(cartID)
}

// MergeOnLogin folds a guest cart into the signing-in user's cart. Duplicate
// products sum their quantities; the guest cart is destroyed after absorption.
// A guest cart owned by someone else is left alone.
func (s *cartService) MergeOnLogin(userID uint, guestCartID string) (*model.Cart, error) {
	logger.Info("Merging guest cart on login", map[string]interface{}{
		"user_id":       userID,
		"guest_cart_id": guestCartID,
	})

	owned, err := s.cartRepo.FindByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var guest *model.Cart
	if guestCartID != "" {
		guest, err = s.cartRepo.FindByCartID(guestCartID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Nothing to merge: hand back the owned cart, creating one if needed
	if guest == nil {
		if owned != nil {
			return s.refreshTotal(owned)
		}
		return s.CreateCart(&userID)
	}

	if guest.UserID != nil && *guest.UserID != userID {
		logger.Warn("Guest cart belongs to a different user, leaving it untouched", map[string]interface{}{
			"user_id":       userID,
			"guest_cart_id": guestCartID,
			"owner_id":      *guest.UserID,
		})
		if owned != nil {
			return s.refreshTotal(owned)
		}
		return s.CreateCart(&userID)
	}

	if guest.UserID != nil && *guest.UserID == userID {
		// Already theirs
		return s.refreshTotal(guest)
	}

	// No owned cart: promote the guest cart in place
	if owned == nil {
		if err := s.cartRepo.SetOwner(guest.ID, &userID); err != nil {
			return nil, err
		}
		logger.Info("Guest cart promoted to user cart", map[string]interface{}{
			"user_id": userID,
			"cart_id": guest.CartID,
		})
		return s.reload(guest.CartID)
	}

	for i := range guest.Items {
		guestItem := &guest.Items[i]
		if existing := owned.ItemFor(guestItem.ProductID); existing != nil {
			existing.Quantity += guestItem.Quantity
			if err := s.cartRepo.UpdateItem(existing); err != nil {
				return nil, err
			}
		} else {
			item := &model.CartItem{
				CartRefID: owned.ID,
				ProductID: guestItem.ProductID,
				Quantity:  guestItem.Quantity,
			}
			if err := s.cartRepo.AddItem(item); err != nil {
				return nil, err
			}
		}
	}

	if err := s.cartRepo.Delete(guest.ID); err != nil {
		return nil, err
	}

	logger.Info("Guest cart merged into user cart", map[string]interface{}{
		"user_id":       userID,
		"cart_id":       owned.CartID,
		"guest_cart_id": guestCartID,
		"merged_items":  len(guest.Items),
	})
	return s.reload(owned.CartID)
}

func (s *cartService) PurgeStaleGuestCarts(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	logger.Info("Purging stale guest carts", map[string]interface{}{
		"cutoff": cutoff,
	})

	deleted, err := s.cartRepo.DeleteStaleGuestCarts(cutoff)
	if err != nil {
		logger.Error("Failed to purge stale guest carts", err)
		return 0, err
	}

	logger.Info("Stale guest carts purged", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted, nil
}

func (s *cartService) reload(cartID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByCartID(cartID)
	if err != nil {
		return nil, err
	}
	return s.refreshTotal(cart)
}

// refreshTotal recomputes the cart total from live product prices. The stored
// total is a cache, never the source of truth.
func (s *cartService) refreshTotal(cart *model.Cart) (*model.Cart, error) {
	total := decimal.Zero
	for i := range cart.Items {
		item := &cart.Items[i]
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if !cart.TotalAmount.Equal(total) {
		if err := s.cartRepo.UpdateTotal(cart.ID, total); err != nil {
			return nil, err
		}
		cart.TotalAmount = total
	}
	return cart, nil
}
