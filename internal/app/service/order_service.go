package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cannot place an order from an empty cart")
)

type OrderService interface {
	PlaceOrder(cartID string, userID uint, shippingAddress, billingAddress string) (*model.Order, error)
	GetOrderByID(orderID uint) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	History(filter repository.HistoryFilter) ([]model.Order, error)
	ExportHistoryXLSX(filter repository.HistoryFilter) ([]byte, error)
}

type orderService struct {
	db        *gorm.DB
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
}

func NewOrderService(db *gorm.DB, cartRepo repository.CartRepository, orderRepo repository.OrderRepository) OrderService {
	return &orderService{
		db:        db,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
	}
}

// PlaceOrder turns a cart into an order. Stock is re-checked per line under
// row locks, the current price is frozen into the order lines, stock is
// decremented and the cart destroyed, all in one transaction.
func (s *orderService) PlaceOrder(cartID string, userID uint, shippingAddress, billingAddress string) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"cart_id": cartID,
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindByCartID(cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order placement failed: cart not found", map[string]interface{}{
				"cart_id": cartID,
			})
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if cart.UserID != nil && *cart.UserID != userID {
		logger.Warn("Order placement failed: cart belongs to another user", map[string]interface{}{
			"cart_id":  cartID,
			"owner_id": *cart.UserID,
			"user_id":  userID,
		})
		return nil, ErrCartAccessDenied
	}

	if len(cart.Items) == 0 {
		logger.Warn("Order placement failed: cart is empty", map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order placement, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"cart_id": cartID,
			})
		}
	}()

	var (
		totalAmount = decimal.Zero
		orderItems  []model.OrderItem
	)

	for _, cartItem := range cart.Items {
		var product model.Product
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, cartItem.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product not found during order placement", map[string]interface{}{
					"cart_id":    cartID,
					"product_id": cartItem.ProductID,
				})
				return nil, ErrProductNotFound
			}
			logger.Error("Failed to fetch product during order placement", err, map[string]interface{}{
				"cart_id":    cartID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}

		if product.StockQuantity < cartItem.Quantity {
			tx.Rollback()
			logger.Warn("Order placement failed: insufficient stock", map[string]interface{}{
				"cart_id":    cartID,
				"product_id": product.ID,
				"requested":  cartItem.Quantity,
				"available":  product.StockQuantity,
			})
			return nil, fmt.Errorf("%w: product %d", ErrInsufficientStock, product.ID)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))
		totalAmount = totalAmount.Add(lineTotal)
		orderItems = append(orderItems, model.OrderItem{
			ProductID: product.ID,
			Quantity:  cartItem.Quantity,
			Price:     product.Price,
		})
	}

	order := &model.Order{
		UserID:          userID,
		CartID:          cart.CartID,
		TotalAmount:     totalAmount,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		Status:          model.OrderStatusPending,
		Items:           orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"cart_id": cartID,
			"user_id": userID,
		})
		return nil, err
	}

	for _, cartItem := range cart.Items {
		if err := tx.Model(&model.Product{}).
			Where("id = ?", cartItem.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", cartItem.Quantity)).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to decrement stock", err, map[string]interface{}{
				"cart_id":    cartID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}
	}

	// Tear the cart down inside the same transaction; the soft-deleted row
	// keeps the public id dead afterwards
	if err := tx.Where("cart_ref_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to delete cart items after order", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	if err := tx.Delete(&model.Cart{}, cart.ID).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to delete cart after order", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      userID,
		"cart_id":      cartID,
		"total_amount": totalAmount.String(),
		"item_count":   len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetOrderByID(orderID uint) (*model.Order, error) {
	logger.Debug("Getting order by ID", map[string]interface{}{
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Getting orders for user", map[string]interface{}{
		"user_id": userID,
	})
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) History(filter repository.HistoryFilter) ([]model.Order, error) {
	logger.Debug("Getting order history", map[string]interface{}{
		"customer_id": filter.CustomerID,
		"from":        filter.From,
		"to":          filter.To,
	})
	return s.orderRepo.FindHistory(filter)
}

// ExportHistoryXLSX renders the filtered order history as a spreadsheet, one
// row per order line.
func (s *orderService) ExportHistoryXLSX(filter repository.HistoryFilter) ([]byte, error) {
	logger.Info("Exporting order history to XLSX", map[string]interface{}{
		"customer_id": filter.CustomerID,
	})

	orders, err := s.orderRepo.FindHistory(filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales History"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Order ID", "Placed At", "Customer", "Email", "Status", "Product", "SKU", "Quantity", "Unit Price", "Line Total"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, order := range orders {
		for _, item := range order.Items {
			lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			values := []interface{}{
				order.ID,
				order.CreatedAt.Format(time.RFC3339),
				order.User.Name,
				order.User.Email,
				string(order.Status),
				item.Product.DisplayName(),
				item.Product.SKU,
				item.Quantity,
				item.Price.String(),
				lineTotal.String(),
			}
			for i, v := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to render XLSX export", err)
		return nil, err
	}

	logger.Info("Order history exported", map[string]interface{}{
		"orders": len(orders),
		"rows":   row - 2,
	})
	return buf.Bytes(), nil
}
