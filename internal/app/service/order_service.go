package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidCheckoutState = errors.New("cart or address not ready for checkout")
	ErrDuplicateOrderNumber = errors.New("order number already in use")
	ErrInvalidTransition    = errors.New("order status transition not allowed")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrOrderNotPayable      = errors.New("only pending orders can be paid")
)

type CheckoutRequest struct {
	AddressID      uint
	ShippingMethod string
	Email          string
}

type OrderService interface {
	Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error)
	ListUserOrders(userID uint) ([]model.Order, error)
	GetUserOrder(userID, orderID uint) (*model.Order, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	GetOrder(orderID uint) (*model.Order, error)
	SetStatus(ctx context.Context, orderID uint, status model.OrderStatus, trackingCode string) (*model.Order, error)
	ConfirmPayment(ctx context.Context, userID, orderID uint, paidAt time.Time) (*model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	notifier    OrderNotifier
	publisher   OrderEventPublisher
	newNumber   func(now time.Time) string
	now         func() time.Time
}

type OrderServiceOption func(*orderService)

// WithOrderNumbers replaces the order number generator.
func WithOrderNumbers(fn func(now time.Time) string) OrderServiceOption {
	return func(s *orderService) { s.newNumber = fn }
}

// WithOrderPublisher pushes status changes to live sessions.
func WithOrderPublisher(p OrderEventPublisher) OrderServiceOption {
	return func(s *orderService) { s.publisher = p }
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	notifier OrderNotifier,
	orderNumberPrefix string,
	opts ...OrderServiceOption,
) OrderService {
	s := &orderService{
		db:          db,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		notifier:    notifier,
		newNumber: func(now time.Time) string {
			return util.GenerateOrderNumber(orderNumberPrefix, now)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout turns the user's cart into a pending order in one transaction:
// variants are locked and re-checked, line snapshots written, stock taken
// and the cart deleted. Any failure leaves stock and cart untouched.
func (s *orderService) Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id":         userID,
		"address_id":      req.AddressID,
		"shipping_method": req.ShippingMethod,
	})

	address, err := s.addressRepo.FindByID(req.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: address not found", map[string]interface{}{
				"user_id":    userID,
				"address_id": req.AddressID,
			})
			return nil, fmt.Errorf("%w: address not found", ErrInvalidCheckoutState)
		}
		return nil, err
	}
	if address.UserID != userID {
		logger.Warn("Checkout rejected: address belongs to another user", map[string]interface{}{
			"user_id":    userID,
			"address_id": req.AddressID,
		})
		return nil, fmt.Errorf("%w: address not found", ErrInvalidCheckoutState)
	}

	shipping := LookupShipping(req.ShippingMethod)

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
			panic(r)
		}
	}()

	var cart model.Cart
	if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id ASC")
	}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: no cart", map[string]interface{}{
				"user_id": userID,
			})
			return nil, fmt.Errorf("%w: cart is empty", ErrInvalidCheckoutState)
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		tx.Rollback()
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidCheckoutState)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		var user model.User
		if err := tx.Select("id", "email").First(&user, userID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return nil, err
		}
		email = user.Email
	}

	variants := make([]*model.Variant, len(cart.Items))
	items := make([]model.OrderItem, 0, len(cart.Items))
	var subtotal int64
	for i, cartItem := range cart.Items {
		var variant model.Variant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Product").
			First(&variant, cartItem.VariantID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: variant %d no longer exists", ErrInvalidCheckoutState, cartItem.VariantID)
			}
			logger.Error("Failed to lock variant during checkout", err, map[string]interface{}{
				"user_id":    userID,
				"variant_id": cartItem.VariantID,
			})
			return nil, err
		}

		if cartItem.Quantity > variant.Stock {
			tx.Rollback()
			logger.Warn("Checkout failed: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"variant_id": variant.ID,
				"requested":  cartItem.Quantity,
				"available":  variant.Stock,
			})
			return nil, ErrOutOfStock
		}

		variantID := variant.ID
		items = append(items, model.OrderItem{
			VariantID:   &variantID,
			ProductName: variant.Product.Name,
			SizeColor:   variant.Label(),
			Quantity:    cartItem.Quantity,
			UnitPrice:   cartItem.UnitPrice,
		})
		subtotal += cartItem.Subtotal()
		variants[i] = &variant
	}

	now := s.now()
	order := &model.Order{
		UserID:          &userID,
		OrderNumber:     s.newNumber(now),
		Email:           email,
		Subtotal:        subtotal,
		ShippingCost:    shipping.Cost,
		Total:           subtotal + shipping.Cost,
		ShippingMethod:  shipping.Label,
		ShippingAddress: address.Line(),
		Status:          model.OrderStatusPending,
		OrderItems:      items,
	}

	if err := tx.Omit("User").Create(order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("Checkout failed: duplicate order number", map[string]interface{}{
				"user_id":      userID,
				"order_number": order.OrderNumber,
			})
			return nil, ErrDuplicateOrderNumber
		}
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	for i, cartItem := range cart.Items {
		if err := repository.AdjustStock(tx, variants[i], -cartItem.Quantity, model.StockMovementSale, &order.ID); err != nil {
			tx.Rollback()
			logger.Error("Failed to decrement stock", err, map[string]interface{}{
				"order_id":   order.ID,
				"variant_id": variants[i].ID,
			})
			return nil, err
		}
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&model.Cart{}, cart.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
		"item_count":   len(items),
	})

	s.publish(order)
	return order, nil
}

func (s *orderService) ListUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetUserOrder reports orders of other users as missing.
func (s *orderService) GetUserOrder(userID, orderID uint) (*model.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.orderRepo.FindWithFilter(filter)
}

func (s *orderService) GetOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	return order, nil
}

// SetStatus moves an order along the fulfillment path. Cancelling puts
// the units of every still-existing variant back in stock within the same
// transaction. After commit a changed status notifies the customer and
// live sessions; setting the current status again only updates the
// tracking code.
func (s *orderService) SetStatus(ctx context.Context, orderID uint, status model.OrderStatus, trackingCode string) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	trackingCode = strings.TrimSpace(trackingCode)

	logger.Info("Updating order status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	var (
		order    model.Order
		previous model.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		previous = order.Status

		if !previous.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, previous, status)
		}

		updates := map[string]interface{}{"status": status}
		if trackingCode != "" {
			updates["tracking_code"] = trackingCode
		}
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		if status == model.OrderStatusCancelled && previous != model.OrderStatusCancelled {
			if err := restockOrder(tx, &order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			logger.Warn("Order status transition rejected", map[string]interface{}{
				"order_id": orderID,
				"from":     previous,
				"to":       status,
			})
		} else if !errors.Is(err, ErrOrderNotFound) {
			logger.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
			})
		}
		return nil, err
	}

	order.Status = status
	if trackingCode != "" {
		order.TrackingCode = trackingCode
	}

	if previous == status {
		logger.Debug("Order status unchanged", map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return &order, nil
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     previous,
		"to":       status,
	})

	if s.notifier != nil {
		s.notifier.NotifyStatus(ctx, &order)
	}
	s.publish(&order)
	return &order, nil
}

// ConfirmPayment moves the user's pending order to confirmed and stamps
// paid_at in one transaction. Concurrent confirmations of the same order
// serialize on the row lock; only the first one succeeds and triggers the
// notification, the rest get ErrOrderNotPayable.
func (s *orderService) ConfirmPayment(ctx context.Context, userID, orderID uint, paidAt time.Time) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if !order.OwnedBy(userID) {
			return ErrOrderNotFound
		}
		if order.Status != model.OrderStatusPending {
			return fmt.Errorf("%w: status %s", ErrOrderNotPayable, order.Status)
		}

		confirmed, err := repository.ConfirmPaid(tx, orderID, paidAt)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrOrderNotPayable
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotPayable):
			logger.Warn("Payment rejected: order not pending", map[string]interface{}{
				"order_id": orderID,
				"status":   order.Status,
			})
		case errors.Is(err, ErrOrderNotFound):
			logger.Warn("Payment rejected: order not found for user", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
		default:
			logger.Error("Failed to confirm payment", err, map[string]interface{}{
				"order_id": orderID,
			})
		}
		return nil, err
	}

	order.Status = model.OrderStatusConfirmed
	order.PaidAt = &paidAt

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     model.OrderStatusPending,
		"to":       model.OrderStatusConfirmed,
	})

	if s.notifier != nil {
		s.notifier.NotifyStatus(ctx, &order)
	}
	s.publish(&order)
	return &order, nil
}

func lockOrder(tx *gorm.DB, orderID uint, dest *model.Order) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		First(dest, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func restockOrder(tx *gorm.DB, order *model.Order) error {
	for _, item := range order.OrderItems {
		if item.VariantID == nil {
			continue
		}
		variant, err := repository.LockVariant(tx, *item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if err := repository.AdjustStock(tx, variant, item.Quantity, model.StockMovementCancelRestore, &order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *orderService) publish(order *model.Order) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishOrderStatus(order)
}
