package service

import (
	"errors"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOutOfStock       = errors.New("requested quantity exceeds available stock")
)

// CartView is the cart as shown to the customer. A user without a cart
// gets an empty view.
type CartView struct {
	CartID    uint             `json:"cart_id,omitempty"`
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"item_count"`
	Total     int64            `json:"total"`
}

type CartService interface {
	GetCart(userID uint) (*CartView, error)
	AddItem(userID, variantID uint, quantity int) (*CartView, error)
	SetQuantity(userID, itemID uint, quantity int) (*CartView, error)
	RemoveItem(userID, itemID uint) (*CartView, error)
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

func (s *cartService) GetCart(userID uint) (*CartView, error) {
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartView{Items: []model.CartItem{}}, nil
		}
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	view := &CartView{
		CartID: cart.ID,
		Items:  cart.Items,
		Total:  cart.Total(),
	}
	if view.Items == nil {
		view.Items = []model.CartItem{}
	}
	for _, item := range view.Items {
		view.ItemCount += item.Quantity
	}
	return view, nil
}

// AddItem puts quantity units of a variant in the cart. Only the requested
// quantity is checked against stock; adding a variant already in the cart
// increases its quantity and keeps the unit price captured on the first add.
// Checkout re-validates the merged quantity under a row lock.
func (s *cartService) AddItem(userID, variantID uint, quantity int) (*CartView, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"variant_id": variantID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	variant, err := s.productRepo.FindVariantByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: variant not found", map[string]interface{}{
				"user_id":    userID,
				"variant_id": variantID,
			})
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	if variant.Product == nil || !variant.Product.Active {
		logger.Warn("Cannot add to cart: product inactive", map[string]interface{}{
			"user_id":    userID,
			"variant_id": variantID,
		})
		return nil, ErrProductNotFound
	}

	if quantity > variant.Stock {
		logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
			"user_id":    userID,
			"variant_id": variantID,
			"requested":  quantity,
			"available":  variant.Stock,
		})
		return nil, ErrOutOfStock
	}

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(existing.ID, existing.Quantity+quantity); err != nil {
			return nil, err
		}
		return s.GetCart(userID)
	}

	item := &model.CartItem{
		CartID:    cart.ID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: variant.Product.Price,
	}
	if err := s.cartRepo.CreateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
	})
	return s.GetCart(userID)
}

// SetQuantity overwrites the quantity of a cart line; zero or less
// removes it.
func (s *cartService) SetQuantity(userID, itemID uint, quantity int) (*CartView, error) {
	item, err := s.findItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		return s.RemoveItem(userID, itemID)
	}

	if quantity > item.Variant.Stock {
		logger.Warn("Cannot update cart item: insufficient stock", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
			"requested":    quantity,
			"available":    item.Variant.Stock,
		})
		return nil, ErrOutOfStock
	}

	if err := s.cartRepo.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

func (s *cartService) RemoveItem(userID, itemID uint) (*CartView, error) {
	if _, err := s.findItem(userID, itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItem(itemID); err != nil {
		return nil, err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})
	return s.GetCart(userID)
}

func (s *cartService) findItem(userID, itemID uint) (*model.CartItem, error) {
	item, err := s.cartRepo.FindItemForUser(userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for user", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": itemID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}
