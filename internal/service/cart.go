package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/lock"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

// CartService mutates a user's cart only while holding that user's lock, so every
// read-modify-write sees the latest stored cart.
type CartService struct {
	Repo   *repo.GormRepo
	Locker lock.Locker
	Events events.Publisher
	Now    func() time.Time
}

func cartLockKey(userID uuid.UUID) string { return "cart:" + userID.String() }

func (s *CartService) locked(ctx context.Context, userID uuid.UUID, fn func() error) error {
	if s.Locker == nil {
		return fn()
	}
	unlock, err := s.Locker.Lock(ctx, cartLockKey(userID))
	if err != nil {
		logging.FromContext(ctx).Error("cart_lock_error", "user_id", userID, "error", err)
		return apperr.Persistence("lock cart", err)
	}
	defer unlock()
	return fn()
}

func (s *CartService) AddItem(ctx context.Context, id *tokens.Identity, req transport.AddToCartRequest) (*transport.CartView, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if id == nil {
		return nil, apperr.NewAuth(apperr.AuthMissing, "a token is required for authentication")
	}
	if id.Role == models.RoleAdmin {
		l.Warn("add_to_cart_error", "status", 403, "reason", "admin caller")
		return nil, apperr.NewDomain(apperr.AdminCartForbidden, "Admins cannot add items to cart")
	}
	if err := transport.Validate(req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return nil, err
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	if _, err := s.Repo.GetProduct(ctx, req.ProductID); err != nil {
		return nil, storeErr(l, "add_to_cart", "Product not found", err)
	}

	var cart *models.Cart
	err := s.locked(ctx, id.UserID, func() error {
		var err error
		cart, err = s.Repo.UpdateCart(ctx, id.UserID, true, func(c *models.Cart) error {
			merged := false
			for i := range c.Items {
				if c.Items[i].ProductID == req.ProductID {
					if c.Items[i].Quantity+qty > models.MaxLineQuantity {
						return apperr.Validation("quantity must be at most %d per product", models.MaxLineQuantity)
					}
					c.Items[i].Quantity += qty
					merged = true
					break
				}
			}
			if !merged {
				c.Items = append(c.Items, models.CartItem{ProductID: req.ProductID, Quantity: qty})
			}
			c.UpdatedAt = utcNow(s.Now)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, storeErr(l, "add_to_cart", "cart", err)
	}

	publish(ctx, s.Events, events.TopicCarts, id.UserID.String(), events.CartItemAdded,
		map[string]any{"userId": id.UserID, "productId": req.ProductID, "quantity": qty}, cart.UpdatedAt)
	l.Info("cart_item_added", "user_id", id.UserID, "product_id", req.ProductID, "item_count", cart.ItemCount())
	return s.view(ctx, cart)
}

// GetCart treats a user without a cart as having an empty one.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*transport.CartView, error) {
	l := logging.FromContext(ctx).With("svc", "cart.get")

	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &transport.CartView{Items: []transport.CartLine{}}, nil
	}
	if err != nil {
		return nil, storeErr(l, "get_cart", "cart", err)
	}
	return s.view(ctx, cart)
}

// RemoveItem drops the product's line; removing an absent product leaves the cart as is.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*transport.CartView, error) {
	l := logging.FromContext(ctx).With("svc", "cart.remove")

	var cart *models.Cart
	err := s.locked(ctx, userID, func() error {
		var err error
		cart, err = s.Repo.UpdateCart(ctx, userID, false, func(c *models.Cart) error {
			kept := c.Items[:0]
			for _, it := range c.Items {
				if it.ProductID != productID {
					kept = append(kept, it)
				}
			}
			c.Items = kept
			c.UpdatedAt = utcNow(s.Now)
			return nil
		})
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("remove_from_cart_error", "status", 404, "reason", "no cart")
		return nil, apperr.NewDomain(apperr.CartNotFound, "Cart not found")
	}
	if err != nil {
		return nil, storeErr(l, "remove_from_cart", "cart", err)
	}

	publish(ctx, s.Events, events.TopicCarts, userID.String(), events.CartItemRemoved,
		map[string]any{"userId": userID, "productId": productID}, cart.UpdatedAt)
	return s.view(ctx, cart)
}

// Clear empties the cart. A user without a cart has nothing to clear.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "cart.clear")

	now := utcNow(s.Now)
	err := s.locked(ctx, userID, func() error {
		_, err := s.Repo.UpdateCart(ctx, userID, false, func(c *models.Cart) error {
			c.Items = []models.CartItem{}
			c.UpdatedAt = now
			return nil
		})
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(l, "clear_cart", "cart", err)
	}

	publish(ctx, s.Events, events.TopicCarts, userID.String(), events.CartCleared,
		map[string]any{"userId": userID}, now)
	return nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*transport.CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(logging.FromContext(ctx), "cart_products", "products", err)
	}

	lines := make([]transport.CartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		line := transport.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Product = &transport.CartProduct{
				ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, Quantity: p.Quantity,
			}
		}
		lines = append(lines, line)
	}

	updated := cart.UpdatedAt
	return &transport.CartView{Items: lines, ItemCount: cart.ItemCount(), UpdatedAt: &updated}, nil
}
