package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/electro_shop/pkg/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCart runs fn on the user's cart inside a transaction with the row locked.
// With create set, a missing cart is started empty; otherwise gorm.ErrRecordNotFound
// is returned. A lost race on the first insert is retried once.
func (r *GormRepo) UpdateCart(ctx context.Context, userID uuid.UUID, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	cart, err := r.updateCart(ctx, userID, create, fn)
	if err != nil && create && IsDuplicate(err) {
		return r.updateCart(ctx, userID, create, fn)
	}
	return cart, err
}

func (r *GormRepo) updateCart(ctx context.Context, userID uuid.UUID, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&cart).Error
		isNew := false
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound) && create:
			cart = models.Cart{UserID: userID, Items: []models.CartItem{}}
			isNew = true
		default:
			return err
		}

		if err := fn(&cart); err != nil {
			return err
		}
		if cart.Items == nil {
			cart.Items = []models.CartItem{}
		}

		if isNew {
			return tx.Create(&cart).Error
		}
		return tx.Save(&cart).Error
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
