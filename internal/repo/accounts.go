package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
)

const (
	msgAccountExists = "Email or username already exists"
	msgAccountTaken  = "Email or username already taken"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR username = ?", u.Email, u.Username).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.NewDomain(apperr.Conflict, msgAccountExists)
		}
		if err := tx.Create(u).Error; err != nil {
			if IsDuplicate(err) {
				return apperr.NewDomain(apperr.Conflict, msgAccountExists)
			}
			return err
		}
		return nil
	})
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile changes username and email unless another user already holds either.
func (r *GormRepo) UpdateUserProfile(ctx context.Context, id uuid.UUID, username, email string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.User{}).
			Where("(email = ? OR username = ?) AND id <> ?", email, username, id).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.NewDomain(apperr.Conflict, msgAccountTaken)
		}

		u.Username = username
		u.Email = email
		if err := tx.Save(&u).Error; err != nil {
			if IsDuplicate(err) {
				return apperr.NewDomain(apperr.Conflict, msgAccountTaken)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdminIfNotExists inserts the admin unless one with the same email or username exists.
func (r *GormRepo) CreateAdminIfNotExists(ctx context.Context, a *models.Admin) (bool, error) {
	var existing models.Admin
	err := r.DB.WithContext(ctx).
		Where("email = ? OR username = ?", a.Email, a.Username).
		First(&existing).Error
	if err == nil {
		*a = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
