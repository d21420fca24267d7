package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/internal/hash"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type ProfileService struct {
	Repo     *repo.GormRepo
	HashCost int
}

func profileView(u *models.User) *transport.ProfileView {
	return &transport.ProfileView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*transport.ProfileView, error) {
	l := logging.FromContext(ctx).With("svc", "profile.get")

	u, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(l, "get_profile", "User not found", err)
	}
	return profileView(u), nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (*transport.ProfileView, error) {
	l := logging.FromContext(ctx).With("svc", "profile.update")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := transport.Validate(req); err != nil {
		return nil, err
	}

	u, err := s.Repo.UpdateUserProfile(ctx, userID, req.Username, req.Email)
	if err != nil {
		return nil, storeErr(l, "update_profile", "User not found", err)
	}
	l.Info("profile_updated", "user_id", userID)
	return profileView(u), nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, req transport.ChangePasswordRequest) error {
	l := logging.FromContext(ctx).With("svc", "profile.change_password")

	if err := transport.Validate(req); err != nil {
		return err
	}

	u, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return storeErr(l, "change_password", "User not found", err)
	}
	if !hash.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		l.Warn("change_password_error", "status", 400, "reason", "current password mismatch")
		return apperr.Validation("Current password is incorrect")
	}

	pwHash, err := hash.HashPasswordCost(req.NewPassword, s.HashCost)
	if err != nil {
		return apperr.Persistence("hash password", err)
	}
	if err := s.Repo.UpdateUserPassword(ctx, userID, pwHash); err != nil {
		return storeErr(l, "change_password", "User not found", err)
	}
	l.Info("password_changed", "user_id", userID)
	return nil
}
