package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/hash"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

var (
	ErrInvalidCredentials      = fmt.Errorf("%w: Invalid credentials", apperr.ErrValidation)
	ErrInvalidAdminCredentials = fmt.Errorf("%w: Invalid admin credentials", apperr.ErrValidation)
)

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Service
	Events   events.Publisher
	HashCost int
	Now      func() time.Time
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := transport.Validate(req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPasswordCost(req.Password, s.HashCost)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Persistence("hash password", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if apperr.IsDomainKind(err, apperr.Conflict) {
			l.Warn("register_error", "status", 400, "reason", "account exists")
		}
		return nil, storeErr(l, "register", "user", err)
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), events.UserRegistered,
		map[string]any{"userId": user.ID, "username": user.Username}, utcNow(s.Now))
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: Email and password are required", apperr.ErrValidation)
	}

	user, err := s.Repo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_error", "status", 400, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(l, "login", "user", err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_error", "status", 400, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(l, user.ID, user.Username, models.RoleUser)
}

// AdminLogin only looks at admin accounts; user credentials never match here.
func (s *AuthService) AdminLogin(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.admin_login")

	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: Email and password are required", apperr.ErrValidation)
	}

	admin, err := s.Repo.FindAdminByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("admin_login_error", "status", 400, "reason", "unknown email")
			return nil, ErrInvalidAdminCredentials
		}
		return nil, storeErr(l, "admin_login", "admin", err)
	}
	if admin.Role != models.RoleAdmin || !hash.CheckPassword(admin.PasswordHash, req.Password) {
		l.Warn("admin_login_error", "status", 400, "reason", "wrong password")
		return nil, ErrInvalidAdminCredentials
	}

	return s.issue(l, admin.ID, admin.Username, models.RoleAdmin)
}

func (s *AuthService) issue(l *slog.Logger, id uuid.UUID, username, role string) (*transport.LoginResponse, error) {
	token, exp, err := s.Tokens.Issue(id, role)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, apperr.Persistence("sign token", err)
	}
	l.Info("login_ok", "account_id", id, "role", role)
	return &transport.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      transport.AccountView{ID: id, Username: username, Role: role},
	}, nil
}

// SeedAdmin creates the bootstrap admin when no admin with that email or username exists.
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.seed_admin")

	pwHash, err := hash.HashPasswordCost(password, s.HashCost)
	if err != nil {
		return false, apperr.Persistence("hash password", err)
	}
	created, err := s.Repo.CreateAdminIfNotExists(ctx, &models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return false, storeErr(l, "seed_admin", "admin", err)
	}
	if created {
		l.Info("admin_seeded", "username", username)
	}
	return created, nil
}
