// Package tokens issues and verifies the signed session tokens carried in the
// x-access-token header.
package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
)

const DefaultTTL = time.Hour

type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token proves about the caller.
type Identity struct {
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

type Service struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{Secret: secret, TTL: ttl, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a token for the account, valid for TTL from now.
func (s *Service) Issue(userID uuid.UUID, role string) (string, time.Time, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issued := s.now()
	exp := issued.Add(ttl)

	claims := Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature and payload, then applies the expiry rule from the
// token's own exp field rather than the library's clock.
func (s *Service) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, apperr.NewAuth(apperr.AuthMissing, "a token is required for authentication")
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	tkn, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, apperr.NewAuth(apperr.AuthInvalid, "invalid token")
	}

	id, err := identityFromClaims(&claims)
	if err != nil {
		return nil, err
	}
	if Expired(id.ExpiresAt, s.now()) {
		return nil, apperr.NewAuth(apperr.AuthExpired, "token expired")
	}
	return id, nil
}

// RequireRole fails with a forbidden AuthError unless the identity has role.
func RequireRole(id *Identity, role string) error {
	if id == nil {
		return apperr.NewAuth(apperr.AuthMissing, "a token is required for authentication")
	}
	if id.Role != role {
		if role == models.RoleAdmin {
			return apperr.NewAuth(apperr.AuthForbidden, "access denied: admin privileges required")
		}
		return apperr.NewAuth(apperr.AuthForbidden, "access denied")
	}
	return nil
}

// Expired is the single expiry rule: a token is usable only while now < exp,
// compared in whole seconds since the epoch.
func Expired(exp, now time.Time) bool {
	return !(now.Unix() < exp.Unix())
}

// Decode reads the claims without checking the signature. Clients use it to
// gate views on role and expiry; it proves nothing about authenticity.
func Decode(raw string) (*Identity, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, apperr.NewAuth(apperr.AuthInvalid, "invalid token")
	}
	return identityFromClaims(&claims)
}

func identityFromClaims(c *Claims) (*Identity, error) {
	if c.ExpiresAt == nil {
		return nil, apperr.NewAuth(apperr.AuthInvalid, "invalid token")
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, apperr.NewAuth(apperr.AuthInvalid, "invalid token")
	}
	switch c.Role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, apperr.NewAuth(apperr.AuthInvalid, "invalid token")
	}
	return &Identity{UserID: userID, Role: c.Role, ExpiresAt: c.ExpiresAt.Time}, nil
}
