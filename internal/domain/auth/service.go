package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vouchersync/internal/core/apperror"
	"vouchersync/pkg/logger"
)

// Admin is one configured regional finance admin. Credentials come from
// configuration; there is no self-service user management.
type Admin struct {
	Username     string
	PasswordHash string // bcrypt
	Regions      []string
	IsAdmin      bool
}

// Service authenticates admins and issues tokens.
type Service struct {
	admins map[string]Admin
	jwt    *JWTService
}

// NewService creates an auth service over the configured admin set.
func NewService(admins []Admin, jwtService *JWTService) *Service {
	m := make(map[string]Admin, len(admins))
	for _, a := range admins {
		m[a.Username] = a
	}
	return &Service{admins: m, jwt: jwtService}
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	admin, ok := s.admins[username]
	if !ok {
		// Burn a comparison anyway so missing and wrong user take the
		// same time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinval"), []byte(password))
		return "", time.Time{}, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "failed login attempt", "username", username)
		return "", time.Time{}, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(admin.Username, admin.Regions, admin.IsAdmin)
	if err != nil {
		return "", time.Time{}, apperror.NewInternal(err)
	}

	logger.Info(ctx, "admin logged in", "username", username)
	return token, expiresAt, nil
}

// HashPassword produces a bcrypt hash for provisioning admin credentials.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
