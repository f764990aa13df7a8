package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid token")
)

type Service struct {
	repo      AdminRepository
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewService(repo AdminRepository, jwtSecret []byte, jwtTTL time.Duration) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

// Bootstrap upserts the configured admin. An empty password skips it.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		logger.Log.Info("admin bootstrap skipped")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a := &admin.Admin{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.UpsertAdmin(ctx, a); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Log.Info("admin bootstrapped", zap.String("username", username), zap.Int64("id", a.ID))
	return nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	a, err := s.repo.FindAdmin(ctx, username)
	if err != nil {
		return "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCreds
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Verify resolves a bearer token to the admin it was issued for.
func (s *Service) Verify(ctx context.Context, tokenStr string) (*admin.Admin, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	a, err := s.repo.FindAdmin(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return a, nil
}
