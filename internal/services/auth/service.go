package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/model"
)

// Errors
var (
	ErrMissingToken        = errors.New("missing token")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidTokenPayload = errors.New("token payload has no usable user id")
	ErrMissingSecret       = errors.New("token secret is not configured")
	ErrInvalidAdminKey     = errors.New("invalid admin key")
)

// Config holds configuration for the auth service
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
	}
}

// Service verifies and issues the HS256 tokens shared with the profile service
type Service struct {
	secret   []byte
	clock    clock.Clock
	tokenTTL time.Duration
}

// New creates a new auth service. An empty secret is an error.
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Service{
		secret:   []byte(cfg.Secret),
		clock:    clock,
		tokenTTL: cfg.TokenTTL,
	}, nil
}

// Verify checks the token signature and expiry and returns the identity it carries.
// The raw token is kept on the identity for calls made on the user's behalf.
func (s *Service) Verify(token string) (model.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Identity{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !parsed.Valid {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, ok := claimID(claims)
	if !ok {
		return model.Identity{}, ErrInvalidTokenPayload
	}

	return model.Identity{
		ID:          id,
		DisplayName: claimName(claims),
		Token:       token,
	}, nil
}

// Issue signs a token for the identity. A zero ttl uses the configured default.
func (s *Service) Issue(identity model.Identity, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.tokenTTL
	}
	now := s.clock.Now()

	claims := jwt.MapClaims{
		"id":  int64(identity.ID),
		"sub": identity.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if identity.DisplayName != "" {
		claims["name"] = identity.DisplayName
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// claimID reads the user id from the first of id, userId, userID and sub that holds
// a positive integer, either as a JSON number or a numeric string
func claimID(claims jwt.MapClaims) (model.PlayerID, bool) {
	for _, key := range []string{"id", "userId", "userID", "sub"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			if v > 0 && v == float64(int64(v)) {
				return model.PlayerID(v), true
			}
		case string:
			if id, err := model.ParsePlayerID(v); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

func claimName(claims jwt.MapClaims) string {
	for _, key := range []string{"name", "username"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Admin keys

// HashAdminKey returns the bcrypt hash stored in config for an operator key
func HashAdminKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckAdminKey compares an operator key against its configured bcrypt hash
func CheckAdminKey(hash, key string) error {
	if hash == "" || key == "" {
		return ErrInvalidAdminKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidAdminKey
	}
	return nil
}
