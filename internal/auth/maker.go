package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okian/talentflow/internal/domain/model"
)

// MinSecretLength is the shortest accepted HMAC secret.
const MinSecretLength = 32

// Maker signs and verifies HS256 session tokens.
type Maker struct {
	secret []byte
	now    func() time.Time
}

// NewMaker returns a Maker for secret.
func NewMaker(secret string) (*Maker, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d characters", ErrInvalidSecret, MinSecretLength)
	}
	return &Maker{secret: []byte(secret), now: time.Now}, nil
}

// CreateToken returns a signed token for u and its claims.
func (m *Maker) CreateToken(u model.User, ttl time.Duration) (string, *UserClaims, error) {
	claims, err := NewUserClaims(u, m.now(), ttl)
	if err != nil {
		return "", nil, err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("error signing token: %w", err)
	}
	return signed, claims, nil
}

// VerifyToken parses tokenStr and checks its signature and expiry.
func (m *Maker) VerifyToken(tokenStr string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
