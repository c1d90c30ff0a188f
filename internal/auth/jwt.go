package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or mistyped tokens.
var ErrInvalidToken = errors.New("invalid token")

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type Claims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Kind     string      `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 token pairs.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue returns a fresh access and refresh token for u.
func (i *Issuer) Issue(u *models.User) (*models.TokenResponse, error) {
	access, err := i.sign(u, kindAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(u, kindRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Access: access, Refresh: refresh}, nil
}

// Access returns a new access token for u.
func (i *Issuer) Access(u *models.User) (string, error) {
	return i.sign(u, kindAccess, i.accessTTL)
}

func (i *Issuer) sign(u *models.User, kind string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access token.
func (i *Issuer) ParseAccess(tokenStr string) (*Claims, error) {
	return i.parse(tokenStr, kindAccess)
}

// ParseRefresh verifies a refresh token.
func (i *Issuer) ParseRefresh(tokenStr string) (*Claims, error) {
	return i.parse(tokenStr, kindRefresh)
}

func (i *Issuer) parse(tokenStr, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
