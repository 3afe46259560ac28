package services

import (
	"errors"
	"os"
	"time"

	"daredo/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/do"
)

type CustomClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authentication validates session tokens minted by the external auth
// surface. The engine trusts the {user, role} pair and does nothing else
// with it.
type Authentication struct {
	secret []byte
}

func NewAuthentication(container *do.Injector) (*Authentication, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}

	return &Authentication{secret: []byte(secret)}, nil
}

func (service *Authentication) ValidateToken(tokenString string) (*models.UserFromAuth, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return service.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return &models.UserFromAuth{
		ID:       claims.ID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// IssueToken exists for the dev login path and tests; production tokens
// come from the external auth service with the same secret.
func (service *Authentication) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(service.secret)
}
