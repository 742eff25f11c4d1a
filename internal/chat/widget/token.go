// Package widget emite e valida o token que a página do restaurante
// embute junto com o widget. O token fixa o restaurante da conversa:
// quando presente, vale mais que o restaurant_id do body.
package widget

import (
	"errors"
	"fmt"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "gandolfo-bfa"

// Claims é o payload do widget token.
type Claims struct {
	RestaurantID string `json:"restaurant_id"`
	jwt.RegisteredClaims
}

// Tokens assina e valida widget tokens com HMAC-SHA256.
type Tokens struct {
	secret []byte
}

// NewTokens cria o emissor. secret não pode ser vazio.
func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("widget token secret is empty")
	}
	return &Tokens{secret: []byte(secret)}, nil
}

// Issue assina um token para restaurantID. ttl <= 0 gera um token sem expiração.
func (t *Tokens) Issue(restaurantID string, ttl time.Duration) (string, error) {
	if restaurantID == "" {
		return "", &domain.ErrValidation{Field: "restaurant_id", Message: "required"}
	}
	now := time.Now()
	claims := Claims{
		RestaurantID: restaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  restaurantID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign widget token: %w", err)
	}
	return signed, nil
}

// Validate confere assinatura, emissor e expiração e devolve os claims.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "widget token inválido o expirado"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.RestaurantID == "" {
		return nil, &domain.ErrUnauthorized{Message: "widget token inválido"}
	}
	return claims, nil
}
