package widget_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"
	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokens_IssueAndValidate(t *testing.T) {
	tokens, err := widget.NewTokens("s3cret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	signed, err := tokens.Issue("abc-123", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.RestaurantID != "abc-123" {
		t.Errorf("expected restaurant abc-123, got %q", claims.RestaurantID)
	}
}

func TestTokens_Rejects(t *testing.T) {
	tokens, _ := widget.NewTokens("s3cret")
	other, _ := widget.NewTokens("other")

	noExpiry, _ := tokens.Issue("abc-123", -time.Hour)
	foreign, _ := other.Issue("abc-123", time.Hour)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Validate(tok)
			var unauth *domain.ErrUnauthorized
			if !errors.As(err, &unauth) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}

	// ttl <= 0 means no expiry.
	if _, err := tokens.Validate(noExpiry); err != nil {
		t.Errorf("expected token without expiry to validate, got %v", err)
	}
}

func TestNewTokens_EmptySecret(t *testing.T) {
	if _, err := widget.NewTokens(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokens_IssueRequiresRestaurant(t *testing.T) {
	tokens, _ := widget.NewTokens("s3cret")
	if _, err := tokens.Issue("", time.Hour); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens, _ := widget.NewTokens("s3cret")
	claims := widget.Claims{
		RestaurantID: "abc-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gandolfo-bfa",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
