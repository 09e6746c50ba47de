// Package identity wraps the external identity provider. The application
// never stores credentials; it only verifies the provider's session tokens
// and, on first sight of a principal, pulls the profile attributes.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken means the bearer credential failed verification.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrAccountNotFound means the provider has no record for the principal.
	ErrAccountNotFound = errors.New("identity: account not found")
)

// Account is the provider-side profile for a principal.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

type Provider interface {
	// Verify resolves a bearer credential to a principal id.
	Verify(ctx context.Context, token string) (string, error)
	// FetchAccount loads profile attributes for a principal.
	FetchAccount(ctx context.Context, principalID string) (*Account, error)
}
