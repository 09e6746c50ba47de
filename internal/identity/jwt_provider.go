package identity

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTProvider verifies RS256 session tokens offline against the provider's
// published signing key, and fetches accounts from its REST API with the
// backend secret key.
type JWTProvider struct {
	key     *rsa.PublicKey
	issuer  string
	apiBase string
	secret  string
	client  *http.Client
}

func NewJWTProvider(publicKeyPEM, issuer, apiBase, secret string) (*JWTProvider, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("identity: parse public key: %w", err)
	}
	return &JWTProvider{
		key:     key,
		issuer:  issuer,
		apiBase: apiBase,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *JWTProvider) Verify(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (p *JWTProvider) FetchAccount(ctx context.Context, principalID string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/v1/users/"+principalID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secret)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: fetch account: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAccountNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity: provider returned status %d", resp.StatusCode)
	}

	var acct Account
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, fmt.Errorf("identity: decode account: %w", err)
	}
	if acct.ID == "" {
		acct.ID = principalID
	}
	return &acct, nil
}
