package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims of a provider ID token.
type IdentityClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

func (v *Verifier) Verify(tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, &CodeError{Code: "auth/missing-id-token"}
	}
	claims := &IdentityClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, &CodeError{Code: "auth/id-token-expired", Err: err}
	}
	if err != nil || !token.Valid {
		return nil, &CodeError{Code: "auth/invalid-credential", Err: err}
	}
	if claims.Subject == "" {
		return nil, &CodeError{Code: "auth/invalid-credential", Err: errors.New("missing subject")}
	}

	provider := claims.Provider
	if provider == "" {
		provider = "google"
	}
	return &Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		ProviderID:  provider,
		IDToken:     tokenStr,
	}, nil
}

// Issue signs an ID token for id. Used by tests and local development.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		Email:    id.Email,
		Name:     id.DisplayName,
		Picture:  id.PhotoURL,
		Provider: id.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}
	return s, nil
}
