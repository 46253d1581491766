package api

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

const healthPath = "/health"

// AuthConfig selects how bearer tokens are verified. IssuerURL enables OIDC
// discovery; otherwise PublicKeyPEM verifies RS256 tokens issued by Issuer.
type AuthConfig struct {
	IssuerURL    string
	Audience     string
	PublicKeyPEM string
	Issuer       string
}

type contextKey string

const (
	ctxTenantID contextKey = "tenant_id"
	ctxUserID   contextKey = "user_id"
)

// TenantFromContext extracts the tenant ID from the request context.
func TenantFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxTenantID).(string)
	return v
}

// UserFromContext extracts the user ID from the request context.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}

// NewVerifier builds a token verifier for cfg. It returns nil when cfg
// enables neither scheme.
func NewVerifier(ctx context.Context, cfg AuthConfig) (*oidc.IDTokenVerifier, error) {
	oidcCfg := &oidc.Config{
		ClientID:             cfg.Audience,
		SkipClientIDCheck:    cfg.Audience == "",
		SupportedSigningAlgs: []string{oidc.RS256},
	}

	switch {
	case cfg.IssuerURL != "":
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		return provider.Verifier(oidcCfg), nil
	case cfg.PublicKeyPEM != "":
		pub, err := ParsePublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{pub}}
		return oidc.NewVerifier(cfg.Issuer, keySet, oidcCfg), nil
	}
	return nil, nil
}

// ParsePublicKey decodes a PEM public key. Literal "\n" sequences are
// accepted so the key can live in a single-line environment variable.
func ParsePublicKey(raw string) (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.ReplaceAll(raw, `\n`, "\n")))
	if block == nil {
		return nil, errors.New("public key: no PEM block found")
	}
	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	return pub, nil
}

// bearerAuth returns middleware that verifies JWT Bearer tokens.
// The /health endpoint bypasses authentication.
func bearerAuth(verifier *oidc.IDTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health check bypasses auth.
			if r.URL.Path == healthPath {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			token, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
				return
			}

			var claims struct {
				TenantID string `json:"tenant_id"`
				Sub      string `json:"sub"`
				Email    string `json:"email"`
			}
			if err := token.Claims(&claims); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			userID := claims.Sub
			if userID == "" {
				userID = claims.Email
			}
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "token has no subject")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			if claims.TenantID != "" {
				ctx = context.WithValue(ctx, ctxTenantID, claims.TenantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
