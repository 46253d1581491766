package api

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// TokenSource marks tokens minted for service-to-service callers.
const TokenSource = "microservice"

// ParsePrivateKey decodes a PEM RSA private key in PKCS#1 or PKCS#8 form.
// Literal "\n" sequences are accepted as in ParsePublicKey.
func ParsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.ReplaceAll(raw, `\n`, "\n")))
	if block == nil {
		return nil, errors.New("private key: no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key: want RSA, got %T", parsed)
	}
	return key, nil
}

// IssueToken signs an RS256 token for subject that the static-key verifier
// accepts. ttl must be positive; tokens without expiry are rejected.
func IssueToken(key *rsa.PrivateKey, issuer, subject string, ttl time.Duration, now time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("issue token: subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("issue token: ttl must be positive")
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	claims := jwt.Claims{
		Issuer:   issuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(ttl)),
	}
	raw, err := jwt.Signed(sig).
		Claims(claims).
		Claims(map[string]any{"source": TokenSource}).
		Serialize()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return raw, nil
}
