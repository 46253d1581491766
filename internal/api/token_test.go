package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_AcceptedByStaticVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier, err := NewVerifier(t.Context(), AuthConfig{
		PublicKeyPEM: publicKeyPEM(t, key),
		Issuer:       "rhythm-api",
	})
	require.NoError(t, err)
	handler := bearerAuth(verifier)(echoHandler())

	token, err := IssueToken(key, "rhythm-api", "ops-bot", time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ops-bot", body["user_id"])
}

func TestIssueToken_Expired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier, err := NewVerifier(t.Context(), AuthConfig{PublicKeyPEM: publicKeyPEM(t, key), Issuer: "rhythm-api"})
	require.NoError(t, err)
	handler := bearerAuth(verifier)(echoHandler())

	token, err := IssueToken(key, "rhythm-api", "ops-bot", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueToken_Arguments(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = IssueToken(key, "rhythm-api", "", time.Hour, time.Now())
	assert.ErrorContains(t, err, "subject")

	_, err = IssueToken(key, "rhythm-api", "ops-bot", 0, time.Now())
	assert.ErrorContains(t, err, "ttl")
}

func TestParsePrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkcs1 := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	for name, raw := range map[string]string{
		"pkcs1":   pkcs1,
		"pkcs8":   pkcs8,
		"escaped": strings.ReplaceAll(pkcs8, "\n", `\n`),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePrivateKey(raw)
			require.NoError(t, err)
			assert.True(t, key.Equal(got))
		})
	}

	_, err = ParsePrivateKey("garbage")
	assert.Error(t, err)
}
