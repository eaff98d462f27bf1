package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signIn(t *testing.T, wallet solana.PrivateKey, issuedAt int64) string {
	t.Helper()
	msg := SignInMessage(wallet.PublicKey().String(), issuedAt)
	sig, err := wallet.Sign([]byte(msg))
	require.NoError(t, err)
	return sig.String()
}

func TestWalletAuth_VerifySignIn(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewWalletAuth("secret", time.Hour, false)
	a.now = func() time.Time { return now }

	wallet := solana.NewWallet().PrivateKey
	other := solana.NewWallet().PrivateKey
	address := wallet.PublicKey().String()

	tests := []struct {
		name      string
		wallet    string
		issuedAt  int64
		signature string
		expected  error
	}{
		{
			name:      "Valid signature",
			wallet:    address,
			issuedAt:  now.Unix(),
			signature: signIn(t, wallet, now.Unix()),
		},
		{
			name:      "Signed by another key",
			wallet:    address,
			issuedAt:  now.Unix(),
			signature: signIn(t, other, now.Unix()),
			expected:  ErrInvalidSignature,
		},
		{
			name:      "Outside sign-in window",
			wallet:    address,
			issuedAt:  now.Add(-10 * time.Minute).Unix(),
			signature: signIn(t, wallet, now.Add(-10*time.Minute).Unix()),
			expected:  ErrSignInExpired,
		},
		{
			name:      "Malformed signature",
			wallet:    address,
			issuedAt:  now.Unix(),
			signature: "zzz",
			expected:  ErrInvalidSignature,
		},
		{
			name:     "Invalid wallet",
			wallet:   "not-a-wallet",
			issuedAt: now.Unix(),
			expected: ErrInvalidWallet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.VerifySignIn(tt.wallet, tt.issuedAt, tt.signature)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestWalletAuth_Token(t *testing.T) {
	a := NewWalletAuth("secret", time.Hour, false)
	wallet := "So11111111111111111111111111111111111111112"

	token, expiresAt, err := a.IssueToken(wallet)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, wallet, claims.Wallet)

	other := NewWalletAuth("another-secret", time.Hour, false)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewWalletAuth("secret", time.Hour, false)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWalletAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewWalletAuth("secret", time.Hour, false)
	wallet := "So11111111111111111111111111111111111111112"
	token, _, err := a.IssueToken(wallet)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", a.WalletAuthMiddleware(), func(c *gin.Context) {
		w, _ := WalletFromContext(c)
		c.String(http.StatusOK, w)
	})

	tests := []struct {
		name     string
		header   string
		query    string
		status   int
		expected string
	}{
		{name: "Bearer header", header: "Bearer " + token, status: http.StatusOK, expected: wallet},
		{name: "Query token", query: "?token=" + token, status: http.StatusOK, expected: wallet},
		{name: "Missing", status: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Telegram abc", status: http.StatusUnauthorized},
		{name: "Garbage token", header: "Bearer abc", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.expected != "" {
				assert.Equal(t, tt.expected, w.Body.String())
			}
		})
	}
}
