package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nftmint_rewards/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	SignInWindow    = 5 * time.Minute
	defaultTokenTTL = 24 * time.Hour

	walletKey = "wallet"
)

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignInExpired    = errors.New("sign-in message expired")
	ErrInvalidToken     = errors.New("invalid token")
)

type WalletAuth struct {
	secret    []byte
	tokenTTL  time.Duration
	debugMode bool
	now       func() time.Time
}

func NewWalletAuth(secret string, tokenTTL time.Duration, debugMode bool) *WalletAuth {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &WalletAuth{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		debugMode: debugMode,
		now:       time.Now,
	}
}

type WalletClaims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// SignInMessage is the exact text the wallet signs. issuedAt is unix seconds.
func SignInMessage(wallet string, issuedAt int64) string {
	return fmt.Sprintf("Sign in to NFT Mint Rewards\nWallet: %s\nIssued At: %d", wallet, issuedAt)
}

// VerifySignIn checks the ed25519 signature of SignInMessage and that it was
// issued within SignInWindow of now. Debug mode skips the signature check.
func (a *WalletAuth) VerifySignIn(wallet string, issuedAt int64, signature string) error {
	pk, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return ErrInvalidWallet
	}

	if a.debugMode {
		return nil
	}

	age := a.now().Sub(time.Unix(issuedAt, 0))
	if age < -SignInWindow || age > SignInWindow {
		return ErrSignInExpired
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	if !sig.Verify(pk, []byte(SignInMessage(wallet, issuedAt))) {
		return ErrInvalidSignature
	}

	return nil
}

func (a *WalletAuth) IssueToken(wallet string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)

	claims := &WalletClaims{
		Wallet: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

func (a *WalletAuth) ParseToken(tokenString string) (*WalletClaims, error) {
	claims := &WalletClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Wallet == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// WalletAuthMiddleware accepts "Authorization: Bearer <jwt>" or, for
// websocket upgrades, a token query parameter.
func (a *WalletAuth) WalletAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		token := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("invalid authorization header format")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization format"})
				return
			}
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization header is required"})
			return
		}

		claims, err := a.ParseToken(token)
		if err != nil {
			log.Info("invalid wallet token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}

		c.Set(walletKey, claims.Wallet)
		c.Next()
	}
}

func WalletFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(walletKey)
	if !ok {
		return "", false
	}
	wallet, ok := v.(string)
	return wallet, ok && wallet != ""
}

// SetWallet is used by tests and by middleware chains that authenticate
// through other means.
func SetWallet(c *gin.Context, wallet string) {
	c.Set(walletKey, wallet)
}
