package middleware

import (
	"net/http"

	"nftmint_rewards/pkg/auth"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminKey = "is_admin"

type Authorization struct {
	admins map[string]struct{}
}

// NewAuthorization takes the wallets allowed to call admin endpoints.
func NewAuthorization(adminWallets []string) *Authorization {
	admins := make(map[string]struct{}, len(adminWallets))
	for _, w := range adminWallets {
		if w != "" {
			admins[w] = struct{}{}
		}
	}
	return &Authorization{admins: admins}
}

func (a *Authorization) IsAdminWallet(wallet string) bool {
	_, ok := a.admins[wallet]
	return ok
}

// IsAdmin reports whether an earlier middleware marked the caller as admin.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(adminKey)
}

// Identify marks admin callers without rejecting anyone. It must run after the
// wallet auth middleware.
func (a *Authorization) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if wallet, ok := auth.WalletFromContext(c); ok && a.IsAdminWallet(wallet) {
			c.Set(adminKey, true)
		}
		c.Next()
	}
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		wallet, ok := auth.WalletFromContext(c)
		if !ok {
			log.Error("wallet not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}

		if !a.IsAdminWallet(wallet) {
			log.Info("unauthorized access attempt to admin endpoint", logger.Wallet(wallet), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "admin access required"})
			return
		}

		c.Set(adminKey, true)
		c.Next()
	}
}

// WalletOwner rejects requests whose :param wallet differs from the signed-in
// wallet. Admins may act on any wallet.
func (a *Authorization) WalletOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := auth.WalletFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}

		if target := c.Param(param); target != wallet && !a.IsAdminWallet(wallet) {
			logger.Logger().Info("wallet mismatch",
				logger.Wallet(wallet),
				zap.String("target", target),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "wallet mismatch"})
			return
		}

		c.Next()
	}
}
