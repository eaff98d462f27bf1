package api

import (
	"nftmint_rewards/internal/middleware"
	"nftmint_rewards/pkg/auth"

	"github.com/gin-gonic/gin"
)

// Guards bundles the middleware route groups pick from.
type Guards struct {
	Auth  gin.HandlerFunc
	Authz *middleware.Authorization
}

func NewGuards(wa *auth.WalletAuth, authz *middleware.Authorization) Guards {
	return Guards{Auth: wa.WalletAuthMiddleware(), Authz: authz}
}

// owns reports whether the signed-in caller may act for wallet.
func (g Guards) owns(c *gin.Context, wallet string) bool {
	caller, ok := auth.WalletFromContext(c)
	if !ok {
		return false
	}
	return caller == wallet || g.Authz.IsAdminWallet(caller)
}
