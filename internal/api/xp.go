package api

import (
	"net/http"

	"nftmint_rewards/internal/middleware"
	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type xpRoutes struct {
	xs service.XPServiceI
	g  Guards
}

func NewXPRoutes(handler *gin.RouterGroup, xs service.XPServiceI, g Guards) {
	r := &xpRoutes{xs: xs, g: g}
	h := handler.Group("/xp")
	{
		h.GET("/:wallet", r.GetXP)
		h.POST("/award", g.Auth, g.Authz.Identify(), r.AwardXP)
	}
}

func (r *xpRoutes) GetXP(c *gin.Context) {
	wallet := c.Param("wallet")

	record, err := r.xs.GetUserXPData(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to get xp", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get xp")
		return
	}

	c.JSON(http.StatusOK, newXPResponse(record))
}

type AwardXPRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	XPAmount      int    `json:"xpAmount"`
	Source        string `json:"source" binding:"required"`
}

type AwardXPResponse struct {
	Success   bool       `json:"success"`
	XPAwarded int        `json:"xpAwarded"`
	XP        XPResponse `json:"xp"`
}

// AwardXP lets a wallet claim its daily mini-game result. Any other source is
// reserved for admins.
func (r *xpRoutes) AwardXP(c *gin.Context) {
	log := logger.Logger()

	var req AwardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind xp award request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("invalid request"))
		return
	}

	if req.XPAmount <= 0 || req.XPAmount > r.xs.MaxXPAward() {
		c.JSON(http.StatusBadRequest, errorBody(service.ErrInvalidXPAmount.Error()))
		return
	}

	var (
		record  *model.XPRecord
		awarded = req.XPAmount
		err     error
	)

	switch {
	case req.Source == service.XPSourceMiniGame:
		if !r.g.owns(c, req.WalletAddress) {
			c.JSON(http.StatusForbidden, errorBody("wallet mismatch"))
			return
		}
		record, awarded, err = r.xs.AwardMiniGameXP(c.Request.Context(), req.WalletAddress, req.XPAmount)
	case middleware.IsAdmin(c):
		record, err = r.xs.AddUserXP(c.Request.Context(), req.WalletAddress, req.XPAmount, req.Source)
	default:
		c.JSON(http.StatusForbidden, errorBody("admin access required"))
		return
	}

	if err != nil {
		log.Info("failed to award xp",
			logger.Wallet(req.WalletAddress),
			zap.String("source", req.Source),
			zap.Int("amount", req.XPAmount),
			zap.Error(err),
		)
		respondError(c, err, "failed to award xp")
		return
	}

	c.JSON(http.StatusOK, AwardXPResponse{Success: true, XPAwarded: awarded, XP: newXPResponse(record)})
}
