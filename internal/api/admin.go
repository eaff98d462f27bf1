package api

import (
	"net/http"

	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type adminRoutes struct {
	us service.UserServiceI
	rs service.ReferralServiceI
	qs service.QuestServiceI
}

func NewAdminRoutes(
	handler *gin.RouterGroup,
	us service.UserServiceI,
	rs service.ReferralServiceI,
	qs service.QuestServiceI,
	g Guards,
) {
	r := &adminRoutes{us: us, rs: rs, qs: qs}
	h := handler.Group("/admin")
	h.Use(g.Auth, g.Authz.AdminOnly())
	{
		h.POST("/referrals/:wallet/complete", r.CompleteReferral)
		h.POST("/referrals/:wallet/reward", r.RewardReferral)
		h.POST("/quests/seed", r.SeedQuests)
		h.POST("/quests/cleanup", r.CleanupQuests)
		h.POST("/users/:wallet/reset", r.ResetUser)
	}
}

func (r *adminRoutes) CompleteReferral(c *gin.Context) {
	wallet := c.Param("wallet")

	completed, err := r.rs.CompleteReferral(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to complete referral", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to complete referral")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": completed})
}

type RewardReferralRequest struct {
	TxRef *string `json:"txRef"`
}

func (r *adminRoutes) RewardReferral(c *gin.Context) {
	log := logger.Logger()
	wallet := c.Param("wallet")

	var req RewardReferralRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Info("failed to bind reward request", zap.Error(err))
			c.JSON(http.StatusBadRequest, errorBody("invalid request"))
			return
		}
	}

	rewarded, err := r.rs.ProcessReferralReward(c.Request.Context(), wallet, req.TxRef)
	if err != nil {
		log.Error("failed to reward referral", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to reward referral")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": rewarded})
}

func (r *adminRoutes) SeedQuests(c *gin.Context) {
	created, err := r.qs.SeedQuests(c.Request.Context())
	if err != nil {
		logger.Logger().Error("failed to seed quests", zap.Error(err))
		respondError(c, err, "failed to seed quests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}

func (r *adminRoutes) CleanupQuests(c *gin.Context) {
	deleted, err := r.qs.CleanupDuplicateQuests(c.Request.Context())
	if err != nil {
		logger.Logger().Error("failed to clean up quests", zap.Error(err))
		respondError(c, err, "failed to clean up quests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

func (r *adminRoutes) ResetUser(c *gin.Context) {
	wallet := c.Param("wallet")

	if err := r.us.ResetUser(c.Request.Context(), wallet); err != nil {
		logger.Logger().Error("failed to reset user", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to reset user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "walletAddress": wallet})
}
