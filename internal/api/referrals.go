package api

import (
	"net/http"

	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type referralRoutes struct {
	rs service.ReferralServiceI
	g  Guards
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, g Guards) {
	r := &referralRoutes{rs: rs, g: g}
	h := handler.Group("/referrals")
	h.Use(g.Auth)
	{
		h.POST("/track", r.TrackReferral)
		h.GET("/:wallet/stats", r.GetStats)
		h.GET("/:wallet/history", r.GetHistory)
	}
}

type TrackReferralRequest struct {
	ReferralCode  string `json:"referralCode" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// TrackReferral is called by the referred wallet itself.
func (r *referralRoutes) TrackReferral(c *gin.Context) {
	log := logger.Logger()

	var req TrackReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind track referral request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("invalid request"))
		return
	}

	if !r.g.owns(c, req.WalletAddress) {
		c.JSON(http.StatusForbidden, errorBody("wallet mismatch"))
		return
	}

	if err := r.rs.TrackReferral(c.Request.Context(), req.ReferralCode, req.WalletAddress); err != nil {
		log.Info("failed to track referral",
			logger.Wallet(req.WalletAddress),
			zap.String("code", req.ReferralCode),
			zap.Error(err),
		)
		respondError(c, err, "failed to track referral")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *referralRoutes) GetStats(c *gin.Context) {
	wallet := c.Param("wallet")

	stats, err := r.rs.GetReferralStats(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to get referral stats", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get referral stats")
		return
	}

	c.JSON(http.StatusOK, ReferralStatsResponse{
		WalletAddress:      stats.WalletAddress,
		ReferralCode:       stats.ReferralCode,
		TotalReferrals:     stats.TotalReferrals,
		PendingReferrals:   stats.PendingReferrals,
		CompletedReferrals: stats.CompletedReferrals,
		RewardedReferrals:  stats.RewardedReferrals,
		TotalEarned:        stats.TotalEarned,
		PendingEarnings:    stats.PendingEarnings,
	})
}

func (r *referralRoutes) GetHistory(c *gin.Context) {
	wallet := c.Param("wallet")

	referrals, err := r.rs.GetReferralHistory(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to get referral history", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get referral history")
		return
	}

	out := make([]ReferralResponse, len(referrals))
	for i, ref := range referrals {
		out[i] = newReferralResponse(ref)
	}

	c.JSON(http.StatusOK, out)
}
