package api

import (
	"net/http"
	"strconv"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type leaderboardRoutes struct {
	ls service.LeaderboardServiceI
}

func NewLeaderboardRoutes(handler *gin.RouterGroup, ls service.LeaderboardServiceI) {
	r := &leaderboardRoutes{ls: ls}
	handler.GET("/leaderboard", r.GetLeaderboard)
}

func (r *leaderboardRoutes) GetLeaderboard(c *gin.Context) {
	board := model.LeaderboardType(c.DefaultQuery("type", string(model.LeaderboardOverall)))

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
		limit = n
	}

	entries, err := r.ls.GetLeaderboard(c.Request.Context(), board, limit)
	if err != nil {
		logger.Logger().Error("failed to get leaderboard", zap.String("type", string(board)), zap.Error(err))
		respondError(c, err, "failed to get leaderboard")
		return
	}

	out := make([]LeaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntryResponse{
			Rank:            e.Rank,
			WalletAddress:   e.WalletAddress,
			Score:           e.Score,
			TotalReferrals:  e.TotalReferrals,
			TotalEarned:     e.TotalEarned,
			QuestsCompleted: e.QuestsCompleted,
			NFTsMinted:      e.NFTsMinted,
			TotalXP:         e.TotalXP,
			Level:           e.Level,
		}
	}

	c.JSON(http.StatusOK, gin.H{"type": board, "entries": out})
}
