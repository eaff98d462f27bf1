package api

import (
	"net/http"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type questRoutes struct {
	qs service.QuestServiceI
	g  Guards
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, g Guards) {
	r := &questRoutes{qs: qs, g: g}
	h := handler.Group("/quests")
	{
		h.GET("", r.ListQuests)

		private := h.Group("/")
		private.Use(g.Auth)
		{
			private.POST("/progress", r.UpdateProgress)
			private.GET("/:wallet/progress", g.Authz.WalletOwner("wallet"), r.GetProgress)
			private.POST("/:wallet/claim/:progress_id", g.Authz.WalletOwner("wallet"), r.ClaimReward)
		}
	}
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	var (
		quests []*model.Quest
		err    error
	)

	if questType := c.Query("type"); questType != "" {
		quests, err = r.qs.GetQuestsByType(c.Request.Context(), model.QuestType(questType))
	} else {
		quests, err = r.qs.GetActiveQuests(c.Request.Context())
	}
	if err != nil {
		logger.Logger().Error("failed to list quests", zap.Error(err))
		respondError(c, err, "failed to list quests")
		return
	}

	out := make([]QuestResponse, len(quests))
	for i, q := range quests {
		out[i] = newQuestResponse(q)
	}

	c.JSON(http.StatusOK, out)
}

func (r *questRoutes) GetProgress(c *gin.Context) {
	wallet := c.Param("wallet")

	progress, err := r.qs.GetUserQuestProgress(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to get quest progress", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get quest progress")
		return
	}

	out := make([]QuestProgressResponse, len(progress))
	for i, p := range progress {
		out[i] = newQuestProgressResponse(p)
	}

	c.JSON(http.StatusOK, out)
}

type VerificationBody struct {
	Score  int    `json:"score"`
	Source string `json:"source"`
}

type UpdateProgressRequest struct {
	WalletAddress     string            `json:"walletAddress" binding:"required"`
	QuestID           string            `json:"questId" binding:"required"`
	ProgressIncrement int               `json:"progressIncrement"`
	VerificationData  *VerificationBody `json:"verificationData"`
}

func (r *questRoutes) UpdateProgress(c *gin.Context) {
	log := logger.Logger()

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind progress request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("invalid request"))
		return
	}

	if !r.g.owns(c, req.WalletAddress) {
		c.JSON(http.StatusForbidden, errorBody("wallet mismatch"))
		return
	}

	questID, err := uuid.Parse(req.QuestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid questId"))
		return
	}

	var verification *model.VerificationData
	if req.VerificationData != nil {
		verification = &model.VerificationData{Score: req.VerificationData.Score, Source: req.VerificationData.Source}
	}

	progress, err := r.qs.UpdateProgress(c.Request.Context(), req.WalletAddress, questID, req.ProgressIncrement, verification)
	if err != nil {
		log.Info("failed to update quest progress",
			logger.Wallet(req.WalletAddress),
			zap.String("quest_id", req.QuestID),
			zap.Error(err),
		)
		respondError(c, err, "failed to update quest progress")
		return
	}

	c.JSON(http.StatusOK, newQuestProgressResponse(progress))
}

func (r *questRoutes) ClaimReward(c *gin.Context) {
	log := logger.Logger()
	wallet := c.Param("wallet")
	progressID := c.Param("progress_id")

	progress, err := r.qs.ClaimReward(c.Request.Context(), wallet, progressID)
	if err != nil {
		// Claimed but the XP credit failed: report it while returning the row.
		if progress != nil {
			log.Error("quest claimed without xp", logger.Wallet(wallet), zap.String("progress_id", progressID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":  false,
				"error":    "quest claimed but xp credit failed",
				"progress": newQuestProgressResponse(progress),
			})
			return
		}
		log.Info("failed to claim quest", logger.Wallet(wallet), zap.String("progress_id", progressID), zap.Error(err))
		respondError(c, err, "failed to claim quest")
		return
	}

	c.JSON(http.StatusOK, newQuestProgressResponse(progress))
}
