package api

import (
	"net/http"

	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us service.UserServiceI
	rs service.ReferralServiceI
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, rs service.ReferralServiceI, g Guards) {
	r := &userRoutes{us: us, rs: rs}
	h := handler.Group("/users")
	h.Use(g.Auth)
	{
		h.GET("/:wallet", r.GetUser)

		owner := h.Group("/")
		owner.Use(g.Authz.WalletOwner("wallet"))
		{
			owner.POST("/:wallet/init", r.InitUser)
			owner.POST("/:wallet/mints", r.RecordMint)
		}
	}
}

func (r *userRoutes) InitUser(c *gin.Context) {
	wallet := c.Param("wallet")

	user, err := r.rs.InitializeUserReferral(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Error("failed to initialize user", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to initialize user")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (r *userRoutes) GetUser(c *gin.Context) {
	wallet := c.Param("wallet")

	user, err := r.us.GetUser(c.Request.Context(), wallet)
	if err != nil {
		logger.Logger().Info("failed to get user", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to get user")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type RecordMintRequest struct {
	TxSignature string `json:"txSignature" binding:"required"`
}

func (r *userRoutes) RecordMint(c *gin.Context) {
	log := logger.Logger()
	wallet := c.Param("wallet")

	var req RecordMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind mint request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("invalid request"))
		return
	}

	user, err := r.us.RecordMint(c.Request.Context(), wallet, req.TxSignature)
	if err != nil {
		log.Error("failed to record mint", logger.Wallet(wallet), zap.Error(err))
		respondError(c, err, "failed to record mint")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}
