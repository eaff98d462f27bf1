package api

import (
	"errors"
	"net/http"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/auth"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type authRoutes struct {
	a       *auth.WalletAuth
	rs      service.ReferralServiceI
	tracker service.ActionTracker
}

func NewAuthRoutes(handler *gin.RouterGroup, a *auth.WalletAuth, rs service.ReferralServiceI, tracker service.ActionTracker) {
	r := &authRoutes{a: a, rs: rs, tracker: tracker}
	h := handler.Group("/auth")
	{
		h.POST("/login", r.Login)
	}
}

type LoginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	IssuedAt      int64  `json:"issuedAt" binding:"required"`
	Signature     string `json:"signature"`
}

type LoginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// Login verifies the signed sign-in message, makes sure the wallet has a
// referral record and counts the daily login quest.
func (r *authRoutes) Login(c *gin.Context) {
	log := logger.Logger()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("invalid request"))
		return
	}

	if err := r.a.VerifySignIn(req.WalletAddress, req.IssuedAt, req.Signature); err != nil {
		log.Info("sign-in rejected", logger.Wallet(req.WalletAddress), zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrInvalidWallet):
			c.JSON(http.StatusBadRequest, errorBody("invalid wallet address"))
		case errors.Is(err, auth.ErrSignInExpired):
			c.JSON(http.StatusUnauthorized, errorBody("sign-in message expired"))
		default:
			c.JSON(http.StatusUnauthorized, errorBody("invalid signature"))
		}
		return
	}

	user, err := r.rs.InitializeUserReferral(c.Request.Context(), req.WalletAddress)
	if err != nil {
		log.Error("failed to initialize user on login", logger.Wallet(req.WalletAddress), zap.Error(err))
		respondError(c, err, "failed to initialize user")
		return
	}

	if err = r.tracker.TrackAction(c.Request.Context(), req.WalletAddress, model.RequirementDailyLogin, nil); err != nil {
		log.Warn("failed to track daily login", logger.Wallet(req.WalletAddress), zap.Error(err))
	}

	token, expiresAt, err := r.a.IssueToken(req.WalletAddress)
	if err != nil {
		log.Error("failed to issue token", logger.Wallet(req.WalletAddress), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      newUserResponse(user),
	})
}
