package api

import (
	"errors"
	"net/http"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func errorBody(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

// errorStatus maps service sentinels to HTTP statuses. Anything unknown is a
// store or network failure.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidWallet),
		errors.Is(err, service.ErrInvalidReferralCode),
		errors.Is(err, service.ErrInvalidQuestType),
		errors.Is(err, service.ErrInvalidIncrement),
		errors.Is(err, service.ErrInvalidXPAmount),
		errors.Is(err, service.ErrInvalidLeaderboard),
		errors.Is(err, service.ErrInvalidTxSignature),
		errors.Is(err, service.ErrVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrQuestNotFound),
		errors.Is(err, service.ErrProgressNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSelfReferral),
		errors.Is(err, service.ErrCircularReferral),
		errors.Is(err, service.ErrAlreadyReferred),
		errors.Is(err, service.ErrQuestAlreadyClaimed),
		errors.Is(err, service.ErrQuestNotCompleted),
		errors.Is(err, service.ErrQuestInactive),
		errors.Is(err, service.ErrPayoutNotConfirmed),
		errors.Is(err, service.ErrMintAlreadyRecorded):
		return http.StatusConflict
	case errors.Is(err, service.ErrDailyLimitReached):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal failures answer with fallback
// instead of leaking the wrapped store error.
func respondError(c *gin.Context, err error, fallback string) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	c.JSON(status, errorBody(msg))
}

type UserResponse struct {
	WalletAddress   string          `json:"walletAddress"`
	ReferralCode    string          `json:"referralCode"`
	ReferredBy      *string         `json:"referredBy"`
	TotalReferrals  int             `json:"totalReferrals"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	NFTsMinted      int             `json:"nftsMinted"`
	QuestsCompleted int             `json:"questsCompleted"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		WalletAddress:   u.WalletAddress,
		ReferralCode:    u.ReferralCode,
		ReferredBy:      u.ReferredBy,
		TotalReferrals:  u.TotalReferrals,
		TotalEarned:     u.TotalEarned,
		NFTsMinted:      u.NFTsMinted,
		QuestsCompleted: u.QuestsCompleted,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type ReferralResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReferrerWallet string          `json:"referrerWallet"`
	ReferredWallet string          `json:"referredWallet"`
	Status         string          `json:"status"`
	RewardAmount   decimal.Decimal `json:"rewardAmount"`
	TxRef          *string         `json:"txRef"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt"`
	RewardedAt     *time.Time      `json:"rewardedAt"`
}

func newReferralResponse(r *model.Referral) ReferralResponse {
	return ReferralResponse{
		ID:             r.ID,
		ReferrerWallet: r.ReferrerWallet,
		ReferredWallet: r.ReferredWallet,
		Status:         string(r.Status),
		RewardAmount:   r.RewardAmount,
		TxRef:          r.TxRef,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
		RewardedAt:     r.RewardedAt,
	}
}

type ReferralStatsResponse struct {
	WalletAddress      string          `json:"walletAddress"`
	ReferralCode       string          `json:"referralCode"`
	TotalReferrals     int             `json:"totalReferrals"`
	PendingReferrals   int             `json:"pendingReferrals"`
	CompletedReferrals int             `json:"completedReferrals"`
	RewardedReferrals  int             `json:"rewardedReferrals"`
	TotalEarned        decimal.Decimal `json:"totalEarned"`
	PendingEarnings    decimal.Decimal `json:"pendingEarnings"`
}

type QuestResponse struct {
	ID           uuid.UUID              `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Type         string                 `json:"type"`
	Requirements QuestRequirementsBody  `json:"requirements"`
	Rewards      map[string]interface{} `json:"rewards"`
	Active       bool                   `json:"isActive"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type QuestRequirementsBody struct {
	Type      string `json:"type"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold,omitempty"`
}

func newQuestResponse(q *model.Quest) QuestResponse {
	return QuestResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Type:        string(q.Type),
		Requirements: QuestRequirementsBody{
			Type:      string(q.Requirements.Type),
			Count:     q.Requirements.Count,
			Threshold: q.Requirements.Threshold,
		},
		Rewards:   map[string]interface{}{"xp": q.Reward.XP},
		Active:    q.Active,
		CreatedAt: q.CreatedAt,
	}
}

type QuestProgressResponse struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"walletAddress"`
	QuestID       uuid.UUID  `json:"questId"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	MaxProgress   int        `json:"maxProgress"`
	StartedAt     *time.Time `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	ClaimedAt     *time.Time `json:"claimedAt"`
	LastResetAt   time.Time  `json:"lastResetAt"`
}

func newQuestProgressResponse(p *model.QuestProgress) QuestProgressResponse {
	return QuestProgressResponse{
		ID:            p.ID,
		WalletAddress: p.WalletAddress,
		QuestID:       p.QuestID,
		Status:        string(p.Status),
		Progress:      p.Progress,
		MaxProgress:   p.MaxProgress,
		StartedAt:     p.StartedAt,
		CompletedAt:   p.CompletedAt,
		ClaimedAt:     p.ClaimedAt,
		LastResetAt:   p.LastResetAt,
	}
}

type XPResponse struct {
	WalletAddress  string    `json:"walletAddress"`
	TotalXP        int       `json:"totalXP"`
	Level          int       `json:"level"`
	CurrentLevelXP int       `json:"currentLevelXP"`
	NextLevelXP    int       `json:"nextLevelXP"`
	Rank           int       `json:"rank"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func newXPResponse(r *model.XPRecord) XPResponse {
	return XPResponse{
		WalletAddress:  r.WalletAddress,
		TotalXP:        r.TotalXP,
		Level:          r.Level,
		CurrentLevelXP: r.CurrentLevelXP,
		NextLevelXP:    r.NextLevelXP,
		Rank:           r.Rank,
		UpdatedAt:      r.UpdatedAt,
	}
}

type LeaderboardEntryResponse struct {
	Rank            int             `json:"rank"`
	WalletAddress   string          `json:"walletAddress"`
	Score           decimal.Decimal `json:"score"`
	TotalReferrals  int             `json:"totalReferrals"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	QuestsCompleted int             `json:"questsCompleted"`
	NFTsMinted      int             `json:"nftsMinted"`
	TotalXP         int             `json:"totalXP"`
	Level           int             `json:"level"`
}
