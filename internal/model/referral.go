package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralRewarded  ReferralStatus = "rewarded"
)

var referralTransitions = map[ReferralStatus]ReferralStatus{
	ReferralPending:   ReferralCompleted,
	ReferralCompleted: ReferralRewarded,
}

func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralPending, ReferralCompleted, ReferralRewarded:
		return true
	}
	return false
}

// Transition is the only place a referral status may change. Each status has
// exactly one successor and rewarded is terminal.
func (s ReferralStatus) Transition(to ReferralStatus) (ReferralStatus, error) {
	next, ok := referralTransitions[s]
	if !ok || next != to {
		return s, fmt.Errorf("%w: referral %s -> %s", ErrInvalidTransition, s, to)
	}
	return next, nil
}

type Referral struct {
	ID             uuid.UUID
	ReferrerWallet string
	ReferredWallet string
	Status         ReferralStatus
	RewardAmount   decimal.Decimal
	TxRef          *string
	CreatedAt      time.Time
	CompletedAt    *time.Time
	RewardedAt     *time.Time
}

type ReferralStats struct {
	WalletAddress      string
	ReferralCode       string
	TotalReferrals     int
	PendingReferrals   int
	CompletedReferrals int
	RewardedReferrals  int
	TotalEarned        decimal.Decimal
	PendingEarnings    decimal.Decimal
}
