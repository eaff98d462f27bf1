package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	WalletAddress   string
	ReferralCode    string
	ReferredBy      *string
	TotalReferrals  int
	TotalEarned     decimal.Decimal
	NFTsMinted      int
	QuestsCompleted int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
