package model

import "github.com/shopspring/decimal"

type LeaderboardType string

const (
	LeaderboardReferrals LeaderboardType = "referrals"
	LeaderboardEarnings  LeaderboardType = "earnings"
	LeaderboardQuests    LeaderboardType = "quests"
	LeaderboardXP        LeaderboardType = "xp"
	LeaderboardOverall   LeaderboardType = "overall"
)

func (t LeaderboardType) Valid() bool {
	switch t {
	case LeaderboardReferrals, LeaderboardEarnings, LeaderboardQuests, LeaderboardXP, LeaderboardOverall:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	Rank            int
	WalletAddress   string
	Score           decimal.Decimal
	TotalReferrals  int
	TotalEarned     decimal.Decimal
	QuestsCompleted int
	NFTsMinted      int
	TotalXP         int
	Level           int
}
