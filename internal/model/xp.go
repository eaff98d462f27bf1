package model

import "time"

// LevelThresholds[i] is the total XP needed to reach level i+1.
var LevelThresholds = []int{0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500, 10000}

func LevelForXP(totalXP int) int {
	level := 1
	for i := 1; i < len(LevelThresholds); i++ {
		if totalXP < LevelThresholds[i] {
			break
		}
		level = i + 1
	}
	return level
}

type XPRecord struct {
	WalletAddress  string
	TotalXP        int
	Level          int
	CurrentLevelXP int
	NextLevelXP    int
	Rank           int
	UpdatedAt      time.Time
}

// Derive recomputes level and the per-level remainders from TotalXP.
// NextLevelXP is the XP span of the current level, 0 at the max level.
func (r *XPRecord) Derive() {
	r.Level = LevelForXP(r.TotalXP)
	floor := LevelThresholds[r.Level-1]
	r.CurrentLevelXP = r.TotalXP - floor
	if r.CurrentLevelXP < 0 {
		r.CurrentLevelXP = 0
	}

	r.NextLevelXP = 0
	if r.Level < len(LevelThresholds) {
		r.NextLevelXP = LevelThresholds[r.Level] - floor
	}
}
