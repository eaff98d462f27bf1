package service

import (
	"context"
	"fmt"
	"sort"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Overall score weights applied on top of total XP.
var (
	overallReferralWeight = decimal.NewFromInt(100)
	overallQuestWeight    = decimal.NewFromInt(50)
	overallMintWeight     = decimal.NewFromInt(25)
)

type LeaderboardService struct {
	repo LeaderboardRepository
}

func NewLeaderboardService(repo LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// RankLeaderboard sorts by score descending with wallet address ascending as
// tie-break and assigns 1-based ranks.
func RankLeaderboard(entries []*model.LeaderboardEntry) []*model.LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Score.Cmp(entries[j].Score); c != 0 {
			return c > 0
		}
		return entries[i].WalletAddress < entries[j].WalletAddress
	})
	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries
}

func OverallScore(e *model.LeaderboardEntry) decimal.Decimal {
	return decimal.NewFromInt(int64(e.TotalXP)).
		Add(overallReferralWeight.Mul(decimal.NewFromInt(int64(e.TotalReferrals)))).
		Add(overallQuestWeight.Mul(decimal.NewFromInt(int64(e.QuestsCompleted)))).
		Add(overallMintWeight.Mul(decimal.NewFromInt(int64(e.NFTsMinted))))
}

func userEntry(u *model.User) *model.LeaderboardEntry {
	return &model.LeaderboardEntry{
		WalletAddress:   u.WalletAddress,
		TotalReferrals:  u.TotalReferrals,
		TotalEarned:     u.TotalEarned,
		QuestsCompleted: u.QuestsCompleted,
		NFTsMinted:      u.NFTsMinted,
		Level:           1,
	}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, board model.LeaderboardType, limit int) ([]*model.LeaderboardEntry, error) {
	if !board.Valid() {
		return nil, ErrInvalidLeaderboard
	}
	limit = clampLimit(limit)

	var (
		entries []*model.LeaderboardEntry
		err     error
	)

	switch board {
	case model.LeaderboardReferrals:
		entries, err = s.userBoard(ctx, "total_referrals", limit, func(u *model.User) decimal.Decimal {
			return decimal.NewFromInt(int64(u.TotalReferrals))
		})
	case model.LeaderboardEarnings:
		entries, err = s.userBoard(ctx, "total_earned", limit, func(u *model.User) decimal.Decimal {
			return u.TotalEarned
		})
	case model.LeaderboardQuests:
		entries, err = s.userBoard(ctx, "quests_completed", limit, func(u *model.User) decimal.Decimal {
			return decimal.NewFromInt(int64(u.QuestsCompleted))
		})
	case model.LeaderboardXP:
		entries, err = s.xpBoard(ctx, limit)
	case model.LeaderboardOverall:
		entries, err = s.overallBoard(ctx, limit)
	}
	if err != nil {
		logger.Logger().Error("failed to build leaderboard", zap.String("type", string(board)), zap.Error(err))
		return nil, fmt.Errorf("failed to build %s leaderboard: %w", board, err)
	}

	return entries, nil
}

func (s *LeaderboardService) userBoard(
	ctx context.Context,
	orderBy string,
	limit int,
	score func(u *model.User) decimal.Decimal,
) ([]*model.LeaderboardEntry, error) {
	users, err := s.repo.ListUsers(ctx, orderBy, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = userEntry(u)
		entries[i].Score = score(u)
	}

	return RankLeaderboard(entries), nil
}

func (s *LeaderboardService) xpBoard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	records, err := s.repo.ListXPRecords(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, len(records))
	for i, r := range records {
		entries[i] = &model.LeaderboardEntry{
			WalletAddress: r.WalletAddress,
			Score:         decimal.NewFromInt(int64(r.TotalXP)),
			TotalEarned:   decimal.Zero,
			TotalXP:       r.TotalXP,
			Level:         r.Level,
		}
	}

	return RankLeaderboard(entries), nil
}

// overallBoard loads users and XP records concurrently and merges them by
// wallet. Wallets with XP but no user row still rank.
func (s *LeaderboardService) overallBoard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	var (
		users   []*model.User
		records []*model.XPRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.ListUsers(gctx, "total_referrals", 0)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.repo.ListXPRecords(gctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byWallet := make(map[string]*model.LeaderboardEntry, len(users))
	entries := make([]*model.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		e := userEntry(u)
		byWallet[u.WalletAddress] = e
		entries = append(entries, e)
	}

	for _, r := range records {
		e, ok := byWallet[r.WalletAddress]
		if !ok {
			e = &model.LeaderboardEntry{WalletAddress: r.WalletAddress, TotalEarned: decimal.Zero}
			byWallet[r.WalletAddress] = e
			entries = append(entries, e)
		}
		e.TotalXP = r.TotalXP
		e.Level = r.Level
	}

	for _, e := range entries {
		e.Score = OverallScore(e)
	}

	entries = RankLeaderboard(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
