package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/internal/playlimit"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/pkg/logger"

	"go.uber.org/zap"
)

const (
	XPSourceMiniGame = "mini-game"

	DefaultMinMiniGameXP = 10
	DefaultMaxXPAward    = 1000
	defaultXPBoardLimit  = 100
)

type XPConfig struct {
	MinMiniGameXP int `mapstructure:"min_minigame_xp"`
	MaxXPAward    int `mapstructure:"max_xp_award"`
}

type XPService struct {
	repo    XPRepository
	limiter playlimit.Limiter
	config  XPConfig
	now     func() time.Time
}

func NewXPService(repo XPRepository, limiter playlimit.Limiter, config XPConfig) *XPService {
	if config.MinMiniGameXP <= 0 {
		config.MinMiniGameXP = DefaultMinMiniGameXP
	}
	if config.MaxXPAward <= 0 {
		config.MaxXPAward = DefaultMaxXPAward
	}
	if limiter == nil {
		limiter = playlimit.NewMemory()
	}
	return &XPService{
		repo:    repo,
		limiter: limiter,
		config:  config,
		now:     time.Now,
	}
}

func (s *XPService) MaxXPAward() int {
	return s.config.MaxXPAward
}

// AddUserXP adds a positive amount to the wallet's total and returns the
// updated record with level and rank derived.
func (s *XPService) AddUserXP(ctx context.Context, wallet string, amount int, source string) (*model.XPRecord, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidXPAmount
	}

	record, err := s.repo.AddXP(ctx, wallet, amount, s.now())
	if err != nil {
		log.Error("failed to add xp", logger.Wallet(wallet), zap.Int("amount", amount), zap.Error(err))
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}

	rank, err := s.repo.GetXPRank(ctx, wallet, record.TotalXP)
	if err != nil {
		log.Warn("failed to get xp rank", logger.Wallet(wallet), zap.Error(err))
	}
	record.Rank = rank

	monitoring.RecordXPAwarded(source, amount)
	log.Info("xp added",
		logger.Wallet(wallet),
		zap.Int("amount", amount),
		zap.String("source", source),
		zap.Int("total", record.TotalXP),
		zap.Int("level", record.Level),
	)

	return record, nil
}

// GetUserXPData returns the wallet's XP record. Unknown wallets get a level 1
// zero record and nothing is stored.
func (s *XPService) GetUserXPData(ctx context.Context, wallet string) (*model.XPRecord, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	record, err := s.repo.GetXPRecord(ctx, wallet)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			empty := &model.XPRecord{WalletAddress: wallet}
			empty.Derive()
			return empty, nil
		}
		logger.Logger().Error("failed to get xp record", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to get xp record: %w", err)
	}

	rank, err := s.repo.GetXPRank(ctx, wallet, record.TotalXP)
	if err != nil {
		logger.Logger().Error("failed to get xp rank", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to get xp rank: %w", err)
	}
	record.Rank = rank

	return record, nil
}

func (s *XPService) GetXPLeaderboard(ctx context.Context, limit int) ([]*model.XPRecord, error) {
	if limit <= 0 {
		limit = defaultXPBoardLimit
	}

	records, err := s.repo.ListXPRecords(ctx, limit)
	if err != nil {
		logger.Logger().Error("failed to list xp records", zap.Error(err))
		return nil, fmt.Errorf("failed to list xp records: %w", err)
	}

	return records, nil
}

// MiniGameAward clamps a requested mini-game award to [MinMiniGameXP,
// MaxXPAward].
func (s *XPService) MiniGameAward(requested int) int {
	amount := requested
	if amount < s.config.MinMiniGameXP {
		amount = s.config.MinMiniGameXP
	}
	if amount > s.config.MaxXPAward {
		amount = s.config.MaxXPAward
	}
	return amount
}

// AwardMiniGameXP credits a mini-game result once per UTC day per wallet and
// returns the record together with the amount actually awarded.
func (s *XPService) AwardMiniGameXP(ctx context.Context, wallet string, requested int) (*model.XPRecord, int, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, 0, err
	}

	ok, err := s.limiter.TryConsume(ctx, wallet, s.now())
	if err != nil {
		logger.Logger().Error("failed to check play limit", logger.Wallet(wallet), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to check play limit: %w", err)
	}
	if !ok {
		return nil, 0, ErrDailyLimitReached
	}

	amount := s.MiniGameAward(requested)
	record, err := s.AddUserXP(ctx, wallet, amount, XPSourceMiniGame)
	if err != nil {
		if releaseErr := s.limiter.Release(ctx, wallet, s.now()); releaseErr != nil {
			logger.Logger().Error("failed to release play", logger.Wallet(wallet), zap.Error(releaseErr))
		}
		return nil, 0, err
	}

	return record, amount, nil
}

func (s *XPService) DailyPlayStatus(ctx context.Context, wallet string) (playlimit.Status, error) {
	return s.limiter.Status(ctx, wallet, s.now())
}
