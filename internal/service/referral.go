package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/internal/notify"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/pkg/chain"
	"nftmint_rewards/pkg/logger"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 5
)

// DefaultReferralReward is the USDC credited to a referrer per rewarded
// referral.
var DefaultReferralReward = decimal.NewFromInt(4)

// ActionTracker advances quests whose requirement matches an action the
// wallet just performed.
type ActionTracker interface {
	TrackAction(ctx context.Context, wallet string, requirement model.RequirementType, verification *model.VerificationData) error
}

type ReferralService struct {
	repo      ReferralRepository
	tracker   ActionTracker
	notifier  notify.Notifier
	confirmer chain.Confirmer
	reward    decimal.Decimal
	now       func() time.Time
}

// NewReferralService wires the referral ledger. tracker and confirmer may be
// nil; a nil confirmer records payouts without checking the chain.
func NewReferralService(
	repo ReferralRepository,
	tracker ActionTracker,
	notifier notify.Notifier,
	confirmer chain.Confirmer,
	reward decimal.Decimal,
) *ReferralService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if reward.LessThanOrEqual(decimal.Zero) {
		reward = DefaultReferralReward
	}
	return &ReferralService{
		repo:      repo,
		tracker:   tracker,
		notifier:  notifier,
		confirmer: confirmer,
		reward:    reward,
		now:       time.Now,
	}
}

// GenerateReferralCode derives a short base58 code from the wallet and a
// nanosecond timestamp.
func GenerateReferralCode(wallet string, at time.Time) string {
	sum := sha256.Sum256([]byte(wallet + strconv.FormatInt(at.UnixNano(), 10)))
	return base58.Encode(sum[:])[:referralCodeLength]
}

func validateWallet(wallet string) error {
	if _, err := chain.ParseWallet(wallet); err != nil {
		return ErrInvalidWallet
	}
	return nil
}

// InitializeUserReferral returns the wallet's user record, creating it with a
// fresh referral code on first call. Repeated calls return the same code.
func (s *ReferralService) InitializeUserReferral(ctx context.Context, wallet string) (*model.User, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByWallet(ctx, wallet)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to get user", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		now := s.now()
		user, created, err := s.repo.CreateUser(ctx, &model.User{
			WalletAddress: wallet,
			ReferralCode:  GenerateReferralCode(wallet, now.Add(time.Duration(attempt))),
			TotalEarned:   decimal.Zero,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Warn("referral code collision", logger.Wallet(wallet), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			log.Error("failed to create user", logger.Wallet(wallet), zap.Error(err))
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		if created {
			log.Info("user initialized", logger.Wallet(wallet), zap.String("referral_code", user.ReferralCode))
		}
		return user, nil
	}

	return nil, fmt.Errorf("failed to allocate referral code for %s", wallet)
}

// TrackReferral records that newWallet joined through code. A wallet can be
// referred once; the first referrer wins.
func (s *ReferralService) TrackReferral(ctx context.Context, code, newWallet string) error {
	log := logger.Logger()

	if err := validateWallet(newWallet); err != nil {
		return err
	}
	if code == "" {
		return ErrInvalidReferralCode
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidReferralCode
		}
		log.Error("failed to resolve referral code", zap.String("code", code), zap.Error(err))
		return fmt.Errorf("failed to resolve referral code: %w", err)
	}

	if referrer.WalletAddress == newWallet {
		return ErrSelfReferral
	}
	if referrer.ReferredBy != nil && *referrer.ReferredBy == newWallet {
		return ErrCircularReferral
	}

	existing, err := s.repo.GetUserByWallet(ctx, newWallet)
	switch {
	case err == nil && existing.ReferredBy != nil:
		return ErrAlreadyReferred
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		log.Error("failed to get referred user", logger.Wallet(newWallet), zap.Error(err))
		return fmt.Errorf("failed to get referred user: %w", err)
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		now := s.now()
		referral := &model.Referral{
			ID:             uuid.New(),
			ReferrerWallet: referrer.WalletAddress,
			ReferredWallet: newWallet,
			Status:         model.ReferralPending,
			RewardAmount:   decimal.Zero,
			CreatedAt:      now,
		}
		referred := &model.User{
			WalletAddress: newWallet,
			ReferralCode:  GenerateReferralCode(newWallet, now.Add(time.Duration(attempt))),
		}

		err = s.repo.CreateReferral(ctx, referral, referred)
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			continue
		case errors.Is(err, repository.ErrReferralExists):
			return ErrAlreadyReferred
		case err != nil:
			log.Error("failed to create referral",
				logger.Wallet(newWallet),
				zap.String("referrer", referrer.WalletAddress),
				zap.Error(err),
			)
			return fmt.Errorf("failed to create referral: %w", err)
		}

		monitoring.RecordReferralEvent(string(model.ReferralPending))
		log.Info("referral tracked",
			logger.Wallet(newWallet),
			zap.String("referrer", referrer.WalletAddress),
		)
		return nil
	}

	return fmt.Errorf("failed to allocate referral code for %s", newWallet)
}

// CompleteReferral moves the wallet's pending referral to completed. It
// returns false when there is no referral or it is not pending.
func (s *ReferralService) CompleteReferral(ctx context.Context, wallet string) (bool, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return false, err
	}

	referral, err := s.repo.CompleteReferral(ctx, wallet, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, model.ErrInvalidTransition) {
			log.Debug("no pending referral to complete", logger.Wallet(wallet), zap.Error(err))
			return false, nil
		}
		log.Error("failed to complete referral", logger.Wallet(wallet), zap.Error(err))
		return false, fmt.Errorf("failed to complete referral: %w", err)
	}

	monitoring.RecordReferralEvent(string(model.ReferralCompleted))

	if s.tracker != nil {
		err = s.tracker.TrackAction(ctx, referral.ReferrerWallet, model.RequirementReferral, nil)
		if err != nil {
			log.Warn("failed to track referral quest", logger.Wallet(referral.ReferrerWallet), zap.Error(err))
		}
	}

	return true, nil
}

// ProcessReferralReward moves a completed referral to rewarded and credits
// the referrer. With a confirmer configured, txRef is required and must be a
// confirmed transaction.
func (s *ReferralService) ProcessReferralReward(ctx context.Context, wallet string, txRef *string) (bool, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return false, err
	}

	if s.confirmer != nil {
		if txRef == nil || *txRef == "" {
			return false, ErrPayoutNotConfirmed
		}
		confirmed, err := s.confirmer.ConfirmTransaction(ctx, *txRef)
		if err != nil {
			log.Error("failed to confirm payout", logger.Wallet(wallet), zap.String("tx", *txRef), zap.Error(err))
			return false, fmt.Errorf("failed to confirm payout: %w", err)
		}
		if !confirmed {
			return false, ErrPayoutNotConfirmed
		}
	}

	referral, err := s.repo.RewardReferral(ctx, wallet, s.reward, txRef, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, model.ErrInvalidTransition) {
			log.Debug("no completed referral to reward", logger.Wallet(wallet), zap.Error(err))
			return false, nil
		}
		log.Error("failed to reward referral", logger.Wallet(wallet), zap.Error(err))
		return false, fmt.Errorf("failed to reward referral: %w", err)
	}

	monitoring.RecordReferralEvent(string(model.ReferralRewarded))
	monitoring.RecordReferralPayout(s.reward.InexactFloat64())

	if err = s.notifier.ReferralRewarded(ctx, referral); err != nil {
		log.Warn("failed to notify referral reward", logger.Wallet(referral.ReferrerWallet), zap.Error(err))
	}

	log.Info("referral rewarded",
		logger.Wallet(wallet),
		zap.String("referrer", referral.ReferrerWallet),
		zap.String("amount", s.reward.String()),
	)

	return true, nil
}

// GetReferralStats aggregates the wallet's referrals. Unknown wallets get
// zero stats.
func (s *ReferralService) GetReferralStats(ctx context.Context, wallet string) (*model.ReferralStats, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	stats := &model.ReferralStats{
		WalletAddress:   wallet,
		TotalEarned:     decimal.Zero,
		PendingEarnings: decimal.Zero,
	}

	user, err := s.repo.GetUserByWallet(ctx, wallet)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return stats, nil
	case err != nil:
		logger.Logger().Error("failed to get user", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	referrals, err := s.repo.ListReferralsByReferrer(ctx, wallet)
	if err != nil {
		logger.Logger().Error("failed to list referrals", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	stats.ReferralCode = user.ReferralCode
	stats.TotalReferrals = user.TotalReferrals
	stats.TotalEarned = user.TotalEarned

	for _, r := range referrals {
		switch r.Status {
		case model.ReferralPending:
			stats.PendingReferrals++
		case model.ReferralCompleted:
			stats.CompletedReferrals++
			stats.PendingEarnings = stats.PendingEarnings.Add(s.reward)
		case model.ReferralRewarded:
			stats.RewardedReferrals++
		}
	}

	return stats, nil
}

func (s *ReferralService) GetReferralHistory(ctx context.Context, wallet string) ([]*model.Referral, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	referrals, err := s.repo.ListReferralsByReferrer(ctx, wallet)
	if err != nil {
		logger.Logger().Error("failed to list referrals", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	if referrals == nil {
		referrals = []*model.Referral{}
	}

	return referrals, nil
}
