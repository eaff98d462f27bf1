package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/pkg/chain"
	"nftmint_rewards/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidTxSignature  = errors.New("invalid transaction signature")
	ErrMintAlreadyRecorded = errors.New("mint transaction already recorded")
)

// ReferralLedger is the part of the referral service the mint flow needs.
type ReferralLedger interface {
	InitializeUserReferral(ctx context.Context, wallet string) (*model.User, error)
	CompleteReferral(ctx context.Context, wallet string) (bool, error)
}

type UserService struct {
	repo      UserRepository
	referrals ReferralLedger
	tracker   ActionTracker
	confirmer chain.Confirmer
	now       func() time.Time
}

// NewUserService wires the mint flow. confirmer may be nil, in which case
// mint signatures are only checked for shape.
func NewUserService(repo UserRepository, referrals ReferralLedger, tracker ActionTracker, confirmer chain.Confirmer) *UserService {
	return &UserService{
		repo:      repo,
		referrals: referrals,
		tracker:   tracker,
		confirmer: confirmer,
		now:       time.Now,
	}
}

func (s *UserService) GetUser(ctx context.Context, wallet string) (*model.User, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Logger().Error("failed to get user", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// RecordMint books a mint for the wallet: the user is created if needed, the
// mint counter goes up, a pending referral completes and mint quests advance.
// Each transaction signature is accepted once.
func (s *UserService) RecordMint(ctx context.Context, wallet, txSignature string) (*model.User, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}
	if _, err := chain.ParseSignature(txSignature); err != nil {
		return nil, ErrInvalidTxSignature
	}

	if s.confirmer != nil {
		confirmed, err := s.confirmer.ConfirmTransaction(ctx, txSignature)
		if err != nil {
			log.Error("failed to confirm mint", logger.Wallet(wallet), zap.String("tx", txSignature), zap.Error(err))
			return nil, fmt.Errorf("failed to confirm mint: %w", err)
		}
		if !confirmed {
			return nil, ErrInvalidTxSignature
		}
	}

	if _, err := s.referrals.InitializeUserReferral(ctx, wallet); err != nil {
		return nil, err
	}

	if err := s.repo.RecordMint(ctx, wallet, txSignature, s.now()); err != nil {
		if errors.Is(err, repository.ErrSignatureUsed) {
			log.Warn("mint signature replayed", logger.Wallet(wallet), zap.String("tx", txSignature))
			return nil, ErrMintAlreadyRecorded
		}
		log.Error("failed to record mint", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to record mint: %w", err)
	}

	completed, err := s.referrals.CompleteReferral(ctx, wallet)
	if err != nil {
		log.Warn("failed to complete referral after mint", logger.Wallet(wallet), zap.Error(err))
	}

	if s.tracker != nil {
		err = s.tracker.TrackAction(ctx, wallet, model.RequirementMintNFT, nil)
		if err != nil {
			log.Warn("failed to track mint quests", logger.Wallet(wallet), zap.Error(err))
		}
	}

	log.Info("mint recorded",
		logger.Wallet(wallet),
		zap.String("tx", txSignature),
		zap.Bool("referral_completed", completed),
	)

	return s.GetUser(ctx, wallet)
}

// ResetUser zeroes a wallet's counters, XP and quest progress.
func (s *UserService) ResetUser(ctx context.Context, wallet string) error {
	if err := validateWallet(wallet); err != nil {
		return err
	}

	err := s.repo.ResetUser(ctx, wallet, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		logger.Logger().Error("failed to reset user", logger.Wallet(wallet), zap.Error(err))
		return fmt.Errorf("failed to reset user: %w", err)
	}

	logger.Logger().Info("user reset", logger.Wallet(wallet))
	return nil
}
