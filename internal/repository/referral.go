package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nftmint_rewards/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Referral struct {
	ID             uuid.UUID       `db:"id"`
	ReferrerWallet string          `db:"referrer_wallet"`
	ReferredWallet string          `db:"referred_wallet"`
	Status         string          `db:"status"`
	RewardAmount   decimal.Decimal `db:"reward_amount"`
	TxRef          *string         `db:"tx_ref"`
	CreatedAt      time.Time       `db:"created_at"`
	CompletedAt    *time.Time      `db:"completed_at"`
	RewardedAt     *time.Time      `db:"rewarded_at"`
}

var referralColumns = []string{
	"id",
	"referrer_wallet",
	"referred_wallet",
	"status",
	"reward_amount",
	"tx_ref",
	"created_at",
	"completed_at",
	"rewarded_at",
}

func (r *Referral) toModel() *model.Referral {
	return &model.Referral{
		ID:             r.ID,
		ReferrerWallet: r.ReferrerWallet,
		ReferredWallet: r.ReferredWallet,
		Status:         model.ReferralStatus(r.Status),
		RewardAmount:   r.RewardAmount,
		TxRef:          r.TxRef,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
		RewardedAt:     r.RewardedAt,
	}
}

// CreateReferral links referred to the referrer in one transaction: the
// referred user row is created when missing, its referred_by is set and a
// pending referral is inserted. A wallet that already has a referrer or a
// referral record yields ErrReferralExists.
func (r *Repository) CreateReferral(ctx context.Context, referral *model.Referral, referred *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		insertUser, insertArgs, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"wallet_address": referred.WalletAddress,
				"referral_code":  referred.ReferralCode,
				"total_earned":   decimal.Zero,
				"created_at":     referral.CreatedAt,
				"updated_at":     referral.CreatedAt,
			}).
			Suffix("ON CONFLICT (wallet_address) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, insertUser, insertArgs...); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert referred user: %w", err)
		}

		user, err := r.getUserWithTx(ctx, tx, referred.WalletAddress, true)
		if err != nil {
			return err
		}
		if user.ReferredBy != nil {
			return ErrReferralExists
		}

		query, args, err := squirrel.
			Insert("referrals").
			SetMap(map[string]interface{}{
				"id":              referral.ID,
				"referrer_wallet": referral.ReferrerWallet,
				"referred_wallet": referral.ReferredWallet,
				"status":          string(model.ReferralPending),
				"reward_amount":   referral.RewardAmount,
				"created_at":      referral.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referral insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrReferralExists
			}
			return fmt.Errorf("failed to insert referral: %w", err)
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("referred_by", referral.ReferrerWallet).
			Set("updated_at", referral.CreatedAt).
			Where(squirrel.Eq{"wallet_address": referral.ReferredWallet}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referred user update query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to set referred_by: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetReferralByReferred(ctx context.Context, referredWallet string) (*model.Referral, error) {
	query, args, err := squirrel.
		Select(referralColumns...).
		From("referrals").
		Where(squirrel.Eq{"referred_wallet": referredWallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var referral Referral
	err = r.db.GetContext(ctx, &referral, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return referral.toModel(), nil
}

// ListReferralsByReferrer returns the referrer's records, newest first.
func (r *Repository) ListReferralsByReferrer(ctx context.Context, referrerWallet string) ([]*model.Referral, error) {
	query, args, err := squirrel.
		Select(referralColumns...).
		From("referrals").
		Where(squirrel.Eq{"referrer_wallet": referrerWallet}).
		OrderBy("created_at DESC", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var referrals []Referral
	err = r.db.SelectContext(ctx, &referrals, query, args...)
	if err != nil {
		return nil, err
	}

	result := make([]*model.Referral, len(referrals))
	for i := range referrals {
		result[i] = referrals[i].toModel()
	}

	return result, nil
}

func (r *Repository) getReferralForUpdate(ctx context.Context, tx *sqlx.Tx, referredWallet string) (*model.Referral, error) {
	query, args, err := squirrel.
		Select(referralColumns...).
		From("referrals").
		Where(squirrel.Eq{"referred_wallet": referredWallet}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var referral Referral
	err = tx.GetContext(ctx, &referral, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return referral.toModel(), nil
}

// CompleteReferral moves the wallet's referral from pending to completed. The
// state machine error is returned untouched when the record is not pending.
func (r *Repository) CompleteReferral(ctx context.Context, referredWallet string, now time.Time) (*model.Referral, error) {
	var result *model.Referral

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		referral, err := r.getReferralForUpdate(ctx, tx, referredWallet)
		if err != nil {
			return err
		}

		status, err := referral.Status.Transition(model.ReferralCompleted)
		if err != nil {
			return err
		}

		query, args, err := squirrel.
			Update("referrals").
			Set("status", string(status)).
			Set("completed_at", now).
			Where(squirrel.Eq{"id": referral.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to complete referral: %w", err)
		}

		referral.Status = status
		referral.CompletedAt = &now
		result = referral

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RewardReferral moves a completed referral to rewarded, records the amount
// and payout reference and credits the referrer's totals, all in one
// transaction.
func (r *Repository) RewardReferral(ctx context.Context, referredWallet string, amount decimal.Decimal, txRef *string, now time.Time) (*model.Referral, error) {
	var result *model.Referral

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		referral, err := r.getReferralForUpdate(ctx, tx, referredWallet)
		if err != nil {
			return err
		}

		status, err := referral.Status.Transition(model.ReferralRewarded)
		if err != nil {
			return err
		}

		query, args, err := squirrel.
			Update("referrals").
			SetMap(map[string]interface{}{
				"status":        string(status),
				"reward_amount": amount,
				"tx_ref":        txRef,
				"rewarded_at":   now,
			}).
			Where(squirrel.Eq{"id": referral.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to reward referral: %w", err)
		}

		creditQuery, creditArgs, err := squirrel.
			Update("users").
			Set("total_referrals", squirrel.Expr("total_referrals + 1")).
			Set("total_earned", squirrel.Expr("total_earned + ?", amount)).
			Set("updated_at", now).
			Where(squirrel.Eq{"wallet_address": referral.ReferrerWallet}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, creditQuery, creditArgs...)
		if err != nil {
			return fmt.Errorf("failed to credit referrer: %w", err)
		}
		if err = expectAffected(res); err != nil {
			return err
		}

		referral.Status = status
		referral.RewardAmount = amount
		referral.TxRef = txRef
		referral.RewardedAt = &now
		result = referral

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
