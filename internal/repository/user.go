package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nftmint_rewards/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type User struct {
	WalletAddress   string          `db:"wallet_address"`
	ReferralCode    string          `db:"referral_code"`
	ReferredBy      *string         `db:"referred_by"`
	TotalReferrals  int             `db:"total_referrals"`
	TotalEarned     decimal.Decimal `db:"total_earned"`
	NFTsMinted      int             `db:"nfts_minted"`
	QuestsCompleted int             `db:"quests_completed"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

var userColumns = []string{
	"wallet_address",
	"referral_code",
	"referred_by",
	"total_referrals",
	"total_earned",
	"nfts_minted",
	"quests_completed",
	"created_at",
	"updated_at",
}

func (u *User) toModel() *model.User {
	return &model.User{
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

// CreateUser inserts the user unless the wallet already exists. It returns the
// stored row and whether this call created it. A referral code collision with
// another wallet is reported as ErrAlreadyExists.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	var (
		stored  *model.User
		created bool
	)

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"wallet_address": user.WalletAddress,
				"referral_code":  user.ReferralCode,
				"referred_by":    user.ReferredBy,
				"total_earned":   decimal.Zero,
				"created_at":     user.CreatedAt,
				"updated_at":     user.CreatedAt,
			}).
			Suffix("ON CONFLICT (wallet_address) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = affected == 1

		stored, err = r.getUserWithTx(ctx, tx, user.WalletAddress, false)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return stored, created, nil
}

func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"wallet_address": wallet})
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return r.getUser(ctx, r.db, squirrel.Eq{"referral_code": code})
}

func (r *Repository) getUser(ctx context.Context, q sqlx.QueryerContext, where squirrel.Sqlizer) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = sqlx.GetContext(ctx, q, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, wallet string, forUpdate bool) (*model.User, error) {
	builder := squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"wallet_address": wallet})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// RecordMint stores the mint transaction and bumps the wallet's mint counter
// in one transaction. A signature can be recorded only once.
func (r *Repository) RecordMint(ctx context.Context, wallet, txSignature string, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("users").
			Set("nfts_minted", squirrel.Expr("nfts_minted + 1")).
			Set("updated_at", now).
			Where(squirrel.Eq{"wallet_address": wallet}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to increment nfts minted: %w", err)
		}
		if err = expectAffected(res); err != nil {
			return err
		}

		insert, insertArgs, err := squirrel.
			Insert("mints").
			SetMap(map[string]interface{}{
				"tx_signature":   txSignature,
				"wallet_address": wallet,
				"created_at":     now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build mint insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			if isUniqueViolation(err) {
				return ErrSignatureUsed
			}
			return fmt.Errorf("failed to insert mint: %w", err)
		}

		return nil
	})
}

// ListUsers returns users ordered by orderBy descending with the wallet
// address as ascending tie-break. A limit of 0 returns every user.
func (r *Repository) ListUsers(ctx context.Context, orderBy string, limit int) ([]*model.User, error) {
	builder := squirrel.
		Select(userColumns...).
		From("users").
		OrderBy(fmt.Sprintf("%s DESC", orderBy), "wallet_address ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

// ResetUser zeroes the user's counters and drops their XP and quest progress
// in one transaction. Referral records are kept.
func (r *Repository) ResetUser(ctx context.Context, wallet string, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := r.getUserWithTx(ctx, tx, wallet, true); err != nil {
			return err
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			SetMap(map[string]interface{}{
				"total_referrals":  0,
				"total_earned":     decimal.Zero,
				"nfts_minted":      0,
				"quests_completed": 0,
				"updated_at":       now,
			}).
			Where(squirrel.Eq{"wallet_address": wallet}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to reset user: %w", err)
		}

		for _, table := range []string{"quest_progress", "user_xp"} {
			query, args, err := squirrel.
				Delete(table).
				Where(squirrel.Eq{"wallet_address": wallet}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		return nil
	})
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
