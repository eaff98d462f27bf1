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
)

type XPRecord struct {
	WalletAddress string    `db:"wallet_address"`
	TotalXP       int       `db:"total_xp"`
	Level         int       `db:"level"`
	UpdatedAt     time.Time `db:"updated_at"`
}

var xpColumns = []string{"wallet_address", "total_xp", "level", "updated_at"}

func (x *XPRecord) toModel() *model.XPRecord {
	record := &model.XPRecord{
		WalletAddress: x.WalletAddress,
		TotalXP:       x.TotalXP,
		Level:         x.Level,
		UpdatedAt:     x.UpdatedAt,
	}
	record.Derive()
	return record
}

func (r *Repository) GetXPRecord(ctx context.Context, wallet string) (*model.XPRecord, error) {
	query, args, err := squirrel.
		Select(xpColumns...).
		From("user_xp").
		Where(squirrel.Eq{"wallet_address": wallet}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var record XPRecord
	err = r.db.GetContext(ctx, &record, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return record.toModel(), nil
}

// AddXP increments the wallet's total, creating the record when missing, and
// stores the recomputed level within the same transaction.
func (r *Repository) AddXP(ctx context.Context, wallet string, amount int, now time.Time) (*model.XPRecord, error) {
	var result *model.XPRecord

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("user_xp").
			Columns(xpColumns...).
			Values(wallet, amount, model.LevelForXP(amount), now).
			Suffix("ON CONFLICT (wallet_address) DO UPDATE SET total_xp = user_xp.total_xp + EXCLUDED.total_xp, updated_at = EXCLUDED.updated_at RETURNING wallet_address, total_xp, level, updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build xp upsert query: %w", err)
		}

		var record XPRecord
		if err = tx.GetContext(ctx, &record, query, args...); err != nil {
			return fmt.Errorf("failed to add xp: %w", err)
		}

		level := model.LevelForXP(record.TotalXP)
		if level != record.Level {
			updateQuery, updateArgs, err := squirrel.
				Update("user_xp").
				Set("level", level).
				Where(squirrel.Eq{"wallet_address": wallet}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err = tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
				return fmt.Errorf("failed to update level: %w", err)
			}
			record.Level = level
		}

		result = record.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetXPRank is 1 + the number of wallets ahead under the total desc, wallet
// asc ordering.
func (r *Repository) GetXPRank(ctx context.Context, wallet string, totalXP int) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("user_xp").
		Where(squirrel.Or{
			squirrel.Gt{"total_xp": totalXP},
			squirrel.And{
				squirrel.Eq{"total_xp": totalXP},
				squirrel.Lt{"wallet_address": wallet},
			},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var ahead int
	if err = r.db.GetContext(ctx, &ahead, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get xp rank: %w", err)
	}

	return ahead + 1, nil
}

// ListXPRecords returns records ordered by total desc then wallet asc. A limit
// of 0 returns every record.
func (r *Repository) ListXPRecords(ctx context.Context, limit int) ([]*model.XPRecord, error) {
	builder := squirrel.
		Select(xpColumns...).
		From("user_xp").
		OrderBy("total_xp DESC", "wallet_address ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var records []XPRecord
	if err = r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list xp records: %w", err)
	}

	result := make([]*model.XPRecord, len(records))
	for i := range records {
		result[i] = records[i].toModel()
		result[i].Rank = i + 1
	}

	return result, nil
}
