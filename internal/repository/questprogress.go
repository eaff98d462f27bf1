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
)

type QuestProgress struct {
	ID            string     `db:"id"`
	WalletAddress string     `db:"wallet_address"`
	QuestID       uuid.UUID  `db:"quest_id"`
	Status        string     `db:"status"`
	Progress      int        `db:"progress"`
	MaxProgress   int        `db:"max_progress"`
	StartedAt     *time.Time `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	ClaimedAt     *time.Time `db:"claimed_at"`
	LastResetAt   time.Time  `db:"last_reset_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

var questProgressColumns = []string{
	"id",
	"wallet_address",
	"quest_id",
	"status",
	"progress",
	"max_progress",
	"started_at",
	"completed_at",
	"claimed_at",
	"last_reset_at",
	"updated_at",
}

func (p *QuestProgress) toModel() *model.QuestProgress {
	return &model.QuestProgress{
		ID:            p.ID,
		WalletAddress: p.WalletAddress,
		QuestID:       p.QuestID,
		Status:        model.QuestStatus(p.Status),
		Progress:      p.Progress,
		MaxProgress:   p.MaxProgress,
		StartedAt:     p.StartedAt,
		CompletedAt:   p.CompletedAt,
		ClaimedAt:     p.ClaimedAt,
		LastResetAt:   p.LastResetAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *Repository) ListQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error) {
	query, args, err := squirrel.
		Select(questProgressColumns...).
		From("quest_progress").
		Where(squirrel.Eq{"wallet_address": wallet}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []QuestProgress
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest progress: %w", err)
	}

	result := make([]*model.QuestProgress, len(rows))
	for i := range rows {
		result[i] = rows[i].toModel()
	}

	return result, nil
}

func (r *Repository) GetQuestProgress(ctx context.Context, id string) (*model.QuestProgress, error) {
	query, args, err := squirrel.
		Select(questProgressColumns...).
		From("quest_progress").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row QuestProgress
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

// CreateQuestProgress inserts rows that do not exist yet. Existing rows are
// left untouched so concurrent first reads cannot clobber progress.
func (r *Repository) CreateQuestProgress(ctx context.Context, progress []*model.QuestProgress) error {
	if len(progress) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("quest_progress").
		Columns(questProgressColumns...)

	for _, p := range progress {
		builder = builder.Values(
			p.ID,
			p.WalletAddress,
			p.QuestID,
			string(p.Status),
			p.Progress,
			p.MaxProgress,
			p.StartedAt,
			p.CompletedAt,
			p.ClaimedAt,
			p.LastResetAt,
			p.UpdatedAt,
		)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest progress insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest progress: %w", err)
	}

	return nil
}

// UpdateQuestProgress locks the row, hands it to fn and writes back whatever
// fn left in it. An error from fn aborts the transaction.
func (r *Repository) UpdateQuestProgress(ctx context.Context, id string, fn func(p *model.QuestProgress) error) (*model.QuestProgress, error) {
	var result *model.QuestProgress

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		progress, err := r.lockQuestProgress(ctx, tx, id)
		if err != nil {
			return err
		}

		if err = fn(progress); err != nil {
			return err
		}

		if err = r.writeQuestProgress(ctx, tx, progress); err != nil {
			return err
		}

		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ClaimQuestProgress marks a completed row as claimed and bumps the owner's
// quests_completed counter in the same transaction.
func (r *Repository) ClaimQuestProgress(ctx context.Context, id string, now time.Time) (*model.QuestProgress, error) {
	var result *model.QuestProgress

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		progress, err := r.lockQuestProgress(ctx, tx, id)
		if err != nil {
			return err
		}

		if progress.Status == model.QuestClaimed {
			return ErrAlreadyClaimed
		}
		if err = progress.Claim(now); err != nil {
			return err
		}

		if err = r.writeQuestProgress(ctx, tx, progress); err != nil {
			return err
		}

		query, args, err := squirrel.
			Update("users").
			Set("quests_completed", squirrel.Expr("quests_completed + 1")).
			Set("updated_at", now).
			Where(squirrel.Eq{"wallet_address": progress.WalletAddress}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to increment quests completed: %w", err)
		}

		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Repository) lockQuestProgress(ctx context.Context, tx *sqlx.Tx, id string) (*model.QuestProgress, error) {
	query, args, err := squirrel.
		Select(questProgressColumns...).
		From("quest_progress").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row QuestProgress
	err = tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) writeQuestProgress(ctx context.Context, tx *sqlx.Tx, p *model.QuestProgress) error {
	query, args, err := squirrel.
		Update("quest_progress").
		SetMap(map[string]interface{}{
			"status":        string(p.Status),
			"progress":      p.Progress,
			"max_progress":  p.MaxProgress,
			"started_at":    p.StartedAt,
			"completed_at":  p.CompletedAt,
			"claimed_at":    p.ClaimedAt,
			"last_reset_at": p.LastResetAt,
			"updated_at":    p.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": p.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quest progress: %w", err)
	}

	return nil
}
