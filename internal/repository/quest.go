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
	"github.com/lib/pq"
)

type Quest struct {
	ID                   uuid.UUID `db:"id"`
	Title                string    `db:"title"`
	Description          string    `db:"description"`
	QuestType            string    `db:"quest_type"`
	RequirementType      string    `db:"requirement_type"`
	RequirementCount     int       `db:"requirement_count"`
	RequirementThreshold int       `db:"requirement_threshold"`
	RewardXP             int       `db:"reward_xp"`
	Active               bool      `db:"active"`
	CreatedAt            time.Time `db:"created_at"`
}

type duplicateQuestRow struct {
	Title string         `db:"title"`
	IDs   pq.StringArray `db:"ids"`
}

var questColumns = []string{
	"id",
	"title",
	"description",
	"quest_type",
	"requirement_type",
	"requirement_count",
	"requirement_threshold",
	"reward_xp",
	"active",
	"created_at",
}

func (q *Quest) toModel() *model.Quest {
	return &model.Quest{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Type:        model.QuestType(q.QuestType),
		Requirements: model.QuestRequirements{
			Type:      model.RequirementType(q.RequirementType),
			Count:     q.RequirementCount,
			Threshold: q.RequirementThreshold,
		},
		Reward:    model.QuestReward{XP: q.RewardXP},
		Active:    q.Active,
		CreatedAt: q.CreatedAt,
	}
}

// ListQuests returns active quests ordered by creation time. An empty
// questType lists every type.
func (r *Repository) ListQuests(ctx context.Context, questType model.QuestType) ([]*model.Quest, error) {
	where := squirrel.Eq{"active": true}
	if questType != "" {
		where["quest_type"] = string(questType)
	}

	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(where).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var quests []Quest
	err = r.db.SelectContext(ctx, &quests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	result := make([]*model.Quest, len(quests))
	for i := range quests {
		result[i] = quests[i].toModel()
	}

	return result, nil
}

func (r *Repository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var quest Quest
	err = r.db.GetContext(ctx, &quest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return quest.toModel(), nil
}

func (r *Repository) CreateQuests(ctx context.Context, quests []*model.Quest) error {
	if len(quests) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("quests").
		Columns(questColumns...)

	for _, q := range quests {
		builder = builder.Values(
			q.ID,
			q.Title,
			q.Description,
			string(q.Type),
			string(q.Requirements.Type),
			q.Requirements.Count,
			q.Requirements.Threshold,
			q.Reward.XP,
			q.Active,
			q.CreatedAt,
		)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quests insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quests: %w", err)
	}

	return nil
}

// FindDuplicateQuests groups quests sharing a title. IDs in each group are
// ordered oldest first.
func (r *Repository) FindDuplicateQuests(ctx context.Context) ([]model.DuplicateQuests, error) {
	query, args, err := squirrel.
		Select("title", "array_agg(id::text ORDER BY created_at ASC, id ASC) AS ids").
		From("quests").
		GroupBy("title").
		Having("COUNT(*) > 1").
		OrderBy("title").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []duplicateQuestRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate quests: %w", err)
	}

	result := make([]model.DuplicateQuests, 0, len(rows))
	for _, row := range rows {
		ids := make([]uuid.UUID, 0, len(row.IDs))
		for _, raw := range row.IDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid quest id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
		result = append(result, model.DuplicateQuests{Title: row.Title, IDs: ids})
	}

	return result, nil
}

func (r *Repository) DeleteQuests(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := squirrel.
		Delete("quests").
		Where(squirrel.Eq{"id": ids}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete quests: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// QuestTitles lists every stored title, inactive quests included.
func (r *Repository) QuestTitles(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT title").
		From("quests").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var titles []string
	if err = r.db.SelectContext(ctx, &titles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quest titles: %w", err)
	}

	return titles, nil
}
