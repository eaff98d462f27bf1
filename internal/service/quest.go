package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/pkg/logger"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const (
	questCacheSize = 16
	questCacheTTL  = time.Minute

	xpSourceQuest = "quest"
)

// XPAwarder credits XP to a wallet.
type XPAwarder interface {
	AddUserXP(ctx context.Context, wallet string, amount int, source string) (*model.XPRecord, error)
}

type cachedQuests struct {
	quests   []*model.Quest
	cachedAt time.Time
}

type QuestService struct {
	repo  QuestRepository
	xp    XPAwarder
	cache *lru.Cache
	now   func() time.Time
}

func NewQuestService(repo QuestRepository, xp XPAwarder) *QuestService {
	cache, _ := lru.New(questCacheSize)
	return &QuestService{
		repo:  repo,
		xp:    xp,
		cache: cache,
		now:   time.Now,
	}
}

// DefaultQuests is the catalog SeedQuests installs.
func DefaultQuests(now time.Time) []*model.Quest {
	defs := []struct {
		title       string
		description string
		questType   model.QuestType
		req         model.QuestRequirements
		xp          int
	}{
		{"Daily Check-in", "Sign in with your wallet today", model.QuestDaily,
			model.QuestRequirements{Type: model.RequirementDailyLogin, Count: 1}, 10},
		{"Play the Mini-Game", "Finish one mini-game session today", model.QuestDaily,
			model.QuestRequirements{Type: model.RequirementPlayGame, Count: 1}, 15},
		{"High Scorer", "Score at least 1500 points in the mini-game", model.QuestDaily,
			model.QuestRequirements{Type: model.RequirementGameScore, Count: 1, Threshold: 1500}, 30},
		{"Weekly Minter", "Mint 3 NFTs this week", model.QuestWeekly,
			model.QuestRequirements{Type: model.RequirementMintNFT, Count: 3}, 100},
		{"Weekly Player", "Finish 5 mini-game sessions this week", model.QuestWeekly,
			model.QuestRequirements{Type: model.RequirementPlayGame, Count: 5}, 75},
		{"First Mint", "Mint your first NFT", model.QuestOneTime,
			model.QuestRequirements{Type: model.RequirementMintNFT, Count: 1}, 50},
		{"Refer a Friend", "Invite a friend who mints an NFT", model.QuestOneTime,
			model.QuestRequirements{Type: model.RequirementReferral, Count: 1}, 100},
		{"Community Builder", "Invite 5 friends who mint an NFT", model.QuestOneTime,
			model.QuestRequirements{Type: model.RequirementReferral, Count: 5}, 500},
		{"Spread the Word", "Share the collection on social media", model.QuestSpecial,
			model.QuestRequirements{Type: model.RequirementSocialShare, Count: 1}, 25},
	}

	quests := make([]*model.Quest, len(defs))
	for i, d := range defs {
		quests[i] = &model.Quest{
			ID:           uuid.New(),
			Title:        d.title,
			Description:  d.description,
			Type:         d.questType,
			Requirements: d.req,
			Reward:       model.QuestReward{XP: d.xp},
			Active:       true,
			// Spaced so catalog order is stable.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
	}

	return quests
}

// DeduplicateQuests keeps one quest per title, the earliest created. Output
// order follows the first kept occurrence.
func DeduplicateQuests(quests []*model.Quest) []*model.Quest {
	kept := make(map[string]int, len(quests))
	result := make([]*model.Quest, 0, len(quests))

	for _, q := range quests {
		i, seen := kept[q.Title]
		if !seen {
			kept[q.Title] = len(result)
			result = append(result, q)
			continue
		}

		cur := result[i]
		if q.CreatedAt.Before(cur.CreatedAt) ||
			(q.CreatedAt.Equal(cur.CreatedAt) && q.ID.String() < cur.ID.String()) {
			result[i] = q
		}
	}

	return result
}

func (s *QuestService) catalog(ctx context.Context, questType model.QuestType) ([]*model.Quest, error) {
	key := string(questType)
	if v, ok := s.cache.Get(key); ok {
		entry := v.(cachedQuests)
		if s.now().Sub(entry.cachedAt) < questCacheTTL {
			monitoring.RecordQuestCache(true)
			return entry.quests, nil
		}
	}
	monitoring.RecordQuestCache(false)

	quests, err := s.repo.ListQuests(ctx, questType)
	if err != nil {
		logger.Logger().Error("failed to list quests", zap.String("type", key), zap.Error(err))
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests = DeduplicateQuests(quests)
	s.cache.Add(key, cachedQuests{quests: quests, cachedAt: s.now()})

	return quests, nil
}

func (s *QuestService) GetActiveQuests(ctx context.Context) ([]*model.Quest, error) {
	return s.catalog(ctx, "")
}

func (s *QuestService) GetQuestsByType(ctx context.Context, questType model.QuestType) ([]*model.Quest, error) {
	if !questType.Valid() {
		return nil, ErrInvalidQuestType
	}
	return s.catalog(ctx, questType)
}

// canonical rejects a quest hidden by title deduplication. A title the cached
// catalog does not list yet is accepted.
func (s *QuestService) canonical(ctx context.Context, quest *model.Quest) error {
	quests, err := s.GetActiveQuests(ctx)
	if err != nil {
		return err
	}

	for _, q := range quests {
		if q.Title == quest.Title && q.ID != quest.ID {
			return ErrQuestNotFound
		}
	}
	return nil
}

// GetUserQuestProgress returns one row per active quest. Missing rows are
// created as not_started and daily or weekly rows from an earlier period are
// reset before being returned.
func (s *QuestService) GetUserQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	quests, err := s.GetActiveQuests(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.ListQuestProgress(ctx, wallet)
	if err != nil {
		log.Error("failed to list quest progress", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to list quest progress: %w", err)
	}

	byQuest := make(map[uuid.UUID]*model.QuestProgress, len(stored))
	for _, p := range stored {
		byQuest[p.QuestID] = p
	}

	now := s.now()
	var missing []*model.QuestProgress
	result := make([]*model.QuestProgress, 0, len(quests))

	for _, q := range quests {
		p, ok := byQuest[q.ID]
		if !ok {
			p = model.NewQuestProgress(wallet, q, now)
			missing = append(missing, p)
			result = append(result, p)
			continue
		}

		if q.Type.NeedsReset(p.LastResetAt, now) {
			id := p.ID
			p, err = s.resetProgress(ctx, q, id, now)
			if err != nil {
				log.Error("failed to reset quest progress", logger.Wallet(wallet), zap.String("progress_id", id), zap.Error(err))
				return nil, fmt.Errorf("failed to reset quest progress: %w", err)
			}
		}
		result = append(result, p)
	}

	if err = s.repo.CreateQuestProgress(ctx, missing); err != nil {
		log.Error("failed to create quest progress", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to create quest progress: %w", err)
	}

	return result, nil
}

func (s *QuestService) resetProgress(ctx context.Context, quest *model.Quest, id string, now time.Time) (*model.QuestProgress, error) {
	return s.repo.UpdateQuestProgress(ctx, id, func(p *model.QuestProgress) error {
		// Re-checked under the row lock; a concurrent reader may have reset it.
		if quest.Type.NeedsReset(p.LastResetAt, now) {
			p.Reset(now)
			p.MaxProgress = quest.Requirements.Count
		}
		return nil
	})
}

// UpdateProgress adds increment to the wallet's progress on the quest. Quests
// with a score threshold only count when verification carries a score at or
// above it. A duplicate of an earlier quest with the same title is not found.
func (s *QuestService) UpdateProgress(
	ctx context.Context,
	wallet string,
	questID uuid.UUID,
	increment int,
	verification *model.VerificationData,
) (*model.QuestProgress, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}
	if increment <= 0 {
		return nil, ErrInvalidIncrement
	}

	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		log.Error("failed to get quest", zap.String("quest_id", questID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	if !quest.Active {
		return nil, ErrQuestInactive
	}
	if err = s.canonical(ctx, quest); err != nil {
		return nil, err
	}

	if threshold := quest.Requirements.Threshold; threshold > 0 {
		if verification == nil || verification.Score < threshold {
			return nil, ErrVerificationFailed
		}
	}

	now := s.now()
	fresh := model.NewQuestProgress(wallet, quest, now)
	if err = s.repo.CreateQuestProgress(ctx, []*model.QuestProgress{fresh}); err != nil {
		log.Error("failed to create quest progress", logger.Wallet(wallet), zap.Error(err))
		return nil, fmt.Errorf("failed to create quest progress: %w", err)
	}

	progress, err := s.repo.UpdateQuestProgress(ctx, fresh.ID, func(p *model.QuestProgress) error {
		if quest.Type.NeedsReset(p.LastResetAt, now) {
			p.Reset(now)
			p.MaxProgress = quest.Requirements.Count
		}
		return p.Advance(increment, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgressNotFound
		}
		log.Error("failed to update quest progress", logger.Wallet(wallet), zap.String("progress_id", fresh.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update quest progress: %w", err)
	}

	monitoring.RecordQuestProgress(string(quest.Requirements.Type))

	return progress, nil
}

// ClaimReward moves completed progress to claimed and credits the quest's XP.
// The XP credit runs after the claim commits; a failure there is returned but
// leaves the claim in place.
func (s *QuestService) ClaimReward(ctx context.Context, wallet, progressID string) (*model.QuestProgress, error) {
	log := logger.Logger()

	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	progress, err := s.repo.GetQuestProgress(ctx, progressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgressNotFound
		}
		log.Error("failed to get quest progress", zap.String("progress_id", progressID), zap.Error(err))
		return nil, fmt.Errorf("failed to get quest progress: %w", err)
	}
	if progress.WalletAddress != wallet {
		return nil, ErrProgressNotFound
	}

	quest, err := s.repo.GetQuestByID(ctx, progress.QuestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		log.Error("failed to get quest", zap.String("quest_id", progress.QuestID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	if err = s.canonical(ctx, quest); err != nil {
		return nil, err
	}

	now := s.now()
	if quest.Type.NeedsReset(progress.LastResetAt, now) {
		return nil, ErrQuestNotCompleted
	}

	claimed, err := s.repo.ClaimQuestProgress(ctx, progressID, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, ErrQuestAlreadyClaimed
		case errors.Is(err, model.ErrInvalidTransition):
			return nil, ErrQuestNotCompleted
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProgressNotFound
		}
		log.Error("failed to claim quest", logger.Wallet(wallet), zap.String("progress_id", progressID), zap.Error(err))
		return nil, fmt.Errorf("failed to claim quest: %w", err)
	}

	monitoring.RecordQuestClaim(string(quest.Type))

	if quest.Reward.XP > 0 {
		if _, err = s.xp.AddUserXP(ctx, wallet, quest.Reward.XP, xpSourceQuest); err != nil {
			log.Error("quest claimed but xp credit failed",
				logger.Wallet(wallet),
				zap.String("progress_id", progressID),
				zap.Int("xp", quest.Reward.XP),
				zap.Error(err),
			)
			return claimed, fmt.Errorf("failed to credit quest xp: %w", err)
		}
	}

	log.Info("quest reward claimed", logger.Wallet(wallet), zap.String("quest", quest.Title), zap.Int("xp", quest.Reward.XP))

	return claimed, nil
}

// TrackAction advances by one every active quest requiring the action.
// Threshold quests the verification data does not satisfy are skipped.
func (s *QuestService) TrackAction(
	ctx context.Context,
	wallet string,
	requirement model.RequirementType,
	verification *model.VerificationData,
) error {
	quests, err := s.GetActiveQuests(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, q := range quests {
		if q.Requirements.Type != requirement {
			continue
		}

		_, err = s.UpdateProgress(ctx, wallet, q.ID, 1, verification)
		if err != nil && !errors.Is(err, ErrVerificationFailed) {
			errs = append(errs, fmt.Errorf("quest %s: %w", q.Title, err))
		}
	}

	return errors.Join(errs...)
}

// SeedQuests inserts the default catalog entries whose title is not stored
// yet and returns how many were added.
func (s *QuestService) SeedQuests(ctx context.Context) (int, error) {
	titles, err := s.repo.QuestTitles(ctx)
	if err != nil {
		logger.Logger().Error("failed to list quest titles", zap.Error(err))
		return 0, fmt.Errorf("failed to list quest titles: %w", err)
	}

	existing := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		existing[t] = struct{}{}
	}

	var toCreate []*model.Quest
	for _, q := range DefaultQuests(s.now()) {
		if _, ok := existing[q.Title]; !ok {
			toCreate = append(toCreate, q)
		}
	}

	if err = s.repo.CreateQuests(ctx, toCreate); err != nil {
		logger.Logger().Error("failed to seed quests", zap.Error(err))
		return 0, fmt.Errorf("failed to seed quests: %w", err)
	}

	s.cache.Purge()
	logger.Logger().Info("quests seeded", zap.Int("created", len(toCreate)))

	return len(toCreate), nil
}

// CleanupDuplicateQuests deletes every quest sharing a title with an older
// one and returns the number deleted.
func (s *QuestService) CleanupDuplicateQuests(ctx context.Context) (int, error) {
	dups, err := s.repo.FindDuplicateQuests(ctx)
	if err != nil {
		logger.Logger().Error("failed to find duplicate quests", zap.Error(err))
		return 0, fmt.Errorf("failed to find duplicate quests: %w", err)
	}

	var ids []uuid.UUID
	for _, d := range dups {
		if len(d.IDs) > 1 {
			ids = append(ids, d.IDs[1:]...)
		}
	}

	deleted, err := s.repo.DeleteQuests(ctx, ids)
	if err != nil {
		logger.Logger().Error("failed to delete duplicate quests", zap.Error(err))
		return 0, fmt.Errorf("failed to delete duplicate quests: %w", err)
	}

	s.cache.Purge()
	logger.Logger().Info("duplicate quests removed", zap.Int("deleted", deleted))

	return deleted, nil
}
