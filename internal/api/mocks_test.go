package api

import (
	"context"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) GetUser(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) RecordMint(ctx context.Context, wallet, txSignature string) (*model.User, error) {
	args := m.Called(ctx, wallet, txSignature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) ResetUser(ctx context.Context, wallet string) error {
	return m.Called(ctx, wallet).Error(0)
}

type mockReferralService struct{ mock.Mock }

func (m *mockReferralService) InitializeUserReferral(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockReferralService) TrackReferral(ctx context.Context, code, newWallet string) error {
	return m.Called(ctx, code, newWallet).Error(0)
}

func (m *mockReferralService) CompleteReferral(ctx context.Context, wallet string) (bool, error) {
	args := m.Called(ctx, wallet)
	return args.Bool(0), args.Error(1)
}

func (m *mockReferralService) ProcessReferralReward(ctx context.Context, wallet string, txRef *string) (bool, error) {
	args := m.Called(ctx, wallet, txRef)
	return args.Bool(0), args.Error(1)
}

func (m *mockReferralService) GetReferralStats(ctx context.Context, wallet string) (*model.ReferralStats, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralStats), args.Error(1)
}

func (m *mockReferralService) GetReferralHistory(ctx context.Context, wallet string) ([]*model.Referral, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Referral), args.Error(1)
}

type mockQuestService struct{ mock.Mock }

func (m *mockQuestService) GetActiveQuests(ctx context.Context) ([]*model.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *mockQuestService) GetQuestsByType(ctx context.Context, questType model.QuestType) ([]*model.Quest, error) {
	args := m.Called(ctx, questType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *mockQuestService) GetUserQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestProgress), args.Error(1)
}

func (m *mockQuestService) UpdateProgress(ctx context.Context, wallet string, questID uuid.UUID, increment int, verification *model.VerificationData) (*model.QuestProgress, error) {
	args := m.Called(ctx, wallet, questID, increment, verification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestProgress), args.Error(1)
}

func (m *mockQuestService) ClaimReward(ctx context.Context, wallet, progressID string) (*model.QuestProgress, error) {
	args := m.Called(ctx, wallet, progressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestProgress), args.Error(1)
}

func (m *mockQuestService) TrackAction(ctx context.Context, wallet string, requirement model.RequirementType, verification *model.VerificationData) error {
	return m.Called(ctx, wallet, requirement, verification).Error(0)
}

func (m *mockQuestService) SeedQuests(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockQuestService) CleanupDuplicateQuests(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockXPService struct{ mock.Mock }

func (m *mockXPService) AddUserXP(ctx context.Context, wallet string, amount int, source string) (*model.XPRecord, error) {
	args := m.Called(ctx, wallet, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.XPRecord), args.Error(1)
}

func (m *mockXPService) GetUserXPData(ctx context.Context, wallet string) (*model.XPRecord, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.XPRecord), args.Error(1)
}

func (m *mockXPService) GetXPLeaderboard(ctx context.Context, limit int) ([]*model.XPRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.XPRecord), args.Error(1)
}

func (m *mockXPService) AwardMiniGameXP(ctx context.Context, wallet string, requested int) (*model.XPRecord, int, error) {
	args := m.Called(ctx, wallet, requested)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*model.XPRecord), args.Int(1), args.Error(2)
}

func (m *mockXPService) MaxXPAward() int {
	return service.DefaultMaxXPAward
}

type mockLeaderboardService struct{ mock.Mock }

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context, board model.LeaderboardType, limit int) ([]*model.LeaderboardEntry, error) {
	args := m.Called(ctx, board, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardEntry), args.Error(1)
}

type mockGameService struct{ mock.Mock }

func (m *mockGameService) PlayStatus(ctx context.Context, wallet string) (*service.GameStatus, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GameStatus), args.Error(1)
}

func (m *mockGameService) FinishGame(ctx context.Context, wallet string, score int) (*service.GameResult, error) {
	args := m.Called(ctx, wallet, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GameResult), args.Error(1)
}
