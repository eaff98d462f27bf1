package mocks

import (
	"context"
	"time"

	"nftmint_rewards/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.Bool(1), args.Error(2)
}

func (m *MockReferralRepository) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockReferralRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockReferralRepository) CreateReferral(ctx context.Context, referral *model.Referral, referred *model.User) error {
	args := m.Called(ctx, referral, referred)
	return args.Error(0)
}

func (m *MockReferralRepository) GetReferralByReferred(ctx context.Context, referredWallet string) (*model.Referral, error) {
	args := m.Called(ctx, referredWallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Referral), args.Error(1)
}

func (m *MockReferralRepository) ListReferralsByReferrer(ctx context.Context, referrerWallet string) ([]*model.Referral, error) {
	args := m.Called(ctx, referrerWallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Referral), args.Error(1)
}

func (m *MockReferralRepository) CompleteReferral(ctx context.Context, referredWallet string, now time.Time) (*model.Referral, error) {
	args := m.Called(ctx, referredWallet, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Referral), args.Error(1)
}

func (m *MockReferralRepository) RewardReferral(ctx context.Context, referredWallet string, amount decimal.Decimal, txRef *string, now time.Time) (*model.Referral, error) {
	args := m.Called(ctx, referredWallet, amount, txRef, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Referral), args.Error(1)
}

type MockXPRepository struct {
	mock.Mock
}

func (m *MockXPRepository) GetXPRecord(ctx context.Context, wallet string) (*model.XPRecord, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.XPRecord), args.Error(1)
}

func (m *MockXPRepository) AddXP(ctx context.Context, wallet string, amount int, now time.Time) (*model.XPRecord, error) {
	args := m.Called(ctx, wallet, amount, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.XPRecord), args.Error(1)
}

func (m *MockXPRepository) GetXPRank(ctx context.Context, wallet string, totalXP int) (int, error) {
	args := m.Called(ctx, wallet, totalXP)
	return args.Int(0), args.Error(1)
}

func (m *MockXPRepository) ListXPRecords(ctx context.Context, limit int) ([]*model.XPRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.XPRecord), args.Error(1)
}

type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) ListUsers(ctx context.Context, orderBy string, limit int) ([]*model.User, error) {
	args := m.Called(ctx, orderBy, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockLeaderboardRepository) ListXPRecords(ctx context.Context, limit int) ([]*model.XPRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.XPRecord), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) RecordMint(ctx context.Context, wallet, txSignature string, now time.Time) error {
	args := m.Called(ctx, wallet, txSignature, now)
	return args.Error(0)
}

func (m *MockUserRepository) ResetUser(ctx context.Context, wallet string, now time.Time) error {
	args := m.Called(ctx, wallet, now)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) ListQuests(ctx context.Context, questType model.QuestType) ([]*model.Quest, error) {
	args := m.Called(ctx, questType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) CreateQuests(ctx context.Context, quests []*model.Quest) error {
	args := m.Called(ctx, quests)
	return args.Error(0)
}

func (m *MockQuestRepository) FindDuplicateQuests(ctx context.Context) ([]model.DuplicateQuests, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DuplicateQuests), args.Error(1)
}

func (m *MockQuestRepository) DeleteQuests(ctx context.Context, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockQuestRepository) QuestTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuestRepository) ListQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestProgress), args.Error(1)
}

func (m *MockQuestRepository) GetQuestProgress(ctx context.Context, id string) (*model.QuestProgress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestProgress), args.Error(1)
}

func (m *MockQuestRepository) CreateQuestProgress(ctx context.Context, progress []*model.QuestProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockQuestRepository) UpdateQuestProgress(ctx context.Context, id string, fn func(p *model.QuestProgress) error) (*model.QuestProgress, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestProgress), args.Error(1)
}

func (m *MockQuestRepository) ClaimQuestProgress(ctx context.Context, id string, now time.Time) (*model.QuestProgress, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestProgress), args.Error(1)
}
