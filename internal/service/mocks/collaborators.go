package mocks

import (
	"context"

	"nftmint_rewards/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ReferralRewarded(ctx context.Context, referral *model.Referral) error {
	args := m.Called(ctx, referral)
	return args.Error(0)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) ConfirmTransaction(ctx context.Context, signature string) (bool, error) {
	args := m.Called(ctx, signature)
	return args.Bool(0), args.Error(1)
}

type MockActionTracker struct {
	mock.Mock
}

func (m *MockActionTracker) TrackAction(ctx context.Context, wallet string, requirement model.RequirementType, verification *model.VerificationData) error {
	args := m.Called(ctx, wallet, requirement, verification)
	return args.Error(0)
}

type MockXPAwarder struct {
	mock.Mock
}

func (m *MockXPAwarder) AddUserXP(ctx context.Context, wallet string, amount int, source string) (*model.XPRecord, error) {
	args := m.Called(ctx, wallet, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.XPRecord), args.Error(1)
}
