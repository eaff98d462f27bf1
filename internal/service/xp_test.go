package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/playlimit"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestXPService_MiniGameAward(t *testing.T) {
	svc := NewXPService(&mocks.MockXPRepository{}, nil, XPConfig{})

	tests := []struct {
		requested int
		expected  int
	}{
		{requested: -5, expected: DefaultMinMiniGameXP},
		{requested: 0, expected: DefaultMinMiniGameXP},
		{requested: 5, expected: DefaultMinMiniGameXP},
		{requested: 10, expected: 10},
		{requested: 37, expected: 37},
		{requested: 1000, expected: 1000},
		{requested: 5000, expected: DefaultMaxXPAward},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, svc.MiniGameAward(tt.requested), "requested %d", tt.requested)
	}
}

func TestXPService_MiniGameAwardBounds(t *testing.T) {
	svc := NewXPService(&mocks.MockXPRepository{}, nil, XPConfig{MinMiniGameXP: 20, MaxXPAward: 500})

	rapid.Check(t, func(t *rapid.T) {
		requested := rapid.IntRange(-10000, 10000).Draw(t, "requested")
		got := svc.MiniGameAward(requested)

		if got < 20 || got > 500 {
			t.Fatalf("award %d for %d outside [20, 500]", got, requested)
		}
		if requested >= 20 && requested <= 500 && got != requested {
			t.Fatalf("in-range request %d changed to %d", requested, got)
		}
	})
}

func TestXPService_AddUserXP(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		wallet        string
		amount        int
		mockSetup     func(repo *mocks.MockXPRepository)
		expectedError error
		checkRecord   func(t *testing.T, r *model.XPRecord)
	}{
		{name: "Invalid wallet", wallet: "", amount: 10, mockSetup: func(*mocks.MockXPRepository) {}, expectedError: ErrInvalidWallet},
		{name: "Zero amount", wallet: walletA, amount: 0, mockSetup: func(*mocks.MockXPRepository) {}, expectedError: ErrInvalidXPAmount},
		{name: "Negative amount", wallet: walletA, amount: -10, mockSetup: func(*mocks.MockXPRepository) {}, expectedError: ErrInvalidXPAmount},
		{
			name:   "Repository failure",
			wallet: walletA,
			amount: 10,
			mockSetup: func(repo *mocks.MockXPRepository) {
				repo.On("AddXP", mock.Anything, walletA, 10, mock.Anything).Return(nil, errors.New("db down"))
			},
			expectedError: errors.New("db down"),
		},
		{
			name:   "Credits and ranks",
			wallet: walletA,
			amount: 150,
			mockSetup: func(repo *mocks.MockXPRepository) {
				record := &model.XPRecord{WalletAddress: walletA, TotalXP: 150}
				record.Derive()
				repo.On("AddXP", mock.Anything, walletA, 150, mock.Anything).Return(record, nil)
				repo.On("GetXPRank", mock.Anything, walletA, 150).Return(3, nil)
			},
			checkRecord: func(t *testing.T, r *model.XPRecord) {
				assert.Equal(t, 150, r.TotalXP)
				assert.Equal(t, 2, r.Level)
				assert.Equal(t, 50, r.CurrentLevelXP)
				assert.Equal(t, 150, r.NextLevelXP)
				assert.Equal(t, 3, r.Rank)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockXPRepository{}
			tt.mockSetup(repo)
			svc := NewXPService(repo, nil, XPConfig{})

			record, err := svc.AddUserXP(ctx, tt.wallet, tt.amount, "quest")
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				return
			}
			require.NoError(t, err)
			tt.checkRecord(t, record)
			repo.AssertExpectations(t)
		})
	}
}

func TestXPService_GetUserXPDataUnknownWallet(t *testing.T) {
	repo := &mocks.MockXPRepository{}
	repo.On("GetXPRecord", mock.Anything, walletB).Return(nil, repository.ErrNotFound)
	svc := NewXPService(repo, nil, XPConfig{})

	record, err := svc.GetUserXPData(context.Background(), walletB)
	require.NoError(t, err)
	assert.Equal(t, walletB, record.WalletAddress)
	assert.Zero(t, record.TotalXP)
	assert.Equal(t, 1, record.Level)
	assert.Equal(t, 100, record.NextLevelXP)
	repo.AssertNotCalled(t, "AddXP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestXPService_AwardMiniGameXP(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.XPService.now = func() time.Time { return day }

	record, awarded, err := s.AwardMiniGameXP(ctx, walletA, 5)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinMiniGameXP, awarded)
	assert.Equal(t, 10, record.TotalXP)
	assert.Equal(t, 1, record.Rank)

	_, _, err = s.AwardMiniGameXP(ctx, walletA, 50)
	assert.ErrorIs(t, err, ErrDailyLimitReached)

	status, err := s.DailyPlayStatus(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Equal(t, playlimit.NextReset(day), status.NextAvailableAt)

	s.XPService.now = func() time.Time { return day.Add(24 * time.Hour) }

	record, awarded, err = s.AwardMiniGameXP(ctx, walletA, 2000)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxXPAward, awarded)
	assert.Equal(t, 1010, record.TotalXP)
	assert.Equal(t, 5, record.Level)
}

func TestXPService_AwardMiniGameXPReleasesPlayOnFailure(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := &mocks.MockXPRepository{}
	repo.On("AddXP", mock.Anything, walletA, DefaultMinMiniGameXP, day).Return(nil, errors.New("db down")).Once()

	limiter := playlimit.NewMemory()
	svc := NewXPService(repo, limiter, XPConfig{})
	svc.now = func() time.Time { return day }

	_, _, err := svc.AwardMiniGameXP(ctx, walletA, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDailyLimitReached)

	status, err := svc.DailyPlayStatus(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, status.Available)

	record := &model.XPRecord{WalletAddress: walletA, TotalXP: DefaultMinMiniGameXP}
	record.Derive()
	repo.On("AddXP", mock.Anything, walletA, DefaultMinMiniGameXP, day).Return(record, nil).Once()
	repo.On("GetXPRank", mock.Anything, walletA, DefaultMinMiniGameXP).Return(1, nil)

	got, awarded, err := svc.AwardMiniGameXP(ctx, walletA, 5)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinMiniGameXP, awarded)
	assert.Equal(t, DefaultMinMiniGameXP, got.TotalXP)

	status, err = svc.DailyPlayStatus(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, status.Available)
	repo.AssertExpectations(t)
}

func TestXPService_GetXPLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	for wallet, amount := range map[string]int{walletA: 300, walletB: 300, walletC: 50} {
		_, err := s.AddUserXP(ctx, wallet, amount, "admin")
		require.NoError(t, err)
	}

	records, err := s.GetXPLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, walletA, records[0].WalletAddress)
	assert.Equal(t, walletB, records[1].WalletAddress)
	assert.Equal(t, walletC, records[2].WalletAddress)
	assert.Equal(t, []int{1, 2, 3}, []int{records[0].Rank, records[1].Rank, records[2].Rank})

	xp, err := s.GetUserXPData(ctx, walletB)
	require.NoError(t, err)
	assert.Equal(t, 1, xp.Rank)
}
