package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newProgress(maxProgress int) *QuestProgress {
	quest := &Quest{
		ID:           uuid.New(),
		Type:         QuestDaily,
		Requirements: QuestRequirements{Type: RequirementMintNFT, Count: maxProgress},
	}
	return NewQuestProgress("So11111111111111111111111111111111111111112", quest, time.Now())
}

func TestQuestProgress_Advance(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		max              int
		start            int
		status           QuestStatus
		increment        int
		expectedProgress int
		expectedStatus   QuestStatus
	}{
		{
			name:             "First increment starts the quest",
			max:              3,
			increment:        1,
			status:           QuestNotStarted,
			expectedProgress: 1,
			expectedStatus:   QuestInProgress,
		},
		{
			name:             "Single increment fills counter",
			max:              1,
			increment:        1,
			status:           QuestNotStarted,
			expectedProgress: 1,
			expectedStatus:   QuestCompleted,
		},
		{
			name:             "Clamped at max",
			max:              3,
			start:            2,
			status:           QuestInProgress,
			increment:        5,
			expectedProgress: 3,
			expectedStatus:   QuestCompleted,
		},
		{
			name:             "Completed is left alone",
			max:              3,
			start:            3,
			status:           QuestCompleted,
			increment:        1,
			expectedProgress: 3,
			expectedStatus:   QuestCompleted,
		},
		{
			name:             "Claimed is left alone",
			max:              3,
			start:            3,
			status:           QuestClaimed,
			increment:        1,
			expectedProgress: 3,
			expectedStatus:   QuestClaimed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProgress(tt.max)
			p.Progress = tt.start
			p.Status = tt.status

			err := p.Advance(tt.increment, now)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedProgress, p.Progress)
			assert.Equal(t, tt.expectedStatus, p.Status)
			if tt.expectedStatus == QuestCompleted && tt.status != QuestCompleted {
				require.NotNil(t, p.CompletedAt)
				assert.Equal(t, now, *p.CompletedAt)
			}
		})
	}
}

func TestQuestProgress_Claim(t *testing.T) {
	now := time.Now()

	p := newProgress(2)
	err := p.Claim(now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, QuestNotStarted, p.Status)

	require.NoError(t, p.Advance(2, now))
	require.NoError(t, p.Claim(now))
	assert.Equal(t, QuestClaimed, p.Status)
	require.NotNil(t, p.ClaimedAt)

	err = p.Claim(now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQuestProgress_Reset(t *testing.T) {
	now := time.Now()
	p := newProgress(1)
	require.NoError(t, p.Advance(1, now))
	require.NoError(t, p.Claim(now))

	later := now.Add(24 * time.Hour)
	p.Reset(later)

	assert.Equal(t, QuestNotStarted, p.Status)
	assert.Zero(t, p.Progress)
	assert.Nil(t, p.StartedAt)
	assert.Nil(t, p.CompletedAt)
	assert.Nil(t, p.ClaimedAt)
	assert.Equal(t, later, p.LastResetAt)
}

func TestQuestType_NeedsReset(t *testing.T) {
	// 2024-05-12 is a Sunday, 2024-05-13 a Monday.
	sunday := time.Date(2024, 5, 12, 23, 30, 0, 0, time.UTC)
	monday := time.Date(2024, 5, 13, 0, 30, 0, 0, time.UTC)
	laterSunday := time.Date(2024, 5, 12, 23, 59, 0, 0, time.UTC)
	tuesday := time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		questType QuestType
		last      time.Time
		now       time.Time
		expected  bool
	}{
		{"Daily same day", QuestDaily, sunday, laterSunday, false},
		{"Daily crosses midnight", QuestDaily, sunday, monday, true},
		{"Weekly crosses ISO week", QuestWeekly, sunday, monday, true},
		{"Weekly same ISO week", QuestWeekly, monday, tuesday, false},
		{"One-time never resets", QuestOneTime, sunday, tuesday.AddDate(1, 0, 0), false},
		{"Special never resets", QuestSpecial, sunday, tuesday.AddDate(1, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.questType.NeedsReset(tt.last, tt.now))
		})
	}
}

func TestQuestStatus_Transition(t *testing.T) {
	_, err := QuestCompleted.Transition(QuestInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = QuestClaimed.Transition(QuestNotStarted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	next, err := QuestNotStarted.Transition(QuestCompleted)
	require.NoError(t, err)
	assert.Equal(t, QuestCompleted, next)
}

func TestQuestProgress_AdvanceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 50).Draw(t, "max")
		increments := rapid.SliceOf(rapid.IntRange(0, 20)).Draw(t, "increments")

		p := newProgress(max)
		now := time.Now()
		prev := p.Progress
		for _, inc := range increments {
			if err := p.Advance(inc, now); err != nil {
				t.Fatalf("advance: %v", err)
			}
			if p.Progress < prev {
				t.Fatalf("progress went backwards: %d -> %d", prev, p.Progress)
			}
			if p.Progress > p.MaxProgress {
				t.Fatalf("progress %d above max %d", p.Progress, p.MaxProgress)
			}
			if (p.Progress == p.MaxProgress) != (p.Status == QuestCompleted) {
				t.Fatalf("status %s with progress %d/%d", p.Status, p.Progress, p.MaxProgress)
			}
			prev = p.Progress
		}
	})
}
