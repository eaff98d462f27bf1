package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type QuestType string

const (
	QuestDaily   QuestType = "daily"
	QuestWeekly  QuestType = "weekly"
	QuestOneTime QuestType = "one-time"
	QuestSpecial QuestType = "special"
)

func (t QuestType) Valid() bool {
	switch t {
	case QuestDaily, QuestWeekly, QuestOneTime, QuestSpecial:
		return true
	}
	return false
}

// Resets reports whether progress on quests of this type goes back to
// not_started on a schedule boundary.
func (t QuestType) Resets() bool {
	return t == QuestDaily || t == QuestWeekly
}

// NeedsReset compares the last reset against now on the UTC calendar day
// (daily) or ISO week (weekly).
func (t QuestType) NeedsReset(lastReset, now time.Time) bool {
	lastReset, now = lastReset.UTC(), now.UTC()
	switch t {
	case QuestDaily:
		ly, lm, ld := lastReset.Date()
		ny, nm, nd := now.Date()
		return ly != ny || lm != nm || ld != nd
	case QuestWeekly:
		ly, lw := lastReset.ISOWeek()
		ny, nw := now.ISOWeek()
		return ly != ny || lw != nw
	}
	return false
}

type RequirementType string

const (
	RequirementMintNFT     RequirementType = "mint_nft"
	RequirementReferral    RequirementType = "referral"
	RequirementDailyLogin  RequirementType = "daily_login"
	RequirementPlayGame    RequirementType = "play_game"
	RequirementGameScore   RequirementType = "game_score"
	RequirementSocialShare RequirementType = "social_share"
)

type QuestRequirements struct {
	Type  RequirementType
	Count int
	// Threshold > 0 means the verification data must carry a score of at
	// least this value for an increment to count.
	Threshold int
}

type QuestReward struct {
	XP int
}

type Quest struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Type         QuestType
	Requirements QuestRequirements
	Reward       QuestReward
	Active       bool
	CreatedAt    time.Time
}

type DuplicateQuests struct {
	Title string
	// IDs are ordered oldest first; IDs[0] is the document that is kept.
	IDs []uuid.UUID
}

type VerificationData struct {
	Score  int
	Source string
}

type QuestStatus string

const (
	QuestNotStarted QuestStatus = "not_started"
	QuestInProgress QuestStatus = "in_progress"
	QuestCompleted  QuestStatus = "completed"
	QuestClaimed    QuestStatus = "claimed"
)

var questTransitions = map[QuestStatus][]QuestStatus{
	QuestNotStarted: {QuestInProgress, QuestCompleted},
	QuestInProgress: {QuestCompleted},
	QuestCompleted:  {QuestClaimed},
}

func (s QuestStatus) Valid() bool {
	switch s {
	case QuestNotStarted, QuestInProgress, QuestCompleted, QuestClaimed:
		return true
	}
	return false
}

// Transition only moves forward. Going back to not_started happens through
// QuestProgress.Reset on a schedule boundary, never through Transition.
func (s QuestStatus) Transition(to QuestStatus) (QuestStatus, error) {
	for _, next := range questTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: quest %s -> %s", ErrInvalidTransition, s, to)
}

type QuestProgress struct {
	ID            string
	WalletAddress string
	QuestID       uuid.UUID
	Status        QuestStatus
	Progress      int
	MaxProgress   int
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ClaimedAt     *time.Time
	LastResetAt   time.Time
	UpdatedAt     time.Time
}

func ProgressID(wallet string, questID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", wallet, questID)
}

func NewQuestProgress(wallet string, quest *Quest, now time.Time) *QuestProgress {
	return &QuestProgress{
		ID:            ProgressID(wallet, quest.ID),
		WalletAddress: wallet,
		QuestID:       quest.ID,
		Status:        QuestNotStarted,
		MaxProgress:   quest.Requirements.Count,
		LastResetAt:   now,
		UpdatedAt:     now,
	}
}

// Advance adds increment to the counter, clamped at MaxProgress. Completed and
// claimed progress is left untouched.
func (p *QuestProgress) Advance(increment int, now time.Time) error {
	if p.Status == QuestCompleted || p.Status == QuestClaimed {
		return nil
	}

	next := p.Progress + increment
	if next > p.MaxProgress {
		next = p.MaxProgress
	}
	if next < 0 {
		next = 0
	}

	target := QuestInProgress
	if next >= p.MaxProgress {
		target = QuestCompleted
	}

	if target != p.Status {
		status, err := p.Status.Transition(target)
		if err != nil {
			return err
		}
		p.Status = status
	}

	p.Progress = next
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	if p.Status == QuestCompleted {
		p.CompletedAt = &now
	}
	p.UpdatedAt = now

	return nil
}

func (p *QuestProgress) Claim(now time.Time) error {
	status, err := p.Status.Transition(QuestClaimed)
	if err != nil {
		return err
	}

	p.Status = status
	p.ClaimedAt = &now
	p.UpdatedAt = now

	return nil
}

func (p *QuestProgress) Reset(now time.Time) {
	p.Status = QuestNotStarted
	p.Progress = 0
	p.StartedAt = nil
	p.CompletedAt = nil
	p.ClaimedAt = nil
	p.LastResetAt = now
	p.UpdatedAt = now
}
