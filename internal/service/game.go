package service

import (
	"context"
	"errors"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/internal/playlimit"
	"nftmint_rewards/pkg/logger"

	"go.uber.org/zap"
)

const (
	baseHitScore = 10
	// One XP per this many points of final score.
	scorePerXP = 100
)

// GameSession scores one round of the ball game. Each hit is worth the base
// score plus one more point than the previous hit.
type GameSession struct {
	Playing      bool
	HitCounter   int
	TotalScore   int
	LastHitScore int
}

func (g *GameSession) Start() {
	*g = GameSession{Playing: true}
}

func (g *GameSession) Hit() {
	if !g.Playing {
		return
	}
	g.LastHitScore = baseHitScore + g.HitCounter
	g.TotalScore += g.LastHitScore
	g.HitCounter++
}

// Drop ends the round and returns the final score.
func (g *GameSession) Drop() int {
	g.Playing = false
	return g.TotalScore
}

type GameStatus struct {
	Available       bool      `json:"available"`
	NextAvailableAt time.Time `json:"nextAvailableAt"`
}

type GameResult struct {
	Score     int             `json:"score"`
	XPAwarded int             `json:"xpAwarded"`
	XP        *model.XPRecord `json:"xp"`
}

type gameXP interface {
	AwardMiniGameXP(ctx context.Context, wallet string, requested int) (*model.XPRecord, int, error)
	DailyPlayStatus(ctx context.Context, wallet string) (playlimit.Status, error)
}

type GameService struct {
	xp     gameXP
	quests ActionTracker
}

func NewGameService(xp gameXP, quests ActionTracker) *GameService {
	return &GameService{xp: xp, quests: quests}
}

func (s *GameService) PlayStatus(ctx context.Context, wallet string) (*GameStatus, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}

	status, err := s.xp.DailyPlayStatus(ctx, wallet)
	if err != nil {
		return nil, err
	}

	return &GameStatus{Available: status.Available, NextAvailableAt: status.NextAvailableAt}, nil
}

// FinishGame turns a final score into mini-game XP and advances the play and
// score quests. It fails with ErrDailyLimitReached after the first finished
// game of the day.
func (s *GameService) FinishGame(ctx context.Context, wallet string, score int) (*GameResult, error) {
	log := logger.Logger()

	if score < 0 {
		score = 0
	}

	record, awarded, err := s.xp.AwardMiniGameXP(ctx, wallet, score/scorePerXP)
	if err != nil {
		if errors.Is(err, ErrDailyLimitReached) {
			monitoring.RecordGame("limited")
		}
		return nil, err
	}
	monitoring.RecordGame("awarded")

	if s.quests != nil {
		verification := &model.VerificationData{Score: score, Source: XPSourceMiniGame}
		for _, req := range []model.RequirementType{model.RequirementPlayGame, model.RequirementGameScore} {
			if err = s.quests.TrackAction(ctx, wallet, req, verification); err != nil {
				log.Warn("failed to track game quests", logger.Wallet(wallet), zap.String("requirement", string(req)), zap.Error(err))
			}
		}
	}

	log.Info("game finished", logger.Wallet(wallet), zap.Int("score", score), zap.Int("xp", awarded))

	return &GameResult{Score: score, XPAwarded: awarded, XP: record}, nil
}
