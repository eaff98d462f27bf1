package service

import (
	"context"
	"errors"
	"time"

	"nftmint_rewards/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidWallet       = errors.New("invalid wallet address")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("cannot refer yourself")
	ErrCircularReferral    = errors.New("referrer was referred by this wallet")
	ErrAlreadyReferred     = errors.New("wallet already has a referrer")
	ErrPayoutNotConfirmed  = errors.New("payout transaction is not confirmed")

	ErrQuestNotFound       = errors.New("quest not found")
	ErrInvalidQuestType    = errors.New("invalid quest type")
	ErrQuestInactive       = errors.New("quest is not active")
	ErrProgressNotFound    = errors.New("quest progress not found")
	ErrQuestNotCompleted   = errors.New("quest not completed")
	ErrQuestAlreadyClaimed = errors.New("quest reward already claimed")
	ErrInvalidIncrement    = errors.New("progress increment must be positive")
	ErrVerificationFailed  = errors.New("verification failed")

	ErrInvalidXPAmount   = errors.New("invalid xp amount")
	ErrDailyLimitReached = errors.New("daily play limit reached")

	ErrInvalidLeaderboard = errors.New("invalid leaderboard type")
)

type Service struct {
	*UserService
	*ReferralService
	*QuestService
	*XPService
	*LeaderboardService
	*GameService
}

func NewService(
	userService *UserService,
	referralService *ReferralService,
	questService *QuestService,
	xpService *XPService,
	leaderboardService *LeaderboardService,
	gameService *GameService,
) *Service {
	return &Service{
		UserService:        userService,
		ReferralService:    referralService,
		QuestService:       questService,
		XPService:          xpService,
		LeaderboardService: leaderboardService,
		GameService:        gameService,
	}
}

type UserServiceI interface {
	GetUser(ctx context.Context, wallet string) (*model.User, error)
	RecordMint(ctx context.Context, wallet, txSignature string) (*model.User, error)
	ResetUser(ctx context.Context, wallet string) error
}

type UserRepository interface {
	GetUserByWallet(ctx context.Context, wallet string) (*model.User, error)
	RecordMint(ctx context.Context, wallet, txSignature string, now time.Time) error
	ResetUser(ctx context.Context, wallet string, now time.Time) error
}

type ReferralServiceI interface {
	InitializeUserReferral(ctx context.Context, wallet string) (*model.User, error)
	TrackReferral(ctx context.Context, code, newWallet string) error
	CompleteReferral(ctx context.Context, wallet string) (bool, error)
	ProcessReferralReward(ctx context.Context, wallet string, txRef *string) (bool, error)
	GetReferralStats(ctx context.Context, wallet string) (*model.ReferralStats, error)
	GetReferralHistory(ctx context.Context, wallet string) ([]*model.Referral, error)
}

type ReferralRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, bool, error)
	GetUserByWallet(ctx context.Context, wallet string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	CreateReferral(ctx context.Context, referral *model.Referral, referred *model.User) error
	GetReferralByReferred(ctx context.Context, referredWallet string) (*model.Referral, error)
	ListReferralsByReferrer(ctx context.Context, referrerWallet string) ([]*model.Referral, error)
	CompleteReferral(ctx context.Context, referredWallet string, now time.Time) (*model.Referral, error)
	RewardReferral(ctx context.Context, referredWallet string, amount decimal.Decimal, txRef *string, now time.Time) (*model.Referral, error)
}

type QuestServiceI interface {
	GetActiveQuests(ctx context.Context) ([]*model.Quest, error)
	GetQuestsByType(ctx context.Context, questType model.QuestType) ([]*model.Quest, error)
	GetUserQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error)
	UpdateProgress(ctx context.Context, wallet string, questID uuid.UUID, increment int, verification *model.VerificationData) (*model.QuestProgress, error)
	ClaimReward(ctx context.Context, wallet, progressID string) (*model.QuestProgress, error)
	TrackAction(ctx context.Context, wallet string, requirement model.RequirementType, verification *model.VerificationData) error
	SeedQuests(ctx context.Context) (int, error)
	CleanupDuplicateQuests(ctx context.Context) (int, error)
}

type QuestRepository interface {
	ListQuests(ctx context.Context, questType model.QuestType) ([]*model.Quest, error)
	GetQuestByID(ctx context.Context, id uuid.UUID) (*model.Quest, error)
	CreateQuests(ctx context.Context, quests []*model.Quest) error
	FindDuplicateQuests(ctx context.Context) ([]model.DuplicateQuests, error)
	DeleteQuests(ctx context.Context, ids []uuid.UUID) (int, error)
	QuestTitles(ctx context.Context) ([]string, error)

	ListQuestProgress(ctx context.Context, wallet string) ([]*model.QuestProgress, error)
	GetQuestProgress(ctx context.Context, id string) (*model.QuestProgress, error)
	CreateQuestProgress(ctx context.Context, progress []*model.QuestProgress) error
	UpdateQuestProgress(ctx context.Context, id string, fn func(p *model.QuestProgress) error) (*model.QuestProgress, error)
	ClaimQuestProgress(ctx context.Context, id string, now time.Time) (*model.QuestProgress, error)
}

type XPServiceI interface {
	AddUserXP(ctx context.Context, wallet string, amount int, source string) (*model.XPRecord, error)
	GetUserXPData(ctx context.Context, wallet string) (*model.XPRecord, error)
	GetXPLeaderboard(ctx context.Context, limit int) ([]*model.XPRecord, error)
	AwardMiniGameXP(ctx context.Context, wallet string, requested int) (*model.XPRecord, int, error)
	MaxXPAward() int
}

type XPRepository interface {
	GetXPRecord(ctx context.Context, wallet string) (*model.XPRecord, error)
	AddXP(ctx context.Context, wallet string, amount int, now time.Time) (*model.XPRecord, error)
	GetXPRank(ctx context.Context, wallet string, totalXP int) (int, error)
	ListXPRecords(ctx context.Context, limit int) ([]*model.XPRecord, error)
}

type LeaderboardServiceI interface {
	GetLeaderboard(ctx context.Context, board model.LeaderboardType, limit int) ([]*model.LeaderboardEntry, error)
}

type LeaderboardRepository interface {
	ListUsers(ctx context.Context, orderBy string, limit int) ([]*model.User, error)
	ListXPRecords(ctx context.Context, limit int) ([]*model.XPRecord, error)
}

type GameServiceI interface {
	PlayStatus(ctx context.Context, wallet string) (*GameStatus, error)
	FinishGame(ctx context.Context, wallet string, score int) (*GameResult, error)
}
