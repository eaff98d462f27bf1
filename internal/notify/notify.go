package notify

import (
	"context"
	"fmt"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier is told about referral payouts after they are recorded. Failures
// are logged by the caller and never undo the payout.
type Notifier interface {
	ReferralRewarded(ctx context.Context, referral *model.Referral) error
}

type Noop struct{}

func (Noop) ReferralRewarded(context.Context, *model.Referral) error { return nil }

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
	Debug    bool   `mapstructure:"debug"`
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts payout events to an operations chat.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(config TelegramConfig) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = config.Debug

	return &Telegram{
		bot:    bot,
		chatID: config.ChatID,
	}, nil
}

// New returns the Telegram notifier when a bot token is configured and Noop
// otherwise.
func New(config TelegramConfig) (Notifier, error) {
	if config.BotToken == "" {
		return Noop{}, nil
	}
	return NewTelegram(config)
}

func (t *Telegram) ReferralRewarded(_ context.Context, referral *model.Referral) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatReferralRewarded(referral))

	if _, err := t.bot.Send(msg); err != nil {
		logger.Logger().Error("failed to send referral notification",
			logger.Wallet(referral.ReferrerWallet),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

func FormatReferralRewarded(referral *model.Referral) string {
	text := fmt.Sprintf("Referral rewarded: %s USDC to %s for referring %s",
		referral.RewardAmount.StringFixed(2),
		referral.ReferrerWallet,
		referral.ReferredWallet,
	)
	if referral.TxRef != nil {
		text += fmt.Sprintf("\ntx: %s", *referral.TxRef)
	}
	return text
}
