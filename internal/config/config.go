package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nftmint_rewards/internal/notify"
	"nftmint_rewards/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config     `mapstructure:"database"`
	Server   ServerConfig          `mapstructure:"server"`
	Auth     AuthConfig            `mapstructure:"auth"`
	Rewards  RewardsConfig         `mapstructure:"rewards"`
	Solana   SolanaConfig          `mapstructure:"solana"`
	Redis    RedisConfig           `mapstructure:"redis"`
	Telegram notify.TelegramConfig `mapstructure:"telegram"`

	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	AdminWallets []string      `mapstructure:"admin_wallets"`
	DebugMode    bool          `mapstructure:"debug_mode"`
}

type RewardsConfig struct {
	ReferralUSDC  string `mapstructure:"referral_usdc"`
	MinMiniGameXP int    `mapstructure:"min_minigame_xp"`
	MaxXPAward    int    `mapstructure:"max_xp_award"`
}

// ReferralReward parses the configured payout. An empty value means the
// service default.
func (r RewardsConfig) ReferralReward() (decimal.Decimal, error) {
	if r.ReferralUSDC == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(r.ReferralUSDC)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rewards.referral_usdc %q: %w", r.ReferralUSDC, err)
	}
	return amount, nil
}

type SolanaConfig struct {
	RPCEndpoint    string `mapstructure:"rpc_endpoint"`
	ConfirmPayouts bool   `mapstructure:"confirm_payouts"`
	ConfirmMints   bool   `mapstructure:"confirm_mints"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "nftmint_rewards")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_wallets", []string{})
	v.SetDefault("auth.debug_mode", false)

	v.SetDefault("rewards.referral_usdc", "4")
	v.SetDefault("rewards.min_minigame_xp", 10)
	v.SetDefault("rewards.max_xp_award", 1000)

	v.SetDefault("solana.rpc_endpoint", "")
	v.SetDefault("solana.confirm_payouts", false)
	v.SetDefault("solana.confirm_mints", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("log_level", "info")
}

// Load reads config.yaml from the working directory when present and lets
// APP_* variables override it. A .env file, if any, is loaded first. Callers
// that serve traffic must also call Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(configPath)
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if _, err := c.Rewards.ReferralReward(); err != nil {
		return err
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
