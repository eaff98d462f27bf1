package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nftmint_rewards/internal/api"
	"nftmint_rewards/internal/config"
	"nftmint_rewards/internal/middleware"
	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/internal/notify"
	"nftmint_rewards/internal/playlimit"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/internal/service"
	"nftmint_rewards/pkg/auth"
	"nftmint_rewards/pkg/chain"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err = cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	err = repository.Migrate(cfg.Database.GetDatabaseURL(), 0)
	if err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	checks := map[string]api.Pinger{"database": repo}

	var limiter playlimit.Limiter = playlimit.NewMemory()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		redisLimiter := playlimit.NewRedis(client)
		limiter = redisLimiter
		checks["redis"] = redisLimiter
		zapLogger.Info("Using redis play limiter", zap.String("addr", cfg.Redis.Addr))
	}

	notifier, err := notify.New(cfg.Telegram)
	if err != nil {
		zapLogger.Fatal("Failed to initialize notifier", zap.Error(err))
	}

	var payoutConfirmer, mintConfirmer chain.Confirmer
	if cfg.Solana.ConfirmPayouts || cfg.Solana.ConfirmMints {
		client := chain.NewClient(cfg.Solana.RPCEndpoint)
		if cfg.Solana.ConfirmPayouts {
			payoutConfirmer = client
		}
		if cfg.Solana.ConfirmMints {
			mintConfirmer = client
		}
	}

	reward, _ := cfg.Rewards.ReferralReward()

	xpService := service.NewXPService(repo, limiter, service.XPConfig{
		MinMiniGameXP: cfg.Rewards.MinMiniGameXP,
		MaxXPAward:    cfg.Rewards.MaxXPAward,
	})
	questService := service.NewQuestService(repo, xpService)
	referralService := service.NewReferralService(repo, questService, notifier, payoutConfirmer, reward)
	userService := service.NewUserService(repo, referralService, questService, mintConfirmer)
	leaderboardService := service.NewLeaderboardService(repo)
	gameService := service.NewGameService(xpService, questService)

	svc := service.NewService(userService, referralService, questService, xpService, leaderboardService, gameService)

	if created, err := questService.SeedQuests(context.Background()); err != nil {
		zapLogger.Error("Failed to seed quests", zap.Error(err))
	} else if created > 0 {
		zapLogger.Info("Seeded quest catalog", zap.Int("created", created))
	}

	walletAuth := auth.NewWalletAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.DebugMode)
	guards := api.NewGuards(walletAuth, middleware.NewAuthorization(cfg.Auth.AdminWallets))

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger(), monitoring.Middleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	api.NewHealthRoutes(router, checks)

	a := router.Group("/api/v1")
	api.NewAuthRoutes(a, walletAuth, svc.ReferralService, svc.QuestService)
	api.NewUserRoutes(a, svc.UserService, svc.ReferralService, guards)
	api.NewReferralRoutes(a, svc.ReferralService, guards)
	api.NewQuestRoutes(a, svc.QuestService, guards)
	api.NewXPRoutes(a, svc.XPService, guards)
	api.NewLeaderboardRoutes(a, svc.LeaderboardService)
	api.NewAdminRoutes(a, svc.UserService, svc.ReferralService, svc.QuestService, guards)
	api.NewGameRoutes(a, svc.GameService, guards)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}
