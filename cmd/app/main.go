package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifequest_bot/internal/api"
	"lifequest_bot/internal/bot"
	"lifequest_bot/internal/cache"
	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/middleware"
	"lifequest_bot/internal/model"
	"lifequest_bot/internal/repository"
	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/auth"
	"lifequest_bot/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err = logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		zapLogger.Fatal("Invalid timezone", zap.String("timezone", cfg.Game.Timezone), zap.Error(err))
	}

	repo, err := repository.New(cfg.Database.Config, repository.WithStartingBalance(cfg.Game.StartingBalance))
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var choices service.ChoiceStore = repo
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedisChoiceStore(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		choices = redisStore
		zapLogger.Info("Pending choices kept in redis", zap.String("addr", cfg.Redis.Addr))
	}

	holder, reloader := loadCatalog(cfg, zapLogger)
	if reloader != nil {
		defer reloader.Stop()
	}

	roller, err := loot.NewSeededRoller()
	if err != nil {
		zapLogger.Fatal("Failed to seed roller", zap.Error(err))
	}

	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.Token != "" {
		if botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.Token); err != nil {
			zapLogger.Fatal("Failed to initialize bot", zap.Error(err))
		}
		botAPI.Debug = cfg.Telegram.Debug
		zapLogger.Info("Authorized on telegram", zap.String("username", botAPI.Self.UserName))
	}

	hub := api.NewHub()
	defer hub.Close()
	notifiers := service.Notifiers{hub}
	if botAPI != nil && cfg.Telegram.PartnerID != 0 {
		notifiers = append(notifiers, bot.NewPartnerNotifier(botAPI, cfg.Telegram.PartnerID))
	}

	progression := service.NewProgressionService(repo, choices, holder, roller, service.Options{
		ChoiceTTL:       cfg.Game.ChoiceTTL,
		ChoiceSize:      cfg.Game.ChoiceSize,
		MiniEventChance: cfg.Game.MiniEventChance,
		Location:        loc,
		Timeout:         cfg.Database.Timeout,
		ApartmentLevels: cfg.Game.ApartmentLevels,
		HistoryLimit:    cfg.Game.HistoryLimit,
	}, service.WithNotifier(notifiers))

	allow := auth.NewAllowlist(cfg.Telegram.AllowedIDs)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 5m", limiter.Sweep); err != nil {
		zapLogger.Fatal("Failed to schedule rate limiter sweep", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
	}
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	telegramAuth := auth.NewTelegramAuth(cfg.Telegram.Token, cfg.Telegram.Debug, allow)
	api.NewRouter(router.Group("/api/v1"), progression, telegramAuth, limiter, hub)

	if botAPI != nil {
		b := bot.New(botAPI, progression, allow, limiter)
		if err := startBot(ctx, cfg.Telegram, botAPI, b, router); err != nil {
			zapLogger.Fatal("Failed to start bot", zap.Error(err))
		}
		defer botAPI.StopReceivingUpdates()
	} else {
		zapLogger.Warn("No telegram token configured, serving the mini app API only")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}

// loadCatalog builds the initial catalog and, when a source path and
// schedule are configured, a reloader for it. Problems with the source are
// logged and the built-in defaults fill in.
func loadCatalog(cfg *Config, zapLogger *zap.Logger) (*catalog.Holder, *catalog.Reloader) {
	costs := make(map[model.BoxTier]int, len(cfg.Game.BoxCosts))
	for tier, cost := range cfg.Game.BoxCosts {
		costs[model.BoxTier(tier)] = cost
	}
	adjust := func(c *catalog.Catalog) *catalog.Catalog {
		return c.WithBoxCosts(costs)
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		var err error
		cat, err = catalog.LoadOrDefault(cfg.Catalog.Path)
		if err != nil {
			zapLogger.Warn("Catalog loaded with substitutions", zap.String("path", cfg.Catalog.Path), zap.Error(err))
		}
	}
	holder := catalog.NewHolder(adjust(cat))

	if cfg.Catalog.Path == "" || cfg.Catalog.ReloadSchedule == "" {
		return holder, nil
	}
	reloader := catalog.NewReloader(holder, cfg.Catalog.Path, adjust, zapLogger)
	if err := reloader.Start(cfg.Catalog.ReloadSchedule); err != nil {
		zapLogger.Fatal("Failed to schedule catalog reload", zap.Error(err))
	}
	return holder, reloader
}

func startBot(ctx context.Context, cfg bot.Config, botAPI *tgbotapi.BotAPI, b *bot.Bot, router *gin.Engine) error {
	zapLogger := logger.Logger()

	switch cfg.Mode {
	case bot.ModeWebhook:
		if cfg.WebhookURL == "" {
			return errors.New("webhook mode needs telegram.webhookURL")
		}
		path := "/telegram/" + cfg.Token
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL + path)
		if err != nil {
			return fmt.Errorf("failed to build webhook: %w", err)
		}
		wh.DropPendingUpdates = true
		if _, err := botAPI.Request(wh); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		router.POST(path, b.Webhook())
		zapLogger.Info("Receiving updates by webhook")
	default:
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 60
		go b.Poll(ctx, botAPI.GetUpdatesChan(updateConfig))
		zapLogger.Info("Receiving updates by long polling")
	}
	return nil
}
