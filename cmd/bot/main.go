// Package main - точка входа для Telegram-бота CTF Community Hub.
//
// Бот показывает лидерборд сообщества по решениям CTF-заданий: очки
// нормализуются по сложности задания и весу соревнования, так что ценится
// не количество решений, а их качество.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика подсчёта очков и рангов
// - Application: оркестрация use cases (Queries, сервис очков)
// - Infrastructure: PostgreSQL, Redis, кеш снапшотов, Telegram API
// - Interface: обработчики команд бота, HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ctfhub/ctf-community-hub/config"
	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/cache"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/postgres"
	redispkg "github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/ctfhub/ctf-community-hub/internal/interface/http"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram"
	"github.com/ctfhub/ctf-community-hub/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))

	log.Info("starting CTF Community Hub bot",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var pageCache *redispkg.LeaderboardCache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redispkg.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		pageCache, err = redispkg.NewLeaderboardCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, page caching disabled", logger.Err(err))
			pageCache = nil
		} else {
			defer pageCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. СЕРВИС ОЧКОВ И ОБРАБОТЧИКИ ЗАПРОСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	solveRepo := postgres.NewSolveRepository(dbConn)
	competitionRepo := postgres.NewCompetitionRepository(dbConn)

	scoreCacheCfg := cache.DefaultConfig()
	scoreCacheCfg.Logger = log
	scoreCache := cache.New(scoreCacheCfg)
	defer scoreCache.Close()

	scoreService := scores.New(solveRepo, competitionRepo, scoreCache, log)

	leaderboardQuery := query.NewGetLeaderboardHandler(scoreService)
	userRankQuery := query.NewGetUserRankHandler(scoreService)
	categoryQuery := query.NewGetCategoryStatsHandler(scoreService)
	competitionsQuery := query.NewGetCompetitionsHandler(scoreService)
	timeRangesQuery := query.NewGetTimeRangesHandler(scoreService)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	var server *httpserver.Server
	if cfg.HTTP.Enabled {
		httpCfg := httpserver.DefaultConfig()
		httpCfg.Host = cfg.HTTP.Host
		httpCfg.Port = cfg.HTTP.Port
		httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

		server = httpserver.NewServer(httpCfg, httpserver.Dependencies{
			GetLeaderboardHandler:   leaderboardQuery,
			GetUserRankHandler:      userRankQuery,
			GetCategoryStatsHandler: categoryQuery,
			GetCompetitionsHandler:  competitionsQuery,
			GetTimeRangesHandler:    timeRangesQuery,
			Payloads:                pageCache,
			HealthChecker:           &httpserver.StoreHealthChecker{DB: dbConn, Cache: pageCache},
			Logger:                  log,
		})

		errCh := server.StartAsync()
		go func() {
			if serveErr := <-errCh; serveErr != nil {
				log.Error("HTTP server failed", logger.Err(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP shutdown failed", logger.Err(err))
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Telegram.Disabled {
		log.Info("telegram bot disabled, serving HTTP only")
		<-ctx.Done()
		return nil
	}

	log.Info("initializing Telegram bot...")
	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:                cfg.Telegram.Token,
		PollingTimeout:       cfg.Telegram.PollingTimeout,
		MaxConcurrentUpdates: cfg.Telegram.MaxConcurrentUpdates,
		Debug:                cfg.App.Debug,
		Logger:               slogger,
	}, telegram.BotDependencies{
		Leaderboard:  leaderboardQuery,
		UserRank:     userRankQuery,
		Categories:   categoryQuery,
		Competitions: competitionsQuery,
		TimeRanges:   timeRangesQuery,
		Pages:        pageCache,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// setupLogger настраивает структурированный логгер по конфигурации.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
