// Package main - точка входа для фоновых процессов (Worker) CTF Community Hub.
//
// Worker отвечает за периодические задачи:
// - Очистка просроченных записей кеша снапшотов
// - Ежедневный прогрев месячных вселенных рангов
// - Открытие окон ретраев для соревнований без веса
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ctfhub/ctf-community-hub/config"
	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/cache"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/postgres"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/scheduler"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/scheduler/jobs"
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
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := slog.LevelInfo
	if cfg.App.Debug {
		logLevel = slog.LevelDebug
	}
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	slogger.Info("starting CTF Community Hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		slogger.Info("scheduler disabled, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Database.AutoMigrate {
		slogger.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. СЕРВИС ОЧКОВ
	// Worker держит собственный кеш снапшотов: прогретые месячные
	// вселенные живут в его процессе для заданий прогрева.
	// ─────────────────────────────────────────────────────────────────────────
	solveRepo := postgres.NewSolveRepository(dbConn)
	competitionRepo := postgres.NewCompetitionRepository(dbConn)

	scoreCacheCfg := cache.DefaultConfig()
	scoreCacheCfg.Logger = appLog
	// Очистку делает задание sweep_cache, фоновая петля не нужна.
	scoreCacheCfg.SweepInterval = 0
	scoreCache := cache.New(scoreCacheCfg)
	defer scoreCache.Close()

	scoreService := scores.New(solveRepo, competitionRepo, scoreCache, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. РЕГИСТРАЦИЯ ЗАДАНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(slogger)

	sweepJob := jobs.NewSweepCacheJob(scoreCache, slogger)
	if err := sched.Register(sweepJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SweepCacheInterval)); err != nil {
		return fmt.Errorf("register %s: %w", sweepJob.Name(), err)
	}

	warmJob := jobs.NewWarmMonthlyRanksJob(scoreService, slogger)
	warmJob.MaxMonths = cfg.Scheduler.WarmRanksMonths
	warmSchedule := scheduler.NewDailySchedule(cfg.Scheduler.WarmRanksHour, cfg.Scheduler.WarmRanksMinute)
	if err := sched.Register(warmJob, warmSchedule); err != nil {
		return fmt.Errorf("register %s: %w", warmJob.Name(), err)
	}

	weightJob := jobs.NewWeightMaintenanceJob(competitionRepo, slogger)
	weightJob.GracePeriod = cfg.Scoring.WeightGracePeriod
	if err := sched.Register(weightJob, scheduler.NewIntervalSchedule(cfg.Scheduler.WeightMaintenanceInterval)); err != nil {
		return fmt.Errorf("register %s: %w", weightJob.Name(), err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ЗАПУСК И ОЖИДАНИЕ ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	slogger.Info("worker started, waiting for shutdown signal")

	<-ctx.Done()

	slogger.Info("shutting down worker...")
	if err := sched.Stop(); err != nil {
		slogger.Error("scheduler stop failed", "error", err)
	}
	slogger.Info("shutdown complete")
	return nil
}
