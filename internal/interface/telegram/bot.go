package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/external/telegram"
	redispkg "github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/redis"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// PollingTimeout is the long polling timeout (in seconds).
	PollingTimeout int

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger
}

// BotDependencies contains the application handlers the bot depends on.
type BotDependencies struct {
	Leaderboard  *query.GetLeaderboardHandler
	UserRank     *query.GetUserRankHandler
	Categories   *query.GetCategoryStatsHandler
	Competitions *query.GetCompetitionsHandler
	TimeRanges   *query.GetTimeRangesHandler

	// Pages is the Redis cache for rendered leaderboard pages (may be nil).
	Pages *redispkg.LeaderboardCache
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the Telegram bot for the community leaderboard.
type Bot struct {
	client *telegram.Client
	router *Router
	logger *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBot creates a new Bot with its client, handlers and router.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 10
	}

	clientConfig := telegram.DefaultClientConfig(config.Token)
	clientConfig.Logger = config.Logger
	clientConfig.Debug = config.Debug
	if config.PollingTimeout > 0 {
		clientConfig.Timeout = time.Duration(config.PollingTimeout+30) * time.Second
	}
	client := telegram.NewClient(clientConfig)

	handlers := Handlers{
		Top:    handler.NewTopHandler(deps.Leaderboard),
		Rank:   handler.NewRankHandler(deps.UserRank),
		Stats:  handler.NewStatsHandler(deps.UserRank, deps.Categories),
		Ctfs:   handler.NewCtfsHandler(deps.Competitions),
		Months: handler.NewMonthsHandler(deps.TimeRanges),
	}

	return &Bot{
		client: client,
		router: NewRouter(client, handlers, deps.Pages, config.Logger),
		logger: config.Logger,
		sem:    make(chan struct{}, config.MaxConcurrentUpdates),
	}, nil
}

// Start verifies the token and begins long polling. Blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	b.logger.Info("telegram bot started", "username", me.Username, "bot_id", me.ID)

	err = b.client.StartPolling(ctx, b.handleUpdate)
	b.wg.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// handleUpdate processes one update with bounded concurrency.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.sem }()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("panic while handling update",
					"update_id", update.UpdateID,
					"panic", r,
				)
			}
		}()

		handleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := b.router.HandleUpdate(handleCtx, update); err != nil {
			b.logger.Error("failed to handle update",
				"update_id", update.UpdateID,
				"error", err,
			)
		}
	}()
	return nil
}
