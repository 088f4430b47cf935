// Package telegram implements the Telegram bot interface for CTF Community Hub.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/external/telegram"
	redispkg "github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/redis"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to command handlers. Rendered /top pages are
// cached in Redis so that refresh-heavy group chats do not recompute them.
// ══════════════════════════════════════════════════════════════════════════════

// Handlers groups the command handlers the router dispatches to.
type Handlers struct {
	Top    *handler.TopHandler
	Rank   *handler.RankHandler
	Stats  *handler.StatsHandler
	Ctfs   *handler.CtfsHandler
	Months *handler.MonthsHandler
}

// Router dispatches Telegram updates to command handlers.
type Router struct {
	client   *telegram.Client
	handlers Handlers
	pages    *redispkg.LeaderboardCache
	logger   *slog.Logger
}

// NewRouter creates a new Router. The page cache may be nil, in which case
// every /top request renders from the score snapshot.
func NewRouter(client *telegram.Client, handlers Handlers, pages *redispkg.LeaderboardCache, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		client:   client,
		handlers: handlers,
		pages:    pages,
		logger:   logger,
	}
}

// HandleUpdate routes a single update.
func (r *Router) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

// handleMessage routes a command message.
func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) error {
	command := telegram.ExtractCommand(msg)
	if command == "" {
		return nil
	}
	args := telegram.ExtractCommandArgs(msg)

	r.logger.Debug("routing command", "command", command, "chat_id", msg.Chat.ID)

	var (
		resp *handler.Response
		err  error
	)

	switch command {
	case "top":
		resp, err = r.renderTop(ctx, handler.TopRequest{Args: args})
	case "rank":
		resp, err = r.handlers.Rank.Handle(ctx, handler.RankRequest{Args: args})
	case "stats":
		resp, err = r.handlers.Stats.Handle(ctx, handler.StatsRequest{Args: args})
	case "ctfs":
		resp, err = r.handlers.Ctfs.Handle(ctx)
	case "months":
		resp, err = r.handlers.Months.Handle(ctx)
	case "start", "help":
		resp = helpResponse()
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("handle /%s: %w", command, err)
	}

	_, err = r.client.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:            msg.Chat.ID,
		Text:              resp.Text,
		ParseMode:         resp.ParseMode,
		DisableWebPreview: true,
		ReplyMarkup:       resp.Keyboard,
	})
	return err
}

// handleCallback routes an inline keyboard callback ("top:<scope>:<offset>").
func (r *Router) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	defer func() {
		if err := r.client.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
			r.logger.Warn("failed to answer callback query", "error", err)
		}
	}()

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 || parts[0] != "top" || cb.Message == nil {
		return nil
	}

	scopeArg := parts[1]
	if scopeArg == "-" {
		scopeArg = ""
	}
	offset, err := strconv.Atoi(parts[2])
	if err != nil || offset < 0 {
		return nil
	}

	resp, err := r.renderTop(ctx, handler.TopRequest{Args: scopeArg, Offset: offset})
	if err != nil {
		return fmt.Errorf("handle top callback: %w", err)
	}

	_, err = r.client.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, resp.Text, resp.Keyboard)
	if err != nil {
		// Telegram rejects edits that do not change the message.
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified") {
			return nil
		}
		return err
	}
	return nil
}

// cachedPage is the Redis payload for a rendered leaderboard page.
type cachedPage struct {
	Text     string `json:"text"`
	Keyboard string `json:"keyboard"`
}

// renderTop serves a leaderboard page, preferring the Redis page cache.
// Search requests bypass the cache: their result set is user-specific.
func (r *Router) renderTop(ctx context.Context, req handler.TopRequest) (*handler.Response, error) {
	if req.Limit <= 0 {
		req.Limit = 10
	}

	cacheable := r.pages != nil && !strings.ContainsAny(req.Args, " \t")
	key := redispkg.PageKey(pageFingerprint(req.Args), req.Offset/req.Limit)

	if cacheable {
		var page cachedPage
		if err := r.pages.GetJSON(ctx, key, &page); err == nil {
			resp := &handler.Response{Text: page.Text, ParseMode: "HTML"}
			if page.Keyboard != "" {
				var kb telegram.InlineKeyboardMarkup
				if err := json.Unmarshal([]byte(page.Keyboard), &kb); err == nil {
					resp.Keyboard = &kb
				}
			}
			return resp, nil
		}
	}

	resp, err := r.handlers.Top.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	if cacheable && !resp.IsError {
		page := cachedPage{Text: resp.Text}
		if resp.Keyboard != nil {
			if raw, err := json.Marshal(resp.Keyboard); err == nil {
				page.Keyboard = string(raw)
			}
		}
		if err := r.pages.SetJSON(ctx, key, page); err != nil {
			r.logger.Warn("failed to cache leaderboard page", "key", key, "error", err)
		}
	}
	return resp, nil
}

// pageFingerprint derives a page cache fingerprint from the scope argument.
func pageFingerprint(args string) string {
	args = strings.TrimSpace(args)
	if args == "" {
		return "global"
	}
	return args
}

// helpResponse returns the /help text.
func helpResponse() *handler.Response {
	return &handler.Response{
		Text: "🚩 <b>CTF Community Hub</b>\n\n" +
			"Команды:\n" +
			"<code>/top [период]</code> — рейтинг участников\n" +
			"<code>/rank &lt;id&gt; [период]</code> — позиция участника\n" +
			"<code>/stats &lt;id&gt;</code> — достижения и категории\n" +
			"<code>/ctfs</code> — активность соревнований\n" +
			"<code>/months</code> — доступные периоды\n\n" +
			"Период: <code>2026-08</code>, <code>2026</code> или идентификатор соревнования.",
		ParseMode: "HTML",
	}
}
