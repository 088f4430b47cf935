// Package handler contains Telegram command handlers.
package handler

import (
	"strconv"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/external/telegram"
)

// Response contains a rendered reply ready to send.
type Response struct {
	// Text is the message text (HTML formatted).
	Text string

	// Keyboard is the inline keyboard to attach.
	Keyboard *telegram.InlineKeyboardMarkup

	// ParseMode is the parse mode (HTML).
	ParseMode string

	// IsError indicates an error response.
	IsError bool
}

// errorResponse builds a user-facing error reply.
func errorResponse(text string) *Response {
	return &Response{
		Text:      text,
		ParseMode: "HTML",
		IsError:   true,
	}
}

// parseScope interprets a single scope argument: "YYYY-MM" selects a month,
// a four-digit number selects a year, anything else is a competition id.
func parseScope(arg string) query.Scope {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return query.Scope{}
	}
	if len(arg) == 7 && arg[4] == '-' {
		return query.Scope{Month: arg}
	}
	if year, err := strconv.Atoi(arg); err == nil && len(arg) == 4 {
		return query.Scope{Year: year}
	}
	return query.Scope{CompetitionID: arg}
}
