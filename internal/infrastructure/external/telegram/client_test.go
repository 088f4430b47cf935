package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandMessage(text string, cmdLength int) *Message {
	return &Message{
		Text: text,
		Entities: []MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLength},
		},
	}
}

func TestExtractCommand(t *testing.T) {
	assert.Equal(t, "top", ExtractCommand(commandMessage("/top", 4)))
	assert.Equal(t, "top", ExtractCommand(commandMessage("/top 2026-03", 4)))
	// Упоминание бота отрезается.
	assert.Equal(t, "top", ExtractCommand(commandMessage("/top@ctfhub_bot", 15)))

	assert.Empty(t, ExtractCommand(nil))
	assert.Empty(t, ExtractCommand(&Message{Text: "привет"}))
	// Команда не в начале сообщения командой не считается.
	assert.Empty(t, ExtractCommand(&Message{
		Text:     "см /top",
		Entities: []MessageEntity{{Type: "bot_command", Offset: 4, Length: 4}},
	}))
}

func TestExtractCommandArgs(t *testing.T) {
	assert.Equal(t, "2026-03", ExtractCommandArgs(commandMessage("/top 2026-03", 4)))
	assert.Equal(t, "alice ctf-a", ExtractCommandArgs(commandMessage("/rank alice ctf-a", 5)))
	assert.Empty(t, ExtractCommandArgs(commandMessage("/top", 4)))
	assert.Empty(t, ExtractCommandArgs(nil))
}

func TestAPIResponse_ErrorParsing(t *testing.T) {
	raw := `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`

	var resp APIResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.False(t, resp.OK)
	assert.Equal(t, 429, resp.ErrorCode)
	require.NotNil(t, resp.Parameters)
	assert.Equal(t, 7, resp.Parameters.RetryAfter)
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Code: 400, Description: "Bad Request: message is not modified"}
	assert.Equal(t, "telegram api error 400: Bad Request: message is not modified", err.Error())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Алия", (&User{FirstName: "Алия"}).FullName())
	assert.Equal(t, "Алия Берген", (&User{FirstName: "Алия", LastName: "Берген"}).FullName())
}

func TestKeyboardBuilder(t *testing.T) {
	kb := NewKeyboard().
		Button("⬅️ Назад", "top:-:0").
		Button("Вперёд ➡️", "top:-:10").
		Row().
		URLButton("CTFtime", "https://ctftime.org").
		Build()

	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "top:-:0", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "https://ctftime.org", kb.InlineKeyboard[1][0].URL)
}

func TestKeyboardBuilder_EmptyIsNil(t *testing.T) {
	assert.Nil(t, NewKeyboard().Build())
	assert.Nil(t, NewKeyboard().Row().Build())
}
