package telegram

// KeyboardBuilder helps construct inline keyboards.
type KeyboardBuilder struct {
	rows [][]InlineKeyboardButton
	row  []InlineKeyboardButton
}

// NewKeyboard creates a new keyboard builder.
func NewKeyboard() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// Button adds a callback button to the current row.
func (kb *KeyboardBuilder) Button(text, callbackData string) *KeyboardBuilder {
	kb.row = append(kb.row, InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	})
	return kb
}

// URLButton adds a URL button to the current row.
func (kb *KeyboardBuilder) URLButton(text, url string) *KeyboardBuilder {
	kb.row = append(kb.row, InlineKeyboardButton{
		Text: text,
		URL:  url,
	})
	return kb
}

// Row finishes the current row and starts a new one.
func (kb *KeyboardBuilder) Row() *KeyboardBuilder {
	if len(kb.row) > 0 {
		kb.rows = append(kb.rows, kb.row)
		kb.row = nil
	}
	return kb
}

// Build returns the finished keyboard, or nil if it is empty.
func (kb *KeyboardBuilder) Build() *InlineKeyboardMarkup {
	kb.Row()
	if len(kb.rows) == 0 {
		return nil
	}
	return &InlineKeyboardMarkup{InlineKeyboard: kb.rows}
}
