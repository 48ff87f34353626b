package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// InlineButton is a lightweight button definition accumulated by the builder
// before rendering telebot markup.
type InlineButton struct {
	Text   string
	Action string // Callback action prefix.
	Data   string // Payload appended to the action.
	URL    string // External link buttons carry no callback data.
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a new row of buttons.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Build renders the accumulated rows into telebot inline markup. Buttons
// whose encoded callback data exceeds the Telegram limit are dropped.
func (b *InlineKeyboardBuilder) Build() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	inlineKeyboard := make([][]telebot.InlineButton, 0, len(b.rows))
	for _, row := range b.rows {
		rendered := make([]telebot.InlineButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				rendered = append(rendered, telebot.InlineButton{Text: btn.Text, URL: btn.URL})
				continue
			}

			data, err := EncodeCallback(btn.Action, btn.Data)
			if err != nil {
				continue
			}

			rendered = append(rendered, telebot.InlineButton{Text: btn.Text, Data: data})
		}

		if len(rendered) > 0 {
			inlineKeyboard = append(inlineKeyboard, rendered)
		}
	}

	markup.InlineKeyboard = inlineKeyboard
	return markup
}
