package keyboard

import (
	"strconv"

	"github.com/dealpulse/dealpulse-bot/internal/i18n"
)

// PaginationRow returns up to three buttons (prev, current page, next)
// sharing one callback action prefix. The payload is the target page number.
func PaginationRow(t i18n.Translator, action string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.prev", "◀️"),
			Action: action,
			Data:   strconv.Itoa(page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   pageLabel(t, page, totalPages),
		Action: action,
		Data:   strconv.Itoa(page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.next", "▶️"),
			Action: action,
			Data:   strconv.Itoa(page + 1),
		})
	}

	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := t.T(key, nil)
	if text == "" || text == key {
		return fallback
	}

	return text
}

func pageLabel(t i18n.Translator, page, total int) string {
	if t == nil {
		return strconv.Itoa(page) + "/" + strconv.Itoa(total)
	}

	label := t.T("pagination.page", i18n.Params{
		"page":  strconv.Itoa(page),
		"total": strconv.Itoa(total),
	})
	if label == "" || label == "pagination.page" {
		return strconv.Itoa(page) + "/" + strconv.Itoa(total)
	}

	return label
}
