package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// profile loads (or creates) the sender's profile and a translator for their
// language. A storage failure degrades to a nil profile and the default pack.
func profile(c telebot.Context, prefsService *prefs.Service, locales *i18n.Manager) (*domain.User, i18n.Translator) {
	if c == nil || c.Sender() == nil || prefsService == nil {
		return nil, locales.Translator("")
	}

	sender := c.Sender()
	user, err := prefsService.GetOrCreate(context.Background(), sender.ID, displayName(sender))
	if err != nil || user == nil {
		return nil, locales.Translator("")
	}

	return user, locales.Translator(string(user.Language))
}

func displayName(sender *telebot.User) string {
	if sender == nil {
		return ""
	}

	name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	if name == "" {
		name = sender.Username
	}
	return name
}

// RenderOffers formats a page of offers under a header line.
func RenderOffers(t i18n.Translator, header string, offers []domain.Offer) string {
	var sb strings.Builder
	sb.WriteString(header)

	for _, offer := range offers {
		sb.WriteString("\n\n")
		sb.WriteString(renderOffer(t, offer))
	}

	return sb.String()
}

// renderOffer formats one offer as a text block.
func renderOffer(t i18n.Translator, offer domain.Offer) string {
	var sb strings.Builder

	sb.WriteString("🛍️ ")
	sb.WriteString(offer.Title)

	sb.WriteString("\n💰 ₹")
	sb.WriteString(strconv.Itoa(offer.Price))
	if offer.OriginalPrice > offer.Price {
		sb.WriteString(fmt.Sprintf(" (₹%d, -%d%%)", offer.OriginalPrice, offer.Discount))
	} else if offer.Discount > 0 {
		sb.WriteString(fmt.Sprintf(" (-%d%%)", offer.Discount))
	}

	if offer.Cashback > 0 {
		sb.WriteString("\n💸 ")
		sb.WriteString(t.T("offers.cashback", i18n.Params{"amount": strconv.Itoa(offer.Cashback)}))
	}

	sb.WriteString("\n🏪 ")
	sb.WriteString(offer.Store)
	if offer.Rating > 0 {
		sb.WriteString(fmt.Sprintf(" · ⭐ %.1f", offer.Rating))
	}

	if offer.Coupon != nil && offer.Coupon.Code != "" {
		sb.WriteString("\n🎟️ ")
		sb.WriteString(t.T("offers.coupon", i18n.Params{"code": offer.Coupon.Code}))
	}

	if offer.Link != "" {
		sb.WriteString("\n🔗 ")
		sb.WriteString(offer.Link)
	}

	return sb.String()
}
