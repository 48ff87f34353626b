package domain

import "time"

// Language is one of the closed set of supported interface languages.
type Language string

const (
	LanguageEN Language = "en"
	LanguageHI Language = "hi"
)

// DefaultLanguage is assigned on first contact.
const DefaultLanguage = LanguageEN

// NotificationKind identifies a toggleable notification category.
type NotificationKind string

const (
	NotifyPriceDrops NotificationKind = "price_drops"
	NotifyNewDeals   NotificationKind = "new_deals"
	NotifyCoupons    NotificationKind = "coupons"
)

// NotificationKinds lists every supported notification category.
var NotificationKinds = []NotificationKind{NotifyPriceDrops, NotifyNewDeals, NotifyCoupons}

// ActivityLogCap bounds the per-user recent activity log.
const ActivityLogCap = 20

// ActivityEntry is one item of a user's recent-activity log.
type ActivityEntry struct {
	Action string    `json:"action"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// User is the per-chat profile the bot keeps for every contact.
// Budget is in whole currency units; nil means unlimited.
type User struct {
	ChatID        int64                     `json:"chat_id"`
	DisplayName   string                    `json:"display_name"`
	Language      Language                  `json:"language"`
	LastQuery     string                    `json:"last_query"`
	Favorites     map[string]bool           `json:"favorites"`
	Budget        *int                      `json:"budget"`
	Notifications map[NotificationKind]bool `json:"notifications"`
	Activity      []ActivityEntry           `json:"activity"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// NewUser returns a profile with first-contact defaults.
func NewUser(chatID int64, displayName string) *User {
	notifications := make(map[NotificationKind]bool, len(NotificationKinds))
	for _, kind := range NotificationKinds {
		notifications[kind] = false
	}

	return &User{
		ChatID:        chatID,
		DisplayName:   displayName,
		Language:      DefaultLanguage,
		Favorites:     make(map[string]bool),
		Notifications: notifications,
		CreatedAt:     time.Now().UTC(),
	}
}
