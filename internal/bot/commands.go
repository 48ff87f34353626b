package bot

// Command constants for Telegram bot commands.
const (
	CommandStart     = "/start"
	CommandHelp      = "/help"
	CommandDeals     = "/deals"
	CommandFavorites = "/favorites"
	CommandSettings  = "/settings"
	CommandCancel    = "/cancel"
	CommandSupport   = "/support"
	CommandEnd       = "/end"
)

// Callback prefix constants for inline button interactions.
const (
	CallbackDealsPage      = "deals_page"
	CallbackSearchPage     = "search_page"
	CallbackFavoriteToggle = "fav_toggle"
	CallbackSetLanguage    = "set_lang"
	CallbackToggleNotify   = "notify_toggle"
	CallbackSetBudget      = "set_budget"
	CallbackRelayOpen      = "relay_open"
	CallbackRelayEnd       = "relay_end"
	CallbackMainMenu       = "main_menu"
	CallbackSettingsMenu   = "settings_menu"
	CallbackFavoritesMenu  = "fav_menu"
	CallbackHelp           = "help_menu"
)
