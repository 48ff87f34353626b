package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/handlers"
	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
)

// Router dispatches commands, callbacks, and relay-intercepted messages.
type Router struct {
	mu              sync.RWMutex
	commands        map[string]handlers.Handler
	callbacks       map[string]handlers.CallbackHandler
	dispatcher      *Dispatcher
	defaultHandler  handlers.Handler
	fallbackHandler handlers.CallbackHandler
	middlewares     []handlers.Middleware
	log             *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterCallback registers a handler for a callback action prefix.
func (r *Router) RegisterCallback(action string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[action] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the handler for plain messages, i.e. free-text searches.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// SetCallbackFallback sets the handler for unknown or malformed callbacks.
func (r *Router) SetCallbackFallback(h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbackHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	action, _, err := keyboard.DecodeCallback(data)

	var handler handlers.CallbackHandler
	if err == nil {
		handler = r.getCallbackHandler(action)
	}

	if handler == nil {
		r.log.Info("unmatched callback, falling back to menu", slog.String("data", data))
		handler = r.getCallbackFallback()
		if handler == nil {
			return nil
		}
	}

	return r.executeHandler(handlers.Handler(handler), c)
}

// handleMessage runs commands first so /end works inside a relay dialog,
// then lets the relay dispatcher consume bound traffic, and only then falls
// through to the default search handler.
func (r *Router) handleMessage(c telebot.Context) error {
	text := c.Text()

	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(commandName(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if r.dispatcher != nil {
		consumed, err := r.dispatcher.Dispatch(c)
		if err != nil {
			return err
		}
		if consumed {
			return nil
		}
	}

	// Group chatter that is not relayed is none of our business.
	if c.Chat() != nil && c.Chat().Type != telebot.ChatPrivate {
		return nil
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

// commandName extracts "/cmd" from "/cmd@bot arg ...".
func commandName(text string) string {
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		text = text[:idx]
	}
	if idx := strings.IndexByte(text, '@'); idx > 0 {
		text = text[:idx]
	}
	return text
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCallbackHandler(action string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[action]
}

func (r *Router) getCallbackFallback() handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallbackHandler
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmd]
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultHandler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
