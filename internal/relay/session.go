// Package relay binds an end-user to an operator so the two can hold a
// mediated conversation through the bot without learning each other's raw
// chat identity.
package relay

import (
	"errors"
	"fmt"
	"time"
)

// SessionKind distinguishes the three session maps.
type SessionKind string

const (
	// KindOperator maps an operator's chat to the user they reply to.
	KindOperator SessionKind = "operator"
	// KindGroup maps the admin group's chat to the bound pair, so any
	// operator posting there routes to the same user.
	KindGroup SessionKind = "group"
	// KindUser flags an end-user whose messages are relayed instead of
	// dispatched as search input.
	KindUser SessionKind = "user"
)

// Key addresses one session entry.
type Key struct {
	Kind   SessionKind
	ChatID int64
}

// String renders the storage key ("relay:operator:42").
func (k Key) String() string {
	return fmt.Sprintf("relay:%s:%d", k.Kind, k.ChatID)
}

// Session is the binding shared by all three maps: every entry carries the
// full triple so teardown from any side can find the other two.
type Session struct {
	UserID       int64     `json:"user_id"`
	OperatorID   int64     `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	GroupID      int64     `json:"group_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transition labels reported to the recorder hook.
const (
	TransitionBind   = "bind"
	TransitionRebind = "rebind"
	TransitionEnd    = "end"
	TransitionExpire = "expire"
)

// ErrSessionNotFound indicates that a session entry does not exist.
var ErrSessionNotFound = errors.New("relay session not found")

var transitionRecorder = func(transition string) {}

// RegisterTransitionRecorder allows external packages to observe session
// transitions.
func RegisterTransitionRecorder(recorder func(transition string)) {
	if recorder == nil {
		transitionRecorder = func(string) {}
		return
	}

	transitionRecorder = recorder
}
