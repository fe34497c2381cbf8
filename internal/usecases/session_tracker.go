package usecases

import (
	"context"
	"fmt"
	"time"
)

// DefaultIdleThreshold is how long a session may sit idle before expiry
const DefaultIdleThreshold = 24 * time.Hour

// SessionStore is the persistence surface for welcome/idle tracking
type SessionStore interface {
	HasReceivedWelcome(ctx context.Context, contact string, teamID int64) (bool, error)
	MarkWelcomed(ctx context.Context, contact string, teamID int64) error
	Touch(ctx context.Context, contact string, teamID int64) error
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error)
}

// HistoryEvicter drops a contact's in-memory conversation state
type HistoryEvicter interface {
	Evict(contact string)
}

// SessionTracker owns the welcome flag and idle expiry per (contact, team).
// Every operation is best-effort against the store: a lookup failure never
// stops dispatch, it just degrades to "no record" (re-sending a welcome is
// preferable to silence).
type SessionTracker struct {
	store         SessionStore
	history       HistoryEvicter
	idleThreshold time.Duration
}

func NewSessionTracker(store SessionStore, history HistoryEvicter) *SessionTracker {
	return &SessionTracker{
		store:         store,
		history:       history,
		idleThreshold: DefaultIdleThreshold,
	}
}

// HasWelcomed reports whether the contact received the one-time welcome.
// Query failures read as false.
func (t *SessionTracker) HasWelcomed(ctx context.Context, contact string, teamID int64) bool {
	received, err := t.store.HasReceivedWelcome(ctx, contact, teamID)
	if err != nil {
		fmt.Printf("[session] welcome lookup for %s: %v\n", contact, err)
		return false
	}
	return received
}

// MarkWelcomed records welcome delivery; once set it stays set until expiry
func (t *SessionTracker) MarkWelcomed(ctx context.Context, contact string, teamID int64) {
	if err := t.store.MarkWelcomed(ctx, contact, teamID); err != nil {
		fmt.Printf("[session] mark welcomed for %s: %v\n", contact, err)
	}
}

// Touch refreshes the session's last-interaction timestamp
func (t *SessionTracker) Touch(ctx context.Context, contact string, teamID int64) {
	if err := t.store.Touch(ctx, contact, teamID); err != nil {
		fmt.Printf("[session] touch for %s: %v\n", contact, err)
	}
}

// ExpireIdle removes sessions idle past the threshold and evicts their
// conversation history. Runs inline on every inbound message; cost grows
// with the number of stale sessions.
func (t *SessionTracker) ExpireIdle(ctx context.Context, now time.Time) {
	contacts, err := t.store.DeleteExpired(ctx, now.Add(-t.idleThreshold))
	if err != nil {
		fmt.Printf("[session] expire idle sessions: %v\n", err)
		return
	}
	for _, contact := range contacts {
		t.history.Evict(contact)
	}
}
