package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"whatsflow/internal/entities"
)

// TenantResolver maps the fixed bot routing key to a team (0 = unconfigured)
type TenantResolver interface {
	ResolveTeamID(ctx context.Context, botKey string) (int64, error)
}

// FlowSource reads a team's keyword rules and welcome message
type FlowSource interface {
	GetFlowRules(ctx context.Context, teamID int64) ([]entities.FlowRule, error)
	GetWelcome(ctx context.Context, teamID int64) (entities.Welcome, error)
}

// ConversationStore holds per-contact history and the per-contact dispatch lock
type ConversationStore interface {
	Get(contact string) []entities.Turn
	Replace(contact string, turns []entities.Turn)
	LockContact(contact string) func()
}

// Responder is the AI fallback surface
type Responder interface {
	Enabled(ctx context.Context, teamID int64) bool
	Respond(ctx context.Context, teamID int64, history []entities.Turn, displayName string) (string, error)
}

// Throttle drops inbound floods before dispatch
type Throttle interface {
	Allow(contact string) bool
}

// Dispatcher decides, per inbound message, between one-time welcome,
// keyword-matched scripted reply, AI fallback, or silence.
type Dispatcher struct {
	botKey   string
	bots     TenantResolver
	flows    FlowSource
	tracker  *SessionTracker
	history  ConversationStore
	gateway  Responder
	relay    *Relay
	throttle Throttle // optional
}

func NewDispatcher(botKey string, bots TenantResolver, flows FlowSource, tracker *SessionTracker,
	history ConversationStore, gateway Responder, relay *Relay, throttle Throttle) *Dispatcher {
	return &Dispatcher{
		botKey:   botKey,
		bots:     bots,
		flows:    flows,
		tracker:  tracker,
		history:  history,
		gateway:  gateway,
		relay:    relay,
		throttle: throttle,
	}
}

// HandleMessage runs the dispatch procedure for one inbound message.
// Handling for a contact is serialized via the conversation store's
// per-contact lock, so rapid messages cannot interleave history updates.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg entities.Message) error {
	contact := msg.From

	if d.throttle != nil && !d.throttle.Allow(contact) {
		fmt.Printf("[dispatch] throttled %s\n", contact)
		return nil
	}

	unlock := d.history.LockContact(contact)
	defer unlock()

	teamID, err := d.bots.ResolveTeamID(ctx, d.botKey)
	if err != nil {
		return fmt.Errorf("resolve team for bot %s: %w", d.botKey, err)
	}
	if teamID == 0 {
		// Misconfigured routing key: no reply, no state mutation
		fmt.Printf("[dispatch] no team configured for bot key %s\n", d.botKey)
		return nil
	}

	d.tracker.ExpireIdle(ctx, time.Now())

	// Refresh last-interaction on every handled path, even when the AI
	// call errors or times out, so the session never looks welcomed-forever.
	defer d.tracker.Touch(ctx, contact, teamID)

	if !d.tracker.HasWelcomed(ctx, contact, teamID) {
		return d.welcome(ctx, contact, teamID)
	}
	return d.route(ctx, teamID, msg)
}

// welcome sends the team's one-time greeting. An empty configured text is a
// no-op (nothing to resend); the welcome flag is only set after a delivered
// send, so a failed send retries on the contact's next message.
func (d *Dispatcher) welcome(ctx context.Context, contact string, teamID int64) error {
	w, err := d.flows.GetWelcome(ctx, teamID)
	if err != nil {
		fmt.Printf("[dispatch] welcome lookup for team %d: %v\n", teamID, err)
		return nil
	}
	if w.Text == "" {
		return nil
	}

	if err := d.relay.SendWithMedia(contact, w.Text, w.MediaURL); err != nil {
		fmt.Printf("[dispatch] welcome send to %s failed: %v\n", contact, err)
		return nil
	}

	d.tracker.MarkWelcomed(ctx, contact, teamID)
	return nil
}

// route matches the message against the team's keyword rules. A matched rule
// with an active owning flow answers directly; an inactive owner or no match
// falls through to the AI path.
func (d *Dispatcher) route(ctx context.Context, teamID int64, msg entities.Message) error {
	rules, err := d.flows.GetFlowRules(ctx, teamID)
	if err != nil {
		fmt.Printf("[dispatch] flow rules for team %d: %v\n", teamID, err)
		rules = nil // degrade to AI fallthrough
	}

	if rule := MatchKeyword(rules, msg.Content); rule != nil {
		if rule.FlowActive {
			if err := d.relay.SendWithMedia(msg.From, rule.Reply, rule.MediaURL); err != nil {
				fmt.Printf("[dispatch] rule reply to %s failed: %v\n", msg.From, err)
			}
			return nil
		}
		fmt.Printf("[dispatch] flow %d inactive, deferring to AI\n", rule.ChatbotID)
	}

	return d.aiFallback(ctx, teamID, msg)
}

// aiFallback relays the AI completion in sentence chunks. Outbound sends
// happen before the history write, so a crash mid-send never records an
// assistant turn that was never delivered.
func (d *Dispatcher) aiFallback(ctx context.Context, teamID int64, msg entities.Message) error {
	if !d.gateway.Enabled(ctx, teamID) {
		fmt.Printf("[dispatch] AI inactive for team %d, staying silent\n", teamID)
		return nil
	}

	history := append(d.history.Get(msg.From), entities.Turn{
		Role:    entities.RoleUser,
		Content: msg.Content,
	})

	reply, err := d.gateway.Respond(ctx, teamID, history, msg.PushName)
	if err != nil {
		return fmt.Errorf("ai respond for %s: %w", msg.From, err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil // say nothing, record nothing
	}

	d.relay.SendChunks(msg.From, reply)

	history = append(history, entities.Turn{
		Role:    entities.RoleAssistant,
		Content: reply,
	})
	d.history.Replace(msg.From, history)
	return nil
}
