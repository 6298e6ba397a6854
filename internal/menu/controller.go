package menu

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sentinel/antispam/internal/audit"
	"github.com/sentinel/antispam/internal/duration"
	"github.com/sentinel/antispam/internal/metrics"
	"github.com/sentinel/antispam/internal/pending"
	"github.com/sentinel/antispam/internal/policy"
	"github.com/sentinel/antispam/internal/protocol"
)

// invalidDurationReply is the user-visible error for unparseable free text.
const invalidDurationReply = "Invalid duration. Example: 30 minutes / 2 hours"

// Renderer is the transport collaborator. RenderScreen is update-or-send and
// must treat "content identical to current" as success; DeleteMessage is
// best-effort and its failures are ignored by the controller.
type Renderer interface {
	RenderScreen(ctx context.Context, ref pending.ChatRef, s Screen) error
	SendMessage(ctx context.Context, chatID int64, s Screen, replyTo int64) error
	DeleteMessage(ctx context.Context, ref pending.ChatRef) error
	Ack(ctx context.Context, callbackID string, notice string) error
}

// AdminChecker answers whether a user may configure a group. Authorization
// itself lives outside this core.
type AdminChecker interface {
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
}

// Auditor records applied mutations. Recording is best-effort: an audit
// failure never blocks or rolls back the mutation it describes.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// ChangePublisher fans a freshly mutated document out to enforcement
// services.
type ChangePublisher interface {
	PolicyChanged(ctx context.Context, groupID int64, doc policy.Document) error
}

// Controller is the menu state machine. It is stateless between calls: menu
// position lives in the policy document's selected/expanded fields and in
// the pending-input registry, so any number of controller instances can
// serve the same event stream.
type Controller struct {
	Policies *policy.Store
	Pending  *pending.Registry
	Renderer Renderer
	Admins   AdminChecker
	Auditor  Auditor         // optional
	Changes  ChangePublisher // optional
}

// HandleCallback routes one button selection. Unknown or malformed routing
// data is acknowledged and otherwise ignored: selection events are
// client-supplied and a stale or spoofed button must never mutate anything
// or leak an error to the group.
func (c *Controller) HandleCallback(ctx context.Context, ev protocol.CallbackEvent) error {
	ref := pending.ChatRef{ChatID: ev.ChatID, MessageID: ev.MessageID}
	parts := strings.Split(ev.Data, ":")

	// menu:antispam:<gid> — entry point, admin-gated.
	if strings.HasPrefix(ev.Data, openPrefix+":") {
		groupID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return c.ack(ctx, ev.CallbackID, "")
		}
		ok, err := c.Admins.IsAdmin(ctx, groupID, ev.UserID)
		if err != nil {
			return fmt.Errorf("menu: admin check group %d user %d: %w", groupID, ev.UserID, err)
		}
		if !ok {
			return c.ack(ctx, ev.CallbackID, "Not admin.")
		}
		if _, err := c.Policies.EnsureDefaults(ctx, groupID); err != nil {
			return err
		}
		c.render(ctx, ref, MainScreen(groupID))
		return c.ack(ctx, ev.CallbackID, "")
	}

	if len(parts) < 3 || parts[0] != prefix {
		return c.ack(ctx, ev.CallbackID, "")
	}

	switch parts[1] {
	case opBack:
		if groupID, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			c.render(ctx, ref, MainScreen(groupID))
		}
		return c.ack(ctx, ev.CallbackID, "")
	case opNoop:
		return c.ack(ctx, ev.CallbackID, "")
	}

	cat, ok := categoryCodes[parts[1]]
	if !ok {
		return c.ack(ctx, ev.CallbackID, "")
	}

	// as:<cat>:<gid> — open the category screen.
	if len(parts) == 3 {
		groupID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return c.ack(ctx, ev.CallbackID, "")
		}
		doc, err := c.Policies.EnsureDefaults(ctx, groupID)
		if err != nil {
			return err
		}
		c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
		return c.ack(ctx, ev.CallbackID, "")
	}

	op := parts[2]
	groupID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return c.ack(ctx, ev.CallbackID, "")
	}
	args := parts[4:]

	switch op {
	case opPenalty:
		return c.handlePenalty(ctx, ev, ref, cat, groupID, args)
	case opDelete:
		return c.handleDeleteToggle(ctx, ev, ref, cat, groupID, args)
	case opUsername:
		return c.handleTgSwitch(ctx, ev, ref, cat, groupID, "username_antispam")
	case opBots:
		return c.handleTgSwitch(ctx, ev, ref, cat, groupID, "bots_antispam")
	case opSelect:
		return c.handleSelect(ctx, ev, ref, cat, groupID, args)
	case opDuration:
		return c.handleDurationPrompt(ctx, ev, ref, cat, groupID, args)
	case opDurSet:
		return c.handleDurationRemove(ctx, ev, ref, cat, groupID, args)
	case opDurCancel:
		return c.handleDurationCancel(ctx, ev, ref, cat, groupID)
	case opReturn:
		doc, err := c.Policies.EnsureDefaults(ctx, groupID)
		if err != nil {
			return err
		}
		c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
		return c.ack(ctx, ev.CallbackID, "")
	}
	return c.ack(ctx, ev.CallbackID, "")
}

// HandleText resolves a pending duration prompt with free-text input. The
// pending entry is consumed up front, before parsing: a failed parse does
// not restore it, the user must reopen the prompt to retry.
func (c *Controller) HandleText(ctx context.Context, ev protocol.TextEvent) error {
	req, ok := c.Pending.Take(ev.UserID)
	if !ok {
		return nil
	}

	secs, ok := duration.Parse(ev.Text)
	if !ok {
		metrics.DurationParseFailuresTotal.Inc()
		c.send(ctx, ev.ChatID, Screen{Text: invalidDurationReply}, ev.MessageID)
		return nil
	}

	doc, err := c.Policies.Mutate(ctx, req.GroupID, func(d *policy.Document) {
		sec := d.SectionAt(req.Category, req.Scope)
		if sec == nil {
			return
		}
		sec.SetDurationSecs(req.Kind, secs)
		if sc := d.ScopedFor(req.Category); sc != nil {
			sc.Selected = req.Scope
			sc.Expanded = true
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, req.GroupID, ev.UserID, req.Category, audit.Entry{
		Action: "duration",
		Scope:  string(req.Scope),
		Kind:   string(req.Kind),
		Detail: duration.Format(secs),
	}, doc)

	// The prompt message is stale now; losing it is cosmetic.
	if err := c.Renderer.DeleteMessage(ctx, req.Return); err != nil {
		log.Printf("[menu] delete prompt chat=%d msg=%d: %v", req.Return.ChatID, req.Return.MessageID, err)
	}

	c.send(ctx, req.Return.ChatID, ConfirmationScreen(req.Category, req.GroupID, req.Scope, req.Kind, secs), 0)
	return nil
}

// ---------------------------------------------------------------------------
// Callback operation handlers
// ---------------------------------------------------------------------------

// splitScoped pulls the leading scope argument for scoped categories.
// The second result is false when the argument shape or scope is invalid.
func splitScoped(cat policy.Category, args []string, want int) (policy.Scope, []string, bool) {
	if cat.Scoped() {
		if len(args) != want+1 {
			return "", nil, false
		}
		scope := policy.Scope(args[0])
		if !scope.Valid() {
			return "", nil, false
		}
		return scope, args[1:], true
	}
	if len(args) != want {
		return "", nil, false
	}
	return "", args, true
}

func (c *Controller) handlePenalty(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, args []string) error {
	scope, rest, ok := splitScoped(cat, args, 1)
	if !ok {
		return c.ack(ctx, ev.CallbackID, "")
	}
	val := policy.Penalty(rest[0])
	if !val.Valid() {
		return c.ack(ctx, ev.CallbackID, "")
	}

	doc, err := c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
		sec := d.SectionAt(cat, scope)
		if sec == nil {
			return
		}
		sec.Penalty = val
		if sc := d.ScopedFor(cat); sc != nil {
			sc.Selected = scope
			sc.Expanded = true
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, groupID, ev.UserID, cat, audit.Entry{
		Action: "penalty",
		Scope:  string(scope),
		Detail: string(val),
	}, doc)

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "Penalty set")
}

func (c *Controller) handleDeleteToggle(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, args []string) error {
	scope, _, ok := splitScoped(cat, args, 0)
	if !ok {
		return c.ack(ctx, ev.CallbackID, "")
	}

	var flipped bool
	doc, err := c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
		sec := d.SectionAt(cat, scope)
		if sec == nil {
			return
		}
		sec.Delete = !sec.Delete
		flipped = sec.Delete
		if sc := d.ScopedFor(cat); sc != nil {
			sc.Selected = scope
			sc.Expanded = true
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, groupID, ev.UserID, cat, audit.Entry{
		Action: "delete",
		Scope:  string(scope),
		Detail: onOff(flipped),
	}, doc)

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "Updated")
}

// handleTgSwitch flips the username or bot-link trigger switch. Both exist
// only on the Telegram-links category; the same operation arriving for any
// other category is a malformed event.
func (c *Controller) handleTgSwitch(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, action string) error {
	if cat != policy.CategoryTgLinks {
		return c.ack(ctx, ev.CallbackID, "")
	}

	var flipped bool
	doc, err := c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
		if action == "username_antispam" {
			d.TgLinks.UsernameAntispam = !d.TgLinks.UsernameAntispam
			flipped = d.TgLinks.UsernameAntispam
		} else {
			d.TgLinks.BotsAntispam = !d.TgLinks.BotsAntispam
			flipped = d.TgLinks.BotsAntispam
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, groupID, ev.UserID, cat, audit.Entry{
		Action: action,
		Detail: onOff(flipped),
	}, doc)

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "Updated")
}

// handleSelect implements the single-control scope picker: re-selecting the
// open scope collapses it, selecting another both switches and expands.
func (c *Controller) handleSelect(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, args []string) error {
	if !cat.Scoped() || len(args) != 1 {
		return c.ack(ctx, ev.CallbackID, "")
	}
	scope := policy.Scope(args[0])
	if !scope.Valid() {
		return c.ack(ctx, ev.CallbackID, "")
	}

	doc, err := c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
		sc := d.ScopedFor(cat)
		if sc.Selected == scope {
			sc.Expanded = !sc.Expanded
		} else {
			sc.Selected = scope
			sc.Expanded = true
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, groupID, ev.UserID, cat, audit.Entry{
		Action: "select",
		Scope:  string(scope),
	}, doc)

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "")
}

// handleDurationPrompt opens the duration-entry overlay and arms the
// pending-input slot. The prompt is only reachable when the requested kind
// matches the section's current penalty; anything else is a stale button.
func (c *Controller) handleDurationPrompt(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, args []string) error {
	scope, rest, ok := splitScoped(cat, args, 1)
	if !ok {
		return c.ack(ctx, ev.CallbackID, "")
	}
	kind := policy.DurationKind(rest[0])
	if !kind.Valid() {
		return c.ack(ctx, ev.CallbackID, "")
	}

	doc, err := c.Policies.EnsureDefaults(ctx, groupID)
	if err != nil {
		return err
	}
	sec := doc.SectionAt(cat, scope)
	if sec == nil || string(sec.Penalty) != string(kind) {
		return c.ack(ctx, ev.CallbackID, "")
	}

	c.Pending.Put(ev.UserID, pending.NewRequest(cat, scope, kind, groupID, ref))
	c.render(ctx, ref, DurationPromptScreen(cat, groupID, scope, kind, sec.DurationSecs(kind)))
	return c.ack(ctx, ev.CallbackID, "")
}

// handleDurationRemove zeroes a duration directly from the prompt's remove
// button; no free-text capture is involved.
func (c *Controller) handleDurationRemove(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64, args []string) error {
	scope, rest, ok := splitScoped(cat, args, 2)
	if !ok || rest[1] != "0" {
		return c.ack(ctx, ev.CallbackID, "")
	}
	kind := policy.DurationKind(rest[0])
	if !kind.Valid() {
		return c.ack(ctx, ev.CallbackID, "")
	}

	// The prompt this button lives on armed a pending slot; the remove path
	// resolves the prompt, so the slot is consumed too.
	c.Pending.Take(ev.UserID)

	doc, err := c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
		sec := d.SectionAt(cat, scope)
		if sec == nil {
			return
		}
		sec.SetDurationSecs(kind, 0)
		if sc := d.ScopedFor(cat); sc != nil {
			sc.Selected = scope
			sc.Expanded = true
		}
	})
	if err != nil {
		return err
	}

	c.recordMutation(ctx, groupID, ev.UserID, cat, audit.Entry{
		Action: "duration",
		Scope:  string(scope),
		Kind:   string(kind),
		Detail: "Off",
	}, doc)

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "Removed")
}

// handleDurationCancel discards the prompt without mutating the duration.
// Scoped categories restore the expanded panel so the user lands back where
// the prompt was opened from.
func (c *Controller) handleDurationCancel(ctx context.Context, ev protocol.CallbackEvent, ref pending.ChatRef, cat policy.Category, groupID int64) error {
	c.Pending.Take(ev.UserID)

	var doc policy.Document
	var err error
	if cat.Scoped() {
		doc, err = c.Policies.Mutate(ctx, groupID, func(d *policy.Document) {
			d.ScopedFor(cat).Expanded = true
		})
	} else {
		doc, err = c.Policies.EnsureDefaults(ctx, groupID)
	}
	if err != nil {
		return err
	}

	c.render(ctx, ref, CategoryScreen(cat, groupID, &doc))
	return c.ack(ctx, ev.CallbackID, "")
}

// ---------------------------------------------------------------------------
// Shared plumbing
// ---------------------------------------------------------------------------

// recordMutation handles the bookkeeping every applied mutation shares:
// the mutation counter, the best-effort audit record, and the policy-change
// fanout for enforcement services.
func (c *Controller) recordMutation(ctx context.Context, groupID, userID int64, cat policy.Category, e audit.Entry, doc policy.Document) {
	metrics.MutationsTotal.WithLabelValues(string(cat)).Inc()

	if c.Auditor != nil {
		e.GroupID = groupID
		e.UserID = userID
		e.Category = string(cat)
		if err := c.Auditor.Record(ctx, e); err != nil {
			log.Printf("[menu] audit record group=%d: %v", groupID, err)
		}
	}

	if c.Changes != nil {
		if err := c.Changes.PolicyChanged(ctx, groupID, doc); err != nil {
			log.Printf("[menu] policy change fanout group=%d: %v", groupID, err)
		}
	}
}

// render pushes a screen update. Render failures are cosmetic: the mutation
// that produced the screen is already durable, so errors are logged and
// swallowed.
func (c *Controller) render(ctx context.Context, ref pending.ChatRef, s Screen) {
	if err := c.Renderer.RenderScreen(ctx, ref, s); err != nil {
		log.Printf("[menu] render chat=%d msg=%d: %v", ref.ChatID, ref.MessageID, err)
	}
}

func (c *Controller) send(ctx context.Context, chatID int64, s Screen, replyTo int64) {
	if err := c.Renderer.SendMessage(ctx, chatID, s, replyTo); err != nil {
		log.Printf("[menu] send chat=%d: %v", chatID, err)
	}
}

func (c *Controller) ack(ctx context.Context, callbackID, notice string) error {
	if err := c.Renderer.Ack(ctx, callbackID, notice); err != nil {
		log.Printf("[menu] ack %s: %v", callbackID, err)
	}
	return nil
}
