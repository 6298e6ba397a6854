package menu

import (
	"fmt"
	"strings"

	"github.com/sentinel/antispam/internal/duration"
	"github.com/sentinel/antispam/internal/policy"
	"github.com/sentinel/antispam/internal/protocol"
)

// Screen is the pure description of one menu state: the text to display and
// the controls available from it. Describing a screen never touches the
// store or the transport, which keeps re-rendering idempotent.
type Screen struct {
	Text    string
	Buttons [][]protocol.Button
}

func btn(label, data string) protocol.Button {
	return protocol.Button{Label: label, Data: data}
}

// onOff renders a boolean the way the menus label toggles.
func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// penaltyLabel is the display name of a penalty value.
func penaltyLabel(p policy.Penalty) string {
	if p == "" {
		return "Off"
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// penaltySummary renders a section's penalty with its duration, the way the
// scoped screens list each sender scope ("Mute 30 minutes", "Kick", "Off").
func penaltySummary(sec *policy.Section) string {
	switch sec.Penalty {
	case policy.PenaltyWarn:
		return "Warn " + duration.Format(sec.WarnSecs)
	case policy.PenaltyMute:
		return "Mute " + duration.Format(sec.MuteSecs)
	case policy.PenaltyBan:
		return "Ban " + duration.Format(sec.BanSecs)
	case policy.PenaltyKick:
		return "Kick"
	}
	return "Off"
}

// activeKind returns the duration kind matching the section's current
// penalty, if that penalty carries one.
func activeKind(sec *policy.Section) (policy.DurationKind, bool) {
	switch sec.Penalty {
	case policy.PenaltyMute:
		return policy.DurationMute, true
	case policy.PenaltyWarn:
		return policy.DurationWarn, true
	case policy.PenaltyBan:
		return policy.DurationBan, true
	}
	return "", false
}

// categoryTitle is the heading of each category screen.
func categoryTitle(cat policy.Category) string {
	switch cat {
	case policy.CategoryTgLinks:
		return "Telegram links"
	case policy.CategoryForwarding:
		return "Forwarding"
	case policy.CategoryTotalLinks:
		return "Total links block"
	case policy.CategoryQuoteBlock:
		return "Quote"
	}
	return string(cat)
}

// scopeLabel is the display name of a sender scope.
func scopeLabel(s policy.Scope) string {
	switch s {
	case policy.ScopeChannels:
		return "Channels"
	case policy.ScopeGroups:
		return "Groups"
	case policy.ScopeUsers:
		return "Users"
	case policy.ScopeBots:
		return "Bots"
	}
	return string(s)
}

// MainScreen is the category picker.
func MainScreen(groupID int64) Screen {
	return Screen{
		Text: "Anti-Spam\n\n" +
			"In this menu you can decide whether to protect your groups " +
			"from unnecessary links, forwards, and quotes.",
		Buttons: [][]protocol.Button{
			{btn("Telegram links", openData(policy.CategoryTgLinks, groupID))},
			{
				btn("Forwarding", openData(policy.CategoryForwarding, groupID)),
				btn("Quote", openData(policy.CategoryQuoteBlock, groupID)),
			},
			{btn("Total links block", openData(policy.CategoryTotalLinks, groupID))},
			{btn("Back", fmt.Sprintf("open:%d", groupID))},
		},
	}
}

// penaltyRows builds the two penalty picker rows shared by every section
// panel. rest carries the scope for scoped categories.
func penaltyRows(cat policy.Category, groupID int64, rest ...string) [][]protocol.Button {
	row := func(vals ...policy.Penalty) []protocol.Button {
		var out []protocol.Button
		for _, v := range vals {
			args := append(append([]string(nil), rest...), string(v))
			out = append(out, btn(penaltyLabel(v), opData(cat, opPenalty, groupID, args...)))
		}
		return out
	}
	return [][]protocol.Button{
		row(policy.PenaltyOff, policy.PenaltyWarn, policy.PenaltyKick),
		row(policy.PenaltyMute, policy.PenaltyBan),
	}
}

// durationShortcut returns the "Set <kind> duration" row when the section's
// current penalty carries a duration, nil otherwise.
func durationShortcut(cat policy.Category, groupID int64, sec *policy.Section, rest ...string) []protocol.Button {
	kind, ok := activeKind(sec)
	if !ok {
		return nil
	}
	args := append(append([]string(nil), rest...), string(kind))
	return []protocol.Button{
		btn(fmt.Sprintf("Set %s duration", kind), opData(cat, opDuration, groupID, args...)),
	}
}

func footerRow(groupID int64) []protocol.Button {
	return []protocol.Button{
		btn("Back", backData(groupID)),
		btn("Exceptions", noopData(groupID)),
	}
}

// TgLinksScreen describes the Telegram-links category panel.
func TgLinksScreen(groupID int64, doc *policy.Document) Screen {
	sec := &doc.TgLinks

	text := "Telegram links\n" +
		"From this menu you can set a punishment for users who send messages that contain Telegram links.\n\n" +
		"Username Antispam: this option triggers the antispam when a username considered spam is sent.\n" +
		"Bots Antispam: this option triggers the antispam when a Bot link is sent.\n\n" +
		"Penalty: " + penaltyLabel(sec.Penalty)
	if kind, ok := activeKind(&sec.Section); ok {
		text += " " + duration.Format(sec.DurationSecs(kind))
	}
	text += "\nDeletion: " + yesNo(sec.Delete)

	buttons := penaltyRows(policy.CategoryTgLinks, groupID)
	if row := durationShortcut(policy.CategoryTgLinks, groupID, &sec.Section); row != nil {
		buttons = append(buttons, row)
	}
	buttons = append(buttons,
		[]protocol.Button{btn("Delete Messages "+onOff(sec.Delete), opData(policy.CategoryTgLinks, opDelete, groupID))},
		[]protocol.Button{btn("Username Antispam "+onOff(sec.UsernameAntispam), opData(policy.CategoryTgLinks, opUsername, groupID))},
		[]protocol.Button{btn("Bots Antispam "+onOff(sec.BotsAntispam), opData(policy.CategoryTgLinks, opBots, groupID))},
		footerRow(groupID),
	)
	return Screen{Text: text, Buttons: buttons}
}

// TotalLinksScreen describes the total-links category panel.
func TotalLinksScreen(groupID int64, doc *policy.Document) Screen {
	sec := &doc.TotalLinks

	text := "TOTAL LINKS BLOCK\n" +
		"Choose the punishment for those who sends any kind of link.\n\n" +
		"Penalty: " + penaltyLabel(sec.Penalty)
	if kind, ok := activeKind(sec); ok {
		text += " " + duration.Format(sec.DurationSecs(kind))
	}
	text += "\nDeletion: " + yesNo(sec.Delete)

	buttons := penaltyRows(policy.CategoryTotalLinks, groupID)
	if row := durationShortcut(policy.CategoryTotalLinks, groupID, sec); row != nil {
		buttons = append(buttons, row)
	}
	buttons = append(buttons,
		[]protocol.Button{btn("Delete Messages "+onOff(sec.Delete), opData(policy.CategoryTotalLinks, opDelete, groupID))},
		footerRow(groupID),
	)
	return Screen{Text: text, Buttons: buttons}
}

// scopedIntro is the explanatory paragraph of each scoped category screen.
func scopedIntro(cat policy.Category) string {
	if cat == policy.CategoryForwarding {
		return "Forwarding\n" +
			"Select punishment for users who forward messages in the group.\n\n" +
			"Forward from groups option blocks messages written by an anonymous administrator " +
			"of another group and forwarded to this group.\n\n"
	}
	return "Quote\n" +
		"Select punishment for users who send messages containing quotes from external chats.\n\n"
}

// ScopedScreen describes a forwarding or quote-block panel: the per-scope
// summary lines, the scope picker, and, when the selected scope is expanded,
// its penalty and deletion controls.
func ScopedScreen(cat policy.Category, groupID int64, doc *policy.Document) Screen {
	sc := doc.ScopedFor(cat)

	var rows []string
	for _, scope := range policy.Scopes {
		sec := sc.SectionFor(scope)
		line := penaltySummary(sec)
		if sec.Delete {
			line += "  + Deletion"
		}
		title := scopeLabel(scope)
		if cat == policy.CategoryForwarding && scope == policy.ScopeChannels {
			title = "Forwards from channels"
		}
		rows = append(rows, fmt.Sprintf("%s\n- %s", title, line))
	}
	text := scopedIntro(cat) + strings.Join(rows, "\n")

	mark := func(label string, on bool) string {
		if on {
			return "> " + label + " <"
		}
		return label
	}
	scopeBtn := func(scope policy.Scope) protocol.Button {
		return btn(mark(scopeLabel(scope), sc.Selected == scope), opData(cat, opSelect, groupID, string(scope)))
	}

	buttons := [][]protocol.Button{
		{scopeBtn(policy.ScopeChannels), scopeBtn(policy.ScopeGroups)},
		{scopeBtn(policy.ScopeUsers), scopeBtn(policy.ScopeBots)},
	}

	if !sc.Expanded {
		buttons = append(buttons, footerRow(groupID))
		return Screen{Text: text, Buttons: buttons}
	}

	sel := string(sc.Selected)
	sec := sc.SectionFor(sc.Selected)

	buttons = append(buttons, []protocol.Button{btn(strings.Repeat("-", 12), noopData(groupID))})
	buttons = append(buttons, penaltyRows(cat, groupID, sel)...)
	if row := durationShortcut(cat, groupID, sec, sel); row != nil {
		buttons = append(buttons, row)
	}
	buttons = append(buttons,
		[]protocol.Button{btn("Delete Messages "+onOff(sec.Delete), opData(cat, opDelete, groupID, sel))},
		footerRow(groupID),
	)
	return Screen{Text: text, Buttons: buttons}
}

// CategoryScreen dispatches to the describe function for the given category.
func CategoryScreen(cat policy.Category, groupID int64, doc *policy.Document) Screen {
	switch cat {
	case policy.CategoryTgLinks:
		return TgLinksScreen(groupID, doc)
	case policy.CategoryTotalLinks:
		return TotalLinksScreen(groupID, doc)
	default:
		return ScopedScreen(cat, groupID, doc)
	}
}

// DurationPromptScreen describes the transient duration-entry overlay. The
// remove button zeroes the duration without free-text capture; anything else
// is resolved by the pending-input flow.
func DurationPromptScreen(cat policy.Category, groupID int64, scope policy.Scope, kind policy.DurationKind, current uint32) Screen {
	text := fmt.Sprintf("Set %s duration\n\n", kind) +
		"Minimum: 30 seconds\n" +
		"Maximum: 365 days\n\n" +
		"Example of format: 3 months 2 days 12 hours 4 minutes 34 seconds\n\n" +
		"Current duration: " + duration.Format(current)

	var setArgs []string
	if cat.Scoped() {
		setArgs = []string{string(scope), string(kind), "0"}
	} else {
		setArgs = []string{string(kind), "0"}
	}

	return Screen{
		Text: text,
		Buttons: [][]protocol.Button{
			{btn("Remove duration", opData(cat, opDurSet, groupID, setArgs...))},
			{btn("Cancel", opData(cat, opDurCancel, groupID))},
		},
	}
}

// ConfirmationScreen describes the message sent after a successful free-text
// capture, with a back control returning to the affected screen.
func ConfirmationScreen(cat policy.Category, groupID int64, scope policy.Scope, kind policy.DurationKind, secs uint32) Screen {
	label := strings.ToUpper(string(kind[:1])) + string(kind[1:])
	var back string
	if cat.Scoped() {
		back = opData(cat, opSelect, groupID, string(scope))
	} else {
		back = opData(cat, opReturn, groupID)
	}
	return Screen{
		Text: fmt.Sprintf("%s duration set to: %s", label, duration.Format(secs)),
		Buttons: [][]protocol.Button{
			{btn("Back", back)},
		},
	}
}
