package menu

import (
	"strings"
	"testing"

	"github.com/sentinel/antispam/internal/policy"
)

func flatten(s Screen) []string {
	var out []string
	for _, row := range s.Buttons {
		for _, b := range row {
			out = append(out, b.Label)
		}
	}
	return out
}

func hasLabel(s Screen, label string) bool {
	for _, l := range flatten(s) {
		if l == label {
			return true
		}
	}
	return false
}

func TestScopedScreen_CollapsedHidesSectionControls(t *testing.T) {
	doc := policy.DefaultDocument()
	s := ScopedScreen(policy.CategoryForwarding, 1, &doc)

	if hasLabel(s, "Off") || hasLabel(s, "Mute") {
		t.Error("collapsed screen exposes penalty controls")
	}
	if !strings.Contains(s.Text, "Forwards from channels") {
		t.Errorf("forwarding screen missing channel heading:\n%s", s.Text)
	}
}

func TestScopedScreen_ExpandedShowsSelectedSection(t *testing.T) {
	doc := policy.DefaultDocument()
	doc.Forwarding.Selected = policy.ScopeUsers
	doc.Forwarding.Expanded = true
	doc.Forwarding.Users.Penalty = policy.PenaltyMute
	doc.Forwarding.Users.MuteSecs = 1800

	s := ScopedScreen(policy.CategoryForwarding, 1, &doc)

	if !hasLabel(s, "> Users <") {
		t.Errorf("selected scope not marked: %v", flatten(s))
	}
	if !hasLabel(s, "Set mute duration") {
		t.Errorf("active mute penalty has no duration shortcut: %v", flatten(s))
	}
	if !strings.Contains(s.Text, "Mute 30 minutes") {
		t.Errorf("summary line missing duration:\n%s", s.Text)
	}
}

func TestTgLinksScreen_SwitchLabelsTrackState(t *testing.T) {
	doc := policy.DefaultDocument()
	doc.TgLinks.UsernameAntispam = false

	s := TgLinksScreen(1, &doc)
	if !hasLabel(s, "Username Antispam off") {
		t.Errorf("username switch label wrong: %v", flatten(s))
	}
	if !hasLabel(s, "Bots Antispam on") {
		t.Errorf("bot switch label wrong: %v", flatten(s))
	}
}

func TestDurationShortcut_OnlyForDurationPenalties(t *testing.T) {
	doc := policy.DefaultDocument()
	doc.TotalLinks.Penalty = policy.PenaltyKick

	s := TotalLinksScreen(1, &doc)
	for _, l := range flatten(s) {
		if strings.HasPrefix(l, "Set ") {
			t.Errorf("kick penalty grew a duration shortcut: %q", l)
		}
	}
}
