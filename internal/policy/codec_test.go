package policy

import (
	"encoding/json"
	"testing"
)

func TestDecode_EmptyYieldsDefaults(t *testing.T) {
	doc, changed := Decode(nil)
	if !changed {
		t.Error("expected changed=true for empty input")
	}
	if doc != DefaultDocument() {
		t.Errorf("expected default document, got %+v", doc)
	}
}

func TestDecode_GarbageYieldsDefaults(t *testing.T) {
	doc, changed := Decode([]byte("{not json"))
	if !changed {
		t.Error("expected changed=true for unreadable input")
	}
	if doc != DefaultDocument() {
		t.Errorf("expected default document, got %+v", doc)
	}
}

func TestDecode_RoundTripIsStable(t *testing.T) {
	doc := DefaultDocument()
	doc.TgLinks.Penalty = PenaltyMute
	doc.TgLinks.MuteSecs = 7200
	doc.Forwarding.Users.Penalty = PenaltyBan
	doc.Forwarding.Selected = ScopeUsers
	doc.Forwarding.Expanded = true

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, changed := Decode(data)
	if changed {
		t.Error("expected changed=false for a freshly encoded document")
	}
	if got != doc {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

// A document missing a single nested field gets exactly that field
// backfilled; every sibling value survives.
func TestDecode_PartialSectionBackfill(t *testing.T) {
	stored := `{
		"enabled": false,
		"tg_links": {"penalty": "ban", "ban_secs": 120}
	}`

	doc, changed := Decode([]byte(stored))
	if !changed {
		t.Error("expected changed=true for a partial document")
	}
	if doc.Enabled {
		t.Error("stored enabled=false was not preserved")
	}
	if doc.TgLinks.Penalty != PenaltyBan {
		t.Errorf("penalty = %q, want %q", doc.TgLinks.Penalty, PenaltyBan)
	}
	if doc.TgLinks.BanSecs != 120 {
		t.Errorf("ban_secs = %d, want 120", doc.TgLinks.BanSecs)
	}
	// Missing siblings come back as defaults.
	if doc.TgLinks.MuteSecs != defaultSecs {
		t.Errorf("mute_secs = %d, want default %d", doc.TgLinks.MuteSecs, defaultSecs)
	}
	if !doc.TgLinks.UsernameAntispam || !doc.TgLinks.BotsAntispam {
		t.Error("tg link switches should default to enabled")
	}
	// Untouched categories are fully shaped defaults.
	if doc.TotalLinks != defaultSection(true) {
		t.Errorf("total_links = %+v, want defaults", doc.TotalLinks)
	}
	if doc.QuoteBlock != defaultScoped() {
		t.Errorf("quote_block = %+v, want defaults", doc.QuoteBlock)
	}
}

// A scope section missing exactly one field keeps every other field intact.
func TestDecode_SingleMissingFieldBackfill(t *testing.T) {
	stored := `{
		"enabled": true,
		"quote_block": {
			"selected": "users", "expanded": true,
			"users": {"penalty": "ban", "delete": true, "mute_secs": 111, "warn_secs": 222}
		}
	}`

	doc, changed := Decode([]byte(stored))
	if !changed {
		t.Error("expected changed=true when a field is backfilled")
	}
	sec := doc.QuoteBlock.Users
	if sec.Penalty != PenaltyBan || !sec.Delete || sec.MuteSecs != 111 || sec.WarnSecs != 222 {
		t.Errorf("stored sibling fields were not preserved: %+v", sec)
	}
	if sec.BanSecs != defaultSecs {
		t.Errorf("ban_secs = %d, want backfilled default %d", sec.BanSecs, defaultSecs)
	}
}

// Older documents stored each forwarding scope as a bare boolean. The
// boolean becomes the scope's deletion flag inside a fresh section.
func TestDecode_LegacyForwardingBooleans(t *testing.T) {
	stored := `{
		"enabled": true,
		"forwarding": {
			"selected": "groups",
			"expanded": true,
			"channels": true,
			"groups": false,
			"users": true,
			"bots": {"penalty": "kick", "delete": true,
			         "mute_secs": 60, "warn_secs": 60, "ban_secs": 60}
		}
	}`

	doc, changed := Decode([]byte(stored))
	if !changed {
		t.Error("expected changed=true for a legacy-shape document")
	}

	fw := doc.Forwarding
	if fw.Selected != ScopeGroups || !fw.Expanded {
		t.Errorf("selection state not preserved: %+v", fw)
	}
	want := defaultSection(true)
	if fw.Channels != want {
		t.Errorf("channels = %+v, want migrated %+v", fw.Channels, want)
	}
	if fw.Groups != defaultSection(false) {
		t.Errorf("groups = %+v, want migrated default", fw.Groups)
	}
	if fw.Users != want {
		t.Errorf("users = %+v, want migrated %+v", fw.Users, want)
	}
	// A scope already in the modern shape passes through untouched.
	if fw.Bots.Penalty != PenaltyKick || !fw.Bots.Delete || fw.Bots.MuteSecs != 60 {
		t.Errorf("bots section was not preserved: %+v", fw.Bots)
	}
}

// Unrecognized penalty strings never survive a decode; the default
// replaces them and the document is flagged for persistence.
func TestDecode_InvalidPenaltyRejected(t *testing.T) {
	stored := `{
		"enabled": true,
		"total_links": {"penalty": "obliterate", "delete": false,
		                "mute_secs": 90, "warn_secs": 90, "ban_secs": 90}
	}`

	doc, changed := Decode([]byte(stored))
	if !changed {
		t.Error("expected changed=true when a penalty is rejected")
	}
	if doc.TotalLinks.Penalty != PenaltyOff {
		t.Errorf("penalty = %q, want default %q", doc.TotalLinks.Penalty, PenaltyOff)
	}
	if doc.TotalLinks.MuteSecs != 90 {
		t.Errorf("valid sibling mute_secs = %d, want 90", doc.TotalLinks.MuteSecs)
	}
}

func TestDecode_InvalidSelectedScopeRejected(t *testing.T) {
	stored := `{"enabled": true, "quote_block": {"selected": "aliens", "expanded": false}}`

	doc, changed := Decode([]byte(stored))
	if !changed {
		t.Error("expected changed=true when selected scope is rejected")
	}
	if doc.QuoteBlock.Selected != ScopeChannels {
		t.Errorf("selected = %q, want default %q", doc.QuoteBlock.Selected, ScopeChannels)
	}
}

func TestEncode_ProducesAllFields(t *testing.T) {
	data, err := Encode(DefaultDocument())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("encoded document is not a JSON object: %v", err)
	}
	for _, key := range []string{"enabled", "tg_links", "forwarding", "total_links", "quote_block"} {
		if _, ok := m[key]; !ok {
			t.Errorf("encoded document missing %q", key)
		}
	}
}
