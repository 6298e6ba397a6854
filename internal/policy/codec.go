package policy

import "encoding/json"

// This file is the forward-compatibility boundary for stored documents.
// Raw bytes loaded from the persister may be absent, truncated, missing
// fields added after they were written, or carry the legacy forwarding shape
// where each sender scope was a plain boolean. Decode always produces a fully
// shaped Document and never fails outward: anything unreadable falls back to
// the default value for exactly that field (or the whole document), because a
// corrupted configuration must never block moderation.
//
// Presence is detected with pointer fields and deferred json.RawMessage
// payloads rather than a lossy map merge, so a document missing a single
// nested field gets just that field backfilled with every sibling preserved.

type rawSection struct {
	Penalty          *string `json:"penalty"`
	Delete           *bool   `json:"delete"`
	UsernameAntispam *bool   `json:"username_antispam"`
	BotsAntispam     *bool   `json:"bots_antispam"`
	MuteSecs         *uint32 `json:"mute_secs"`
	WarnSecs         *uint32 `json:"warn_secs"`
	BanSecs          *uint32 `json:"ban_secs"`
}

type rawScoped struct {
	Selected *string         `json:"selected"`
	Expanded *bool           `json:"expanded"`
	Channels json.RawMessage `json:"channels"`
	Groups   json.RawMessage `json:"groups"`
	Users    json.RawMessage `json:"users"`
	Bots     json.RawMessage `json:"bots"`
}

type rawDocument struct {
	Enabled    *bool           `json:"enabled"`
	TgLinks    json.RawMessage `json:"tg_links"`
	Forwarding json.RawMessage `json:"forwarding"`
	TotalLinks json.RawMessage `json:"total_links"`
	QuoteBlock json.RawMessage `json:"quote_block"`
}

// Decode converts stored bytes into a fully shaped Document. The changed
// result reports whether any field was backfilled, migrated, or the document
// replaced wholesale, i.e. whether the caller should persist the result.
func Decode(data []byte) (Document, bool) {
	doc := DefaultDocument()

	if len(data) == 0 {
		return doc, true
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, true
	}

	changed := false
	if raw.Enabled != nil {
		doc.Enabled = *raw.Enabled
	} else {
		changed = true
	}

	changed = decodeSection(raw.TgLinks, &doc.TgLinks.Section, &doc.TgLinks) || changed
	changed = decodeSection(raw.TotalLinks, &doc.TotalLinks, nil) || changed
	changed = decodeScoped(raw.Forwarding, &doc.Forwarding) || changed
	changed = decodeScoped(raw.QuoteBlock, &doc.QuoteBlock) || changed

	return doc, changed
}

// Encode marshals a document for persistence.
func Encode(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// decodeSection overlays a stored section onto dst, which already holds the
// defaults. tg is non-nil only for the Telegram-links section, which carries
// the two extra trigger switches. Returns true when any field was missing or
// unreadable.
func decodeSection(data json.RawMessage, dst *Section, tg *TelegramLinks) bool {
	if len(data) == 0 {
		return true
	}
	var raw rawSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return true
	}

	changed := false
	changed = applySection(&raw, dst) || changed
	if tg != nil {
		if raw.UsernameAntispam != nil {
			tg.UsernameAntispam = *raw.UsernameAntispam
		} else {
			changed = true
		}
		if raw.BotsAntispam != nil {
			tg.BotsAntispam = *raw.BotsAntispam
		} else {
			changed = true
		}
	}
	return changed
}

// applySection copies the present fields of raw over dst and reports whether
// anything was missing. Unknown penalty strings are rejected here and the
// default kept, so an invalid value can never round-trip through the store.
func applySection(raw *rawSection, dst *Section) bool {
	changed := false
	if raw.Penalty != nil && Penalty(*raw.Penalty).Valid() {
		dst.Penalty = Penalty(*raw.Penalty)
	} else {
		changed = true
	}
	if raw.Delete != nil {
		dst.Delete = *raw.Delete
	} else {
		changed = true
	}
	if raw.MuteSecs != nil {
		dst.MuteSecs = *raw.MuteSecs
	} else {
		changed = true
	}
	if raw.WarnSecs != nil {
		dst.WarnSecs = *raw.WarnSecs
	} else {
		changed = true
	}
	if raw.BanSecs != nil {
		dst.BanSecs = *raw.BanSecs
	} else {
		changed = true
	}
	return changed
}

// decodeScoped overlays a stored scoped category onto dst. Each scope entry
// may be a modern section object or a legacy boolean; legacy booleans are
// rebuilt as full sections with the boolean mapped to the deletion flag.
func decodeScoped(data json.RawMessage, dst *ScopedCategory) bool {
	if len(data) == 0 {
		return true
	}
	var raw rawScoped
	if err := json.Unmarshal(data, &raw); err != nil {
		return true
	}

	changed := false
	if raw.Selected != nil && Scope(*raw.Selected).Valid() {
		dst.Selected = Scope(*raw.Selected)
	} else {
		changed = true
	}
	if raw.Expanded != nil {
		dst.Expanded = *raw.Expanded
	} else {
		changed = true
	}

	entries := []struct {
		data json.RawMessage
		sec  *Section
	}{
		{raw.Channels, &dst.Channels},
		{raw.Groups, &dst.Groups},
		{raw.Users, &dst.Users},
		{raw.Bots, &dst.Bots},
	}
	for _, e := range entries {
		changed = decodeScopeEntry(e.data, e.sec) || changed
	}
	return changed
}

// decodeScopeEntry handles one scope slot: absent -> defaults, legacy bool ->
// migrated section, object -> per-field overlay.
func decodeScopeEntry(data json.RawMessage, dst *Section) bool {
	if len(data) == 0 {
		return true
	}

	var legacy bool
	if err := json.Unmarshal(data, &legacy); err == nil {
		*dst = defaultSection(legacy)
		return true
	}

	var raw rawSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return true
	}
	return applySection(&raw, dst)
}
