// Package policy holds the per-group moderation policy document: the nested
// settings model, the defaults and legacy-shape migration that keep stored
// documents fully shaped, and a keyed store that serializes all reads and
// mutations per group.
package policy

// Penalty is the enforcement action configured for a category or scope.
type Penalty string

const (
	PenaltyOff  Penalty = "off"
	PenaltyWarn Penalty = "warn"
	PenaltyKick Penalty = "kick"
	PenaltyMute Penalty = "mute"
	PenaltyBan  Penalty = "ban"
)

// Valid reports whether p is one of the recognized penalty values.
func (p Penalty) Valid() bool {
	switch p {
	case PenaltyOff, PenaltyWarn, PenaltyKick, PenaltyMute, PenaltyBan:
		return true
	}
	return false
}

// Scope classifies the sender a scoped category applies to.
type Scope string

const (
	ScopeChannels Scope = "channels"
	ScopeGroups   Scope = "groups"
	ScopeUsers    Scope = "users"
	ScopeBots     Scope = "bots"
)

// Scopes lists every scope in menu display order.
var Scopes = []Scope{ScopeChannels, ScopeGroups, ScopeUsers, ScopeBots}

// Valid reports whether s is one of the four sender scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeChannels, ScopeGroups, ScopeUsers, ScopeBots:
		return true
	}
	return false
}

// DurationKind selects which of a section's duration fields is addressed.
// Only penalties that carry a duration have a kind; "kick" and "off" do not.
type DurationKind string

const (
	DurationMute DurationKind = "mute"
	DurationWarn DurationKind = "warn"
	DurationBan  DurationKind = "ban"
)

// Valid reports whether k is a duration-carrying penalty kind.
func (k DurationKind) Valid() bool {
	switch k {
	case DurationMute, DurationWarn, DurationBan:
		return true
	}
	return false
}

// Category identifies one of the four top-level moderation surfaces.
type Category string

const (
	CategoryTgLinks    Category = "tg_links"
	CategoryForwarding Category = "forwarding"
	CategoryTotalLinks Category = "total_links"
	CategoryQuoteBlock Category = "quote_block"
)

// Scoped reports whether the category carries independent per-sender-scope
// sub-policies (forwarding and quote block do; the two link blocks do not).
func (c Category) Scoped() bool {
	return c == CategoryForwarding || c == CategoryQuoteBlock
}

// defaultSecs is the duration every fresh section starts with (30 minutes).
const defaultSecs = 30 * 60

// Section is the penalty configuration of one flat category or one sender
// scope inside a scoped category. A duration of 0 means "no duration".
type Section struct {
	Penalty  Penalty `json:"penalty"`
	Delete   bool    `json:"delete"`
	MuteSecs uint32  `json:"mute_secs"`
	WarnSecs uint32  `json:"warn_secs"`
	BanSecs  uint32  `json:"ban_secs"`
}

// DurationSecs returns the seconds stored for the given kind.
func (s *Section) DurationSecs(kind DurationKind) uint32 {
	switch kind {
	case DurationMute:
		return s.MuteSecs
	case DurationWarn:
		return s.WarnSecs
	case DurationBan:
		return s.BanSecs
	}
	return 0
}

// SetDurationSecs stores seconds for the given kind. Unknown kinds are
// ignored; callers validate before mutating.
func (s *Section) SetDurationSecs(kind DurationKind, secs uint32) {
	switch kind {
	case DurationMute:
		s.MuteSecs = secs
	case DurationWarn:
		s.WarnSecs = secs
	case DurationBan:
		s.BanSecs = secs
	}
}

// TelegramLinks is the platform-internal link category. On top of the common
// section fields it carries the username and bot-link trigger switches.
type TelegramLinks struct {
	Section
	UsernameAntispam bool `json:"username_antispam"`
	BotsAntispam     bool `json:"bots_antispam"`
}

// ScopedCategory gives forwarding and quote block an independent Section per
// sender scope, plus the menu selection state (which scope's detail panel is
// shown, and whether it is open).
type ScopedCategory struct {
	Selected Scope   `json:"selected"`
	Expanded bool    `json:"expanded"`
	Channels Section `json:"channels"`
	Groups   Section `json:"groups"`
	Users    Section `json:"users"`
	Bots     Section `json:"bots"`
}

// SectionFor returns a pointer to the Section for the given scope, or nil for
// an unknown scope.
func (sc *ScopedCategory) SectionFor(scope Scope) *Section {
	switch scope {
	case ScopeChannels:
		return &sc.Channels
	case ScopeGroups:
		return &sc.Groups
	case ScopeUsers:
		return &sc.Users
	case ScopeBots:
		return &sc.Bots
	}
	return nil
}

// Document is the root policy record owned by one group. It contains no
// reference types, so plain assignment yields a fully independent copy.
type Document struct {
	Enabled    bool           `json:"enabled"`
	TgLinks    TelegramLinks  `json:"tg_links"`
	Forwarding ScopedCategory `json:"forwarding"`
	TotalLinks Section        `json:"total_links"`
	QuoteBlock ScopedCategory `json:"quote_block"`
}

// FlatSection returns the Section of a flat category, or nil if the category
// is scoped or unknown.
func (d *Document) FlatSection(cat Category) *Section {
	switch cat {
	case CategoryTgLinks:
		return &d.TgLinks.Section
	case CategoryTotalLinks:
		return &d.TotalLinks
	}
	return nil
}

// ScopedFor returns the ScopedCategory of a scoped category, or nil otherwise.
func (d *Document) ScopedFor(cat Category) *ScopedCategory {
	switch cat {
	case CategoryForwarding:
		return &d.Forwarding
	case CategoryQuoteBlock:
		return &d.QuoteBlock
	}
	return nil
}

// SectionAt resolves a (category, scope) pair to its Section. Flat categories
// ignore the scope; scoped categories require a valid one. Returns nil when
// the pair does not address a section.
func (d *Document) SectionAt(cat Category, scope Scope) *Section {
	if sec := d.FlatSection(cat); sec != nil {
		return sec
	}
	if sc := d.ScopedFor(cat); sc != nil {
		return sc.SectionFor(scope)
	}
	return nil
}

func defaultSection(del bool) Section {
	return Section{
		Penalty:  PenaltyOff,
		Delete:   del,
		MuteSecs: defaultSecs,
		WarnSecs: defaultSecs,
		BanSecs:  defaultSecs,
	}
}

func defaultScoped() ScopedCategory {
	return ScopedCategory{
		Selected: ScopeChannels,
		Expanded: false,
		Channels: defaultSection(false),
		Groups:   defaultSection(false),
		Users:    defaultSection(false),
		Bots:     defaultSection(false),
	}
}

// DefaultDocument returns a fresh, fully shaped policy document. Total links
// is the only category whose deletion flag starts enabled.
func DefaultDocument() Document {
	return Document{
		Enabled: true,
		TgLinks: TelegramLinks{
			Section:          defaultSection(false),
			UsernameAntispam: true,
			BotsAntispam:     true,
		},
		Forwarding: defaultScoped(),
		TotalLinks: defaultSection(true),
		QuoteBlock: defaultScoped(),
	}
}
