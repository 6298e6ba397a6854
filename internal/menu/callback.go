// Package menu implements the policy configuration menu tree: pure screen
// descriptions (text plus button controls), the callback-data routing
// grammar baked into those buttons, and the controller that turns selection
// events and free-text messages into policy mutations and re-renders.
package menu

import (
	"fmt"
	"strconv"

	"github.com/sentinel/antispam/internal/policy"
)

// Callback-data grammar. Every button carries a colon-separated routing
// string; the group ID rides along so a single event stream can serve many
// groups. The grammar is append-only: gateways built against an older set of
// operations keep working.
//
//	menu:antispam:<gid>                         open the main screen
//	as:back:<gid>                               return to the main screen
//	as:noop:<gid>                               decorative, acknowledged only
//	as:<cat>:<gid>                              open a category screen
//	as:<cat>:pen:<gid>[:<scope>]:<penalty>      set penalty
//	as:<cat>:del:<gid>[:<scope>]                toggle deletion
//	as:tg:uname:<gid>                           toggle username antispam
//	as:tg:bots:<gid>                            toggle bot-link antispam
//	as:<cat>:sel:<gid>:<scope>                  select / collapse a scope
//	as:<cat>:dur:<gid>[:<scope>]:<kind>         open the duration prompt
//	as:<cat>:durset:<gid>[:<scope>]:<kind>:0    remove the duration
//	as:<cat>:durcancel:<gid>                    cancel the duration prompt
//	as:<cat>:ret:<gid>[:<scope>]                back from a confirmation
const (
	prefix     = "as"
	openPrefix = "menu:antispam"

	opBack      = "back"
	opNoop      = "noop"
	opPenalty   = "pen"
	opDelete    = "del"
	opUsername  = "uname"
	opBots      = "bots"
	opSelect    = "sel"
	opDuration  = "dur"
	opDurSet    = "durset"
	opDurCancel = "durcancel"
	opReturn    = "ret"
)

// categoryCodes maps the short routing code of each category to its policy
// identity. The codes are part of the button wire format.
var categoryCodes = map[string]policy.Category{
	"tg":    policy.CategoryTgLinks,
	"fwd":   policy.CategoryForwarding,
	"all":   policy.CategoryTotalLinks,
	"quote": policy.CategoryQuoteBlock,
}

// codeOf returns the routing code for a category.
func codeOf(cat policy.Category) string {
	switch cat {
	case policy.CategoryTgLinks:
		return "tg"
	case policy.CategoryForwarding:
		return "fwd"
	case policy.CategoryTotalLinks:
		return "all"
	case policy.CategoryQuoteBlock:
		return "quote"
	}
	return ""
}

func gid(groupID int64) string {
	return strconv.FormatInt(groupID, 10)
}

func openMainData(groupID int64) string {
	return fmt.Sprintf("%s:%s", openPrefix, gid(groupID))
}

func backData(groupID int64) string {
	return fmt.Sprintf("%s:%s:%s", prefix, opBack, gid(groupID))
}

func noopData(groupID int64) string {
	return fmt.Sprintf("%s:%s:%s", prefix, opNoop, gid(groupID))
}

func openData(cat policy.Category, groupID int64) string {
	return fmt.Sprintf("%s:%s:%s", prefix, codeOf(cat), gid(groupID))
}

func opData(cat policy.Category, op string, groupID int64, rest ...string) string {
	s := fmt.Sprintf("%s:%s:%s:%s", prefix, codeOf(cat), op, gid(groupID))
	for _, r := range rest {
		s += ":" + r
	}
	return s
}
