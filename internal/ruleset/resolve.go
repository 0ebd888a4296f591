package ruleset

// Token is a request's command or subcommand slot. Present distinguishes
// "absent" (no such chunk in the request) from an empty-string chunk,
// which is a normal token and never matches Empty (§4.1, E3 vs E4).
type Token struct {
	Value   string
	Present bool
}

func Present(v string) Token { return Token{Value: v, Present: true} }

var Absent = Token{}

// Resolve performs the linear first-match scan described in §4.1.
func (t *Table) Resolve(command, subcommand Token) *Rule {
	if t == nil {
		return nil
	}
	for _, r := range t.rules {
		if matches(r.Command, command) && matches(r.Subcommand, subcommand) {
			return r
		}
	}
	return nil
}

// matches implements the per-slot match function from §4.1:
//
//	cmd_ok = r.command == "ALL"
//	      or (c present and r.command == c)
//	      or (c absent  and r.command == "EMPTY")
func matches(ruleSlot string, tok Token) bool {
	if ruleSlot == All {
		return true
	}
	if tok.Present {
		return ruleSlot == tok.Value
	}
	return ruleSlot == Empty
}
