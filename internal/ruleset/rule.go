// Package ruleset holds the configured command→program bindings (C1, §3/§4.1).
package ruleset

// Sentinels for the command/subcommand match slots (§3, GLOSSARY).
const (
	All   = "ALL"
	Empty = "EMPTY"
)

// Rule is one configured command/subcommand binding. Immutable once built;
// the daemon loads its Table once at startup and never mutates it in place.
type Rule struct {
	Command    string // match key; literal token, All, or Empty
	Subcommand string // match key; literal token, All, or Empty

	Program string // absolute path of the executable
	ACL     string // opaque to the engine; passed to acl.Evaluator

	RunAsUser string
	RunAsUID  int
	RunAsGID  int

	// StdinArgIndex: 0 = no stdin-from-arg; N>0 = 1-based argument position;
	// -1 = "the last argument", resolved at request time (§4.2).
	StdinArgIndex int

	SummaryCommand string // subcommand to invoke for a one-line help summary
	HelpCommand    string // subcommand to invoke for `help <command>`

	// SensitiveArgs marks 1-based argument positions to mask before logging
	// (§4.5 step 7).
	SensitiveArgs map[int]bool
}

// HasIdentityDrop reports whether this rule requests a uid/gid transition
// (§4.3 step 7: applied together when RunAsUser is set and RunAsUID > 0).
func (r *Rule) HasIdentityDrop() bool {
	return r.RunAsUser != "" && r.RunAsUID > 0
}

// Table is an ordered, read-only rule set. First match wins (§4.1).
type Table struct {
	rules []*Rule
}

// NewTable builds a Table preserving the supplied order (config order is
// authoritative, §4.1).
func NewTable(rules []*Rule) *Table {
	out := make([]*Rule, len(rules))
	copy(out, rules)
	return &Table{rules: out}
}

// Rules returns the rules in configured order. Callers must not mutate the
// returned slice or its elements.
func (t *Table) Rules() []*Rule {
	return t.rules
}

// Len reports how many rules are configured.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
