// Package config parses the remctld rule table: one rule per logical
// line, in the style of the original remctl project's conf(5) grammar,
// simplified to a single ACL source per rule.
//
// Grammar per non-comment, non-blank line:
//
//	command subcommand program acl [run_as_user] [opt:NAME=VALUE ...]
//
// command/subcommand accept the ALL/EMPTY sentinels verbatim (§3, §4.1).
// Recognized opt: keys: stdin, summary, help, sensitive (comma-separated
// 1-based argument positions to mask before logging, §4.5 step 7).
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/duskcore/remctld/internal/ruleset"
)

// entry is the struct validated by go-playground/validator before its
// fields are copied into a ruleset.Rule.
type entry struct {
	Command    string `validate:"required"`
	Subcommand string `validate:"required"`
	Program    string `validate:"required,filepath"`
	ACL        string `validate:"required"`
	RunAsUser  string
}

var validate = validator.New()

// Load reads a rule-table file and returns a ruleset.Table preserving file
// order (first-match-wins, §4.1).
func Load(path string) (*ruleset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads rules from r. Exported separately from Load so tests and the
// demo transport can build a table from an in-memory string.
func Parse(r io.Reader) (*ruleset.Table, error) {
	var rules []*ruleset.Rule

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: scan: %w", err)
	}

	return ruleset.NewTable(rules), nil
}

func parseLine(line string) (*ruleset.Rule, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("expected at least 4 fields, got %d", len(fields))
	}

	e := entry{
		Command:    fields[0],
		Subcommand: fields[1],
		Program:    fields[2],
		ACL:        fields[3],
	}

	rest := fields[4:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "opt:") {
		e.RunAsUser = rest[0]
		rest = rest[1:]
	}

	if err := validate.Struct(e); err != nil {
		return nil, fmt.Errorf("invalid entry: %w", err)
	}

	rule := &ruleset.Rule{
		Command:    e.Command,
		Subcommand: e.Subcommand,
		Program:    e.Program,
		ACL:        e.ACL,
		RunAsUser:  e.RunAsUser,
	}

	if e.RunAsUser != "" {
		uid, gid, err := resolveIdentity(e.RunAsUser)
		if err != nil {
			return nil, fmt.Errorf("run_as_user %q: %w", e.RunAsUser, err)
		}
		rule.RunAsUID = uid
		rule.RunAsGID = gid
	}

	for _, opt := range rest {
		val, ok := strings.CutPrefix(opt, "opt:")
		if !ok {
			return nil, fmt.Errorf("unrecognized trailing field %q", opt)
		}
		if err := applyOption(rule, val); err != nil {
			return nil, err
		}
	}

	return rule, nil
}

// resolveIdentity looks up username's uid/gid at config-load time. This is
// the one place in the engine that resolves a run_as_user name to numeric
// ids; launch.credentialFor separately resolves supplementary groups at
// launch time since those can change without a config reload.
func resolveIdentity(username string) (uid, gid int, err error) {
	u, err := user.Lookup(username)
	if err != nil {
		return 0, 0, err
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric uid for %q: %w", username, err)
	}
	gid, err = strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric gid for %q: %w", username, err)
	}
	return uid, gid, nil
}

func applyOption(rule *ruleset.Rule, opt string) error {
	name, value, ok := strings.Cut(opt, "=")
	if !ok {
		return fmt.Errorf("malformed opt %q, expected name=value", opt)
	}

	switch name {
	case "stdin":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("opt:stdin=%s: %w", value, err)
		}
		rule.StdinArgIndex = n
	case "summary":
		rule.SummaryCommand = value
	case "help":
		rule.HelpCommand = value
	case "sensitive":
		rule.SensitiveArgs = make(map[int]bool)
		for _, tok := range strings.Split(value, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return fmt.Errorf("opt:sensitive=%s: %w", value, err)
			}
			rule.SensitiveArgs[n] = true
		}
	default:
		return fmt.Errorf("unrecognized option %q", name)
	}
	return nil
}
