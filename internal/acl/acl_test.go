package acl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duskcore/remctld/internal/ruleset"
)

func writeACL(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write acl file: %v", err)
	}
	return path
}

func TestFileEvaluatorPermit(t *testing.T) {
	dir := t.TempDir()
	path := writeACL(t, dir, "ops.acl", "# ops team\nalice\nbob\n")

	e := NewFileEvaluator()
	rule := &ruleset.Rule{ACL: "file:" + path}

	cases := []struct {
		user string
		want bool
	}{
		{"alice", true},
		{"bob", true},
		{"carol", false},
	}
	for _, tc := range cases {
		if got := e.Permit(rule, tc.user); got != tc.want {
			t.Errorf("Permit(%q) = %v, want %v", tc.user, got, tc.want)
		}
	}
}

func TestFileEvaluatorAnyUser(t *testing.T) {
	dir := t.TempDir()
	path := writeACL(t, dir, "anyone.acl", "ANYUSER\n")

	e := NewFileEvaluator()
	rule := &ruleset.Rule{ACL: "file:" + path}

	if !e.Permit(rule, "whoever") {
		t.Error("ANYUSER should permit any principal")
	}
}

func TestFileEvaluatorNonFileScheme(t *testing.T) {
	e := NewFileEvaluator()
	rule := &ruleset.Rule{ACL: "princ:alice@REALM"}
	if e.Permit(rule, "alice") {
		t.Error("unsupported ACL scheme must fail closed")
	}
}

func TestFileEvaluatorMissingFile(t *testing.T) {
	e := NewFileEvaluator()
	rule := &ruleset.Rule{ACL: "file:/nonexistent/path.acl"}
	if e.Permit(rule, "alice") {
		t.Error("missing ACL file must fail closed")
	}
}

func TestFileEvaluatorCacheReload(t *testing.T) {
	dir := t.TempDir()
	path := writeACL(t, dir, "team.acl", "alice\n")

	e := NewFileEvaluator()
	rule := &ruleset.Rule{ACL: "file:" + path}

	if e.Permit(rule, "bob") {
		t.Fatal("bob should not be permitted yet")
	}

	writeACL(t, dir, "team.acl", "alice\nbob\n")
	if e.Permit(rule, "bob") {
		t.Error("cache should still be stale before Reload")
	}

	e.Reload(path)
	if !e.Permit(rule, "bob") {
		t.Error("bob should be permitted after Reload")
	}
}

func TestAllowAll(t *testing.T) {
	var e AllowAll
	if !e.Permit(&ruleset.Rule{}, "anyone") {
		t.Error("AllowAll must always permit")
	}
}
