// Package acl implements the "acl_permit(rule, user) -> bool" collaborator
// the dispatcher calls through, with the most common real remctl ACL
// scheme: file:<path>, a newline-separated list of principals.
//
// Permit takes only (rule, user) — there is no client address or hostname
// in the signature — so only a user-identity wildcard is supported. A
// host-based wildcard would need a wider predicate than this package
// implements.
package acl

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/duskcore/remctld/internal/ruleset"
)

// AnyUser is the wildcard principal recognized inside an ACL file.
const AnyUser = "ANYUSER"

// Evaluator is the exact predicate named in §6. The dispatcher (C5) depends
// only on this interface, never on a concrete backend.
type Evaluator interface {
	Permit(rule *ruleset.Rule, user string) bool
}

// FileEvaluator resolves a rule's ACL field as a file:<path> reference to a
// newline-separated principal list (ANYUSER wildcard, # comments). Files are
// loaded lazily and cached; call Reload to pick up edits.
type FileEvaluator struct {
	mu    sync.RWMutex
	cache map[string][]string // path -> principals
}

// NewFileEvaluator returns an evaluator with an empty cache.
func NewFileEvaluator() *FileEvaluator {
	return &FileEvaluator{cache: make(map[string][]string)}
}

// Permit implements Evaluator. A rule whose ACL does not use the file:
// scheme, or whose principal list cannot be loaded, denies by default —
// fail-closed is the only safe default for an access-control predicate.
func (e *FileEvaluator) Permit(rule *ruleset.Rule, user string) bool {
	if rule == nil {
		return false
	}
	path, ok := strings.CutPrefix(rule.ACL, "file:")
	if !ok {
		return false
	}

	principals, err := e.load(path)
	if err != nil {
		return false
	}

	for _, p := range principals {
		if p == AnyUser || p == user {
			return true
		}
	}
	return false
}

func (e *FileEvaluator) load(path string) ([]string, error) {
	e.mu.RLock()
	if principals, ok := e.cache[path]; ok {
		e.mu.RUnlock()
		return principals, nil
	}
	e.mu.RUnlock()

	principals, err := parseACLFile(path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[path] = principals
	e.mu.Unlock()
	return principals, nil
}

// Reload drops the cached principal list for path, forcing the next Permit
// check that touches it to re-read the file.
func (e *FileEvaluator) Reload(path string) {
	e.mu.Lock()
	delete(e.cache, path)
	e.mu.Unlock()
}

func parseACLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("acl: open %s: %w", path, err)
	}
	defer f.Close()

	var principals []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		principals = append(principals, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("acl: read %s: %w", path, err)
	}
	return principals, nil
}

// AllowAll is a trivial Evaluator used in tests — never use in a real
// deployment.
type AllowAll struct{}

func (AllowAll) Permit(*ruleset.Rule, string) bool { return true }
