// Package launch implements C3: child-process creation with socket-pair
// stdio, descriptor hygiene, environment, and identity transitions
// (§4.3).
package launch

import "os"

// Handle is the per-request process handle described in §3. It is created
// per request and discarded when the dispatcher returns.
type Handle struct {
	PID int

	// ExitStatus is canonical: non-negative exit code, or -1 for
	// signal/abnormal termination (§3, §6). A program that cannot be
	// executed never gets a Handle: Launch returns an *ExecError instead.
	ExitStatus int
	Reaped     bool

	// Stdout is the parent-side descriptor for the child's stdout. For
	// protocol v1 this is also the child's stderr (merged stream, §3).
	Stdout *sockFile
	// Stderr is non-nil only for protocol >= 2 (§3, §4.3).
	Stderr *sockFile

	proc *os.Process
}

// Request bundles what the launcher needs to start a child: argv, the
// environment it must receive, optional identity to drop to, an optional
// stdin payload, and whether stdout/stderr are merged (protocol v1) or
// separated (protocol >= 2).
type Request struct {
	// Program is the absolute executable path passed to execve. Argv[0] is
	// independently the basename the child sees as its own name (§4.2) —
	// the two are not the same string whenever Program is not already a
	// bare basename.
	Program string
	Argv    []string
	Env     []string

	RunAsUser string
	UID       int
	GID       int

	StdinPayload []byte // nil => no stdin payload for this child
	MergeStderr  bool   // true for protocol v1 (§3 invariant)
}
