//go:build linux

package launch

import (
	"fmt"
	"os"
	"syscall"
)

// Launch creates the socket pair(s), forks, and execs req.Program as
// described in §4.3. On success it returns a Handle holding the parent-side
// descriptors and the live PID; the caller (the I/O pump, C4) owns the
// Handle from that point on.
//
// Socket-pair layout (§4.3, §3 invariant — merged for v1, separated for
// v2+):
//
//	always:        (P0, C0) for stdin+stdout
//	v2 and above:  (P1, C1) for stderr only
//
// Descriptor hygiene: req.StdinPayload == nil maps fd 0 to /dev/null
// instead of C0 (§4.3 step 2). The socket pairs and /dev/null are opened
// close-on-exec, and ProcAttr.Files names only fds 0, 1, 2, so the child
// keeps just those three of the engine's descriptors across execve. No
// explicit sweep of fds 3..15 is made: a descriptor opened elsewhere in the
// process without close-on-exec is still inherited.
func Launch(req *Request) (_ *Handle, err error) {
	if req.Program == "" {
		return nil, fmt.Errorf("launch: empty program path")
	}
	if len(req.Argv) == 0 {
		return nil, fmt.Errorf("launch: empty argv")
	}

	p0, c0, err := socketpair()
	if err != nil {
		return nil, fmt.Errorf("launch: stdio socketpair: %w", err)
	}
	defer func() {
		if err != nil {
			syscall.Close(p0)
			syscall.Close(c0)
		}
	}()

	var p1, c1 = -1, -1
	if !req.MergeStderr {
		p1, c1, err = socketpair()
		if err != nil {
			return nil, fmt.Errorf("launch: stderr socketpair: %w", err)
		}
		defer func() {
			if err != nil {
				syscall.Close(p1)
				syscall.Close(c1)
			}
		}()
	}

	var childStdin int
	if req.StdinPayload != nil {
		childStdin = c0
	} else {
		devnull, oerr := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
		if oerr != nil {
			// Tolerated per §4.3 step 2: worst case fd 0 stays closed and
			// the child observes immediate EOF on read.
			childStdin = -1
		} else {
			defer devnull.Close()
			childStdin = int(devnull.Fd())
		}
	}

	childStderr := c0
	if !req.MergeStderr {
		childStderr = c1
	}

	files := make([]uintptr, 3)
	if childStdin >= 0 {
		files[0] = uintptr(childStdin)
	} else {
		files[0] = invalidFd
	}
	files[1] = uintptr(c0)
	files[2] = uintptr(childStderr)

	attr := &syscall.ProcAttr{
		Env:   req.Env,
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid: true, // isolate into its own process group
		},
	}

	if req.RunAsUser != "" && req.UID > 0 {
		cred, cerr := credentialFor(req.RunAsUser, req.UID, req.GID)
		if cerr != nil {
			return nil, fmt.Errorf("launch: identity drop: %w", cerr)
		}
		attr.Sys.Credential = cred
	}

	// ForkExec performs the entire fork→configure-child→exec sequence
	// inside the runtime, outside of Go code running in the child. Any
	// failure in that sequence (dup2, setuid/setgid, chdir, execve itself)
	// is reported back here as an error and the (already-reaped) child
	// never ran user code. Such a failure is returned as an *ExecError; it
	// does not produce a Handle or a -1 exit status (the dispatcher reports
	// it to the client as an INTERNAL error).
	pid, ferr := syscall.ForkExec(req.Program, req.Argv, attr)

	// Parent no longer needs the child-side ends, launch succeeded or not.
	syscall.Close(c0)
	if !req.MergeStderr {
		syscall.Close(c1)
	}

	if ferr != nil {
		syscall.Close(p0)
		if !req.MergeStderr {
			syscall.Close(p1)
		}
		return nil, &ExecError{Err: ferr}
	}

	stdout, serr := newSockFile(p0, "remctld-child-stdout")
	if serr != nil {
		syscall.Close(p0)
		if !req.MergeStderr {
			syscall.Close(p1)
		}
		return nil, fmt.Errorf("launch: nonblocking stdout: %w", serr)
	}

	h := &Handle{PID: pid, Stdout: stdout}

	if !req.MergeStderr {
		stderr, serr := newSockFile(p1, "remctld-child-stderr")
		if serr != nil {
			stdout.Close()
			syscall.Close(p1)
			return nil, fmt.Errorf("launch: nonblocking stderr: %w", serr)
		}
		h.Stderr = stderr
	}

	proc, perr := os.FindProcess(pid)
	if perr != nil {
		// FindProcess never fails on Unix, but stay defensive.
		return nil, fmt.Errorf("launch: find process %d: %w", pid, perr)
	}
	h.proc = proc

	return h, nil
}

// invalidFd maps to an already-closed fd so the child inherits nothing on
// fd 0 when the /dev/null fallback itself could not be opened.
const invalidFd = ^uintptr(0)

// ExecError marks a failure of ForkExec itself (fork, child setup, or
// execve). Socketpair and nonblocking-setup failures are returned as plain
// wrapped errors, not as ExecError.
type ExecError struct{ Err error }

func (e *ExecError) Error() string { return "launch: " + e.Err.Error() }
func (e *ExecError) Unwrap() error { return e.Err }

func socketpair() (parent, child int, err error) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}
