//go:build linux

package launch

import "syscall"

// Wait blocks for the child to exit and canonicalizes its status (§3):
// a non-negative exit code on normal exit, or -1 for signal/abnormal
// termination. Safe to call exactly once per Handle; the pump's reaper
// goroutine is the only caller in normal operation.
func (h *Handle) Wait() int {
	state, err := h.proc.Wait()
	h.Reaped = true

	if err != nil {
		// The child could not be waited on at all (already reaped by
		// someone else, or a genuine wait(2) failure) — canonicalize as
		// abnormal rather than propagate, since the wire protocol has no
		// room for a wait(2) errno.
		h.ExitStatus = -1
		return h.ExitStatus
	}

	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		h.ExitStatus = -1
		return h.ExitStatus
	}

	if ws.Exited() {
		h.ExitStatus = ws.ExitStatus()
	} else {
		h.ExitStatus = -1
	}
	return h.ExitStatus
}

// BlockingReap is the dispatcher's fallback (§4.5 step 13): reap the child
// if the pump returned without having done so. A no-op once Reaped is true.
func (h *Handle) BlockingReap() int {
	if h.Reaped {
		return h.ExitStatus
	}
	return h.Wait()
}

// Close releases the parent-side descriptors. Safe to call after the pump
// has finished with the handle.
func (h *Handle) Close() {
	if h.Stdout != nil {
		h.Stdout.Close()
	}
	if h.Stderr != nil {
		h.Stderr.Close()
	}
}
