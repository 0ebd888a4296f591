//go:build linux

package pump

import (
	"io"
	"sync"

	"github.com/duskcore/remctld/internal/launch"
)

// writeStdin drains the stdin payload into the child (§4.4 "Writable-on-P0")
// then shuts down the write half so the child observes EOF (§4.4). A
// peer-gone write error is treated identically to reaching EOF (§4.4.4):
// silently stop, no error is surfaced.
func writeStdin(w interface {
	Write([]byte) (int, error)
	ShutdownWrite() error
}, payload []byte) {
	for len(payload) > 0 {
		n, err := w.Write(payload)
		if n > 0 {
			payload = payload[n:]
		}
		if err != nil {
			return // peer gone or otherwise: nothing left to do with stdin
		}
	}
	_ = w.ShutdownWrite()
}

// readStream implements the v2 framing policy (§4.4.1): each readable event
// (each Read call that returns data) emits at most one frame, sized to the
// read high-water mark tokenMax.
func readStream(r interface{ Read([]byte) (int, error) }, stream, tokenMax int, outCh chan<- outputFrame, errCh chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, tokenMax)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			outCh <- outputFrame{stream: stream, data: chunk}
		}
		if err != nil {
			if err == io.EOF || isPeerGone(err) {
				return // §4.4.4: EOF disables reads here, doesn't break the loop
			}
			errCh <- err
			return
		}
	}
}

// readV1 implements the two-state v1 framing policy (§4.4.2): Accumulating
// until tokenMax bytes have been captured, then Discarding for the
// remainder of the child's output. The final buffer — whatever was
// captured, up to tokenMax — is delivered exactly once, at EOF.
func readV1(r interface{ Read([]byte) (int, error) }, tokenMax int, finalCh chan<- []byte, errCh chan<- error) {
	buf := make([]byte, 0, tokenMax)
	discarding := false
	scratch := make([]byte, 64*1024)

	for {
		n, err := r.Read(scratch)
		if n > 0 {
			if !discarding {
				room := tokenMax - len(buf)
				if room > 0 {
					take := n
					if take > room {
						take = room
					}
					buf = append(buf, scratch[:take]...)
				}
				if len(buf) >= tokenMax {
					discarding = true
				}
			}
		}
		if err != nil {
			if err == io.EOF || isPeerGone(err) {
				finalCh <- buf
				return
			}
			errCh <- err
			return
		}
	}
}

// reap waits for the child and canonicalizes its exit status (§3: "raw wait
// status is collapsed to exit code on normal exit, -1 otherwise").
func reap(h *launch.Handle, reapCh chan<- int) {
	status := h.Wait()
	reapCh <- status
}
