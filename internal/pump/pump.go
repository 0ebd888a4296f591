//go:build linux

// Package pump implements C4: the event-driven multiplexing of stdin,
// stdout, stderr and child reaping (§4.4).
//
// This renders a callback-based bufferevent loop over up to four readiness
// sources as one goroutine per source, coordinated over channels, rather
// than a hand-rolled readiness multiplexer. Because the parent-side
// descriptors are nonblocking sockets registered with the Go runtime's
// netpoller (see launch.sockFile), a goroutine's "blocking" Read/Write call
// already IS the readiness wait; no raw epoll/kqueue plumbing is needed.
package pump

import (
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/duskcore/remctld/internal/launch"
	"github.com/duskcore/remctld/internal/transport"
)

// Result is the outcome of pumping one child to completion.
type Result struct {
	// Status is the canonical exit status (§3, §6): non-negative exit
	// code, or -1 for signal/abnormal termination.
	Status int
	// Reaped is always true on return — Run never returns without having
	// waited on the child (testable property #2, §8).
	Reaped bool
	// Broken is true if an internal I/O error (§4.4.4, not EOF, not a
	// peer-reset) forced the loop to stop relaying output early. The
	// error frame has already been sent to the client when Broken is
	// true.
	Broken bool
}

type outputFrame struct {
	stream int
	data   []byte
}

// Run drives stdin/stdout/stderr/reap for one child until the process
// exits and all buffered output has been drained (§4.4.3), then emits the
// terminating frame(s) appropriate to client.Protocol() (§4.4.1/§4.4.2).
func Run(ctx context.Context, h *launch.Handle, stdinPayload []byte, client transport.Client, limits transport.Limits) Result {
	v1 := client.Protocol() == 1

	reapCh := make(chan int, 1)
	go reap(h, reapCh)

	if stdinPayload != nil {
		go writeStdin(h.Stdout, stdinPayload)
	}

	if v1 {
		return runV1(ctx, h, client, limits, reapCh)
	}
	return runV2(ctx, h, client, limits, reapCh)
}

func runV1(ctx context.Context, h *launch.Handle, client transport.Client, limits transport.Limits, reapCh <-chan int) Result {
	finalCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	go readV1(h.Stdout, limits.TokenMaxOutputV1, finalCh, errCh)

	var res Result
	var output []byte
	gotOutput, gotReap := false, false

	for !gotOutput || !gotReap {
		select {
		case output = <-finalCh:
			gotOutput = true
		case err := <-errCh:
			if !res.Broken {
				res.Broken = true
				reportInternal(ctx, client, err)
			}
			gotOutput = true // reader goroutine has exited either way
		case status := <-reapCh:
			res.Status = status
			res.Reaped = true
			gotReap = true
		}
	}

	if !res.Broken {
		_ = client.SendOutputV1(ctx, output, res.Status)
	}
	return res
}

func runV2(ctx context.Context, h *launch.Handle, client transport.Client, limits transport.Limits, reapCh <-chan int) Result {
	outCh := make(chan outputFrame, 4)
	errCh := make(chan error, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go readStream(h.Stdout, transport.StreamStdout, limits.TokenMaxOutput, outCh, errCh, &wg)
	if h.Stderr != nil {
		wg.Add(1)
		go readStream(h.Stderr, transport.StreamStderr, limits.TokenMaxOutput, outCh, errCh, &wg)
	}
	go func() {
		wg.Wait()
		close(outCh)
	}()

	var res Result
	streamsDone, reaped := false, false

	for !streamsDone || !reaped {
		select {
		case frame, ok := <-outCh:
			if !ok {
				streamsDone = true
				outCh = nil // disable this case permanently
				continue
			}
			if !res.Broken {
				if err := client.SendOutputV2(ctx, frame.stream, frame.data); err != nil {
					res.Broken = true
					reportInternal(ctx, client, err)
				}
			}
		case err := <-errCh:
			if !res.Broken {
				res.Broken = true
				reportInternal(ctx, client, err)
			}
		case status := <-reapCh:
			res.Status = status
			res.Reaped = true
			reaped = true
		}
	}

	if !res.Broken {
		_ = client.SendStatusV2(ctx, res.Status)
	}
	return res
}

func reportInternal(ctx context.Context, client transport.Client, err error) {
	_ = client.SendError(ctx, transport.Internal, "internal failure while relaying command output")
	_ = err // the caller's logger (dispatch) records err; pump itself never logs directly
}

// isPeerGone classifies the §4.4.4 "peer went away" case: connection reset
// or broken pipe. Those are handled silently — the endpoint is disabled,
// the loop is not broken.
func isPeerGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
