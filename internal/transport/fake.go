package transport

import (
	"context"
	"sync"
)

// Frame records one call the engine made against a FakeClient, in call
// order. Used by internal/dispatch tests to assert on the exact sequence
// of frames emitted for a request: exactly one final frame, and no output
// frame preceding the ACL check.
type Frame struct {
	Kind   string // "output_v2", "status_v2", "output_v1", "error"
	Stream int
	Data   []byte
	Status int
	Code   ErrorCode
	Msg    string
}

// FakeClient is an in-memory Client used by tests in place of a real
// transport. It never touches the network.
type FakeClient struct {
	UserName string
	IP       string
	Host     string
	Proto    int

	mu     sync.Mutex
	frames []Frame
}

var _ Client = (*FakeClient)(nil)

func (f *FakeClient) User() string      { return f.UserName }
func (f *FakeClient) IPAddress() string { return f.IP }
func (f *FakeClient) Hostname() string  { return f.Host }
func (f *FakeClient) Protocol() int     { return f.Proto }

func (f *FakeClient) SendOutputV2(ctx context.Context, stream int, data []byte) error {
	cp := append([]byte(nil), data...)
	f.record(Frame{Kind: "output_v2", Stream: stream, Data: cp})
	return nil
}

func (f *FakeClient) SendStatusV2(ctx context.Context, status int) error {
	f.record(Frame{Kind: "status_v2", Status: status})
	return nil
}

func (f *FakeClient) SendOutputV1(ctx context.Context, data []byte, status int) error {
	cp := append([]byte(nil), data...)
	f.record(Frame{Kind: "output_v1", Data: cp, Status: status})
	return nil
}

func (f *FakeClient) SendError(ctx context.Context, code ErrorCode, message string) error {
	f.record(Frame{Kind: "error", Code: code, Msg: message})
	return nil
}

func (f *FakeClient) record(fr Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
}

// Frames returns a snapshot of every frame sent so far, in order.
func (f *FakeClient) Frames() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}
