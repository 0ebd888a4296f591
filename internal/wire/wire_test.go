package wire

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/duskcore/remctld/internal/transport"
)

// recordingDispatcher captures the chunks and client it was called with and
// drives a scripted reply over client, standing in for dispatch.Dispatcher
// in these transport-only round-trip tests.
type recordingDispatcher struct {
	gotChunks [][]byte
	gotUser   string
	reply     func(transport.Client)
}

func (r *recordingDispatcher) Run(ctx context.Context, client transport.Client, chunks [][]byte) {
	r.gotChunks = chunks
	r.gotUser = client.User()
	if r.reply != nil {
		r.reply(client)
	}
}

func startTestListener(t *testing.T, d Dispatcher) (addr string, closeFn func()) {
	t.Helper()
	ln, err := Listen("127.0.0.1:0", d, zap.NewNop())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go ln.Serve()
	return ln.ln.Addr().String(), func() { ln.Close() }
}

func TestDialRunsDispatcherWithDecodedChunks(t *testing.T) {
	d := &recordingDispatcher{
		reply: func(c transport.Client) {
			c.SendStatusV2(context.Background(), 0)
		},
	}
	addr, closeFn := startTestListener(t, d)
	defer closeFn()

	conn, err := Dial(addr, "alice", 2, [][]byte{[]byte("cmd"), []byte("sub"), []byte("arg1")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Kind != "status" || resp.Status != 0 {
		t.Errorf("resp = %+v, want status 0", resp)
	}

	if d.gotUser != "alice" {
		t.Errorf("gotUser = %q, want %q", d.gotUser, "alice")
	}
	want := [][]byte{[]byte("cmd"), []byte("sub"), []byte("arg1")}
	if len(d.gotChunks) != len(want) {
		t.Fatalf("gotChunks = %v, want %v", d.gotChunks, want)
	}
	for i := range want {
		if string(d.gotChunks[i]) != string(want[i]) {
			t.Errorf("chunk %d = %q, want %q", i, d.gotChunks[i], want[i])
		}
	}
}

func TestOutputV2RoundTrip(t *testing.T) {
	d := &recordingDispatcher{
		reply: func(c transport.Client) {
			ctx := context.Background()
			c.SendOutputV2(ctx, transport.StreamStdout, []byte("hello"))
			c.SendOutputV2(ctx, transport.StreamStderr, []byte("oops"))
			c.SendStatusV2(ctx, 7)
		},
	}
	addr, closeFn := startTestListener(t, d)
	defer closeFn()

	conn, err := Dial(addr, "bob", 2, [][]byte{[]byte("cmd")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	first, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse 1: %v", err)
	}
	if first.Kind != "output" || first.Stream != transport.StreamStdout || string(first.Data) != "hello" {
		t.Errorf("first = %+v", first)
	}

	second, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse 2: %v", err)
	}
	if second.Kind != "output" || second.Stream != transport.StreamStderr || string(second.Data) != "oops" {
		t.Errorf("second = %+v", second)
	}

	third, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse 3: %v", err)
	}
	if third.Kind != "status" || third.Status != 7 {
		t.Errorf("third = %+v, want status 7", third)
	}
}

func TestOutputV1RoundTrip(t *testing.T) {
	d := &recordingDispatcher{
		reply: func(c transport.Client) {
			c.SendOutputV1(context.Background(), []byte("combined output"), 3)
		},
	}
	addr, closeFn := startTestListener(t, d)
	defer closeFn()

	conn, err := Dial(addr, "carol", 1, [][]byte{[]byte("cmd")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Kind != "output_v1" || resp.Status != 3 || string(resp.Data) != "combined output" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestErrorFrameRoundTrip(t *testing.T) {
	d := &recordingDispatcher{
		reply: func(c transport.Client) {
			c.SendError(context.Background(), transport.Access, "access denied")
		},
	}
	addr, closeFn := startTestListener(t, d)
	defer closeFn()

	conn, err := Dial(addr, "dave", 2, [][]byte{[]byte("cmd")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Kind != "error" || resp.ErrorCode != int(transport.Access) || resp.Message != "access denied" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDecodeChunksTruncated(t *testing.T) {
	if _, err := decodeChunks([]byte{0, 0, 0, 1}); err == nil {
		t.Error("expected error decoding a chunk count with no chunk data")
	}
	if _, err := decodeChunks(nil); err == nil {
		t.Error("expected error decoding an empty payload")
	}
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	buf := &loopbackBuffer{}
	if err := writeFrame(buf, frameHello, []byte("payload")); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	tag, payload, err := readFrame(buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if tag != frameHello || string(payload) != "payload" {
		t.Errorf("tag=%x payload=%q", tag, payload)
	}
}

// loopbackBuffer is a minimal io.ReadWriter backed by a growing byte slice,
// enough for writeFrame/readFrame's sequential access pattern.
type loopbackBuffer struct {
	data []byte
}

func (b *loopbackBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *loopbackBuffer) Read(p []byte) (int, error) {
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}
