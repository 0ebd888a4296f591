package reqvalidate

import (
	"bytes"
	"testing"
)

func chunks(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestValidateHeaderRejectsNulInCommandOrSubcommand(t *testing.T) {
	r := &Request{Chunks: chunks("te\x00st", "sub")}
	if err := r.ValidateHeader(); err != ErrNulByte {
		t.Fatalf("got %v, want ErrNulByte", err)
	}

	r = &Request{Chunks: chunks("test", "su\x00b")}
	if err := r.ValidateHeader(); err != ErrNulByte {
		t.Fatalf("got %v, want ErrNulByte", err)
	}

	r = &Request{Chunks: chunks("test", "sub")}
	if err := r.ValidateHeader(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateArgsAllowsNulOnlyInStdinChunk(t *testing.T) {
	req := &Request{Chunks: [][]byte{[]byte("test"), []byte("sub"), []byte("a\x00b"), []byte("plain")}}

	if err := req.ValidateArgs(2); err != nil {
		t.Fatalf("expected NUL to be allowed at designated stdin position 2, got %v", err)
	}
	if err := req.ValidateArgs(3); err != ErrNulByte {
		t.Fatalf("expected NUL rejection when position 2 is not the stdin arg, got %v", err)
	}
	if err := req.ValidateArgs(0); err != ErrNulByte {
		t.Fatalf("expected NUL rejection with stdin disabled, got %v", err)
	}
}

func TestResolveStdinArgIndexLastSentinel(t *testing.T) {
	req := &Request{Chunks: chunks("cmd", "a", "b", "c")} // 3 argument chunks
	if got := req.ResolveStdinArgIndex(-1); got != 3 {
		t.Fatalf("got %d, want 3 (last argument)", got)
	}
	if got := req.ResolveStdinArgIndex(2); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got := req.ResolveStdinArgIndex(5); got != 0 {
		t.Fatalf("out-of-range configured index should resolve to 0, got %d", got)
	}
	if got := req.ResolveStdinArgIndex(0); got != 0 {
		t.Fatalf("configured 0 must stay 0, got %d", got)
	}

	empty := &Request{Chunks: chunks("cmd")}
	if got := empty.ResolveStdinArgIndex(-1); got != 0 {
		t.Fatalf("last-argument sentinel with no arguments must resolve to 0, got %d", got)
	}
}

func TestBuildNormalArgvCapturesStdinAndKeepsEmptyArgs(t *testing.T) {
	req := &Request{Chunks: chunks("test", "closed", "", "payload")}
	res := BuildNormalArgv("/usr/local/bin/test-closed", req, 3)

	if !res.HasStdin || !bytes.Equal(res.StdinPayload, []byte("payload")) {
		t.Fatalf("expected stdin payload %q, got %q (has=%v)", "payload", res.StdinPayload, res.HasStdin)
	}
	want := []string{"test-closed", "closed", ""}
	if len(res.Argv) != len(want) {
		t.Fatalf("argv = %v, want %v", res.Argv, want)
	}
	for i := range want {
		if res.Argv[i] != want[i] {
			t.Fatalf("argv = %v, want %v", res.Argv, want)
		}
	}
}

func TestBuildHelpArgvShape(t *testing.T) {
	sub := "bar"
	argv := BuildHelpArgv("/usr/local/bin/foo", "help", &sub)
	want := []string{"foo", "help", "bar"}
	if len(argv) != len(want) || argv[0] != want[0] || argv[1] != want[1] || argv[2] != want[2] {
		t.Fatalf("argv = %v, want %v", argv, want)
	}

	argv = BuildHelpArgv("/usr/local/bin/foo", "help", nil)
	want = []string{"foo", "help"}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
}

func TestBuildSummaryArgv(t *testing.T) {
	argv := BuildSummaryArgv("/usr/local/bin/foo", "summary")
	want := []string{"foo", "summary"}
	if len(argv) != len(want) || argv[0] != want[0] || argv[1] != want[1] {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
}
