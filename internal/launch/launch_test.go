//go:build linux

package launch

import (
	"errors"
	"io"
	"testing"
)

func TestLaunchEcho(t *testing.T) {
	h, err := Launch(&Request{
		Program:     "/bin/echo",
		Argv:        []string{"echo", "hello"},
		MergeStderr: true,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Close()

	out, err := io.ReadAll(h.Stdout)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("stdout = %q, want %q", out, "hello\n")
	}

	status := h.Wait()
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

func TestLaunchSeparatedStderr(t *testing.T) {
	h, err := Launch(&Request{
		Program:     "/bin/sh",
		Argv:        []string{"sh", "-c", "echo out; echo err >&2"},
		MergeStderr: false,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Close()

	if h.Stderr == nil {
		t.Fatal("Stderr must be non-nil when MergeStderr is false")
	}

	out, _ := io.ReadAll(h.Stdout)
	errOut, _ := io.ReadAll(h.Stderr)

	if string(out) != "out\n" {
		t.Errorf("stdout = %q, want %q", out, "out\n")
	}
	if string(errOut) != "err\n" {
		t.Errorf("stderr = %q, want %q", errOut, "err\n")
	}

	if status := h.Wait(); status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

func TestLaunchStdinPassthrough(t *testing.T) {
	h, err := Launch(&Request{
		Program:      "/bin/cat",
		Argv:         []string{"cat"},
		MergeStderr:  true,
		StdinPayload: []byte("roundtrip"),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Close()

	go func() {
		h.Stdout.Write([]byte("roundtrip"))
		h.Stdout.ShutdownWrite()
	}()

	out, err := io.ReadAll(h.Stdout)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if string(out) != "roundtrip" {
		t.Errorf("stdout = %q, want %q", out, "roundtrip")
	}

	if status := h.Wait(); status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

func TestLaunchNonexistentProgram(t *testing.T) {
	_, err := Launch(&Request{
		Program: "/nonexistent/program",
		Argv:    []string{"program"},
	})
	if err == nil {
		t.Fatal("expected an error launching a nonexistent program")
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Errorf("err = %v (%T), want *ExecError", err, err)
	}
}

func TestLaunchNonzeroExit(t *testing.T) {
	h, err := Launch(&Request{
		Program:     "/bin/false",
		Argv:        []string{"false"},
		MergeStderr: true,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Close()

	io.ReadAll(h.Stdout)
	if status := h.Wait(); status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
}
