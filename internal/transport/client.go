// Package transport defines the boundary the engine consumes from the
// session/wire layer (§6). Transport and session setup themselves —
// GSS-API/Kerberos authentication, token framing — are out of scope (§1);
// this package only names the interface the engine (C4/C5) calls through.
package transport

import "context"

// Stream tags for MESSAGE_OUTPUT frames (§4.4.1).
const (
	StreamStdout = 1
	StreamStderr = 2
)

// ErrorCode enumerates the error frames the dispatcher can emit (§6, §7).
type ErrorCode int

const (
	BadCommand ErrorCode = iota + 1
	UnknownCommand
	Access
	TooManyArgs
	NoHelp
	Internal
)

func (c ErrorCode) String() string {
	switch c {
	case BadCommand:
		return "ERROR_BAD_COMMAND"
	case UnknownCommand:
		return "ERROR_UNKNOWN_COMMAND"
	case Access:
		return "ERROR_ACCESS"
	case TooManyArgs:
		return "ERROR_TOOMANY_ARGS"
	case NoHelp:
		return "ERROR_NO_HELP"
	case Internal:
		return "ERROR_INTERNAL"
	default:
		return "ERROR_UNKNOWN"
	}
}

// Client is the session-layer collaborator described in §6. One Client
// value serves exactly one in-flight request.
type Client interface {
	// User is the authenticated principal (GSS-API/Kerberos, out of scope).
	User() string
	// IPAddress is the peer's numeric address.
	IPAddress() string
	// Hostname is the peer's DNS name, or "" when unknown (§4.3 step 6).
	Hostname() string
	// Protocol is the negotiated wire version: 1, or >= 2 (§6).
	Protocol() int

	SendOutputV2(ctx context.Context, stream int, data []byte) error
	SendStatusV2(ctx context.Context, status int) error
	SendOutputV1(ctx context.Context, data []byte, status int) error
	SendError(ctx context.Context, code ErrorCode, message string) error
}

// Limits are the protocol-version-specific byte caps named in §4.4.1/§4.4.2
// ("fixed constants set by the transport"). Real values are agreed between
// client and server at session setup (out of scope here); these are the
// defaults a standalone engine instance falls back to.
type Limits struct {
	// TokenMaxOutput caps a single v2 MESSAGE_OUTPUT frame's payload.
	TokenMaxOutput int
	// TokenMaxOutputV1 caps the total bytes v1 ever delivers for one request.
	TokenMaxOutputV1 int
}

// DefaultLimits mirrors the historical remctl wire defaults: 1 MiB per v2
// frame / 1 MiB total for v1.
var DefaultLimits = Limits{
	TokenMaxOutput:   1 << 20,
	TokenMaxOutputV1: 1 << 20,
}
