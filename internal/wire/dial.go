package wire

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Response is one frame read back from the demo server, decoded into its
// logical shape for cmd/remctl-client to render.
type Response struct {
	Kind      string // "output", "status", "output_v1", "error"
	Stream    int
	Data      []byte
	Status    int
	ErrorCode int
	Message   string
}

// Dial opens a demo-transport connection, sends the hello and request
// frames, and returns the connection; ReadResponse decodes the frames that
// follow until the connection closes. This is the client side of the reference protocol
// (internal/wire/server.go is the server side); neither implements the
// production remctl wire protocol (§1 excludes it).
func Dial(addr, user string, protocol int, argvChunks [][]byte) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	hello := []byte{byte(protocol)}
	hello = putString(hello, user)
	hello = putString(hello, "")
	if err := writeFrame(conn, frameHello, hello); err != nil {
		conn.Close()
		return nil, err
	}

	req := make([]byte, 4)
	binary.BigEndian.PutUint32(req, uint32(len(argvChunks)))
	for _, c := range argvChunks {
		l := make([]byte, 4)
		binary.BigEndian.PutUint32(l, uint32(len(c)))
		req = append(req, l...)
		req = append(req, c...)
	}
	if err := writeFrame(conn, frameRequest, req); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// ReadResponse reads and decodes one frame from a Dial'd connection.
func ReadResponse(conn net.Conn) (Response, error) {
	tag, payload, err := readFrame(conn)
	if err != nil {
		return Response{}, err
	}

	switch tag {
	case frameOutputV2:
		if len(payload) < 1 {
			return Response{}, fmt.Errorf("wire: truncated output_v2 frame")
		}
		return Response{Kind: "output", Stream: int(payload[0]), Data: payload[1:]}, nil
	case frameStatusV2:
		if len(payload) < 4 {
			return Response{}, fmt.Errorf("wire: truncated status_v2 frame")
		}
		return Response{Kind: "status", Status: int(int32(binary.BigEndian.Uint32(payload)))}, nil
	case frameOutputV1:
		if len(payload) < 4 {
			return Response{}, fmt.Errorf("wire: truncated output_v1 frame")
		}
		return Response{Kind: "output_v1", Status: int(int32(binary.BigEndian.Uint32(payload))), Data: payload[4:]}, nil
	case frameError:
		if len(payload) < 2 {
			return Response{}, fmt.Errorf("wire: truncated error frame")
		}
		code := binary.BigEndian.Uint16(payload)
		msg, _, err := takeString(payload[2:])
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: "error", ErrorCode: int(code), Message: msg}, nil
	default:
		return Response{}, errUnexpectedFrame(tag)
	}
}
