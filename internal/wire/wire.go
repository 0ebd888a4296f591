// Package wire implements a reference-only demo transport: GSS-API
// authentication and the real remctl token framing are out of scope here.
// This is a bare, unauthenticated, length-prefixed TCP framing that exists
// only to exercise the resolver/validator/launcher/pump/dispatcher chain
// end-to-end outside of unit tests. It is not, and does not attempt to be,
// the production remctl wire protocol.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame type tags, written as a single byte before each frame's payload.
const (
	frameHello      = 0x01 // client -> server, once per connection
	frameRequest    = 0x02 // client -> server, argv chunks
	frameOutputV2   = 0x10 // server -> client, {stream byte, data}
	frameStatusV2   = 0x11 // server -> client, {int32 status}
	frameOutputV1   = 0x12 // server -> client, {int32 status, data}
	frameError      = 0x13 // server -> client, {uint16 code, string message}
	maxFrameLen     = 64 << 20
)

var errFrameTooLarge = errors.New("wire: frame exceeds maximum length")

func writeFrame(w io.Writer, tag byte, payload []byte) error {
	if len(payload) > maxFrameLen {
		return errFrameTooLarge
	}
	hdr := make([]byte, 5)
	hdr[0] = tag
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) (tag byte, payload []byte, err error) {
	hdr := make([]byte, 5)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, err
	}
	tag = hdr[0]
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > maxFrameLen {
		return 0, nil, errFrameTooLarge
	}
	payload = make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return tag, payload, nil
}

func putString(buf []byte, s string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	buf = append(buf, n[:]...)
	return append(buf, s...)
}

func takeString(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, fmt.Errorf("wire: truncated string length")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return "", nil, fmt.Errorf("wire: truncated string body")
	}
	return string(buf[:n]), buf[n:], nil
}
