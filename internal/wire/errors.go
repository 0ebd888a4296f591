package wire

import "fmt"

var (
	errTruncatedHello   = fmt.Errorf("wire: truncated hello frame")
	errTruncatedRequest = fmt.Errorf("wire: truncated request frame")
)

func errUnexpectedFrame(tag byte) error {
	return fmt.Errorf("wire: unexpected frame tag 0x%02x", tag)
}
