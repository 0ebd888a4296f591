package wire

import (
	"context"
	"encoding/binary"
	"net"
	"sync"

	"github.com/duskcore/remctld/internal/transport"
)

// Client implements transport.Client over one demo-transport connection.
// One Client serves exactly one request (§6), matching the "one connection,
// one request" shape of this reference transport.
type Client struct {
	conn     net.Conn
	user     string
	ip       string
	hostname string
	protocol int

	mu sync.Mutex
}

var _ transport.Client = (*Client)(nil)

func (c *Client) User() string      { return c.user }
func (c *Client) IPAddress() string { return c.ip }
func (c *Client) Hostname() string  { return c.hostname }
func (c *Client) Protocol() int     { return c.protocol }

func (c *Client) SendOutputV2(ctx context.Context, stream int, data []byte) error {
	payload := make([]byte, 1, 1+len(data))
	payload[0] = byte(stream)
	payload = append(payload, data...)

	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, frameOutputV2, payload)
}

func (c *Client) SendStatusV2(ctx context.Context, status int) error {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(int32(status)))

	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, frameStatusV2, payload)
}

func (c *Client) SendOutputV1(ctx context.Context, data []byte, status int) error {
	payload := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint32(payload, uint32(int32(status)))
	payload = append(payload, data...)

	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, frameOutputV1, payload)
}

func (c *Client) SendError(ctx context.Context, code transport.ErrorCode, message string) error {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, uint16(code))
	payload = putString(payload, message)

	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, frameError, payload)
}
