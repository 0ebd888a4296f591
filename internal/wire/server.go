package wire

import (
	"context"
	"encoding/binary"
	"net"

	"go.uber.org/zap"

	"github.com/duskcore/remctld/internal/transport"
)

// Dispatcher is the subset of dispatch.Dispatcher the listener calls
// through, kept narrow so internal/wire never imports internal/dispatch
// directly (avoids an import cycle risk and keeps the demo transport a
// pure consumer of the §6 boundary).
type Dispatcher interface {
	Run(ctx context.Context, client transport.Client, chunks [][]byte)
}

// Listener accepts unauthenticated demo connections and dispatches one
// request per connection.
type Listener struct {
	ln  net.Listener
	d   Dispatcher
	log *zap.Logger
}

// Listen starts the demo transport on addr.
func Listen(addr string, d Dispatcher, log *zap.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, d: d, log: log.Named("wire")}, nil
}

// Serve accepts connections until the listener is closed.
func (l *Listener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}
		go l.handle(conn)
	}
}

func (l *Listener) Close() error {
	return l.ln.Close()
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()

	client, chunks, err := l.readHello(conn)
	if err != nil {
		l.log.Debug("hello failed", zap.Error(err), zap.String("remote", conn.RemoteAddr().String()))
		return
	}

	l.d.Run(context.Background(), client, chunks)
}

// readHello reads the one hello frame and one request frame this demo
// protocol expects per connection, then returns a Client bound to conn.
func (l *Listener) readHello(conn net.Conn) (*Client, [][]byte, error) {
	tag, payload, err := readFrame(conn)
	if err != nil {
		return nil, nil, err
	}
	if tag != frameHello {
		return nil, nil, errUnexpectedFrame(tag)
	}

	if len(payload) < 1 {
		return nil, nil, errTruncatedHello
	}
	proto := int(payload[0])
	rest := payload[1:]

	user, rest, err := takeString(rest)
	if err != nil {
		return nil, nil, err
	}
	hostname, _, err := takeString(rest)
	if err != nil {
		return nil, nil, err
	}

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	tag, payload, err = readFrame(conn)
	if err != nil {
		return nil, nil, err
	}
	if tag != frameRequest {
		return nil, nil, errUnexpectedFrame(tag)
	}
	chunks, err := decodeChunks(payload)
	if err != nil {
		return nil, nil, err
	}

	return &Client{
		conn:     conn,
		user:     user,
		ip:       host,
		hostname: hostname,
		protocol: proto,
	}, chunks, nil
}

func decodeChunks(payload []byte) ([][]byte, error) {
	if len(payload) < 4 {
		return nil, errTruncatedRequest
	}
	n := binary.BigEndian.Uint32(payload[:4])
	payload = payload[4:]

	chunks := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(payload) < 4 {
			return nil, errTruncatedRequest
		}
		l := binary.BigEndian.Uint32(payload[:4])
		payload = payload[4:]
		if uint32(len(payload)) < l {
			return nil, errTruncatedRequest
		}
		chunks = append(chunks, payload[:l])
		payload = payload[l:]
	}
	return chunks, nil
}
