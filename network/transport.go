package network

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// TransportLayer is a non-blocking byte channel. Read and Write return
// immediately with however many bytes moved; zero means no progress, not
// error. A read against a peer-closed connection returns ErrPeerClosed.
type TransportLayer interface {
	// Read fills p with whatever bytes are available right now.
	Read(p []byte) (int, error)

	// Write sends as much of p as the connection will take right now.
	Write(p []byte) (int, error)

	// Close closes the underlying connection.
	Close() error
}

// NetTransport adapts a net.Conn to the non-blocking TransportLayer
// contract using immediate deadlines: an operation that would block
// reports zero progress instead.
type NetTransport struct {
	conn net.Conn
}

// NewNetTransport wraps conn. The conn may already be a *tls.Conn
// produced by a TLS engine; the adapter does not care.
func NewNetTransport(conn net.Conn) *NetTransport {
	return &NetTransport{conn: conn}
}

// WrapTLS returns a NetTransport over conn wrapped with the given
// per-connection TLS engine in client mode.
func WrapTLS(conn net.Conn, engine *tls.Config) *NetTransport {
	return &NetTransport{conn: tls.Client(conn, engine)}
}

func (t *NetTransport) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		// would block
		return n, nil
	case errors.Is(err, io.EOF):
		return n, ErrPeerClosed
	default:
		return n, err
	}
}

func (t *NetTransport) Write(p []byte) (int, error) {
	if err := t.conn.SetWriteDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := t.conn.Write(p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return n, nil
	case errors.Is(err, io.ErrClosedPipe), errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET):
		// a disconnect noticed on the write path is still a disconnect
		return n, ErrPeerClosed
	default:
		return n, err
	}
}

func (t *NetTransport) Close() error {
	return t.conn.Close()
}
