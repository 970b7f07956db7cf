// internal/transport/transport.go
package transport

//go:generate mockgen -source=transport.go -destination=mocks/transport.go -package=mocks

import (
	"context"
	"errors"
)

// ErrClosed is returned once a transport has been closed.
var ErrClosed = errors.New("transport: closed")

// Transport is the duplex byte stream the poller talks to.
// Read returns whatever bytes are available next (possibly a fragment of a
// frame) and must return promptly once ctx is done.
// The poller never opens or closes the underlying port.
type Transport interface {
	Write(ctx context.Context, adu []byte) error
	Read(ctx context.Context) ([]byte, error)
}

// Flusher is implemented by transports that buffer input. The poller
// flushes before each request. Transports without it still get a quiet
// line: after a lost transaction the poller reads and discards input
// until nothing arrives for its quiet window.
type Flusher interface {
	Flush()
}
