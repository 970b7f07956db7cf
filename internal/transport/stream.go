// internal/transport/stream.go
package transport

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/goburrow/serial"
)

const (
	pumpBufferSize = 256
	pumpQueueDepth = 64
)

type chunk struct {
	data []byte
	err  error
}

// Stream adapts an io.ReadWriter to Transport.
// A single pump goroutine owns the reader; Read only consumes what it queued.
type Stream struct {
	rw io.ReadWriter

	wmu    sync.Mutex
	chunks chan chunk
	done   chan struct{}
	once   sync.Once
}

// NewStream starts the reader pump on rw.
func NewStream(rw io.ReadWriter) *Stream {
	s := &Stream{
		rw:     rw,
		chunks: make(chan chunk, pumpQueueDepth),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Stream) pump() {
	buf := make([]byte, pumpBufferSize)
	for {
		n, err := s.rw.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.deliver(chunk{data: data}) {
				return
			}
		}
		if err != nil {
			if isReadTimeout(err) {
				continue
			}
			s.deliver(chunk{err: err})
			return
		}
	}
}

func (s *Stream) deliver(c chunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.done:
		return false
	}
}

// isReadTimeout reports idle-line timeouts, which are not failures.
func isReadTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Write sends adu in full.
func (s *Stream) Write(ctx context.Context, adu []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	_, err := s.rw.Write(adu)
	return err
}

// Read returns the next chunk received from the line.
func (s *Stream) Read(ctx context.Context) ([]byte, error) {
	select {
	case c := <-s.chunks:
		return c.data, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
}

// Flush discards everything received but not yet read.
func (s *Stream) Flush() {
	for {
		select {
		case c := <-s.chunks:
			if c.err != nil {
				// keep the terminal error visible to the next Read
				s.chunks <- c
				return
			}
		default:
			return
		}
	}
}

// Close stops the pump and closes rw when it is an io.Closer.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if c, ok := s.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
