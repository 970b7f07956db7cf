// internal/transport/loopback.go
package transport

import (
	"context"
	"sync"

	"github.com/tamzrod/modbus-thermolog/internal/frame"
)

// RegisterSource supplies the value of a holding register at read time.
type RegisterSource func(addr uint16) uint16

// Loopback is an in-process RTU slave. Requests written to it are answered
// from Source; frames for another slave id are ignored like on a real bus.
type Loopback struct {
	SlaveID byte
	Source  RegisterSource

	mu      sync.Mutex
	pending [][]byte
	ready   chan struct{}
	closed  bool
}

// NewLoopback returns a slave answering as slaveID.
func NewLoopback(slaveID byte, src RegisterSource) *Loopback {
	return &Loopback{
		SlaveID: slaveID,
		Source:  src,
		ready:   make(chan struct{}, 1),
	}
}

func (l *Loopback) Write(ctx context.Context, adu []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slave, start, qty, err := frame.ParseReadRequest(adu)
	if err != nil || slave != l.SlaveID {
		// a real slave stays silent on garbage or foreign addresses
		return l.checkOpen()
	}

	var resp []byte
	if qty == 0 || qty > frame.MaxRegisters {
		resp = frame.BuildExceptionResponse(slave, frame.FuncReadHoldingRegisters, 0x03)
	} else {
		values := make([]uint16, qty)
		for i := range values {
			values[i] = l.Source(start + uint16(i))
		}
		resp, err = frame.BuildReadResponse(slave, values)
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.pending = append(l.pending, resp)
	select {
	case l.ready <- struct{}{}:
	default:
	}
	return nil
}

func (l *Loopback) checkOpen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *Loopback) Read(ctx context.Context) ([]byte, error) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil, ErrClosed
		}
		if len(l.pending) > 0 {
			resp := l.pending[0]
			l.pending = l.pending[1:]
			l.mu.Unlock()
			return resp, nil
		}
		l.mu.Unlock()

		select {
		case <-l.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Flush drops unread responses.
func (l *Loopback) Flush() {
	l.mu.Lock()
	l.pending = nil
	l.mu.Unlock()
}

// Close makes further reads and writes fail with ErrClosed.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.ready <- struct{}{}:
	default:
	}
	return nil
}
