// internal/frame/codec.go
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/goburrow/modbus"
)

const (
	// FuncReadHoldingRegisters is the only function code this codec speaks.
	FuncReadHoldingRegisters byte = 0x03

	// RequestSize is the fixed size of a read request ADU.
	RequestSize = 8

	// MaxRegisters is the largest quantity a single 0x03 response can carry.
	MaxRegisters = 125

	minResponseSize = 5
	exceptionBit    = 0x80
)

// BuildReadRequest encodes a "read holding registers" request:
//
//	slave(1) fc(1) start(2, BE) qty(2, BE) crc(2, LE)
func BuildReadRequest(slave byte, start, qty uint16) []byte {
	adu := make([]byte, 6, RequestSize)
	adu[0] = slave
	adu[1] = FuncReadHoldingRegisters
	binary.BigEndian.PutUint16(adu[2:4], start)
	binary.BigEndian.PutUint16(adu[4:6], qty)
	return appendCRC(adu)
}

// Span returns the contiguous register range covering addrs.
// Sparse selections still produce a single request: qty = max-min+1.
func Span(addrs []uint16) (start, qty uint16, err error) {
	if len(addrs) == 0 {
		return 0, 0, fmt.Errorf("%w: no registers", ErrInvalidRequest)
	}

	lo, hi := addrs[0], addrs[0]
	for _, a := range addrs[1:] {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}

	n := int(hi) - int(lo) + 1
	if n > MaxRegisters {
		return 0, 0, fmt.Errorf("%w: span %d-%d exceeds %d registers", ErrInvalidRequest, lo, hi, MaxRegisters)
	}
	return lo, uint16(n), nil
}

// ParseReadResponse extracts register values from a 0x03 response.
// Checks run in a fixed order: length, slave, function, byte count.
// The trailing CRC is not inspected here; see VerifyCRC.
func ParseReadResponse(adu []byte, slave, fc byte) ([]uint16, error) {
	if len(adu) < minResponseSize {
		return nil, fmt.Errorf("%w: len=%d", ErrFrameTooShort, len(adu))
	}
	if adu[0] != slave {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrUnexpectedSlave, adu[0], slave)
	}
	if adu[1] != fc {
		if adu[1] == fc|exceptionBit {
			return nil, fmt.Errorf("%w: %w", ErrUnexpectedFunction, &modbus.ModbusError{
				FunctionCode:  adu[1],
				ExceptionCode: adu[2],
			})
		}
		return nil, fmt.Errorf("%w: got=0x%02X want=0x%02X", ErrUnexpectedFunction, adu[1], fc)
	}

	byteCount := int(adu[2])
	if len(adu) < 3+byteCount+2 {
		return nil, fmt.Errorf("%w: byte count %d, have %d bytes", ErrFrameIncomplete, byteCount, len(adu))
	}

	n := byteCount / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(adu[3+2*i:])
	}
	return out, nil
}

// ResponseSize reports how many bytes a complete 0x03 response occupies,
// given at least its first three bytes. ok is false while the header is
// still missing or when the frame is an exception response.
func ResponseSize(adu []byte) (size int, ok bool) {
	if len(adu) < 3 {
		return 0, false
	}
	if adu[1]&exceptionBit != 0 {
		return minResponseSize, true
	}
	return 3 + int(adu[2]) + 2, true
}

// VerifyCRC checks the trailing checksum of a complete frame.
func VerifyCRC(adu []byte) error {
	if len(adu) < 4 {
		return fmt.Errorf("%w: len=%d", ErrFrameTooShort, len(adu))
	}
	body := adu[:len(adu)-2]
	want := CRC16(body)
	got := binary.LittleEndian.Uint16(adu[len(adu)-2:])
	if got != want {
		return fmt.Errorf("%w: got=0x%04X want=0x%04X", ErrCRCMismatch, got, want)
	}
	return nil
}

// BuildReadResponse encodes values as a 0x03 response from slave.
// Used by the loopback slave.
func BuildReadResponse(slave byte, values []uint16) ([]byte, error) {
	if len(values) > MaxRegisters {
		return nil, fmt.Errorf("%w: %d registers", ErrInvalidRequest, len(values))
	}
	adu := make([]byte, 3+2*len(values), 3+2*len(values)+2)
	adu[0] = slave
	adu[1] = FuncReadHoldingRegisters
	adu[2] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(adu[3+2*i:], v)
	}
	return appendCRC(adu), nil
}

// BuildExceptionResponse encodes a Modbus exception reply.
func BuildExceptionResponse(slave, fc, code byte) []byte {
	return appendCRC([]byte{slave, fc | exceptionBit, code})
}

// ParseReadRequest decodes a request built by BuildReadRequest.
// Used by the loopback slave; CRC is verified.
func ParseReadRequest(adu []byte) (slave byte, start, qty uint16, err error) {
	if len(adu) != RequestSize {
		return 0, 0, 0, fmt.Errorf("%w: request len=%d", ErrFrameTooShort, len(adu))
	}
	if err := VerifyCRC(adu); err != nil {
		return 0, 0, 0, err
	}
	if adu[1] != FuncReadHoldingRegisters {
		return 0, 0, 0, fmt.Errorf("%w: got=0x%02X", ErrUnexpectedFunction, adu[1])
	}
	return adu[0], binary.BigEndian.Uint16(adu[2:4]), binary.BigEndian.Uint16(adu[4:6]), nil
}
