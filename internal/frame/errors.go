// internal/frame/errors.go
package frame

// Error is a codec failure. Code is a stable numeric identifier in the
// 0x01xx range, clear of Modbus exception codes,
// that ends up in the status snapshot.
type Error struct {
	msg  string
	code uint16
}

func (e *Error) Error() string { return e.msg }

// Code returns the status code reported for this failure.
func (e *Error) Code() uint16 { return e.code }

var (
	// ErrFrameTooShort: fewer than 5 bytes received.
	ErrFrameTooShort = &Error{msg: "frame: response too short", code: 0x0100}
	// ErrUnexpectedSlave: the response came from another slave id.
	ErrUnexpectedSlave = &Error{msg: "frame: unexpected slave id", code: 0x0101}
	// ErrUnexpectedFunction: function code differs from the request,
	// including exception responses (function | 0x80).
	ErrUnexpectedFunction = &Error{msg: "frame: unexpected function code", code: 0x0102}
	// ErrFrameIncomplete: byte count announces more data than was received.
	ErrFrameIncomplete = &Error{msg: "frame: response incomplete", code: 0x0103}
	// ErrCRCMismatch: trailing checksum does not match the frame.
	ErrCRCMismatch = &Error{msg: "frame: crc mismatch", code: 0x0104}
	// ErrInvalidRequest: request geometry cannot be encoded.
	ErrInvalidRequest = &Error{msg: "frame: invalid request", code: 0x0105}
)
