// internal/poller/errors.go
package poller

// Error is a transaction failure with a status code in the 0x02xx range.
type Error struct {
	msg  string
	code uint16
}

func (e *Error) Error() string { return e.msg }

// Code returns the status code reported for this failure.
func (e *Error) Code() uint16 { return e.code }

var (
	// ErrTransportTimeout: no complete response before the deadline.
	ErrTransportTimeout = &Error{msg: "poller: transport timeout", code: 0x0200}
	// ErrTransportIO: the transport failed a write or read.
	ErrTransportIO = &Error{msg: "poller: transport i/o error", code: 0x0201}
	// ErrRegisterCount: the response carries a different number of registers than requested.
	ErrRegisterCount = &Error{msg: "poller: register count mismatch", code: 0x0202}
	// ErrStore: the store rejected the batch.
	ErrStore = &Error{msg: "poller: store rejected batch", code: 0x0203}
)
