// internal/frame/codec_test.go
package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goburrow/modbus"
)

func TestCRC16_KnownVectors(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint16
	}{
		{[]byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}, 0x8776},
		{[]byte{0x01, 0x03, 0x00, 0x64, 0x00, 0x04}, 0xD605},
		{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}, 0xCDC5},
	}

	for _, c := range cases {
		if got := CRC16(c.in); got != c.want {
			t.Fatalf("CRC16(% X) = 0x%04X, want 0x%04X", c.in, got, c.want)
		}
	}
}

func TestBuildReadRequest_Bytes(t *testing.T) {
	got := BuildReadRequest(1, 100, 4)
	want := []byte{1, 3, 0, 100, 0, 4, 0x05, 0xD6}

	if !bytes.Equal(got, want) {
		t.Fatalf("request = % X, want % X", got, want)
	}
	if err := VerifyCRC(got); err != nil {
		t.Fatalf("own request fails crc: %v", err)
	}
	// Re-encoding the same bytes reproduces the same checksum.
	if CRC16(got[:6]) != CRC16(append([]byte(nil), got[:6]...)) {
		t.Fatalf("crc not stable")
	}
}

func TestBuildReadRequest_MatchesGoburrowEncoder(t *testing.T) {
	h := modbus.NewRTUClientHandler("/dev/null")
	h.SlaveId = 0x11

	want, err := h.Encode(&modbus.ProtocolDataUnit{
		FunctionCode: modbus.FuncCodeReadHoldingRegisters,
		Data:         []byte{0x00, 0x6B, 0x00, 0x03},
	})
	if err != nil {
		t.Fatalf("goburrow encode: %v", err)
	}

	got := BuildReadRequest(0x11, 0x006B, 3)
	if !bytes.Equal(got, want) {
		t.Fatalf("request = % X, goburrow = % X", got, want)
	}
}

func TestSpan(t *testing.T) {
	cases := []struct {
		name      string
		addrs     []uint16
		start     uint16
		qty       uint16
		wantError bool
	}{
		{"contiguous", []uint16{100, 101, 102, 103}, 100, 4, false},
		{"sparse", []uint16{7, 2, 40}, 2, 39, false},
		{"single", []uint16{5}, 5, 1, false},
		{"empty", nil, 0, 0, true},
		{"too wide", []uint16{0, 200}, 0, 0, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			start, qty, err := Span(c.addrs)
			if c.wantError {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != c.start || qty != c.qty {
				t.Fatalf("span = (%d,%d), want (%d,%d)", start, qty, c.start, c.qty)
			}
		})
	}
}

func TestParseReadResponse_RoundTrip(t *testing.T) {
	for n := 0; n <= MaxRegisters; n += 25 {
		values := make([]uint16, n)
		for i := range values {
			values[i] = uint16(i*523 + 17)
		}

		adu, err := BuildReadResponse(1, values)
		if err != nil {
			t.Fatalf("n=%d build: %v", n, err)
		}

		got, err := ParseReadResponse(adu, 1, FuncReadHoldingRegisters)
		if err != nil {
			t.Fatalf("n=%d parse: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d parsed %d values", n, len(got))
		}
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("n=%d value[%d] = %d, want %d", n, i, got[i], values[i])
			}
		}
	}
}

func TestBuildReadResponse_AcceptedByGoburrowDecoder(t *testing.T) {
	adu, err := BuildReadResponse(1, []uint16{250, 1000})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	h := modbus.NewRTUClientHandler("/dev/null")
	pdu, err := h.Decode(adu)
	if err != nil {
		t.Fatalf("goburrow decode: %v", err)
	}
	if pdu.FunctionCode != FuncReadHoldingRegisters {
		t.Fatalf("function = %d", pdu.FunctionCode)
	}
	if !bytes.Equal(pdu.Data, []byte{4, 0x00, 0xFA, 0x03, 0xE8}) {
		t.Fatalf("data = % X", pdu.Data)
	}
}

func TestParseReadResponse_Errors(t *testing.T) {
	good, _ := BuildReadResponse(1, []uint16{1, 2})

	cases := []struct {
		name string
		adu  []byte
		want error
	}{
		{"length 3", []byte{1, 3, 4}, ErrFrameTooShort},
		{"empty", nil, ErrFrameTooShort},
		{"wrong slave", append([]byte{2}, good[1:]...), ErrUnexpectedSlave},
		{"wrong function", append([]byte{1, 4}, good[2:]...), ErrUnexpectedFunction},
		{"exception", BuildExceptionResponse(1, 3, 2), ErrUnexpectedFunction},
		{"truncated payload", good[:len(good)-3], ErrFrameIncomplete},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vals, err := ParseReadResponse(c.adu, 1, FuncReadHoldingRegisters)
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
			if vals != nil {
				t.Fatalf("expected no values, got %v", vals)
			}
		})
	}
}

func TestParseReadResponse_ExceptionCarriesCode(t *testing.T) {
	_, err := ParseReadResponse(BuildExceptionResponse(1, 3, 2), 1, FuncReadHoldingRegisters)

	var me *modbus.ModbusError
	if !errors.As(err, &me) {
		t.Fatalf("expected *modbus.ModbusError in chain, got %v", err)
	}
	if me.ExceptionCode != modbus.ExceptionCodeIllegalDataAddress {
		t.Fatalf("exception code = %d", me.ExceptionCode)
	}
}

func TestVerifyCRC_DetectsCorruption(t *testing.T) {
	adu, _ := BuildReadResponse(1, []uint16{250})
	adu[3] ^= 0xFF

	if err := VerifyCRC(adu); !errors.Is(err, ErrCRCMismatch) {
		t.Fatalf("expected ErrCRCMismatch, got %v", err)
	}
}

func TestResponseSize(t *testing.T) {
	adu, _ := BuildReadResponse(1, []uint16{1, 2, 3})

	if _, ok := ResponseSize(adu[:2]); ok {
		t.Fatalf("header incomplete, expected ok=false")
	}
	if n, ok := ResponseSize(adu); !ok || n != len(adu) {
		t.Fatalf("size = %d ok=%v, want %d", n, ok, len(adu))
	}
	if n, ok := ResponseSize(BuildExceptionResponse(1, 3, 1)); !ok || n != 5 {
		t.Fatalf("exception size = %d ok=%v", n, ok)
	}
}

func TestErrorCodes(t *testing.T) {
	_, err := ParseReadResponse([]byte{1}, 1, 3)

	var ce interface{ Code() uint16 }
	if !errors.As(err, &ce) {
		t.Fatalf("codec error does not expose Code()")
	}
	if ce.Code() != ErrFrameTooShort.Code() {
		t.Fatalf("code = %d", ce.Code())
	}
}
