package convert

import (
	"errors"
	"math"
	"testing"
)

func TestBuiltin(t *testing.T) {
	cases := []struct {
		raw  uint16
		want float64
	}{
		{0, 0},
		{250, 25.0},
		{1000, 100.0},
		{65436, -10.0},
		{32767, 3276.7},
		{32768, -3276.8},
		{65535, -0.1},
	}

	for _, c := range cases {
		if got := Builtin(c.raw); got != c.want {
			t.Fatalf("Builtin(%d) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestIsValidTemperature(t *testing.T) {
	valid := []float64{-273, 0, 25.5, 1000}
	invalid := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -273.1, 1000.1, 3276.7}

	for _, v := range valid {
		if !IsValidTemperature(v) {
			t.Fatalf("%v should be valid", v)
		}
	}
	for _, v := range invalid {
		if IsValidTemperature(v) {
			t.Fatalf("%v should be invalid", v)
		}
	}
}

func TestApply_DropsOutOfRange(t *testing.T) {
	c, err := New(Config{Mode: MethodBuiltin})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := Apply(c, 32767); !errors.Is(err, ErrInvalidTemperature) {
		t.Fatalf("expected ErrInvalidTemperature, got %v", err)
	}
	if v, err := Apply(c, 250); err != nil || v != 25 {
		t.Fatalf("Apply(250) = %v, %v", v, err)
	}
}

func TestFormula(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		raw     uint16
		want    float64
	}{
		{"scale", "rawValue * 0.1", 250, 25},
		{"alias", "raw / 100", 2500, 25},
		{"function body", "return rawValue * 0.5 - 10;", 100, 40},
		{"ternary", "rawValue > 32767 ? (rawValue - 65536) / 10 : rawValue / 10", 65436, -10},
		{"integer result", "42", 0, 42},
		{"builtin helper", "abs(rawValue - 300) / 2", 100, 100},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			conv, err := New(Config{Mode: MethodCustom, Formula: c.formula})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if conv.Method() != MethodCustom {
				t.Fatalf("method = %s", conv.Method())
			}
			got, err := conv.Convert(c.raw)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("Convert(%d) = %v, want %v", c.raw, got, c.want)
			}
		})
	}
}

func TestFormula_Rejected(t *testing.T) {
	bad := []string{
		"",
		"rawValue +",
		"unknownVar * 2",
		"len('abc')",
	}

	for _, src := range bad {
		if _, err := New(Config{Mode: MethodCustom, Formula: src}); !errors.Is(err, ErrConversionFailure) {
			t.Fatalf("formula %q: expected ErrConversionFailure, got %v", src, err)
		}
	}
}

func TestFormula_LargeRangeExceedsMemoryBudget(t *testing.T) {
	conv, err := New(Config{Mode: MethodCustom, Formula: "1..100000000"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if _, err := conv.Convert(250); !errors.Is(err, ErrConversionFailure) {
		t.Fatalf("expected ErrConversionFailure, got %v", err)
	}

	// the converter stays usable afterwards
	ok, err := New(Config{Mode: MethodCustom, Formula: "rawValue / 10"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if v, err := ok.Convert(250); err != nil || v != 25 {
		t.Fatalf("Convert(250)=%v, %v", v, err)
	}
}

func TestFormula_NonNumericResultIsFailure(t *testing.T) {
	cases := []string{
		"rawValue > 10",
		"'hot'",
		"rawValue / 0",
	}

	for _, src := range cases {
		conv, err := New(Config{Mode: MethodCustom, Formula: src})
		if err != nil {
			t.Fatalf("New(%q): %v", src, err)
		}
		if _, err := conv.Convert(100); !errors.Is(err, ErrConversionFailure) {
			t.Fatalf("formula %q: expected ErrConversionFailure, got %v", src, err)
		}
	}
}

func TestNew_UnknownMode(t *testing.T) {
	if _, err := New(Config{Mode: "lookup"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestPreview(t *testing.T) {
	v, err := Preview(Config{Mode: MethodCustom, Formula: "rawValue / 4", TestValue: 100})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if v != 25 {
		t.Fatalf("Preview = %v", v)
	}

	if _, err := Preview(Config{Mode: MethodCustom, Formula: "rawValue * 100", TestValue: 100}); !errors.Is(err, ErrInvalidTemperature) {
		t.Fatalf("expected ErrInvalidTemperature, got %v", err)
	}
}
