// internal/convert/convert.go
package convert

import (
	"errors"
	"fmt"
	"math"
)

// Method identifies how a temperature was derived from a raw value.
type Method string

const (
	MethodBuiltin Method = "builtin"
	MethodCustom  Method = "custom"
)

// Physical bounds accepted by IsValidTemperature, in °C.
const (
	MinTemperature = -273.0
	MaxTemperature = 1000.0
)

var (
	// ErrConversionFailure: the formula errored or produced a non-number.
	ErrConversionFailure = errors.New("convert: conversion failure")
	// ErrInvalidTemperature: the converted value is outside the physical range.
	ErrInvalidTemperature = errors.New("convert: invalid temperature")
)

// Config selects the conversion strategy.
// Formula is only read when Mode is MethodCustom.
type Config struct {
	Mode      Method
	Formula   string
	TestValue uint16
}

// Converter maps one 16-bit register value to °C.
type Converter interface {
	Convert(raw uint16) (float64, error)
	Method() Method
}

// Builtin interprets raw as a signed 16-bit value with 0.1 °C resolution.
// Division keeps the result correctly rounded (32767 -> 3276.7, not 3276.7000000000003).
func Builtin(raw uint16) float64 {
	if raw > 32767 {
		return float64(int(raw)-65536) / 10
	}
	return float64(raw) / 10
}

// IsValidTemperature rejects NaN, ±Inf and values outside
// [MinTemperature, MaxTemperature].
func IsValidTemperature(t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	return t >= MinTemperature && t <= MaxTemperature
}

type builtinConverter struct{}

func (builtinConverter) Convert(raw uint16) (float64, error) { return Builtin(raw), nil }
func (builtinConverter) Method() Method                      { return MethodBuiltin }

// New returns the converter for cfg. Custom formulas are compiled once here;
// a formula that does not compile is a configuration error.
func New(cfg Config) (Converter, error) {
	switch cfg.Mode {
	case "", MethodBuiltin:
		return builtinConverter{}, nil
	case MethodCustom:
		return compileFormula(cfg.Formula)
	default:
		return nil, fmt.Errorf("convert: unknown mode %q", cfg.Mode)
	}
}

// Apply converts raw and validates the result.
// Both failure kinds are per-sample: callers drop the sample and move on.
func Apply(c Converter, raw uint16) (float64, error) {
	t, err := c.Convert(raw)
	if err != nil {
		return 0, err
	}
	if !IsValidTemperature(t) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTemperature, t)
	}
	return t, nil
}

// Preview runs cfg against its TestValue.
func Preview(cfg Config) (float64, error) {
	c, err := New(cfg)
	if err != nil {
		return 0, err
	}
	return Apply(c, cfg.TestValue)
}
