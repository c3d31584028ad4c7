/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package units converts values between binary storage-size units.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownUnit  = errors.New("unknown unit")
)

// Unit is a storage-size unit in the 1024-based system.
type Unit int

const (
	B Unit = iota
	KB
	MB
	GB
	TB
)

const scale float64 = 1024

var names = [...]string{"B", "KB", "MB", "GB", "TB"}

var multipliers = [...]float64{
	1,
	scale,
	scale * scale,
	scale * scale * scale,
	scale * scale * scale * scale,
}

// All returns every unit, smallest first.
func All() []Unit {
	return []Unit{B, KB, MB, GB, TB}
}

func (u Unit) Valid() bool {
	return u >= B && u <= TB
}

// Multiplier returns the number of bytes in one u.
func (u Unit) Multiplier() float64 {
	if !u.Valid() {
		panic("invalid unit: " + strconv.Itoa(int(u)))
	}

	return multipliers[u]
}

func (u Unit) String() string {
	if !u.Valid() {
		return "Unit(" + strconv.Itoa(int(u)) + ")"
	}

	return names[u]
}

func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(u))
	}

	return []byte(names[u]), nil
}

func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed

	return nil
}

// ParseUnit matches a unit name case-insensitively.
func ParseUnit(name string) (Unit, error) {
	name = strings.TrimSpace(name)
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Unit(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

// ParseValue parses a finite, non-negative real number.
func ParseValue(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, text)
	}

	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrInvalidInput, text)
	case v < 0:
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidInput, text)
	}

	return v, nil
}

// Convert returns value, expressed in from, as a magnitude in to.
func Convert(value float64, from, to Unit) float64 {
	// Multipliers are powers of two, so the ratio is exact and only a
	// result that is itself too large overflows.
	return value * (from.Multiplier() / to.Multiplier())
}

// ConvertString parses text and converts it from one unit to another.
func ConvertString(text string, from, to Unit) (Result, error) {
	v, err := ParseValue(text)
	if err != nil {
		return Result{}, err
	}

	return Request{Value: v, From: from, To: to}.Convert()
}

// Adjust steps the numeric value in text by step, clamped at zero, and
// returns it as an integer string. Empty text counts as zero.
func Adjust(text string, step int) (string, error) {
	var current float64

	if strings.TrimSpace(text) != "" {
		v, err := ParseValue(text)
		if err != nil {
			return text, err
		}
		current = v
	}

	next := math.Trunc(math.Max(0, current+float64(step)))

	return strconv.FormatFloat(next, 'f', 0, 64), nil
}
