/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package units

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const MaxPrecision = 6

var printer = message.NewPrinter(language.English)

type Request struct {
	Value float64
	From  Unit
	To    Unit
}

// Convert fails with ErrInvalidInput if the value is not finite and
// non-negative, or if the converted magnitude overflows.
func (r Request) Convert() (Result, error) {
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value < 0 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, r.Value)
	}
	if !r.From.Valid() || !r.To.Valid() {
		return Result{}, fmt.Errorf("%w: %d -> %d", ErrUnknownUnit, int(r.From), int(r.To))
	}

	v := Convert(r.Value, r.From, r.To)
	if math.IsInf(v, 0) {
		return Result{}, fmt.Errorf("%w: %v %s overflows when converted to %s", ErrInvalidInput, r.Value, r.From, r.To)
	}

	return Result{Request: r, Value: v}, nil
}

type Result struct {
	Request
	Value float64
}

// String renders the result the way the converter window displays it,
// grouped and rounded to whole units.
func (r Result) String() string {
	return r.Format(0)
}

func (r Result) Format(precision int) string {
	return fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(r.Request.Value, 'f', -1, 64),
		r.From,
		Group(r.Value, precision),
		r.To)
}

// Group formats v with thousands separators and a fixed number of decimals.
func Group(v float64, precision int) string {
	precision = max(0, min(precision, MaxPrecision))

	return printer.Sprintf("%."+strconv.Itoa(precision)+"f", v)
}
