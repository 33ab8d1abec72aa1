// Package pricing turns loosely typed price inputs into integer rupiah.
//
// The normalizer only strips characters. Shorthand magnitude suffixes such as
// "22K" are interpreted by the bulk seed importer (internal/seed), never here:
// Normalize("22K") is 22.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Reason explains why a parse produced the value it did.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEmpty           Reason = "empty"
	ReasonNoDigits        Reason = "no_digits"
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonOverflow        Reason = "overflow"
	ReasonNotFinite       Reason = "not_finite"
)

// Result is the tagged outcome of Parse. Value is always usable; it is 0
// whenever OK is false.
type Result struct {
	Value  int64
	OK     bool
	Reason Reason
}

func ok(v int64) Result { return Result{Value: v, OK: true} }

func fail(r Reason) Result { return Result{Reason: r} }

// Normalize returns the canonical amount for input, or 0 when it cannot be read.
func Normalize(input any) int64 {
	return Parse(input).Value
}

// Parse converts numbers and formatted strings into an integer amount.
func Parse(input any) Result {
	switch v := input.(type) {
	case nil:
		return fail(ReasonEmpty)
	case int:
		return ok(int64(v))
	case int8:
		return ok(int64(v))
	case int16:
		return ok(int64(v))
	case int32:
		return ok(int64(v))
	case int64:
		return ok(v)
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return ok(int64(v))
	case uint16:
		return ok(int64(v))
	case uint32:
		return ok(int64(v))
	case uint64:
		return fromUint(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case string:
		return ParseString(v)
	case *string:
		if v == nil {
			return fail(ReasonEmpty)
		}
		return ParseString(*v)
	default:
		return fail(ReasonUnsupportedType)
	}
}

// ParseString applies the string rules: a two-digit comma suffix ("10.000,50")
// is dropped, then every non-digit is removed.
func ParseString(value string) Result {
	if strings.TrimSpace(value) == "" {
		return fail(ReasonEmpty)
	}

	if head, tail, found := strings.Cut(value, ","); found {
		// only the segment right after the first comma counts, as in "1,50,00"
		if seg, _, _ := strings.Cut(tail, ","); len([]rune(seg)) == 2 {
			value = head
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if digits == "" {
		return fail(ReasonNoDigits)
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return fail(ReasonOverflow)
	}
	return ok(n)
}

func fromUint(v uint64) Result {
	if v > math.MaxInt64 {
		return fail(ReasonOverflow)
	}
	return ok(int64(v))
}

func fromFloat(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fail(ReasonNotFinite)
	}
	if v >= math.MaxInt64 || v <= math.MinInt64 {
		return fail(ReasonOverflow)
	}
	return ok(int64(v))
}
