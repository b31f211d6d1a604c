package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type valueKind uint8

const (
	kindEmpty valueKind = iota
	kindNumber
	kindString
)

// Value is what an accessor yields: empty, a number or a string. Values are
// totally ordered: empty sorts before numbers, numbers before strings.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// Empty is the absent value.
func Empty() Value { return Value{} }

// Number wraps f. NaN is treated as empty.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: kindNumber, num: f}
}

// String wraps s. The empty string is empty.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: kindString, str: s}
}

// Time orders instants numerically by Unix milliseconds. The zero time is
// empty.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Number(float64(t.UnixMilli()))
}

// ValueOf converts a primitive into a Value. Unknown types use their fmt
// representation.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return String(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case bool:
		if x {
			return String("true")
		}
		return String("false")
	case time.Time:
		return Time(x)
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

// IsEmpty reports the absent value.
func (v Value) IsEmpty() bool { return v.kind == kindEmpty }

// IsNumber reports a numeric value.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// Float returns the numeric value, or 0.
func (v Value) Float() float64 { return v.num }

// Text renders the value for display and matching.
func (v Value) Text() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	default:
		return ""
	}
}

// Raw returns the underlying primitive: float64, string or nil.
func (v Value) Raw() any {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindString:
		return v.str
	default:
		return nil
	}
}

// Compare returns -1, 0 or 1. Strings compare case-insensitively first and
// bytewise on ties so the order stays total.
func (v Value) Compare(other Value) int {
	if v.kind != other.kind {
		if v.kind < other.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case kindNumber:
		switch {
		case v.num < other.num:
			return -1
		case v.num > other.num:
			return 1
		}
		return 0
	case kindString:
		if c := strings.Compare(strings.ToLower(v.str), strings.ToLower(other.str)); c != 0 {
			return c
		}
		return strings.Compare(v.str, other.str)
	default:
		return 0
	}
}
