// Package decode reconstructs typed scalar values from the heterogeneous
// encodings observed in change-capture payloads. Upstream connectors disagree
// on how they serialize numbers: some emit plain JSON numbers, some wrap
// 64-bit values in an extended-JSON object, and some ship fixed-width
// big-endian buffers or numeric strings as base64. Every function here is
// pure, never errors, and falls back to the caller's default instead.
package decode

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Keys under which extended-JSON wraps a numeric value.
var wrapperKeys = []string{"$numberLong", "$numberInt", "$numberDouble", "$numberDecimal"}

// Int64 decodes v as a 64-bit integer. Accepted representations: native Go
// integer/float types, json.Number, an extended-JSON wrapper object, a plain
// numeric string, a base64 buffer of 1/2/3/4/8 bytes read as big-endian
// unsigned, or a base64-encoded UTF-8 numeric string.
func Int64(v any, def int64) int64 {
	switch x := v.(type) {
	case nil:
		return def
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		return int64(x)
	case float32:
		return int64(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return int64(f)
		}
		return def
	case map[string]any:
		for _, k := range wrapperKeys {
			if inner, ok := x[k]; ok {
				return Int64(inner, def)
			}
		}
		return def
	case string:
		return int64FromString(x, def)
	default:
		return def
	}
}

func int64FromString(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return def
	}
	switch len(raw) {
	case 1, 2, 3, 4, 8:
		var n uint64
		for _, b := range raw {
			n = n<<8 | uint64(b)
		}
		return int64(n)
	}
	// Some producers base64 the decimal string itself.
	inner := strings.TrimSpace(string(raw))
	if n, err := strconv.ParseInt(inner, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(inner, 64); err == nil {
		return int64(f)
	}
	return def
}

// Float64 decodes v as a floating-point number; used for rates and other
// non-currency numerics that arrive as plain decimals.
func Float64(v any, def float64) float64 {
	switch x := v.(type) {
	case nil:
		return def
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return def
	case map[string]any:
		for _, k := range wrapperKeys {
			if inner, ok := x[k]; ok {
				return Float64(inner, def)
			}
		}
		return def
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}

// currencySentinel marks "no decodable integer" so Currency can distinguish a
// decode failure from a legitimate zero balance.
const currencySentinel = math.MinInt64

// Currency decodes a minor-unit integer (cents) and converts it to a
// major-unit decimal: 12345 becomes 123.45, exactly.
func Currency(v any, def decimal.Decimal) decimal.Decimal {
	n := Int64(v, currencySentinel)
	if n == currencySentinel {
		return def
	}
	return decimal.New(n, -2)
}

// MajorUnits is Currency with a zero default, collapsed to the float64 shape
// profile documents carry.
func MajorUnits(v any) float64 {
	return Currency(v, decimal.Zero).InexactFloat64()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time decodes v as a timestamp: either a millisecond epoch number (possibly
// wrapped) or an ISO-like string.
func Time(v any, def time.Time) time.Time {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		return def
	default:
		ms := Int64(v, currencySentinel)
		if ms == currencySentinel {
			return def
		}
		return time.UnixMilli(ms).UTC()
	}
}

// String decodes v as text. Strings pass through untouched: legitimate text is
// never probed as base64, since a short word can be valid base64 by accident.
func String(v any, def string) string {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case map[string]any:
		for _, k := range wrapperKeys {
			if inner, ok := x[k]; ok {
				return String(inner, def)
			}
		}
		return def
	default:
		return def
	}
}
