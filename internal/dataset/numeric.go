package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NumberFormat controls locale-aware numeric parsing.
type NumberFormat struct {
	// DecimalSeparator; if 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator; if 0, strip common separators (',' '.' space) other than the decimal one.
	ThousandsSeparator rune
}

// ParseNumber parses s as a number, accepting "%" suffixes and either '.' or
// ',' as decimal separator.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toNumber coerces a loosely-typed value; anything unparseable is null.
func toNumber(v any, nf NumberFormat) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		if !x.Valid {
			return Null()
		}
		if x.Str == "" {
			return finite(x.Num)
		}
		return toNumber(x.Str, nf)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
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
			return Number(1)
		}
		return Number(0)
	case *int:
		if x == nil {
			return Null()
		}
		return Number(float64(*x))
	case *float64:
		if x == nil {
			return Null()
		}
		return finite(*x)
	case json.Number:
		return toNumber(string(x), nf)
	case string:
		if f, ok := ParseNumber(x, nf); ok {
			return Number(f)
		}
		return Null()
	}
	return Null()
}

func finite(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Number(f)
}

// toText coerces a loosely-typed value to text; nil and empty strings are null.
func toText(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		if !x.Valid {
			return Null()
		}
		if x.Str != "" {
			return String(x.Str)
		}
		return String(strconv.FormatFloat(x.Num, 'f', -1, 64))
	case string:
		if strings.TrimSpace(x) == "" {
			return Null()
		}
		return String(x)
	case *string:
		if x == nil {
			return Null()
		}
		return toText(*x)
	case time.Time:
		if x.IsZero() {
			return Null()
		}
		return String(x.Format(time.RFC3339))
	case float64:
		if math.IsNaN(x) {
			return Null()
		}
		return String(strconv.FormatFloat(x, 'f', -1, 64))
	case fmt.Stringer:
		return toText(x.String())
	}
	return String(fmt.Sprint(v))
}
