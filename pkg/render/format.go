package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"BRL": "R$",
	"JPY": "¥",
}

// FormatMetric renders the metric value according to its format.
func FormatMetric(m *Metric) string {
	f, ok := toFloat(m.Value)
	if !ok {
		return FormatCell(m.Value)
	}
	switch m.Format {
	case "currency":
		sym, known := currencySymbols[strings.ToUpper(m.Currency)]
		if !known {
			sym = strings.ToUpper(m.Currency) + " "
		}
		if f < 0 {
			return "-" + sym + groupThousands(-f, 2)
		}
		return sym + groupThousands(f, 2)
	case "percent":
		return strconv.FormatFloat(f, 'f', -1, 64) + "%"
	default:
		return groupThousands(f, -1)
	}
}

// FormatDelta renders a signed percentage change, e.g. "+4.2%".
func FormatDelta(d *float64) string {
	if d == nil {
		return ""
	}
	sign := ""
	if *d > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(*d, 'f', 1, 64) + "%"
}

// FormatCell renders an arbitrary JSON value for a table cell or list.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return groupThousands(f, -1)
		}
		return val.String()
	case float64, float32, int, int64, int32:
		f, _ := toFloat(val)
		return groupThousands(f, -1)
	case *float64:
		if val == nil {
			return ""
		}
		return groupThousands(*val, -1)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// Percent returns value/max as a 0-100 percentage, clamped.
func Percent(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(math.Min(math.Max(value/max*100, 0), 100)*10) / 10
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	return 0, false
}

// groupThousands formats f with comma separators. Whole numbers drop the fraction
// unless decimals is positive and the value has cents.
func groupThousands(f float64, decimals int) string {
	neg := f < 0
	if neg {
		f = -f
	}
	var s string
	switch {
	case f == math.Trunc(f):
		s = strconv.FormatFloat(f, 'f', 0, 64)
	case decimals >= 0:
		s = strconv.FormatFloat(f, 'f', decimals, 64)
	default:
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
