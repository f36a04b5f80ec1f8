package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

const isoLayout = "2006-01-02"

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// cell returns row[i], or nil when the row is shorter than i+1.
func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// IsEmpty reports whether a cell holds no content: nil or a blank string.
// Numeric zero is content.
func IsEmpty(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(c) == ""
	}
	return false
}

// IsFalsy extends IsEmpty with numeric zero and false. It backs the blank-row
// guard for known tabs.
func IsFalsy(v any) bool {
	if IsEmpty(v) {
		return true
	}
	switch c := v.(type) {
	case bool:
		return !c
	case string:
		return false
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f == 0
	}
	return false
}

// Text renders a cell as trimmed text. nil becomes "".
func Text(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case time.Time:
		return c.Format(isoLayout)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Number coerces a cell to a float. Anything that does not parse, including
// NaN and infinities, becomes 0.
func Number(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
		if v == "" {
			return 0
		}
	}
	if v == nil {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeDate converts a cell to an ISO YYYY-MM-DD date. It returns ""
// when the cell is empty or not a recognizable date.
//
// ISO strings pass through when they name a real day, DD/MM/YYYY is
// reordered and zero-padded, numbers are read as spreadsheet serial dates, and anything
// else goes through generic date parsing.
func NormalizeDate(v any) string {
	switch c := v.(type) {
	case nil, bool:
		return ""
	case time.Time:
		if c.IsZero() {
			return ""
		}
		return c.Format(isoLayout)
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return serialDate(Number(c))
	}

	s := Text(v)
	if s == "" {
		return ""
	}
	if isoDatePattern.MatchString(s) {
		if _, err := time.Parse(isoLayout, s); err != nil {
			return ""
		}
		return s
	}
	if m := dmyDatePattern.FindStringSubmatch(s); m != nil {
		return dayMonthYear(m[1], m[2], m[3])
	}

	t, err := cast.ToTimeE(s)
	if err != nil || t.Year() < 1900 {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func dayMonthYear(d, m, y string) string {
	day, _ := strconv.Atoi(d)
	month, _ := strconv.Atoi(m)
	year, _ := strconv.Atoi(y)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return ""
	}
	return t.Format(isoLayout)
}

func serialDate(serial float64) string {
	if serial <= 0 {
		return ""
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return t.Format(isoLayout)
}
