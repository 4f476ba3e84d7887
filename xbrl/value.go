package xbrl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindText
	KindDecimal
	KindInteger
	KindBoolean
	KindDate
	KindDateTime
	KindFraction
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindText:     "text",
	KindDecimal:  "decimal",
	KindInteger:  "integer",
	KindBoolean:  "boolean",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindFraction: "fraction",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// FactValue is the typed value of a fact. Text holds the content for the
// text, date, datetime and fraction kinds.
type FactValue struct {
	Kind    Kind
	Text    string
	Decimal float64
	Integer int64
	Bool    bool
}

func NilValue() FactValue { return FactValue{Kind: KindNil} }
func TextValue(s string) FactValue { return FactValue{Kind: KindText, Text: s} }
func DecimalValue(f float64) FactValue { return FactValue{Kind: KindDecimal, Decimal: f} }
func IntegerValue(n int64) FactValue { return FactValue{Kind: KindInteger, Integer: n} }
func BooleanValue(b bool) FactValue { return FactValue{Kind: KindBoolean, Bool: b} }
func DateValue(s string) FactValue { return FactValue{Kind: KindDate, Text: s} }
func DateTimeValue(s string) FactValue { return FactValue{Kind: KindDateTime, Text: s} }
func FractionValue(s string) FactValue { return FactValue{Kind: KindFraction, Text: s} }

func (v FactValue) IsNil() bool { return v.Kind == KindNil }

// Float returns the numeric value of decimal, integer and fraction values.
func (v FactValue) Float() (float64, bool) {
	switch v.Kind {
	case KindDecimal:
		return v.Decimal, true
	case KindInteger:
		return float64(v.Integer), true
	case KindFraction:
		num, den, ok := strings.Cut(v.Text, "/")
		if !ok {
			return 0, false
		}
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	return 0, false
}

func (v FactValue) String() string {
	switch v.Kind {
	case KindNil:
		return ""
	case KindDecimal:
		return strconv.FormatFloat(v.Decimal, 'f', -1, 64)
	case KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	}
	return v.Text
}

// CoerceValue derives a typed value from raw fact content. The trials run in
// a fixed order: nil, empty, fraction, decimal, integer, boolean, text.
// Decimal content is accepted in the accounting form "(N)" meaning -N. A
// plain integer literal is left to the integer trial so that "1234" stays
// an Integer; an integer literal outside the int64 range becomes a Decimal.
// intern may be nil.
func CoerceValue(raw string, isNil bool, intern func(string) string) FactValue {
	if isNil {
		return NilValue()
	}
	if raw == "" {
		return TextValue("")
	}
	if f, ok := coerceFraction(raw); ok {
		return FractionValue(f)
	}
	normalized, parenthesized := normalizeParens(raw)
	if parenthesized || !isIntegerLiteral(normalized) {
		if f, ok := parseDecimal(normalized); ok {
			return DecimalValue(f)
		}
	}
	if isIntegerLiteral(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntegerValue(n)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return DecimalValue(f)
		}
	}
	switch raw {
	case "true":
		return BooleanValue(true)
	case "false":
		return BooleanValue(false)
	}
	if intern != nil {
		return TextValue(intern(raw))
	}
	return TextValue(raw)
}

func coerceFraction(raw string) (string, bool) {
	num, den, ok := strings.Cut(raw, "/")
	if !ok || num == "" || den == "" {
		return "", false
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", false
	}
	if _, ok := parseDecimal(num); !ok {
		return "", false
	}
	if _, ok := parseDecimal(den); !ok {
		return "", false
	}
	return normalizeNumber(num) + "/" + normalizeNumber(den), true
}

// normalizeNumber rewrites a validated decimal lexically: no leading '+',
// no redundant leading or trailing zeros. Exponent forms are kept as written.
func normalizeNumber(s string) string {
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	if strings.ContainsAny(s, "eE") {
		if neg {
			return "-" + s
		}
		return s
	}
	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	frac = strings.TrimRight(frac, "0")
	if whole == "" {
		whole = "0"
	}
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

func normalizeParens(raw string) (string, bool) {
	if len(raw) > 2 && raw[0] == '(' && raw[len(raw)-1] == ')' {
		return "-" + raw[1:len(raw)-1], true
	}
	return raw, false
}

// parseDecimal accepts plain decimal notation with optional sign, fraction
// and exponent. Inf and NaN spellings are not numbers in instance documents.
func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			continue
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i = 1
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CoerceDate types a date or dateTime lexical value.
func CoerceDate(raw string) (FactValue, error) {
	s := strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return DateValue(s), nil
	}
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return DateTimeValue(s), nil
		}
	}
	return FactValue{}, fmt.Errorf("%q is not a date: %w", raw, ErrValidation)
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
}

// ParseDate parses a period date. A bare date is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
