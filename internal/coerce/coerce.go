// Package coerce converts raw string cell values into typed domain values.
// Every coercer is a pure function returning a CoercionResult; coercion never
// panics and never returns a Go error for expected-failure input.
package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"
)

// Type names a coercion target. The set is closed; Coerce dispatches over it
// statically.
type Type string

const (
	TypeDate      Type = "date"
	TypeDatetime  Type = "datetime"
	TypeTime      Type = "time"
	TypeBoolean   Type = "boolean"
	TypeInteger   Type = "integer"
	TypeDecimal   Type = "decimal"
	TypeEmail     Type = "email"
	TypePhone     Type = "phone"
	TypeEnum      Type = "enum"
	TypeString    Type = "string"
	TypeNameSplit Type = "name_split"
)

// Result is the universal return contract of every coercion function.
type Result struct {
	Success  bool
	Value    interface{}
	Warnings []string
	Error    string
}

func success(value interface{}) Result {
	return Result{Success: true, Value: value}
}

func failure(format string, args ...interface{}) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Hints carries optional per-call coercion parameters.
type Hints struct {
	// MaxLength fails string coercion when exceeded; zero means unlimited.
	MaxLength int
	// EnumKind selects the alias map and value set for enum coercion.
	// Enum coercion fails explicitly when unset.
	EnumKind EnumKind
	// PhoneRegion is the default region for phone parsing (e.g. "IE").
	PhoneRegion string
}

// NameParts is the value produced by name_split coercion.
type NameParts struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Coerce converts value to the target type. Unrecognized types fall back to
// string coercion, mirroring permissive handling of caller-supplied hints.
func Coerce(value string, target Type, hints Hints) Result {
	switch target {
	case TypeDate:
		return Date(value)
	case TypeDatetime:
		return Datetime(value)
	case TypeTime:
		return Time(value)
	case TypeBoolean:
		return Boolean(value)
	case TypeInteger:
		return Integer(value)
	case TypeDecimal:
		return Decimal(value)
	case TypeEmail:
		return Email(value)
	case TypePhone:
		return Phone(value, hints.PhoneRegion)
	case TypeEnum:
		if hints.EnumKind == "" {
			return failure("enum kind must be provided for enum coercion")
		}
		return Enum(value, hints.EnumKind)
	case TypeNameSplit:
		return NameSplit(value)
	default:
		return String(value, hints.MaxLength)
	}
}

// datePatterns is the explicit ordered fallback list tried after the flexible
// parser. Non-padded layouts accept both "02/01/2006" and "2/1/2006".
var datePatterns = []string{
	"2006-01-02",      // ISO
	"2/1/2006",        // DD/MM/YYYY
	"1/2/2006",        // MM/DD/YYYY
	"2-1-2006",        // DD-MM-YYYY
	"2006/1/2",        // YYYY/MM/DD
	"2.1.2006",        // DD.MM.YYYY
	"2 January 2006",  // DD Month YYYY
	"January 2, 2006", // Month DD, YYYY
}

// Date parses a calendar date: flexible day-first parse first, then the
// explicit pattern list in order. Empty input is a hard failure.
func Date(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	if parsed, err := dateparse.ParseAny(trimmed, dateparse.PreferMonthFirst(false)); err == nil {
		return success(toDate(parsed))
	}

	for _, pattern := range datePatterns {
		if parsed, err := time.Parse(pattern, trimmed); err == nil {
			return success(toDate(parsed))
		}
	}

	return failure("could not parse date: %s", trimmed)
}

// Datetime parses a timestamp with the flexible day-first parser only.
func Datetime(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	if parsed, err := dateparse.ParseAny(trimmed, dateparse.PreferMonthFirst(false)); err == nil {
		return success(parsed)
	}
	return failure("could not parse datetime: %s", trimmed)
}

var timePatterns = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
}

// Time parses a time of day, including 12-hour clock with AM/PM.
func Time(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	for _, pattern := range timePatterns {
		if parsed, err := time.Parse(pattern, strings.ToUpper(trimmed)); err == nil {
			return success(parsed.Format("15:04:05"))
		}
	}
	return failure("could not parse time: %s", trimmed)
}

var booleanTrue = map[string]bool{
	"true": true, "yes": true, "1": true, "y": true,
	"on": true, "enabled": true, "active": true,
}

var booleanFalse = map[string]bool{
	"false": true, "no": true, "0": true, "n": true,
	"off": true, "disabled": true, "inactive": true,
}

// Boolean parses enumerated true/false tokens, falling back to numeric
// truthiness. Empty input succeeds as false.
func Boolean(value string) Result {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return success(false)
	}
	if booleanTrue[trimmed] {
		return success(true)
	}
	if booleanFalse[trimmed] {
		return success(false)
	}
	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return success(num != 0)
	}
	return failure("could not parse boolean: %s", trimmed)
}

// Integer strips thousands separators and spaces, then parses through float
// so values like "1,234.0" truncate to 1234.
func Integer(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	cleaned := strings.NewReplacer(",", "", " ", "").Replace(trimmed)
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return failure("could not parse integer: %s", cleaned)
	}
	return success(int64(num))
}

var currencySymbols = []string{
	"€", "$", "£", "¥", "₹", "₽", "₦", "₨", "₩", "₪", "₫", "₭",
	"₮", "₯", "₰", "₱", "₲", "₳", "₴", "₵", "₶", "₷", "₸",
	"₺", "₻", "₼", "₾", "₿",
}

// Decimal strips currency symbols and thousands separators before an
// arbitrary-precision parse.
func Decimal(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	cleaned := trimmed
	for _, symbol := range currencySymbols {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.NewReplacer(",", "", " ", "").Replace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return failure("could not parse decimal: %s", cleaned)
	}
	return success(d)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates the address shape and lowercases it.
func Email(value string) Result {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return failure("empty value")
	}
	if !emailPattern.MatchString(trimmed) {
		return failure("invalid email format: %s", trimmed)
	}
	return success(trimmed)
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// Phone strips formatting and attempts region-aware parsing to E.164.
// Never hard-fails on non-empty input: invalid numbers succeed with the
// cleaned digits plus a warning.
func Phone(value, region string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}
	if region == "" {
		region = "IE"
	}

	cleaned := nonPhoneChars.ReplaceAllString(trimmed, "")

	parsed, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return Result{
			Success:  true,
			Value:    cleaned,
			Warnings: []string{"could not fully validate phone number"},
		}
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return Result{
			Success:  true,
			Value:    cleaned,
			Warnings: []string{"phone number may be invalid"},
		}
	}
	return success(phonenumbers.Format(parsed, phonenumbers.E164))
}

// String trims the value; the optional max length is enforced as failure.
func String(value string, maxLength int) Result {
	trimmed := strings.TrimSpace(value)
	if maxLength > 0 && len(trimmed) > maxLength {
		return failure("string too long: %d > %d", len(trimmed), maxLength)
	}
	return success(trimmed)
}

// NameSplit splits a full name on whitespace: the first token is the first
// name, the remainder joined is the last name.
func NameSplit(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return failure("empty value")
	}

	parts := strings.Fields(trimmed)
	switch len(parts) {
	case 0:
		return failure("no name parts found")
	case 1:
		return success(NameParts{FirstName: parts[0]})
	default:
		return success(NameParts{
			FirstName: parts[0],
			LastName:  strings.Join(parts[1:], " "),
		})
	}
}

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
