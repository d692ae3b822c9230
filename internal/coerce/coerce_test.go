package coerce

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFormats(t *testing.T) {
	expected := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []string{
		"2024-03-15",
		"15/3/2024",
		"15-3-2024",
		"2024/3/15",
		"15.3.2024",
		"15 March 2024",
		"March 15, 2024",
	}

	for _, input := range tests {
		result := Date(input)
		require.Truef(t, result.Success, "input %q: %s", input, result.Error)
		assert.Equalf(t, expected, result.Value, "input %q", input)
	}
}

func TestDateDayFirstAmbiguity(t *testing.T) {
	// 05/03 reads as 5 March, not May 3.
	result := Date("05/03/2024")
	require.True(t, result.Success)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), result.Value)
}

func TestDateFailures(t *testing.T) {
	assert.False(t, Date("").Success)
	assert.False(t, Date("not a date").Success)
	assert.False(t, Date("2024-13-45").Success)
}

func TestDatetime(t *testing.T) {
	result := Datetime("2024-03-15 14:30:00")
	require.True(t, result.Success)
	parsed, ok := result.Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 14, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())

	assert.False(t, Datetime("").Success)
}

func TestTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"14:30:00", "14:30:00"},
		{"14:30", "14:30:00"},
		{"2:30 PM", "14:30:00"},
		{"2:30 pm", "14:30:00"},
		{"2:30:15 PM", "14:30:15"},
	}

	for _, tt := range tests {
		result := Time(tt.input)
		require.Truef(t, result.Success, "input %q: %s", tt.input, result.Error)
		assert.Equalf(t, tt.expected, result.Value, "input %q", tt.input)
	}

	assert.False(t, Time("").Success)
	assert.False(t, Time("25:99").Success)
}

func TestBoolean(t *testing.T) {
	trueInputs := []string{"true", "YES", "1", "y", "on", "Enabled", "active"}
	for _, input := range trueInputs {
		result := Boolean(input)
		require.Truef(t, result.Success, "input %q", input)
		assert.Equalf(t, true, result.Value, "input %q", input)
	}

	falseInputs := []string{"false", "No", "0", "n", "off", "disabled", "INACTIVE", ""}
	for _, input := range falseInputs {
		result := Boolean(input)
		require.Truef(t, result.Success, "input %q", input)
		assert.Equalf(t, false, result.Value, "input %q", input)
	}

	// Numeric truthiness fallback.
	assert.Equal(t, true, Boolean("2").Value)
	assert.Equal(t, false, Boolean("0.0").Value)

	assert.False(t, Boolean("maybe").Success)
}

func TestInteger(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"42", 42},
		{"1,234", 1234},
		{"1 000 000", 1000000},
		{"3.9", 3},
		{"-7", -7},
	}

	for _, tt := range tests {
		result := Integer(tt.input)
		require.Truef(t, result.Success, "input %q: %s", tt.input, result.Error)
		assert.Equalf(t, tt.expected, result.Value, "input %q", tt.input)
	}

	assert.False(t, Integer("").Success)
	assert.False(t, Integer("abc").Success)
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"100.50", "100.5"},
		{"€1,250.00", "1250"},
		{"$99.99", "99.99"},
		{"£ 10", "10"},
		{"₦5000", "5000"},
	}

	for _, tt := range tests {
		result := Decimal(tt.input)
		require.Truef(t, result.Success, "input %q: %s", tt.input, result.Error)
		d, ok := result.Value.(decimal.Decimal)
		require.Truef(t, ok, "input %q", tt.input)
		assert.Equalf(t, tt.expected, d.String(), "input %q", tt.input)
	}

	assert.False(t, Decimal("").Success)
	assert.False(t, Decimal("lots").Success)
}

func TestEmail(t *testing.T) {
	result := Email("  John.Doe@Example.COM ")
	require.True(t, result.Success)
	assert.Equal(t, "john.doe@example.com", result.Value)

	assert.False(t, Email("").Success)
	assert.False(t, Email("not-an-email").Success)
	assert.False(t, Email("missing@tld").Success)
}

func TestPhone(t *testing.T) {
	result := Phone("086 123 4567", "IE")
	require.True(t, result.Success)
	assert.Equal(t, "+353861234567", result.Value)
	assert.Empty(t, result.Warnings)

	// Already international.
	result = Phone("+353 86 123 4567", "IE")
	require.True(t, result.Success)
	assert.Equal(t, "+353861234567", result.Value)
}

func TestPhoneNeverHardFailsNonEmpty(t *testing.T) {
	result := Phone("12", "IE")
	require.True(t, result.Success)
	assert.Equal(t, "12", result.Value)
	assert.NotEmpty(t, result.Warnings)

	assert.False(t, Phone("", "IE").Success)
}

func TestEnum(t *testing.T) {
	tests := []struct {
		kind     EnumKind
		input    string
		expected string
	}{
		{EnumGender, "M", "male"},
		{EnumGender, "Female", "female"},
		{EnumMaritalStatus, "sep", "separated"},
		{EnumMaritalStatus, "m", "married"},
		{EnumMembershipStatus, "Partner", "partner"},
		{EnumFirstTimerStatus, "contacted", "Contacted"},
		{EnumFirstTimerStatus, "NEW", "New"},
		{EnumMeetingDay, "wed", "Wednesday"},
		{EnumMeetingDay, "Sunday", "Sunday"},
	}

	for _, tt := range tests {
		result := Enum(tt.input, tt.kind)
		require.Truef(t, result.Success, "kind %s input %q: %s", tt.kind, tt.input, result.Error)
		assert.Equalf(t, tt.expected, result.Value, "kind %s input %q", tt.kind, tt.input)
	}
}

func TestEnumFailures(t *testing.T) {
	result := Enum("purple", EnumGender)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "male, female, other")

	assert.False(t, Enum("", EnumGender).Success)
	assert.False(t, Enum("male", EnumKind("bogus")).Success)
}

func TestClosestEnumValue(t *testing.T) {
	assert.Equal(t, "male", ClosestEnumValue("mail", EnumGender))
	assert.Equal(t, "Wednesday", ClosestEnumValue("wednsday", EnumMeetingDay))
	assert.Empty(t, ClosestEnumValue("x", EnumKind("bogus")))
}

func TestString(t *testing.T) {
	result := String("  hello  ", 0)
	require.True(t, result.Success)
	assert.Equal(t, "hello", result.Value)

	assert.True(t, String("abc", 3).Success)
	assert.False(t, String("abcd", 3).Success)
}

func TestNameSplit(t *testing.T) {
	result := NameSplit("John Fitzgerald Doe")
	require.True(t, result.Success)
	assert.Equal(t, NameParts{FirstName: "John", LastName: "Fitzgerald Doe"}, result.Value)

	result = NameSplit("Cher")
	require.True(t, result.Success)
	assert.Equal(t, NameParts{FirstName: "Cher"}, result.Value)

	assert.False(t, NameSplit("").Success)
	assert.False(t, NameSplit("   ").Success)
}

func TestCoerceDispatch(t *testing.T) {
	assert.True(t, Coerce("2024-01-01", TypeDate, Hints{}).Success)
	assert.True(t, Coerce("true", TypeBoolean, Hints{}).Success)
	assert.True(t, Coerce("m", TypeEnum, Hints{EnumKind: EnumGender}).Success)
	assert.False(t, Coerce("m", TypeEnum, Hints{}).Success)

	// Unknown types fall back to string coercion.
	result := Coerce("  raw  ", Type("mystery"), Hints{})
	require.True(t, result.Success)
	assert.Equal(t, "raw", result.Value)
}
