package coerce

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// EnumKind names a closed enumerated value set with its alias table.
type EnumKind string

const (
	EnumGender           EnumKind = "gender"
	EnumMaritalStatus    EnumKind = "marital_status"
	EnumMembershipStatus EnumKind = "membership_status"
	EnumFirstTimerStatus EnumKind = "first_timer_status"
	EnumMeetingDay       EnumKind = "meeting_day"
)

type enumSpec struct {
	aliases map[string]string
	values  []string
}

// specFor returns the alias table and canonical value list for a kind.
// Keys of aliases are lowercase; values carry the canonical casing.
func specFor(kind EnumKind) (enumSpec, bool) {
	switch kind {
	case EnumGender:
		return enumSpec{
			aliases: map[string]string{
				"m": "male", "male": "male",
				"f": "female", "female": "female",
				"o": "other", "other": "other",
			},
			values: []string{"male", "female", "other"},
		}, true
	case EnumMaritalStatus:
		return enumSpec{
			aliases: map[string]string{
				"s": "single", "single": "single",
				"m": "married", "married": "married",
				"d": "divorced", "divorced": "divorced",
				"w": "widowed", "widowed": "widowed",
				"sep": "separated", "separated": "separated",
			},
			values: []string{"single", "married", "divorced", "widowed", "separated"},
		}, true
	case EnumMembershipStatus:
		return enumSpec{
			aliases: map[string]string{
				"visitor": "visitor", "regular": "regular",
				"member": "member", "partner": "partner",
			},
			values: []string{"visitor", "regular", "member", "partner"},
		}, true
	case EnumFirstTimerStatus:
		return enumSpec{
			aliases: map[string]string{
				"new": "New", "contacted": "Contacted",
				"returned": "Returned", "member": "Member",
			},
			values: []string{"New", "Contacted", "Returned", "Member"},
		}, true
	case EnumMeetingDay:
		return enumSpec{
			aliases: map[string]string{
				"monday": "Monday", "mon": "Monday",
				"tuesday": "Tuesday", "tue": "Tuesday",
				"wednesday": "Wednesday", "wed": "Wednesday",
				"thursday": "Thursday", "thu": "Thursday",
				"friday": "Friday", "fri": "Friday",
				"saturday": "Saturday", "sat": "Saturday",
				"sunday": "Sunday", "sun": "Sunday",
			},
			values: []string{
				"Monday", "Tuesday", "Wednesday", "Thursday",
				"Friday", "Saturday", "Sunday",
			},
		}, true
	}
	return enumSpec{}, false
}

// Enum maps a raw token through the kind's alias table, then tries a
// case-insensitive match against the canonical values. Failures report the
// valid value set so error reports can suggest a correction.
func Enum(value string, kind EnumKind) Result {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return failure("empty value")
	}

	spec, ok := specFor(kind)
	if !ok {
		return failure("unknown enum kind: %s", kind)
	}

	if canonical, ok := spec.aliases[trimmed]; ok {
		return success(canonical)
	}
	for _, v := range spec.values {
		if strings.ToLower(v) == trimmed {
			return success(v)
		}
	}
	return failure("invalid value: %s, valid values: %s", trimmed, strings.Join(spec.values, ", "))
}

// EnumValues returns the canonical value list for suggestions; nil for an
// unknown kind.
func EnumValues(kind EnumKind) []string {
	spec, ok := specFor(kind)
	if !ok {
		return nil
	}
	out := make([]string, len(spec.values))
	copy(out, spec.values)
	return out
}

// ClosestEnumValue returns the canonical value with the smallest edit
// distance to the input, for error report suggestions.
func ClosestEnumValue(value string, kind EnumKind) string {
	values := EnumValues(kind)
	if len(values) == 0 {
		return ""
	}
	lowered := strings.ToLower(strings.TrimSpace(value))
	sort.SliceStable(values, func(i, j int) bool {
		return levenshtein.ComputeDistance(lowered, strings.ToLower(values[i])) <
			levenshtein.ComputeDistance(lowered, strings.ToLower(values[j]))
	})
	return values[0]
}
