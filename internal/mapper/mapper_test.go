package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulk-importer/internal/types"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"First_Name", "first name"},
		{"first-name", "first name"},
		{"  Email Address  ", "email address"},
		{"phone.number", "phone number"},
		{"DOB", "dob"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeColumnName(tt.input), "input %q", tt.input)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("First_Name", "first name"))
	assert.Equal(t, 100, Similarity("email", "EMAIL"))
	assert.Equal(t, 0, Similarity("xyz", "attendance_count"))
	assert.Greater(t, Similarity("emial", "email"), 50)
}

func TestAutoMapColumnsPeople(t *testing.T) {
	columns := []string{"First Name", "Last Name", "Email Address", "Phone Number", "Gender", "Date of Birth"}

	mappings := AutoMapColumns(columns, types.EntityPeople)

	require.Len(t, mappings, 6)
	assert.Equal(t, "first_name", mappings["First Name"].TargetField)
	assert.Equal(t, "last_name", mappings["Last Name"].TargetField)
	assert.Equal(t, "email", mappings["Email Address"].TargetField)
	assert.Equal(t, "phone", mappings["Phone Number"].TargetField)
	assert.Equal(t, "gender", mappings["Gender"].TargetField)
	assert.Equal(t, "dob", mappings["Date of Birth"].TargetField)

	assert.True(t, mappings["First Name"].Required)
	assert.False(t, mappings["Email Address"].Required)
	assert.Equal(t, "email", mappings["Email Address"].CoercionType)
	assert.Equal(t, "enum", mappings["Gender"].CoercionType)
}

func TestAutoMapColumnsNoDuplicateTargets(t *testing.T) {
	// Both headers resemble "name" variations; only one may claim a target.
	columns := []string{"surname", "family name", "last name"}

	mappings := AutoMapColumns(columns, types.EntityPeople)

	seen := make(map[string]string)
	for source, m := range mappings {
		prev, dup := seen[m.TargetField]
		require.Falsef(t, dup, "target %s claimed by %s and %s", m.TargetField, prev, source)
		seen[m.TargetField] = source
	}
}

func TestAutoMapColumnsDeterministic(t *testing.T) {
	columns := []string{"Fund", "Amount", "Date", "Org Unit", "Batch", "Service", "Giver Name"}

	first := AutoMapColumns(columns, types.EntityFinanceEntries)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AutoMapColumns(columns, types.EntityFinanceEntries))
	}
}

func TestAutoMapColumnsSecondPass(t *testing.T) {
	// "member" scores 66 against "member id", below the first-pass
	// threshold but above the second-pass one.
	mappings := AutoMapColumns([]string{"member"}, types.EntityPeople)

	require.Contains(t, mappings, "member")
	assert.Equal(t, "member_code", mappings["member"].TargetField)
}

func TestAutoMapColumnsUnknownEntity(t *testing.T) {
	mappings := AutoMapColumns([]string{"anything"}, types.EntityType("bogus"))
	assert.Empty(t, mappings)
}

func TestAutoMapColumnsIgnoresUnrelated(t *testing.T) {
	mappings := AutoMapColumns([]string{"zzzz_qqqq_xxxx"}, types.EntityPeople)
	assert.Empty(t, mappings)
}

func TestSuggestMappings(t *testing.T) {
	suggestions := SuggestMappings([]string{"Email Address"}, types.EntityPeople)

	require.Contains(t, suggestions, "Email Address")
	s := suggestions["Email Address"]
	require.NotNil(t, s.BestMatch)
	assert.Equal(t, "email", s.BestMatch.TargetField)
	assert.Equal(t, 100, s.BestMatch.Score)
	assert.LessOrEqual(t, len(s.Candidates), 5)
}

func TestSuggestMappingsDoesNotConsumeTargets(t *testing.T) {
	suggestions := SuggestMappings([]string{"email", "e-mail"}, types.EntityPeople)

	require.NotNil(t, suggestions["email"].BestMatch)
	require.NotNil(t, suggestions["e-mail"].BestMatch)
	assert.Equal(t, "email", suggestions["email"].BestMatch.TargetField)
	assert.Equal(t, "email", suggestions["e-mail"].BestMatch.TargetField)
}

func TestUnmappedRequiredFields(t *testing.T) {
	mappings := AutoMapColumns([]string{"First Name", "Gender"}, types.EntityPeople)

	missing := UnmappedRequiredFields(mappings, types.EntityPeople)
	assert.Equal(t, []string{"last_name"}, missing)

	full := AutoMapColumns([]string{"First Name", "Last Name", "Gender"}, types.EntityPeople)
	assert.Empty(t, UnmappedRequiredFields(full, types.EntityPeople))
}

func TestFieldsForCoversAllEntities(t *testing.T) {
	for _, entity := range types.EntityTypes() {
		fields := FieldsFor(entity)
		require.NotEmptyf(t, fields, "no fields declared for %s", entity)

		names := make(map[string]bool)
		for _, f := range fields {
			assert.Falsef(t, names[f.Name], "duplicate field %s in %s", f.Name, entity)
			names[f.Name] = true
			assert.NotEmptyf(t, f.Variations, "field %s of %s has no variations", f.Name, entity)
		}
	}
}
