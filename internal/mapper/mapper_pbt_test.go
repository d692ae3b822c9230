package mapper

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bulk-importer/internal/types"
)

func TestAutoMapColumnsProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	columnsGen := gen.SliceOf(gen.RegexMatch(`[a-z_ ]{1,20}`))

	properties.Property("no target field is assigned twice", prop.ForAll(
		func(columns []string) bool {
			for _, entity := range types.EntityTypes() {
				seen := make(map[string]bool)
				for _, m := range AutoMapColumns(columns, entity) {
					if seen[m.TargetField] {
						return false
					}
					seen[m.TargetField] = true
				}
			}
			return true
		},
		columnsGen,
	))

	properties.Property("mapping is deterministic", prop.ForAll(
		func(columns []string) bool {
			first := AutoMapColumns(columns, types.EntityPeople)
			second := AutoMapColumns(columns, types.EntityPeople)
			if len(first) != len(second) {
				return false
			}
			for source, m := range first {
				if second[source] != m {
					return false
				}
			}
			return true
		},
		columnsGen,
	))

	properties.Property("every mapped target is a declared field", prop.ForAll(
		func(columns []string) bool {
			for _, m := range AutoMapColumns(columns, types.EntityPeople) {
				if _, ok := FieldFor(types.EntityPeople, m.TargetField); !ok {
					return false
				}
			}
			return true
		},
		columnsGen,
	))

	properties.TestingRun(t)
}
