// Package mapper auto-maps source file columns onto declared entity fields
// using fuzzy header matching.
package mapper

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// Thresholds for the two-pass greedy matcher. The first pass claims
// high-confidence matches so they cannot be stolen by weaker candidates.
const (
	highConfidence = 70
	lowConfidence  = 50
)

// NormalizeColumnName lowercases and collapses underscore, hyphen, and dot
// separators to spaces so "First_Name", "first-name", and "first name"
// compare equal.
func NormalizeColumnName(name string) string {
	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	return replacer.Replace(strings.TrimSpace(strings.ToLower(name)))
}

// Similarity scores two column names 0..100 after normalization. 100 means
// identical.
func Similarity(source, target string) int {
	a := NormalizeColumnName(source)
	b := NormalizeColumnName(target)
	if a == b {
		return 100
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	if dist >= longest {
		return 0
	}
	return (longest - dist) * 100 / longest
}

// AutoMapColumns maps source columns to target fields in two greedy passes:
// first at the high-confidence threshold, then at the low one for columns
// still unmapped. Each target field is claimed at most once. Iteration
// follows input column order and registry declaration order, so the result
// is deterministic for a given input.
func AutoMapColumns(sourceColumns []string, entity types.EntityType) models.MappingConfig {
	fields := FieldsFor(entity)
	if fields == nil {
		return models.MappingConfig{}
	}

	mappings := make(models.MappingConfig)
	usedTargets := make(map[string]bool)

	assign := func(threshold int) {
		for _, sourceCol := range sourceColumns {
			if _, mapped := mappings[sourceCol]; mapped {
				continue
			}

			bestScore := 0
			var bestField *TargetField
			for i := range fields {
				field := &fields[i]
				if usedTargets[field.Name] {
					continue
				}
				for _, variation := range field.Variations {
					// Strictly greater keeps the earliest declared
					// field on ties.
					if score := Similarity(sourceCol, variation); score > bestScore {
						bestScore = score
						bestField = field
					}
				}
			}

			if bestScore >= threshold && bestField != nil {
				mappings[sourceCol] = models.ColumnMapping{
					SourceColumn: sourceCol,
					TargetField:  bestField.Name,
					CoercionType: string(bestField.Coercion),
					Required:     bestField.Required,
				}
				usedTargets[bestField.Name] = true
			}
		}
	}

	assign(highConfidence)
	assign(lowConfidence)
	return mappings
}

// Candidate is one scored target field option for a source column.
type Candidate struct {
	TargetField string `json:"target_field"`
	Score       int    `json:"score"`
	Required    bool   `json:"required"`
}

// Suggestion holds the ranked candidates for one source column.
type Suggestion struct {
	SourceColumn string      `json:"source_column"`
	BestMatch    *Candidate  `json:"best_match"`
	Candidates   []Candidate `json:"candidates"`
}

// SuggestMappings scores every source column against every target field and
// returns up to the top five candidates per column. Unlike AutoMapColumns it
// does not consume targets, so the same field may rank for several columns.
func SuggestMappings(sourceColumns []string, entity types.EntityType) map[string]Suggestion {
	fields := FieldsFor(entity)
	if fields == nil {
		return map[string]Suggestion{}
	}

	suggestions := make(map[string]Suggestion, len(sourceColumns))
	for _, sourceCol := range sourceColumns {
		var candidates []Candidate
		for _, field := range fields {
			maxScore := 0
			for _, variation := range field.Variations {
				if score := Similarity(sourceCol, variation); score > maxScore {
					maxScore = score
				}
			}
			if maxScore > 0 {
				candidates = append(candidates, Candidate{
					TargetField: field.Name,
					Score:       maxScore,
					Required:    field.Required,
				})
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
		if len(candidates) > 5 {
			candidates = candidates[:5]
		}

		s := Suggestion{SourceColumn: sourceCol, Candidates: candidates}
		if len(candidates) > 0 {
			s.BestMatch = &candidates[0]
		}
		suggestions[sourceCol] = s
	}
	return suggestions
}

// UnmappedRequiredFields lists required fields of the entity that no source
// column maps onto. Used to block validation on incomplete mappings.
func UnmappedRequiredFields(mapping models.MappingConfig, entity types.EntityType) []string {
	mapped := make(map[string]bool, len(mapping))
	for _, m := range mapping {
		mapped[m.TargetField] = true
	}

	var missing []string
	for _, field := range FieldsFor(entity) {
		if field.Required && !mapped[field.Name] {
			missing = append(missing, field.Name)
		}
	}
	return missing
}
