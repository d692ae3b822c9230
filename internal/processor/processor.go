// Package processor turns mapped, coerced rows into persisted domain
// entities. One processor per entity type; the registry is closed.
package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/parser"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

// Result is the outcome of processing one row.
type Result struct {
	Success  bool
	EntityID uuid.UUID
	Errors   []models.ValidationError
	Warnings []string
}

// Input carries everything a processor needs for one row.
type Input struct {
	Row       parser.Row
	RowNumber int
	Mapping   models.MappingConfig
	Mode      types.ImportMode
	TenantID  uuid.UUID
	UserID    uuid.UUID
	// OrgUnitID is the job-level default applied when the row does not
	// carry its own org unit.
	OrgUnitID *uuid.UUID
}

// Processor persists rows of one entity type.
type Processor interface {
	// RequiresOrgUnit reports whether the job needs a default org unit
	// when the mapping carries none.
	RequiresOrgUnit() bool
	Process(ctx context.Context, in Input) Result
}

// EntityStore persists import target entities. Implementations assign IDs
// on create.
type EntityStore interface {
	FindPersonByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Person, error)
	FindPersonByMemberCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Person, error)
	CreatePerson(ctx context.Context, p *models.Person) error
	UpdatePerson(ctx context.Context, p *models.Person) error
	UpsertMembership(ctx context.Context, m *models.Membership) error
	CreateFirstTimer(ctx context.Context, ft *models.FirstTimer) error
	CreateService(ctx context.Context, s *models.Service) error
	CreateAttendance(ctx context.Context, a *models.Attendance) error
	CreateCell(ctx context.Context, c *models.Cell) error
	CreateCellReport(ctx context.Context, r *models.CellReport) error
	CreateFinanceEntry(ctx context.Context, e *models.FinanceEntry) error
}

// Deps is the shared dependency set injected into every processor.
type Deps struct {
	Store       EntityStore
	Checker     validate.ReferenceChecker
	PhoneRegion string
}

// For returns the processor for an entity type.
func For(entity types.EntityType, deps Deps) (Processor, error) {
	switch entity {
	case types.EntityPeople:
		return &peopleProcessor{deps}, nil
	case types.EntityMemberships:
		return &membershipProcessor{deps}, nil
	case types.EntityFirstTimers:
		return &firstTimerProcessor{deps}, nil
	case types.EntityServices:
		return &serviceProcessor{deps}, nil
	case types.EntityAttendance:
		return &attendanceProcessor{deps}, nil
	case types.EntityCells:
		return &cellProcessor{deps}, nil
	case types.EntityCellReports:
		return &cellReportProcessor{deps}, nil
	case types.EntityFinanceEntries:
		return &financeEntryProcessor{deps}, nil
	}
	return nil, fmt.Errorf("no processor for entity type %q", entity)
}

// mapRow projects raw source values onto target field names via the mapping,
// applying per-column defaults for absent values.
func mapRow(row parser.Row, mapping models.MappingConfig) map[string]string {
	mapped := make(map[string]string, len(mapping))
	for sourceCol, m := range mapping {
		value, ok := row[sourceCol]
		if !ok || strings.TrimSpace(value) == "" {
			if m.DefaultValue != "" {
				mapped[m.TargetField] = m.DefaultValue
			}
			continue
		}
		mapped[m.TargetField] = strings.TrimSpace(value)
	}
	return mapped
}

func verr(rowNumber int, field string, kind types.ErrorKind, message, original string) models.ValidationError {
	return models.ValidationError{
		RowNumber:     rowNumber,
		Field:         field,
		ErrorType:     kind,
		Message:       message,
		OriginalValue: original,
	}
}

func failed(errors ...models.ValidationError) Result {
	return Result{Success: false, Errors: errors}
}

// resolveOrgUnit picks the row-level org unit when mapped, falling back to
// the job default. A required org unit that resolves to nothing is an error.
func resolveOrgUnit(in Input, mapped map[string]string, required bool) (*uuid.UUID, *models.ValidationError) {
	if raw, ok := mapped["org_unit_id"]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			e := verr(in.RowNumber, "org_unit_id", types.ErrorReference, "Invalid org_unit_id format", raw)
			return nil, &e
		}
		return &id, nil
	}
	if in.OrgUnitID != nil {
		return in.OrgUnitID, nil
	}
	if required {
		e := verr(in.RowNumber, "org_unit_id", types.ErrorRequired, "org_unit_id is required", "")
		return nil, &e
	}
	return nil, nil
}

// optionalUUID parses an optional id field, ignoring malformed values.
func optionalUUID(mapped map[string]string, field string) *uuid.UUID {
	raw, ok := mapped[field]
	if !ok || raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// orDefault returns the trimmed value, or fallback when blank.
func orDefault(mapped map[string]string, field, fallback string) string {
	if v := strings.TrimSpace(mapped[field]); v != "" {
		return v
	}
	return fallback
}
