// Package validate implements the layered row validation rules: required
// fields, value formats, tenant-scoped reference checks, uniqueness, and
// per-entity business rules. Pure checks return a message string where an
// empty string means valid; infrastructure failures surface as Go errors.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// ReferenceChecker answers tenant-scoped existence and uniqueness questions
// against the reference data store.
type ReferenceChecker interface {
	OrgUnitExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	ServiceExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	CellExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	FundExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	PartnershipArmExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	PersonExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	// BatchStatus reports existence plus the batch status string.
	BatchStatus(ctx context.Context, tenantID, id uuid.UUID) (exists bool, status string, err error)
	// EmailTaken and MemberCodeTaken check tenant-wide uniqueness,
	// optionally excluding one person for update flows.
	EmailTaken(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	MemberCodeTaken(ctx context.Context, tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)
}

// Required reports a message when a required value is missing or blank.
func Required(value string, fieldName string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("Required field '%s' is missing or empty", fieldName)
	}
	return ""
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailFormat validates address shape; empty values pass since the field is
// optional at this layer.
func EmailFormat(value string) string {
	if value == "" {
		return ""
	}
	if !emailPattern.MatchString(value) {
		return fmt.Sprintf("Invalid email format: %s", value)
	}
	return ""
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// PhoneFormat requires at least seven digits after stripping formatting.
func PhoneFormat(value string) string {
	if value == "" {
		return ""
	}
	if len(nonPhoneChars.ReplaceAllString(value, "")) < 7 {
		return fmt.Sprintf("Phone number too short: %s", value)
	}
	return ""
}

// StringLength enforces a maximum byte length.
func StringLength(value string, maxLength int) string {
	if value != "" && len(value) > maxLength {
		return fmt.Sprintf("String too long: %d > %d", len(value), maxLength)
	}
	return ""
}

// DateRange checks a date against optional inclusive bounds. Zero bounds are
// unbounded.
func DateRange(value time.Time, minDate, maxDate time.Time) string {
	if value.IsZero() {
		return ""
	}
	if !minDate.IsZero() && value.Before(minDate) {
		return fmt.Sprintf("Date %s is before minimum date %s",
			value.Format("2006-01-02"), minDate.Format("2006-01-02"))
	}
	if !maxDate.IsZero() && value.After(maxDate) {
		return fmt.Sprintf("Date %s is after maximum date %s",
			value.Format("2006-01-02"), maxDate.Format("2006-01-02"))
	}
	return ""
}

func refLabel(kind mapper.RefKind) string {
	switch kind {
	case mapper.RefOrgUnit:
		return "Org unit"
	case mapper.RefService:
		return "Service"
	case mapper.RefCell:
		return "Cell"
	case mapper.RefFund:
		return "Fund"
	case mapper.RefBatch:
		return "Batch"
	case mapper.RefPartnershipArm:
		return "Partnership arm"
	case mapper.RefPerson:
		return "Person"
	}
	return "Reference"
}

// Reference validates that the raw id parses as a UUID and exists for the
// tenant. Batches additionally fail when locked. The returned message is
// empty when the reference is usable; a non-nil error means the lookup
// itself failed.
func Reference(ctx context.Context, checker ReferenceChecker, tenantID uuid.UUID, kind mapper.RefKind, fieldName, rawID string) (string, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Sprintf("Invalid %s format: %s", fieldName, rawID), nil
	}

	var exists bool
	switch kind {
	case mapper.RefOrgUnit:
		exists, err = checker.OrgUnitExists(ctx, tenantID, id)
	case mapper.RefService:
		exists, err = checker.ServiceExists(ctx, tenantID, id)
	case mapper.RefCell:
		exists, err = checker.CellExists(ctx, tenantID, id)
	case mapper.RefFund:
		exists, err = checker.FundExists(ctx, tenantID, id)
	case mapper.RefPerson:
		exists, err = checker.PersonExists(ctx, tenantID, id)
	case mapper.RefPartnershipArm:
		exists, err = checker.PartnershipArmExists(ctx, tenantID, id)
	case mapper.RefBatch:
		var status string
		exists, status, err = checker.BatchStatus(ctx, tenantID, id)
		if err != nil {
			return "", fmt.Errorf("check batch reference: %w", err)
		}
		if !exists {
			return fmt.Sprintf("Batch %s not found", rawID), nil
		}
		if status == "locked" {
			return fmt.Sprintf("Batch %s is locked", rawID), nil
		}
		return "", nil
	default:
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("check %s reference: %w", kind, err)
	}
	if !exists {
		return fmt.Sprintf("%s %s not found", refLabel(kind), rawID), nil
	}
	return "", nil
}

// Unique checks tenant-wide uniqueness for fields that declare it. Only
// people email and member_code carry uniqueness today; empty values pass.
func Unique(ctx context.Context, checker ReferenceChecker, tenantID uuid.UUID, fieldName, value string, excludeID *uuid.UUID) (string, error) {
	if value == "" {
		return "", nil
	}

	switch fieldName {
	case "email":
		taken, err := checker.EmailTaken(ctx, tenantID, strings.ToLower(value), excludeID)
		if err != nil {
			return "", fmt.Errorf("check email uniqueness: %w", err)
		}
		if taken {
			return fmt.Sprintf("Email %s already exists", value), nil
		}
	case "member_code":
		taken, err := checker.MemberCodeTaken(ctx, tenantID, value, excludeID)
		if err != nil {
			return "", fmt.Errorf("check member_code uniqueness: %w", err)
		}
		if taken {
			return fmt.Sprintf("Member code %s already exists", value), nil
		}
	}
	return "", nil
}

// BusinessRules applies per-entity domain rules to a coerced row. Rules only
// fire when the field coerced to the expected type.
func BusinessRules(entity types.EntityType, rowNumber int, row map[string]interface{}) []models.ValidationError {
	var errors []models.ValidationError

	if entity != types.EntityPeople {
		return errors
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	futureChecks := []struct {
		field   string
		message string
	}{
		{"join_date", "Join date cannot be in the future"},
		{"dob", "Date of birth cannot be in the future"},
	}

	for _, check := range futureChecks {
		value, ok := row[check.field].(time.Time)
		if !ok || value.IsZero() {
			continue
		}
		if value.After(today) {
			errors = append(errors, models.ValidationError{
				RowNumber:     rowNumber,
				Field:         check.field,
				ErrorType:     types.ErrorBusiness,
				Message:       check.message,
				OriginalValue: value.Format("2006-01-02"),
			})
		}
	}
	return errors
}
