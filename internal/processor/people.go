package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type peopleProcessor struct {
	deps Deps
}

func (p *peopleProcessor) RequiresOrgUnit() bool { return true }

func (p *peopleProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)
	var errors []models.ValidationError
	var warnings []string

	firstName := mapped["first_name"]
	lastName := mapped["last_name"]
	gender := mapped["gender"]

	if firstName == "" {
		errors = append(errors, verr(in.RowNumber, "first_name", types.ErrorRequired, "First name is required", ""))
	}
	if lastName == "" {
		errors = append(errors, verr(in.RowNumber, "last_name", types.ErrorRequired, "Last name is required", ""))
	}
	if gender == "" {
		errors = append(errors, verr(in.RowNumber, "gender", types.ErrorRequired, "Gender is required", ""))
	}
	if len(errors) > 0 {
		return failed(errors...)
	}

	if result := coerce.Enum(gender, coerce.EnumGender); result.Success {
		gender = result.Value.(string)
	} else {
		errors = append(errors, verr(in.RowNumber, "gender", types.ErrorCoercion, result.Error, gender))
	}

	email := mapped["email"]
	if email != "" {
		if result := coerce.Email(email); result.Success {
			email = result.Value.(string)
		} else {
			errors = append(errors, verr(in.RowNumber, "email", types.ErrorCoercion, result.Error, email))
		}
	}

	phone := mapped["phone"]
	if phone != "" {
		if result := coerce.Phone(phone, p.deps.PhoneRegion); result.Success {
			phone = result.Value.(string)
			warnings = append(warnings, result.Warnings...)
		}
	}

	var dob *time.Time
	if raw := mapped["dob"]; raw != "" {
		if result := coerce.Date(raw); result.Success {
			d := result.Value.(time.Time)
			dob = &d
		} else {
			errors = append(errors, verr(in.RowNumber, "dob", types.ErrorCoercion, result.Error, raw))
		}
	}

	maritalStatus := ""
	if raw := mapped["marital_status"]; raw != "" {
		if result := coerce.Enum(raw, coerce.EnumMaritalStatus); result.Success {
			maritalStatus = result.Value.(string)
		}
	}

	orgUnitID, orgErr := resolveOrgUnit(in, mapped, true)
	if orgErr != nil {
		errors = append(errors, *orgErr)
	}
	if len(errors) > 0 {
		return failed(errors...)
	}

	// Locate the existing person before uniqueness checks so updates do
	// not collide with their own record.
	var existing *models.Person
	if in.Mode == types.ModeUpdateExisting {
		var err error
		existing, err = p.findExisting(ctx, in.TenantID, email, mapped["member_code"])
		if err != nil {
			return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
				fmt.Sprintf("Failed to look up person: %v", err), ""))
		}
	}

	var excludeID *uuid.UUID
	if existing != nil {
		excludeID = &existing.ID
	}
	if refErrs := p.validateReferences(ctx, in, mapped, email, excludeID); len(refErrs) > 0 {
		return failed(append(errors, refErrs...)...)
	}

	if existing != nil {
		p.applyUpdate(existing, mapped, firstName, lastName, gender, email, phone, maritalStatus, dob, in.UserID)
		if err := p.deps.Store.UpdatePerson(ctx, existing); err != nil {
			return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
				fmt.Sprintf("Failed to update person: %v", err), ""))
		}
		return Result{Success: true, EntityID: existing.ID, Warnings: warnings}
	}

	person := &models.Person{
		TenantID:      in.TenantID,
		OrgUnitID:     *orgUnitID,
		FirstName:     firstName,
		LastName:      lastName,
		Gender:        gender,
		Title:         mapped["title"],
		Alias:         mapped["alias"],
		Email:         strings.ToLower(email),
		Phone:         phone,
		DOB:           dob,
		MemberCode:    mapped["member_code"],
		AddressLine1:  mapped["address_line1"],
		AddressLine2:  mapped["address_line2"],
		Town:          mapped["town"],
		County:        mapped["county"],
		Eircode:       mapped["eircode"],
		MaritalStatus: maritalStatus,
		CreatedBy:     in.UserID,
		UpdatedBy:     in.UserID,
	}
	if err := p.deps.Store.CreatePerson(ctx, person); err != nil {
		return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
			fmt.Sprintf("Failed to create person: %v", err), ""))
	}
	return Result{Success: true, EntityID: person.ID, Warnings: warnings}
}

func (p *peopleProcessor) findExisting(ctx context.Context, tenantID uuid.UUID, email, memberCode string) (*models.Person, error) {
	if email != "" {
		person, err := p.deps.Store.FindPersonByEmail(ctx, tenantID, strings.ToLower(email))
		if err != nil || person != nil {
			return person, err
		}
	}
	if memberCode != "" {
		return p.deps.Store.FindPersonByMemberCode(ctx, tenantID, memberCode)
	}
	return nil, nil
}

func (p *peopleProcessor) validateReferences(ctx context.Context, in Input, mapped map[string]string, email string, excludeID *uuid.UUID) []models.ValidationError {
	var errors []models.ValidationError

	if raw := mapped["org_unit_id"]; raw != "" {
		msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefOrgUnit, "org_unit_id", raw)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			errors = append(errors, verr(in.RowNumber, "org_unit_id", types.ErrorReference, msg, raw))
		}
	}

	uniqueChecks := []struct {
		field string
		value string
	}{
		{"email", email},
		{"member_code", mapped["member_code"]},
	}
	for _, check := range uniqueChecks {
		msg, err := validate.Unique(ctx, p.deps.Checker, in.TenantID, check.field, check.value, excludeID)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			errors = append(errors, verr(in.RowNumber, check.field, types.ErrorConstraint, msg, check.value))
		}
	}
	return errors
}

func (p *peopleProcessor) applyUpdate(person *models.Person, mapped map[string]string, firstName, lastName, gender, email, phone, maritalStatus string, dob *time.Time, userID uuid.UUID) {
	person.FirstName = firstName
	person.LastName = lastName
	person.Gender = gender
	if email != "" {
		person.Email = strings.ToLower(email)
	}
	if phone != "" {
		person.Phone = phone
	}
	if dob != nil {
		person.DOB = dob
	}
	if maritalStatus != "" {
		person.MaritalStatus = maritalStatus
	}

	optional := []struct {
		field string
		dst   *string
	}{
		{"title", &person.Title},
		{"alias", &person.Alias},
		{"address_line1", &person.AddressLine1},
		{"address_line2", &person.AddressLine2},
		{"town", &person.Town},
		{"county", &person.County},
		{"eircode", &person.Eircode},
	}
	for _, f := range optional {
		if v, ok := mapped[f.field]; ok {
			*f.dst = v
		}
	}
	person.UpdatedBy = userID
}
