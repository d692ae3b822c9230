package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type firstTimerProcessor struct {
	deps Deps
}

func (p *firstTimerProcessor) RequiresOrgUnit() bool { return false }

func (p *firstTimerProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)

	rawServiceID := mapped["service_id"]
	if rawServiceID == "" {
		return failed(verr(in.RowNumber, "service_id", types.ErrorRequired, "service_id is required", ""))
	}
	serviceID, err := uuid.Parse(rawServiceID)
	if err != nil {
		return failed(verr(in.RowNumber, "service_id", types.ErrorReference, "Invalid service_id format", rawServiceID))
	}

	msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefService, "service_id", rawServiceID)
	if err != nil {
		msg = err.Error()
	}
	if msg != "" {
		return failed(verr(in.RowNumber, "service_id", types.ErrorReference, msg, rawServiceID))
	}

	status := "New"
	if raw := mapped["status"]; raw != "" {
		if result := coerce.Enum(raw, coerce.EnumFirstTimerStatus); result.Success {
			status = result.Value.(string)
		}
	}

	// Link to an existing person when the mapping carries a lookup key.
	var personID *uuid.UUID
	if email := mapped["email"]; email != "" {
		person, err := p.deps.Store.FindPersonByEmail(ctx, in.TenantID, strings.ToLower(email))
		if err == nil && person != nil {
			personID = &person.ID
		}
	} else if code := mapped["member_code"]; code != "" {
		person, err := p.deps.Store.FindPersonByMemberCode(ctx, in.TenantID, code)
		if err == nil && person != nil {
			personID = &person.ID
		}
	}

	firstTimer := &models.FirstTimer{
		TenantID:  in.TenantID,
		ServiceID: serviceID,
		PersonID:  personID,
		Status:    status,
		Source:    mapped["source"],
		Notes:     mapped["notes"],
		CreatedBy: in.UserID,
	}
	if err := p.deps.Store.CreateFirstTimer(ctx, firstTimer); err != nil {
		return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
			fmt.Sprintf("Failed to create first timer: %v", err), ""))
	}
	return Result{Success: true, EntityID: firstTimer.ID}
}
