package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type cellProcessor struct {
	deps Deps
}

func (p *cellProcessor) RequiresOrgUnit() bool { return true }

func (p *cellProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)
	var errors []models.ValidationError

	name := mapped["name"]
	if name == "" {
		errors = append(errors, verr(in.RowNumber, "name", types.ErrorRequired, "name is required", ""))
	}

	orgUnitID, orgErr := resolveOrgUnit(in, mapped, true)
	if orgErr != nil {
		errors = append(errors, *orgErr)
	}
	if len(errors) > 0 {
		return failed(errors...)
	}

	// The lead leader reference must resolve; the assistant is best-effort.
	var leaderID *uuid.UUID
	if raw := mapped["leader_id"]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return failed(verr(in.RowNumber, "leader_id", types.ErrorReference, "Invalid leader_id format", raw))
		}
		msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefPerson, "leader_id", raw)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			return failed(verr(in.RowNumber, "leader_id", types.ErrorReference, "Leader not found", raw))
		}
		leaderID = &id
	}

	var assistantID *uuid.UUID
	if raw := mapped["assistant_leader_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			if msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefPerson, "assistant_leader_id", raw); err == nil && msg == "" {
				assistantID = &id
			}
		}
	}

	meetingDay := ""
	if raw := mapped["meeting_day"]; raw != "" {
		if result := coerce.Enum(raw, coerce.EnumMeetingDay); result.Success {
			meetingDay = result.Value.(string)
		}
	}

	meetingTime := ""
	if raw := mapped["meeting_time"]; raw != "" {
		if result := coerce.Time(raw); result.Success {
			meetingTime = result.Value.(string)
		}
	}

	cell := &models.Cell{
		TenantID:          in.TenantID,
		OrgUnitID:         *orgUnitID,
		Name:              name,
		LeaderID:          leaderID,
		AssistantLeaderID: assistantID,
		Venue:             mapped["venue"],
		MeetingDay:        meetingDay,
		MeetingTime:       meetingTime,
		Status:            orDefault(mapped, "status", "active"),
		CreatedBy:         in.UserID,
	}
	if err := p.deps.Store.CreateCell(ctx, cell); err != nil {
		return failed(verr(in.RowNumber, "", types.ErrorBusiness, err.Error(), ""))
	}
	return Result{Success: true, EntityID: cell.ID}
}
