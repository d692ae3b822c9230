package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type attendanceProcessor struct {
	deps Deps
}

func (p *attendanceProcessor) RequiresOrgUnit() bool { return false }

func (p *attendanceProcessor) Process(ctx context.Context, in Input) Result {
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

	var total *int64
	if raw := mapped["attendance_count"]; raw != "" {
		if result := coerce.Integer(raw); result.Success {
			n := result.Value.(int64)
			total = &n
		}
	}

	attendance := &models.Attendance{
		TenantID:        in.TenantID,
		ServiceID:       serviceID,
		TotalAttendance: total,
		Notes:           mapped["notes"],
		CreatedBy:       in.UserID,
	}
	if err := p.deps.Store.CreateAttendance(ctx, attendance); err != nil {
		return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
			fmt.Sprintf("Failed to create attendance: %v", err), ""))
	}
	return Result{Success: true, EntityID: attendance.ID}
}
