package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type serviceProcessor struct {
	deps Deps
}

func (p *serviceProcessor) RequiresOrgUnit() bool { return true }

func (p *serviceProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)
	var errors []models.ValidationError

	name := mapped["name"]
	rawDate := mapped["service_date"]

	if name == "" {
		errors = append(errors, verr(in.RowNumber, "name", types.ErrorRequired, "Service name is required", ""))
	}
	if rawDate == "" {
		errors = append(errors, verr(in.RowNumber, "service_date", types.ErrorRequired, "Service date is required", ""))
	}
	if len(errors) > 0 {
		return failed(errors...)
	}

	dateResult := coerce.Date(rawDate)
	if !dateResult.Success {
		return failed(verr(in.RowNumber, "service_date", types.ErrorCoercion, dateResult.Error, rawDate))
	}
	serviceDate := dateResult.Value.(time.Time)

	serviceTime := ""
	if raw := mapped["service_time"]; raw != "" {
		if result := coerce.Time(raw); result.Success {
			serviceTime = result.Value.(string)
		}
	}

	orgUnitID, orgErr := resolveOrgUnit(in, mapped, true)
	if orgErr != nil {
		return failed(*orgErr)
	}

	if raw := mapped["org_unit_id"]; raw != "" {
		msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefOrgUnit, "org_unit_id", raw)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			return failed(verr(in.RowNumber, "org_unit_id", types.ErrorReference, msg, raw))
		}
	}

	service := &models.Service{
		TenantID:    in.TenantID,
		OrgUnitID:   *orgUnitID,
		Name:        name,
		ServiceDate: serviceDate,
		ServiceTime: serviceTime,
		CreatedBy:   in.UserID,
	}
	if err := p.deps.Store.CreateService(ctx, service); err != nil {
		return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
			fmt.Sprintf("Failed to create service: %v", err), ""))
	}
	return Result{Success: true, EntityID: service.ID}
}
