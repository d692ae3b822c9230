package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

type cellReportProcessor struct {
	deps Deps
}

func (p *cellReportProcessor) RequiresOrgUnit() bool { return false }

func (p *cellReportProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)
	var errors []models.ValidationError

	rawCellID := mapped["cell_id"]
	var cellID uuid.UUID
	if rawCellID == "" {
		errors = append(errors, verr(in.RowNumber, "cell_id", types.ErrorRequired, "cell_id is required", ""))
	} else {
		id, err := uuid.Parse(rawCellID)
		if err != nil {
			errors = append(errors, verr(in.RowNumber, "cell_id", types.ErrorReference, "Invalid cell_id format", rawCellID))
		} else {
			cellID = id
		}
	}

	var reportDate time.Time
	if raw := mapped["report_date"]; raw != "" {
		if result := coerce.Date(raw); result.Success {
			reportDate = result.Value.(time.Time)
		} else {
			errors = append(errors, verr(in.RowNumber, "report_date", types.ErrorCoercion, result.Error, raw))
		}
	} else {
		errors = append(errors, verr(in.RowNumber, "report_date", types.ErrorRequired, "report_date is required", ""))
	}

	if len(errors) > 0 {
		return failed(errors...)
	}

	msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, mapper.RefCell, "cell_id", rawCellID)
	if err != nil {
		msg = err.Error()
	}
	if msg != "" {
		return failed(verr(in.RowNumber, "cell_id", types.ErrorReference, msg, rawCellID))
	}

	reportTime := ""
	if raw := mapped["report_time"]; raw != "" {
		if result := coerce.Time(raw); result.Success {
			reportTime = result.Value.(string)
		}
	}

	count := func(field string) int64 {
		raw := mapped[field]
		if raw == "" {
			return 0
		}
		if result := coerce.Integer(raw); result.Success {
			return result.Value.(int64)
		}
		return 0
	}

	offerings := decimal.Zero
	if raw := mapped["offerings_total"]; raw != "" {
		if result := coerce.Decimal(raw); result.Success {
			offerings = result.Value.(decimal.Decimal)
		}
	}

	report := &models.CellReport{
		TenantID:       in.TenantID,
		CellID:         cellID,
		ReportDate:     reportDate,
		ReportTime:     reportTime,
		Attendance:     count("attendance"),
		FirstTimers:    count("first_timers"),
		NewConverts:    count("new_converts"),
		Testimonies:    count("testimonies"),
		OfferingsTotal: offerings,
		MeetingType:    orDefault(mapped, "meeting_type", "bible_study"),
		Status:         orDefault(mapped, "status", "submitted"),
		Notes:          mapped["notes"],
		CreatedBy:      in.UserID,
	}
	if err := p.deps.Store.CreateCellReport(ctx, report); err != nil {
		return failed(verr(in.RowNumber, "", types.ErrorBusiness, err.Error(), ""))
	}
	return Result{Success: true, EntityID: report.ID}
}
