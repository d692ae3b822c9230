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

type financeEntryProcessor struct {
	deps Deps
}

func (p *financeEntryProcessor) RequiresOrgUnit() bool { return true }

func (p *financeEntryProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)
	var errors []models.ValidationError

	rawFundID := mapped["fund_id"]
	var fundID uuid.UUID
	if rawFundID == "" {
		errors = append(errors, verr(in.RowNumber, "fund_id", types.ErrorRequired, "fund_id is required", ""))
	} else {
		id, err := uuid.Parse(rawFundID)
		if err != nil {
			errors = append(errors, verr(in.RowNumber, "fund_id", types.ErrorReference, "Invalid fund_id format", rawFundID))
		} else {
			fundID = id
		}
	}

	var amount decimal.Decimal
	if raw := mapped["amount"]; raw != "" {
		if result := coerce.Decimal(raw); result.Success {
			amount = result.Value.(decimal.Decimal)
		} else {
			errors = append(errors, verr(in.RowNumber, "amount", types.ErrorCoercion, result.Error, raw))
		}
	} else {
		errors = append(errors, verr(in.RowNumber, "amount", types.ErrorRequired, "amount is required", ""))
	}

	var transactionDate time.Time
	if raw := mapped["transaction_date"]; raw != "" {
		if result := coerce.Date(raw); result.Success {
			transactionDate = result.Value.(time.Time)
		} else {
			errors = append(errors, verr(in.RowNumber, "transaction_date", types.ErrorCoercion, result.Error, raw))
		}
	} else {
		errors = append(errors, verr(in.RowNumber, "transaction_date", types.ErrorRequired, "transaction_date is required", ""))
	}

	orgUnitID, orgErr := resolveOrgUnit(in, mapped, true)
	if orgErr != nil {
		errors = append(errors, *orgErr)
	}
	if len(errors) > 0 {
		return failed(errors...)
	}

	if refErrs := p.validateReferences(ctx, in, mapped); len(refErrs) > 0 {
		return failed(refErrs...)
	}

	personID := optionalUUID(mapped, "person_id")
	cellID := optionalUUID(mapped, "cell_id")
	externalGiver := mapped["external_giver_name"]

	// Every entry must attribute the giving to someone.
	if personID == nil && cellID == nil && externalGiver == "" {
		return failed(verr(in.RowNumber, "", types.ErrorBusiness,
			"At least one of person_id, cell_id, or external_giver_name must be provided", ""))
	}

	entry := &models.FinanceEntry{
		TenantID:          in.TenantID,
		OrgUnitID:         *orgUnitID,
		FundID:            fundID,
		Amount:            amount,
		TransactionDate:   transactionDate,
		BatchID:           optionalUUID(mapped, "batch_id"),
		ServiceID:         optionalUUID(mapped, "service_id"),
		PartnershipArmID:  optionalUUID(mapped, "partnership_arm_id"),
		Currency:          orDefault(mapped, "currency", "EUR"),
		Method:            orDefault(mapped, "method", "cash"),
		PersonID:          personID,
		CellID:            cellID,
		ExternalGiverName: externalGiver,
		Reference:         mapped["reference"],
		Comment:           mapped["comment"],
		VerifiedStatus:    orDefault(mapped, "verified_status", "draft"),
		SourceType:        orDefault(mapped, "source_type", "manual"),
		CreatedBy:         in.UserID,
	}
	if err := p.deps.Store.CreateFinanceEntry(ctx, entry); err != nil {
		return failed(verr(in.RowNumber, "", types.ErrorBusiness, err.Error(), ""))
	}
	return Result{Success: true, EntityID: entry.ID}
}

func (p *financeEntryProcessor) validateReferences(ctx context.Context, in Input, mapped map[string]string) []models.ValidationError {
	var errors []models.ValidationError

	checks := []struct {
		field string
		kind  mapper.RefKind
	}{
		{"fund_id", mapper.RefFund},
		{"batch_id", mapper.RefBatch},
		{"service_id", mapper.RefService},
		{"partnership_arm_id", mapper.RefPartnershipArm},
		{"cell_id", mapper.RefCell},
		{"org_unit_id", mapper.RefOrgUnit},
	}
	for _, check := range checks {
		raw := mapped[check.field]
		if raw == "" {
			continue
		}
		msg, err := validate.Reference(ctx, p.deps.Checker, in.TenantID, check.kind, check.field, raw)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" {
			errors = append(errors, verr(in.RowNumber, check.field, types.ErrorReference, msg, raw))
		}
	}
	return errors
}
