package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// membershipProcessor updates membership state for people located by email
// or member code. Rows that match no person fail with a reference error.
type membershipProcessor struct {
	deps Deps
}

func (p *membershipProcessor) RequiresOrgUnit() bool { return false }

func (p *membershipProcessor) Process(ctx context.Context, in Input) Result {
	mapped := mapRow(in.Row, in.Mapping)

	var person *models.Person
	var err error
	if email := mapped["email"]; email != "" {
		person, err = p.deps.Store.FindPersonByEmail(ctx, in.TenantID, strings.ToLower(email))
		if err != nil {
			return failed(verr(in.RowNumber, "person", types.ErrorConstraint,
				fmt.Sprintf("Failed to look up person: %v", err), email))
		}
	}
	if person == nil {
		if code := mapped["member_code"]; code != "" {
			person, err = p.deps.Store.FindPersonByMemberCode(ctx, in.TenantID, code)
			if err != nil {
				return failed(verr(in.RowNumber, "person", types.ErrorConstraint,
					fmt.Sprintf("Failed to look up person: %v", err), code))
			}
		}
	}
	if person == nil {
		return failed(verr(in.RowNumber, "person", types.ErrorReference, "Person not found", ""))
	}

	membership := &models.Membership{
		PersonID:  person.ID,
		TenantID:  in.TenantID,
		UpdatedBy: in.UserID,
	}

	if raw := mapped["status"]; raw != "" {
		if result := coerce.Enum(raw, coerce.EnumMembershipStatus); result.Success {
			membership.Status = result.Value.(string)
		}
	}
	if raw := mapped["join_date"]; raw != "" {
		if result := coerce.Date(raw); result.Success {
			d := result.Value.(time.Time)
			membership.JoinDate = &d
		}
	}
	if raw := mapped["foundation_completed"]; raw != "" {
		if result := coerce.Boolean(raw); result.Success {
			membership.FoundationCompleted = result.Value.(bool)
		}
	}
	if raw := mapped["baptism_date"]; raw != "" {
		if result := coerce.Date(raw); result.Success {
			d := result.Value.(time.Time)
			membership.BaptismDate = &d
		}
	}

	if err := p.deps.Store.UpsertMembership(ctx, membership); err != nil {
		return failed(verr(in.RowNumber, "general", types.ErrorConstraint,
			fmt.Sprintf("Failed to update membership: %v", err), ""))
	}
	return Result{Success: true, EntityID: person.ID}
}
