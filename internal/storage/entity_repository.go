package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bulk-importer/internal/models"
)

// EntityRepository persists the import target entities. It implements
// processor.EntityStore; IDs are assigned on create.
type EntityRepository struct {
	db *PostgresDB
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(db *PostgresDB) *EntityRepository {
	return &EntityRepository{db: db}
}

const personColumns = `
	id, tenant_id, org_unit_id, first_name, last_name, gender, title, alias,
	email, phone, dob, member_code, address_line1, address_line2, town,
	county, eircode, marital_status, created_by, updated_by, created_at, updated_at`

// FindPersonByEmail returns the tenant's person with the given email, or nil.
func (r *EntityRepository) FindPersonByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE tenant_id = $1 AND lower(email) = lower($2)`
	return r.scanPerson(r.db.Pool().QueryRow(ctx, query, tenantID, email))
}

// FindPersonByMemberCode returns the tenant's person with the given member code, or nil.
func (r *EntityRepository) FindPersonByMemberCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE tenant_id = $1 AND member_code = $2`
	return r.scanPerson(r.db.Pool().QueryRow(ctx, query, tenantID, code))
}

func (r *EntityRepository) scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID, &p.TenantID, &p.OrgUnitID, &p.FirstName, &p.LastName,
		&p.Gender, &p.Title, &p.Alias, &p.Email, &p.Phone, &p.DOB,
		&p.MemberCode, &p.AddressLine1, &p.AddressLine2, &p.Town,
		&p.County, &p.Eircode, &p.MaritalStatus, &p.CreatedBy,
		&p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	return &p, nil
}

// CreatePerson inserts a new person, assigning its id.
func (r *EntityRepository) CreatePerson(ctx context.Context, p *models.Person) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO people (` + personColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		p.ID, p.TenantID, p.OrgUnitID, p.FirstName, p.LastName, p.Gender,
		p.Title, p.Alias, p.Email, p.Phone, p.DOB, p.MemberCode,
		p.AddressLine1, p.AddressLine2, p.Town, p.County, p.Eircode,
		p.MaritalStatus, p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

// UpdatePerson rewrites a person's mutable fields.
func (r *EntityRepository) UpdatePerson(ctx context.Context, p *models.Person) error {
	p.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE people SET
			first_name = $2, last_name = $3, gender = $4, title = $5,
			alias = $6, email = $7, phone = $8, dob = $9, member_code = $10,
			address_line1 = $11, address_line2 = $12, town = $13,
			county = $14, eircode = $15, marital_status = $16,
			updated_by = $17, updated_at = $18
		WHERE id = $1
	`
	_, err := r.db.Pool().Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Gender, p.Title, p.Alias,
		p.Email, p.Phone, p.DOB, p.MemberCode, p.AddressLine1,
		p.AddressLine2, p.Town, p.County, p.Eircode, p.MaritalStatus,
		p.UpdatedBy, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	return nil
}

// UpsertMembership writes membership state keyed by person id. Blank fields
// keep their stored values.
func (r *EntityRepository) UpsertMembership(ctx context.Context, m *models.Membership) error {
	m.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO memberships (
			person_id, tenant_id, status, join_date, foundation_completed,
			baptism_date, updated_by, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (person_id) DO UPDATE SET
			status = COALESCE(NULLIF(EXCLUDED.status, ''), memberships.status),
			join_date = COALESCE(EXCLUDED.join_date, memberships.join_date),
			foundation_completed = EXCLUDED.foundation_completed,
			baptism_date = COALESCE(EXCLUDED.baptism_date, memberships.baptism_date),
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Pool().Exec(ctx, query,
		m.PersonID, m.TenantID, m.Status, m.JoinDate,
		m.FoundationCompleted, m.BaptismDate, m.UpdatedBy, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// CreateFirstTimer inserts a first timer record.
func (r *EntityRepository) CreateFirstTimer(ctx context.Context, ft *models.FirstTimer) error {
	ft.ID = uuid.New()
	ft.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO first_timers (id, tenant_id, service_id, person_id, status, source, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		ft.ID, ft.TenantID, ft.ServiceID, ft.PersonID, ft.Status,
		ft.Source, ft.Notes, ft.CreatedBy, ft.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create first timer: %w", err)
	}
	return nil
}

// CreateService inserts a service record.
func (r *EntityRepository) CreateService(ctx context.Context, s *models.Service) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO services (id, tenant_id, org_unit_id, name, service_date, service_time, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		s.ID, s.TenantID, s.OrgUnitID, s.Name, s.ServiceDate,
		s.ServiceTime, s.CreatedBy, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// CreateAttendance inserts an attendance record.
func (r *EntityRepository) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO attendance (id, tenant_id, service_id, total_attendance, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		a.ID, a.TenantID, a.ServiceID, a.TotalAttendance, a.Notes,
		a.CreatedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

// CreateCell inserts a cell record.
func (r *EntityRepository) CreateCell(ctx context.Context, c *models.Cell) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO cells (id, tenant_id, org_unit_id, name, leader_id, assistant_leader_id,
			venue, meeting_day, meeting_time, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		c.ID, c.TenantID, c.OrgUnitID, c.Name, c.LeaderID,
		c.AssistantLeaderID, c.Venue, c.MeetingDay, c.MeetingTime,
		c.Status, c.CreatedBy, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cell: %w", err)
	}
	return nil
}

// CreateCellReport inserts a cell report record.
func (r *EntityRepository) CreateCellReport(ctx context.Context, rep *models.CellReport) error {
	rep.ID = uuid.New()
	rep.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO cell_reports (id, tenant_id, cell_id, report_date, report_time,
			attendance, first_timers, new_converts, testimonies, offerings_total,
			meeting_type, status, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		rep.ID, rep.TenantID, rep.CellID, rep.ReportDate, rep.ReportTime,
		rep.Attendance, rep.FirstTimers, rep.NewConverts, rep.Testimonies,
		rep.OfferingsTotal, rep.MeetingType, rep.Status, rep.Notes,
		rep.CreatedBy, rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cell report: %w", err)
	}
	return nil
}

// CreateFinanceEntry inserts a finance entry record.
func (r *EntityRepository) CreateFinanceEntry(ctx context.Context, e *models.FinanceEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO finance_entries (id, tenant_id, org_unit_id, fund_id, amount,
			transaction_date, batch_id, service_id, partnership_arm_id, currency,
			method, person_id, cell_id, external_giver_name, reference, comment,
			verified_status, source_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		e.ID, e.TenantID, e.OrgUnitID, e.FundID, e.Amount,
		e.TransactionDate, e.BatchID, e.ServiceID, e.PartnershipArmID,
		e.Currency, e.Method, e.PersonID, e.CellID, e.ExternalGiverName,
		e.Reference, e.Comment, e.VerifiedStatus, e.SourceType,
		e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create finance entry: %w", err)
	}
	return nil
}
