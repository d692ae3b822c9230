package imports

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/models"
)

// entityStoreMem is an in-memory processor.EntityStore for runner tests.
type entityStoreMem struct {
	mu          sync.Mutex
	people      []*models.Person
	memberships []*models.Membership
	created     int
}

func newEntityStoreMem() *entityStoreMem {
	return &entityStoreMem{}
}

func (s *entityStoreMem) FindPersonByEmail(_ context.Context, tenantID uuid.UUID, email string) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.people {
		if p.TenantID == tenantID && p.Email == strings.ToLower(email) {
			return p, nil
		}
	}
	return nil, nil
}

func (s *entityStoreMem) FindPersonByMemberCode(_ context.Context, tenantID uuid.UUID, code string) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.people {
		if p.TenantID == tenantID && p.MemberCode == code {
			return p, nil
		}
	}
	return nil, nil
}

func (s *entityStoreMem) CreatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	s.people = append(s.people, p)
	s.created++
	return nil
}

func (s *entityStoreMem) UpdatePerson(_ context.Context, p *models.Person) error {
	return nil
}

func (s *entityStoreMem) UpsertMembership(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, m)
	return nil
}

func (s *entityStoreMem) CreateFirstTimer(_ context.Context, ft *models.FirstTimer) error {
	ft.ID = uuid.New()
	return nil
}

func (s *entityStoreMem) CreateService(_ context.Context, svc *models.Service) error {
	svc.ID = uuid.New()
	return nil
}

func (s *entityStoreMem) CreateAttendance(_ context.Context, a *models.Attendance) error {
	a.ID = uuid.New()
	return nil
}

func (s *entityStoreMem) CreateCell(_ context.Context, c *models.Cell) error {
	c.ID = uuid.New()
	return nil
}

func (s *entityStoreMem) CreateCellReport(_ context.Context, r *models.CellReport) error {
	r.ID = uuid.New()
	return nil
}

func (s *entityStoreMem) CreateFinanceEntry(_ context.Context, e *models.FinanceEntry) error {
	e.ID = uuid.New()
	return nil
}

// refCheckerMem answers reference checks from in-memory id sets; person and
// uniqueness checks consult the entity store.
type refCheckerMem struct {
	store           *entityStoreMem
	orgUnits        map[uuid.UUID]bool
	services        map[uuid.UUID]bool
	cells           map[uuid.UUID]bool
	funds           map[uuid.UUID]bool
	partnershipArms map[uuid.UUID]bool
	batches         map[uuid.UUID]string
}

func newRefCheckerMem(store *entityStoreMem) *refCheckerMem {
	return &refCheckerMem{
		store:           store,
		orgUnits:        make(map[uuid.UUID]bool),
		services:        make(map[uuid.UUID]bool),
		cells:           make(map[uuid.UUID]bool),
		funds:           make(map[uuid.UUID]bool),
		partnershipArms: make(map[uuid.UUID]bool),
		batches:         make(map[uuid.UUID]string),
	}
}

func (c *refCheckerMem) OrgUnitExists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return c.orgUnits[id], nil
}

func (c *refCheckerMem) ServiceExists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return c.services[id], nil
}

func (c *refCheckerMem) CellExists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return c.cells[id], nil
}

func (c *refCheckerMem) FundExists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return c.funds[id], nil
}

func (c *refCheckerMem) PartnershipArmExists(_ context.Context, _, id uuid.UUID) (bool, error) {
	return c.partnershipArms[id], nil
}

func (c *refCheckerMem) PersonExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, p := range c.store.people {
		if p.TenantID == tenantID && p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (c *refCheckerMem) BatchStatus(_ context.Context, _, id uuid.UUID) (bool, string, error) {
	status, ok := c.batches[id]
	return ok, status, nil
}

func (c *refCheckerMem) EmailTaken(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	p, err := c.store.FindPersonByEmail(ctx, tenantID, email)
	if err != nil || p == nil {
		return false, err
	}
	if excludeID != nil && p.ID == *excludeID {
		return false, nil
	}
	return true, nil
}

func (c *refCheckerMem) MemberCodeTaken(ctx context.Context, tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	p, err := c.store.FindPersonByMemberCode(ctx, tenantID, code)
	if err != nil || p == nil {
		return false, err
	}
	if excludeID != nil && p.ID == *excludeID {
		return false, nil
	}
	return true, nil
}
