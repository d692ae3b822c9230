package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Person is the people aggregate targeted by people imports.
type Person struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	OrgUnitID     uuid.UUID  `json:"org_unit_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Gender        string     `json:"gender"`
	Title         string     `json:"title,omitempty"`
	Alias         string     `json:"alias,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
	MemberCode    string     `json:"member_code,omitempty"`
	AddressLine1  string     `json:"address_line1,omitempty"`
	AddressLine2  string     `json:"address_line2,omitempty"`
	Town          string     `json:"town,omitempty"`
	County        string     `json:"county,omitempty"`
	Eircode       string     `json:"eircode,omitempty"`
	MaritalStatus string     `json:"marital_status,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	UpdatedBy     uuid.UUID  `json:"updated_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Membership carries per-person membership state keyed by person id.
type Membership struct {
	PersonID            uuid.UUID  `json:"person_id"`
	TenantID            uuid.UUID  `json:"tenant_id"`
	Status              string     `json:"status,omitempty"`
	JoinDate            *time.Time `json:"join_date,omitempty"`
	FoundationCompleted bool       `json:"foundation_completed"`
	BaptismDate         *time.Time `json:"baptism_date,omitempty"`
	UpdatedBy           uuid.UUID  `json:"updated_by"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FirstTimer records a first-time service visitor.
type FirstTimer struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	ServiceID uuid.UUID  `json:"service_id"`
	PersonID  *uuid.UUID `json:"person_id,omitempty"`
	Status    string     `json:"status"`
	Source    string     `json:"source,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Service is a scheduled gathering that attendance and first timers attach to.
type Service struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	OrgUnitID   uuid.UUID `json:"org_unit_id"`
	Name        string    `json:"name"`
	ServiceDate time.Time `json:"service_date"`
	ServiceTime string    `json:"service_time,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attendance is a headcount for one service.
type Attendance struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	ServiceID       uuid.UUID `json:"service_id"`
	TotalAttendance *int64    `json:"total_attendance,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Cell is a small group with optional leadership links.
type Cell struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	OrgUnitID         uuid.UUID  `json:"org_unit_id"`
	Name              string     `json:"name"`
	LeaderID          *uuid.UUID `json:"leader_id,omitempty"`
	AssistantLeaderID *uuid.UUID `json:"assistant_leader_id,omitempty"`
	Venue             string     `json:"venue,omitempty"`
	MeetingDay        string     `json:"meeting_day,omitempty"`
	MeetingTime       string     `json:"meeting_time,omitempty"`
	Status            string     `json:"status"`
	CreatedBy         uuid.UUID  `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CellReport is a weekly report submitted for a cell.
type CellReport struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CellID         uuid.UUID       `json:"cell_id"`
	ReportDate     time.Time       `json:"report_date"`
	ReportTime     string          `json:"report_time,omitempty"`
	Attendance     int64           `json:"attendance"`
	FirstTimers    int64           `json:"first_timers"`
	NewConverts    int64           `json:"new_converts"`
	Testimonies    int64           `json:"testimonies"`
	OfferingsTotal decimal.Decimal `json:"offerings_total"`
	MeetingType    string          `json:"meeting_type"`
	Status         string          `json:"status"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FinanceEntry is one giving transaction against a fund.
type FinanceEntry struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	OrgUnitID         uuid.UUID       `json:"org_unit_id"`
	FundID            uuid.UUID       `json:"fund_id"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionDate   time.Time       `json:"transaction_date"`
	BatchID           *uuid.UUID      `json:"batch_id,omitempty"`
	ServiceID         *uuid.UUID      `json:"service_id,omitempty"`
	PartnershipArmID  *uuid.UUID      `json:"partnership_arm_id,omitempty"`
	Currency          string          `json:"currency"`
	Method            string          `json:"method"`
	PersonID          *uuid.UUID      `json:"person_id,omitempty"`
	CellID            *uuid.UUID      `json:"cell_id,omitempty"`
	ExternalGiverName string          `json:"external_giver_name,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	Comment           string          `json:"comment,omitempty"`
	VerifiedStatus    string          `json:"verified_status"`
	SourceType        string          `json:"source_type"`
	CreatedBy         uuid.UUID       `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
}
