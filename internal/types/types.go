// Package types defines shared types used across the import pipeline.
package types

import "errors"

// EntityType identifies an importable domain target
type EntityType string

const (
	EntityPeople         EntityType = "people"
	EntityMemberships    EntityType = "memberships"
	EntityFirstTimers    EntityType = "first_timers"
	EntityServices       EntityType = "services"
	EntityAttendance     EntityType = "attendance"
	EntityCells          EntityType = "cells"
	EntityCellReports    EntityType = "cell_reports"
	EntityFinanceEntries EntityType = "finance_entries"
)

// EntityTypes lists every supported entity type in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityPeople,
		EntityMemberships,
		EntityFirstTimers,
		EntityServices,
		EntityAttendance,
		EntityCells,
		EntityCellReports,
		EntityFinanceEntries,
	}
}

// Valid reports whether the entity type is one of the supported targets.
func (e EntityType) Valid() bool {
	switch e {
	case EntityPeople, EntityMemberships, EntityFirstTimers, EntityServices,
		EntityAttendance, EntityCells, EntityCellReports, EntityFinanceEntries:
		return true
	}
	return false
}

// ImportFormat identifies a detected file format
type ImportFormat string

const (
	FormatCSV     ImportFormat = "csv"
	FormatTSV     ImportFormat = "tsv"
	FormatXLSX    ImportFormat = "xlsx"
	FormatJSON    ImportFormat = "json"
	FormatUnknown ImportFormat = "unknown"
)

// ImportMode controls create/update behavior during execution
type ImportMode string

const (
	ModeCreateOnly     ImportMode = "create_only"
	ModeUpdateExisting ImportMode = "update_existing"
)

// Valid reports whether the import mode is supported.
func (m ImportMode) Valid() bool {
	return m == ModeCreateOnly || m == ModeUpdateExisting
}

// JobStatus is the lifecycle state of an import job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusPreviewing JobStatus = "previewing"
	StatusMapping    JobStatus = "mapping"
	StatusValidating JobStatus = "validating"
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a job may move from s to next.
// Status only advances along the directed transition graph; preview and
// mapping may loop while the caller revises the column mapping.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusPreviewing || next == StatusFailed
	case StatusPreviewing:
		return next == StatusPreviewing || next == StatusMapping ||
			next == StatusValidating || next == StatusQueued || next == StatusFailed
	case StatusMapping:
		return next == StatusPreviewing || next == StatusMapping ||
			next == StatusValidating || next == StatusQueued || next == StatusFailed
	case StatusValidating:
		return next == StatusPreviewing || next == StatusMapping ||
			next == StatusValidating || next == StatusQueued ||
			next == StatusProcessing || next == StatusFailed
	case StatusQueued:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// ErrorKind classifies a per-row validation error
type ErrorKind string

const (
	ErrorRequired   ErrorKind = "required"
	ErrorCoercion   ErrorKind = "coercion"
	ErrorReference  ErrorKind = "reference"
	ErrorConstraint ErrorKind = "constraint"
	ErrorBusiness   ErrorKind = "business"
)

// Sentinel errors for job lifecycle violations
var (
	// ErrJobNotFound is returned when a job id does not resolve within the tenant.
	ErrJobNotFound = errors.New("import job not found")
	// ErrMappingNotSet rejects validate/execute before a column mapping is
	// configured. A configuration error, not a state-machine violation: no
	// status transition occurs.
	ErrMappingNotSet = errors.New("mapping configuration not set")
	// ErrInvalidTransition rejects a status change not on the transition graph.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrUnsupportedFormat rejects uploads whose format cannot be detected.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
