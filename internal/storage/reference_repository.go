package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReferenceRepository answers tenant-scoped existence, uniqueness, and
// default org unit questions against the reference tables. It implements
// validate.ReferenceChecker and imports.OrgUnitResolver.
type ReferenceRepository struct {
	db *PostgresDB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *PostgresDB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) exists(ctx context.Context, table string, tenantID, id uuid.UUID) (bool, error) {
	// table comes from the fixed call sites below, never from input.
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND tenant_id = $2)`, table)
	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, id, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

// OrgUnitExists reports whether the org unit belongs to the tenant.
func (r *ReferenceRepository) OrgUnitExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "org_units", tenantID, id)
}

// ServiceExists reports whether the service belongs to the tenant.
func (r *ReferenceRepository) ServiceExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "services", tenantID, id)
}

// CellExists reports whether the cell belongs to the tenant.
func (r *ReferenceRepository) CellExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "cells", tenantID, id)
}

// FundExists reports whether the fund belongs to the tenant.
func (r *ReferenceRepository) FundExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "funds", tenantID, id)
}

// PartnershipArmExists reports whether the partnership arm belongs to the tenant.
func (r *ReferenceRepository) PartnershipArmExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "partnership_arms", tenantID, id)
}

// PersonExists reports whether the person belongs to the tenant.
func (r *ReferenceRepository) PersonExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "people", tenantID, id)
}

// BatchStatus reports batch existence plus its status string.
func (r *ReferenceRepository) BatchStatus(ctx context.Context, tenantID, id uuid.UUID) (bool, string, error) {
	query := `SELECT status FROM batches WHERE id = $1 AND tenant_id = $2`
	var status string
	err := r.db.Pool().QueryRow(ctx, query, id, tenantID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check batch status: %w", err)
	}
	return true, status, nil
}

// EmailTaken checks tenant-wide email uniqueness, optionally excluding one
// person for update flows.
func (r *ReferenceRepository) EmailTaken(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM people
			WHERE tenant_id = $1 AND lower(email) = lower($2)
				AND ($3::uuid IS NULL OR id <> $3)
		)
	`
	var taken bool
	if err := r.db.Pool().QueryRow(ctx, query, tenantID, email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	return taken, nil
}

// MemberCodeTaken checks tenant-wide member code uniqueness.
func (r *ReferenceRepository) MemberCodeTaken(ctx context.Context, tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM people
			WHERE tenant_id = $1 AND member_code = $2
				AND ($3::uuid IS NULL OR id <> $3)
		)
	`
	var taken bool
	if err := r.db.Pool().QueryRow(ctx, query, tenantID, code, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check member_code uniqueness: %w", err)
	}
	return taken, nil
}

// DefaultOrgUnit returns the user's primary org unit assignment, or nil when
// the user has none.
func (r *ReferenceRepository) DefaultOrgUnit(ctx context.Context, tenantID, userID uuid.UUID) (*uuid.UUID, error) {
	query := `
		SELECT org_unit_id FROM org_assignments
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY is_primary DESC, created_at ASC
		LIMIT 1
	`
	var orgUnitID uuid.UUID
	err := r.db.Pool().QueryRow(ctx, query, tenantID, userID).Scan(&orgUnitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve default org unit: %w", err)
	}
	return &orgUnitID, nil
}
