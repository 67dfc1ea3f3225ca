package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

const claimColumns = `
	id, claim_number, policy_id, customer_id, claim_type,
	claim_amount, approved_amount, status,
	incident_date, incident_description, incident_location,
	fraud_score, fraud_risk_level,
	assigned_adjuster_id, adjuster_notes, rejection_reason,
	filed_date, assessment_date, settlement_date,
	version, created_at, updated_at`

// CreateClaim inserts a claim, assigning its ID, number, version and timestamps.
func (r *SQLRepository) CreateClaim(ctx context.Context, c *domain.Claim) error {
	if c == nil {
		return fmt.Errorf("%w: claim is required", ErrInvalidInput)
	}

	if c.ClaimNumber == "" {
		c.ClaimNumber = r.numbers.Next(domain.PrefixClaim)
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	query := `
		INSERT INTO claims (
			claim_number, policy_id, customer_id, claim_type,
			claim_amount, approved_amount, status,
			incident_date, incident_description, incident_location,
			fraud_score, fraud_risk_level,
			assigned_adjuster_id, adjuster_notes, rejection_reason,
			filed_date, assessment_date, settlement_date,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, r.rebind(query),
		c.ClaimNumber, c.PolicyID, c.CustomerID, string(c.ClaimType),
		c.ClaimAmount, c.ApprovedAmount, string(c.Status),
		c.IncidentDate, c.IncidentDescription, c.IncidentLocation,
		c.FraudScore, string(c.FraudRiskLevel),
		nullInt64(c.AssignedAdjusterID), c.AdjusterNotes, c.RejectionReason,
		c.FiledDate, nullTime(c.AssessmentDate), nullTime(c.SettlementDate),
		c.Version, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

// GetClaim retrieves a claim by ID.
func (r *SQLRepository) GetClaim(ctx context.Context, id int64) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`
	c, err := scanClaim(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if err != nil {
		return nil, notFound(err, domain.ErrClaimNotFound)
	}
	return c, nil
}

// GetClaimByNumber retrieves a claim by its claim number.
func (r *SQLRepository) GetClaimByNumber(ctx context.Context, number string) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_number = ?`
	c, err := scanClaim(r.db.QueryRowContext(ctx, r.rebind(query), number))
	if err != nil {
		return nil, notFound(err, domain.ErrClaimNotFound)
	}
	return c, nil
}

// ListClaimsByCustomer lists a customer's claims, newest first.
func (r *SQLRepository) ListClaimsByCustomer(ctx context.Context, customerID int64) ([]*domain.Claim, error) {
	return r.listClaims(ctx, "customer_id = ?", customerID)
}

// ListClaimsByPolicy lists a policy's claims, newest first.
func (r *SQLRepository) ListClaimsByPolicy(ctx context.Context, policyID int64) ([]*domain.Claim, error) {
	return r.listClaims(ctx, "policy_id = ?", policyID)
}

// ListClaimsByStatus lists claims in a status, newest first.
func (r *SQLRepository) ListClaimsByStatus(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	return r.listClaims(ctx, "status = ?", string(status))
}

func (r *SQLRepository) listClaims(ctx context.Context, where string, args ...any) ([]*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE ` + where + ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []*domain.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

// CountSettledClaims counts the customer's SETTLED claims.
func (r *SQLRepository) CountSettledClaims(ctx context.Context, customerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM claims WHERE customer_id = ? AND status = ?`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), customerID, string(domain.ClaimSettled)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count settled claims: %w", err)
	}
	return count, nil
}

// UpdateClaim reads, mutates and writes a claim inside one transaction.
// Only lifecycle fields are written back: identity, filing facts and the
// fraud assessment are fixed at filing.
func (r *SQLRepository) UpdateClaim(ctx context.Context, id int64, fn func(*domain.Claim) error) (*domain.Claim, error) {
	var updated *domain.Claim

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?` + r.forUpdate()
		current, err := scanClaim(tx.QueryRowContext(ctx, r.rebind(query), id))
		if err != nil {
			return notFound(err, domain.ErrClaimNotFound)
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}

		// Restore fields that must not change after filing.
		next.ID = current.ID
		next.ClaimNumber = current.ClaimNumber
		next.PolicyID = current.PolicyID
		next.CustomerID = current.CustomerID
		next.ClaimType = current.ClaimType
		next.ClaimAmount = current.ClaimAmount
		next.IncidentDate = current.IncidentDate
		next.IncidentDescription = current.IncidentDescription
		next.IncidentLocation = current.IncidentLocation
		next.FraudScore = current.FraudScore
		next.FraudRiskLevel = current.FraudRiskLevel
		next.FiledDate = current.FiledDate
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
		next.UpdatedAt = time.Now().UTC()

		update := `
			UPDATE claims SET
				status = ?, approved_amount = ?,
				assigned_adjuster_id = ?, adjuster_notes = ?, rejection_reason = ?,
				assessment_date = ?, settlement_date = ?,
				version = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`
		res, err := tx.ExecContext(ctx, r.rebind(update),
			string(next.Status), next.ApprovedAmount,
			nullInt64(next.AssignedAdjusterID), next.AdjusterNotes, next.RejectionReason,
			nullTime(next.AssessmentDate), nullTime(next.SettlementDate),
			next.Version, next.UpdatedAt,
			current.ID, current.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}
		if err := checkVersioned(res, "claim", id); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanClaim(row rowScanner) (*domain.Claim, error) {
	var c domain.Claim
	var adjuster sql.NullInt64
	var assessed, settled sql.NullTime

	err := row.Scan(
		&c.ID, &c.ClaimNumber, &c.PolicyID, &c.CustomerID, &c.ClaimType,
		&c.ClaimAmount, &c.ApprovedAmount, &c.Status,
		&c.IncidentDate, &c.IncidentDescription, &c.IncidentLocation,
		&c.FraudScore, &c.FraudRiskLevel,
		&adjuster, &c.AdjusterNotes, &c.RejectionReason,
		&c.FiledDate, &assessed, &settled,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.IncidentDate = c.IncidentDate.UTC()
	c.FiledDate = c.FiledDate.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.AssignedAdjusterID = int64Ptr(adjuster)
	c.AssessmentDate = timePtr(assessed)
	c.SettlementDate = timePtr(settled)

	return &c, nil
}
