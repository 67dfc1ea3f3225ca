package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

const caseColumns = `
	id, case_number, policy_id, customer_id,
	risk_score, risk_level, decision,
	base_premium, recommended_premium,
	underwriter_notes, assigned_underwriter_id,
	version, created_at, updated_at`

// CreateCase inserts an underwriting case, assigning its ID, number, version and timestamps.
func (r *SQLRepository) CreateCase(ctx context.Context, uc *domain.UnderwritingCase) error {
	if uc == nil {
		return fmt.Errorf("%w: underwriting case is required", ErrInvalidInput)
	}

	if uc.CaseNumber == "" {
		uc.CaseNumber = r.numbers.Next(domain.PrefixCase)
	}
	now := time.Now().UTC()
	uc.CreatedAt = now
	uc.UpdatedAt = now
	uc.Version = 1

	query := `
		INSERT INTO underwriting_cases (
			case_number, policy_id, customer_id,
			risk_score, risk_level, decision,
			base_premium, recommended_premium,
			underwriter_notes, assigned_underwriter_id,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, r.rebind(query),
		uc.CaseNumber, uc.PolicyID, uc.CustomerID,
		uc.RiskScore, string(uc.RiskLevel), string(uc.Decision),
		uc.BasePremium, uc.RecommendedPremium,
		uc.UnderwriterNotes, nullInt64(uc.AssignedUnderwriterID),
		uc.Version, uc.CreatedAt, uc.UpdatedAt,
	).Scan(&uc.ID)
	if err != nil {
		return fmt.Errorf("failed to insert underwriting case: %w", err)
	}
	return nil
}

// GetCase retrieves an underwriting case by ID.
func (r *SQLRepository) GetCase(ctx context.Context, id int64) (*domain.UnderwritingCase, error) {
	query := `SELECT ` + caseColumns + ` FROM underwriting_cases WHERE id = ?`
	uc, err := scanCase(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if err != nil {
		return nil, notFound(err, domain.ErrCaseNotFound)
	}
	return uc, nil
}

// ListCasesByPolicy lists a policy's underwriting cases, newest first.
func (r *SQLRepository) ListCasesByPolicy(ctx context.Context, policyID int64) ([]*domain.UnderwritingCase, error) {
	query := `SELECT ` + caseColumns + ` FROM underwriting_cases WHERE policy_id = ? ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []*domain.UnderwritingCase{}
	for rows.Next() {
		uc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, uc)
	}

	return cases, rows.Err()
}

// UpdateCase reads, mutates and writes a case inside one transaction.
// The automated assessment is fixed at creation; only review fields are written back.
func (r *SQLRepository) UpdateCase(ctx context.Context, id int64, fn func(*domain.UnderwritingCase) error) (*domain.UnderwritingCase, error) {
	var updated *domain.UnderwritingCase

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + caseColumns + ` FROM underwriting_cases WHERE id = ?` + r.forUpdate()
		current, err := scanCase(tx.QueryRowContext(ctx, r.rebind(query), id))
		if err != nil {
			return notFound(err, domain.ErrCaseNotFound)
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}

		next.ID = current.ID
		next.CaseNumber = current.CaseNumber
		next.PolicyID = current.PolicyID
		next.CustomerID = current.CustomerID
		next.RiskScore = current.RiskScore
		next.RiskLevel = current.RiskLevel
		next.BasePremium = current.BasePremium
		next.RecommendedPremium = current.RecommendedPremium
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
		next.UpdatedAt = time.Now().UTC()

		update := `
			UPDATE underwriting_cases SET
				decision = ?, underwriter_notes = ?, assigned_underwriter_id = ?,
				version = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`
		res, err := tx.ExecContext(ctx, r.rebind(update),
			string(next.Decision), next.UnderwriterNotes, nullInt64(next.AssignedUnderwriterID),
			next.Version, next.UpdatedAt,
			current.ID, current.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update underwriting case: %w", err)
		}
		if err := checkVersioned(res, "underwriting case", id); err != nil {
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

func scanCase(row rowScanner) (*domain.UnderwritingCase, error) {
	var uc domain.UnderwritingCase
	var underwriter sql.NullInt64

	err := row.Scan(
		&uc.ID, &uc.CaseNumber, &uc.PolicyID, &uc.CustomerID,
		&uc.RiskScore, &uc.RiskLevel, &uc.Decision,
		&uc.BasePremium, &uc.RecommendedPremium,
		&uc.UnderwriterNotes, &underwriter,
		&uc.Version, &uc.CreatedAt, &uc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	uc.CreatedAt = uc.CreatedAt.UTC()
	uc.UpdatedAt = uc.UpdatedAt.UTC()
	uc.AssignedUnderwriterID = int64Ptr(underwriter)

	return &uc, nil
}
