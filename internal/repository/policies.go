package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

const policyColumns = `
	id, policy_number, customer_id, product_type,
	premium, coverage_amount, start_date, end_date, status,
	description, beneficiary, payment_frequency, cancellation_reason,
	version, created_at, updated_at`

// CreatePolicy inserts a policy, assigning its ID, number, version and timestamps.
func (r *SQLRepository) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	if p == nil {
		return fmt.Errorf("%w: policy is required", ErrInvalidInput)
	}

	if p.PolicyNumber == "" {
		p.PolicyNumber = r.numbers.Next(domain.PrefixPolicy)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	query := `
		INSERT INTO policies (
			policy_number, customer_id, product_type,
			premium, coverage_amount, start_date, end_date, status,
			description, beneficiary, payment_frequency, cancellation_reason,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, r.rebind(query),
		p.PolicyNumber, p.CustomerID, string(p.ProductType),
		p.Premium, p.CoverageAmount, p.StartDate, p.EndDate, string(p.Status),
		p.Description, p.Beneficiary, string(p.PaymentFrequency), p.CancellationReason,
		p.Version, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}
	return nil
}

// GetPolicy retrieves a policy by ID.
func (r *SQLRepository) GetPolicy(ctx context.Context, id int64) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = ?`
	p, err := scanPolicy(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if err != nil {
		return nil, notFound(err, domain.ErrPolicyNotFound)
	}
	return p, nil
}

// ListPoliciesByCustomer lists a customer's policies, newest first.
func (r *SQLRepository) ListPoliciesByCustomer(ctx context.Context, customerID int64) ([]*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE customer_id = ? ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []*domain.Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	return policies, rows.Err()
}

// UpdatePolicy reads, mutates and writes a policy inside one transaction.
func (r *SQLRepository) UpdatePolicy(ctx context.Context, id int64, fn func(*domain.Policy) error) (*domain.Policy, error) {
	var updated *domain.Policy

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + policyColumns + ` FROM policies WHERE id = ?` + r.forUpdate()
		current, err := scanPolicy(tx.QueryRowContext(ctx, r.rebind(query), id))
		if err != nil {
			return notFound(err, domain.ErrPolicyNotFound)
		}

		next := *current
		if err := fn(&next); err != nil {
			return err
		}

		next.ID = current.ID
		next.PolicyNumber = current.PolicyNumber
		next.CustomerID = current.CustomerID
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
		next.UpdatedAt = time.Now().UTC()

		update := `
			UPDATE policies SET
				product_type = ?, premium = ?, coverage_amount = ?,
				start_date = ?, end_date = ?, status = ?,
				description = ?, beneficiary = ?, payment_frequency = ?, cancellation_reason = ?,
				version = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`
		res, err := tx.ExecContext(ctx, r.rebind(update),
			string(next.ProductType), next.Premium, next.CoverageAmount,
			next.StartDate, next.EndDate, string(next.Status),
			next.Description, next.Beneficiary, string(next.PaymentFrequency), next.CancellationReason,
			next.Version, next.UpdatedAt,
			current.ID, current.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update policy: %w", err)
		}
		if err := checkVersioned(res, "policy", id); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanPolicy(row rowScanner) (*domain.Policy, error) {
	var p domain.Policy

	err := row.Scan(
		&p.ID, &p.PolicyNumber, &p.CustomerID, &p.ProductType,
		&p.Premium, &p.CoverageAmount, &p.StartDate, &p.EndDate, &p.Status,
		&p.Description, &p.Beneficiary, &p.PaymentFrequency, &p.CancellationReason,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.StartDate = p.StartDate.UTC()
	p.EndDate = p.EndDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}
