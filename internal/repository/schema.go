package repository

import "strings"

// Schema definitions for the adjudicator database.
// Column types that differ between SQLite and PostgreSQL are written as
// placeholders and expanded per driver.

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    id {{id}},
    policy_number TEXT NOT NULL UNIQUE,
    customer_id BIGINT NOT NULL,
    product_type TEXT NOT NULL,
    premium {{money}} NOT NULL,
    coverage_amount {{money}} NOT NULL,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    status TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    beneficiary TEXT NOT NULL DEFAULT '',
    payment_frequency TEXT NOT NULL DEFAULT '',
    cancellation_reason TEXT NOT NULL DEFAULT '',
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policies_customer ON policies(customer_id);
`

const schemaClaims = `
CREATE TABLE IF NOT EXISTS claims (
    id {{id}},
    claim_number TEXT NOT NULL UNIQUE,
    policy_id BIGINT NOT NULL,
    customer_id BIGINT NOT NULL,
    claim_type TEXT NOT NULL,
    claim_amount {{money}} NOT NULL,
    approved_amount {{money}},
    status TEXT NOT NULL,
    incident_date DATE NOT NULL,
    incident_description TEXT NOT NULL DEFAULT '',
    incident_location TEXT NOT NULL DEFAULT '',
    fraud_score DOUBLE PRECISION NOT NULL,
    fraud_risk_level TEXT NOT NULL,
    assigned_adjuster_id BIGINT,
    adjuster_notes TEXT NOT NULL DEFAULT '',
    rejection_reason TEXT NOT NULL DEFAULT '',
    filed_date DATE NOT NULL,
    assessment_date DATE,
    settlement_date DATE,
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_customer ON claims(customer_id, status);
CREATE INDEX IF NOT EXISTS idx_claims_policy ON claims(policy_id);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
`

const schemaUnderwritingCases = `
CREATE TABLE IF NOT EXISTS underwriting_cases (
    id {{id}},
    case_number TEXT NOT NULL UNIQUE,
    policy_id BIGINT NOT NULL,
    customer_id BIGINT NOT NULL,
    risk_score DOUBLE PRECISION NOT NULL,
    risk_level TEXT NOT NULL,
    decision TEXT NOT NULL,
    base_premium {{money}},
    recommended_premium {{money}} NOT NULL,
    underwriter_notes TEXT NOT NULL DEFAULT '',
    assigned_underwriter_id BIGINT,
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_underwriting_cases_policy ON underwriting_cases(policy_id);
`

// columnTypes holds the per-driver expansions of schema placeholders.
var columnTypes = map[string]*strings.Replacer{
	"sqlite": strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{money}}", "TEXT",
	),
	"postgres": strings.NewReplacer(
		"{{id}}", "BIGSERIAL PRIMARY KEY",
		"{{money}}", "NUMERIC(15,2)",
	),
}

// AllSchemas returns all schema definitions for driver in order.
func AllSchemas(driver string) []string {
	r, ok := columnTypes[driver]
	if !ok {
		return nil
	}
	return []string{
		r.Replace(schemaPolicies),
		r.Replace(schemaClaims),
		r.Replace(schemaUnderwritingCases),
	}
}
