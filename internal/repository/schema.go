package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Column types differ per engine; SQLite keeps money as TEXT so no precision
// is lost and declares times as TIMESTAMP so the driver parses them back.
type dialect struct {
	money     string
	rate      string
	timestamp string
	uuid      string
	json      string
}

var dialects = map[string]dialect{
	DriverPostgres: {money: "NUMERIC(14,2)", rate: "NUMERIC(7,4)", timestamp: "TIMESTAMPTZ", uuid: "UUID", json: "JSONB"},
	DriverSQLite:   {money: "TEXT", rate: "TEXT", timestamp: "TIMESTAMP", uuid: "TEXT", json: "TEXT"},
}

func schemaFor(d dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			total_contribution %[1]s NOT NULL,
			account_status TEXT NOT NULL,
			active_loan_id TEXT,
			last_loan_paid_date %[2]s,
			joined_at %[2]s NOT NULL,
			updated_at %[2]s NOT NULL
		)`, d.money, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS loans (
			id TEXT PRIMARY KEY,
			borrower_id TEXT NOT NULL REFERENCES members(id),
			cosigner_id TEXT NOT NULL REFERENCES members(id),
			original_amount %[1]s NOT NULL,
			remaining_balance %[1]s NOT NULL,
			term_months INTEGER NOT NULL,
			monthly_payment %[1]s NOT NULL,
			fee %[1]s NOT NULL,
			fee_type TEXT NOT NULL,
			status TEXT NOT NULL,
			start_date %[2]s NOT NULL,
			next_payment_due %[2]s NOT NULL,
			interest_rate %[3]s,
			interest_type TEXT NOT NULL DEFAULT '',
			total_interest_accrued %[1]s NOT NULL,
			last_interest_calculation %[2]s,
			missed_payments INTEGER NOT NULL DEFAULT 0,
			grace_period_days INTEGER NOT NULL DEFAULT 0,
			borrower_signed_at %[2]s,
			cosigner_signed_at %[2]s,
			created_at %[2]s NOT NULL,
			updated_at %[2]s NOT NULL
		)`, d.money, d.timestamp, d.rate),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS loan_applications (
			id %[3]s PRIMARY KEY,
			member_id TEXT NOT NULL REFERENCES members(id),
			amount %[1]s NOT NULL,
			term INTEGER NOT NULL,
			purpose TEXT NOT NULL,
			proposed_cosigner_id TEXT NOT NULL,
			status TEXT NOT NULL,
			loan_id TEXT,
			created_at %[2]s NOT NULL,
			reviewed_at %[2]s,
			reviewed_by TEXT NOT NULL DEFAULT ''
		)`, d.money, d.timestamp, d.uuid),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			id %[3]s PRIMARY KEY,
			sequence BIGINT NOT NULL UNIQUE,
			member_id TEXT NOT NULL REFERENCES members(id),
			loan_id TEXT,
			type TEXT NOT NULL,
			amount %[1]s NOT NULL,
			date %[2]s NOT NULL,
			description TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT '',
			received_by TEXT NOT NULL DEFAULT '',
			idempotency_key TEXT NOT NULL DEFAULT ''
		)`, d.money, d.timestamp, d.uuid),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency_key
			ON transactions (idempotency_key) WHERE idempotency_key <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_member_id ON transactions (member_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS audit_events (
			id %[1]s PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			before_state %[2]s,
			after_state %[2]s,
			at %[3]s NOT NULL
		)`, d.uuid, d.json, d.timestamp),
		`CREATE INDEX IF NOT EXISTS idx_audit_events_entity ON audit_events (entity_type, entity_id)`,
	}
}

// Migrate creates the ledger tables if they don't already exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", db.DriverName())
	}

	if db.DriverName() == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	for _, stmt := range schemaFor(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Open connects to the configured database and makes sure the schema exists.
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	// Every connection to an in-memory SQLite database sees its own copy.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
