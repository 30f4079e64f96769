package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-ledger/internal/lending"
)

const (
	memberColumns = `id, name, email, total_contribution, account_status, active_loan_id,
		last_loan_paid_date, joined_at, updated_at`

	loanColumns = `id, borrower_id, cosigner_id, original_amount, remaining_balance, term_months,
		monthly_payment, fee, fee_type, status, start_date, next_payment_due, interest_rate,
		interest_type, total_interest_accrued, last_interest_calculation, missed_payments,
		grace_period_days, borrower_signed_at, cosigner_signed_at, created_at, updated_at`

	applicationColumns = `id, member_id, amount, term, purpose, proposed_cosigner_id, status,
		loan_id, created_at, reviewed_at, reviewed_by`

	transactionColumns = `id, sequence, member_id, loan_id, type, amount, date, description,
		payment_method, received_by, idempotency_key`
)

const upsertMember = `
	INSERT INTO members (` + memberColumns + `)
	VALUES (:id, :name, :email, :total_contribution, :account_status, :active_loan_id,
		:last_loan_paid_date, :joined_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		total_contribution = excluded.total_contribution,
		account_status = excluded.account_status,
		active_loan_id = excluded.active_loan_id,
		last_loan_paid_date = excluded.last_loan_paid_date,
		updated_at = excluded.updated_at
`

const upsertLoan = `
	INSERT INTO loans (` + loanColumns + `)
	VALUES (:id, :borrower_id, :cosigner_id, :original_amount, :remaining_balance, :term_months,
		:monthly_payment, :fee, :fee_type, :status, :start_date, :next_payment_due, :interest_rate,
		:interest_type, :total_interest_accrued, :last_interest_calculation, :missed_payments,
		:grace_period_days, :borrower_signed_at, :cosigner_signed_at, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		remaining_balance = excluded.remaining_balance,
		status = excluded.status,
		next_payment_due = excluded.next_payment_due,
		total_interest_accrued = excluded.total_interest_accrued,
		last_interest_calculation = excluded.last_interest_calculation,
		missed_payments = excluded.missed_payments,
		borrower_signed_at = excluded.borrower_signed_at,
		cosigner_signed_at = excluded.cosigner_signed_at,
		updated_at = excluded.updated_at
`

const upsertApplication = `
	INSERT INTO loan_applications (` + applicationColumns + `)
	VALUES (:id, :member_id, :amount, :term, :purpose, :proposed_cosigner_id, :status,
		:loan_id, :created_at, :reviewed_at, :reviewed_by)
	ON CONFLICT (id) DO UPDATE SET
		status = excluded.status,
		loan_id = excluded.loan_id,
		reviewed_at = excluded.reviewed_at,
		reviewed_by = excluded.reviewed_by
`

// Transactions are immutable; a replayed insert is ignored.
const insertTransaction = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES (:id, :sequence, :member_id, :loan_id, :type, :amount, :date, :description,
		:payment_method, :received_by, :idempotency_key)
	ON CONFLICT (id) DO NOTHING
`

type ledgerRepository struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Load(ctx context.Context) (*lending.Snapshot, error) {
	var snap lending.Snapshot

	if err := r.db.SelectContext(ctx, &snap.Members,
		`SELECT `+memberColumns+` FROM members ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	if err := r.db.SelectContext(ctx, &snap.Loans,
		`SELECT `+loanColumns+` FROM loans ORDER BY start_date, id`); err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	if err := r.db.SelectContext(ctx, &snap.Applications,
		`SELECT `+applicationColumns+` FROM loan_applications ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}

	if err := r.db.SelectContext(ctx, &snap.Transactions,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY sequence`); err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return &snap, nil
}

func (r *ledgerRepository) Save(ctx context.Context, delta *lending.Delta) error {
	if delta.Empty() {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Members first so loans, applications and transactions can reference them.
	for _, m := range delta.Members {
		if _, err := tx.NamedExecContext(ctx, upsertMember, m); err != nil {
			return fmt.Errorf("failed to save member %s: %w", m.ID, err)
		}
	}

	for _, l := range delta.Loans {
		if _, err := tx.NamedExecContext(ctx, upsertLoan, l); err != nil {
			return fmt.Errorf("failed to save loan %s: %w", l.ID, err)
		}
	}

	for _, a := range delta.Applications {
		if _, err := tx.NamedExecContext(ctx, upsertApplication, a); err != nil {
			return fmt.Errorf("failed to save application %s: %w", a.ID, err)
		}
	}

	for _, t := range delta.Transactions {
		if _, err := tx.NamedExecContext(ctx, insertTransaction, t); err != nil {
			return fmt.Errorf("failed to append transaction %d: %w", t.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", delta.Action, err)
	}
	return nil
}

func (r *ledgerRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

