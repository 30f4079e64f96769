package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
)

// Change is the before/after pair of one entity touched by an operation.
// Before is nil for created entities.
type Change struct {
	EntityType string
	EntityID   string
	Before     any
	After      any
}

// Delta is the complete set of records an operation creates or replaces.
type Delta struct {
	Action       string
	Members      []*domain.Member
	Loans        []*domain.Loan
	Applications []*domain.LoanApplication
	Transactions []*domain.Transaction
	Changes      []Change

	nextSequence int64
}

func newDelta(b *Book, action string) *Delta {
	return &Delta{Action: action, nextSequence: b.LastSequence()}
}

// Empty reports whether applying the delta would change nothing.
func (d *Delta) Empty() bool {
	return d == nil || (len(d.Members) == 0 && len(d.Loans) == 0 &&
		len(d.Applications) == 0 && len(d.Transactions) == 0)
}

func (d *Delta) putMember(before, after *domain.Member) {
	d.Members = append(d.Members, after)
	c := Change{EntityType: domain.EntityMember, EntityID: after.ID, After: after}
	if before != nil {
		c.Before = before
	}
	d.Changes = append(d.Changes, c)
}

func (d *Delta) putLoan(before, after *domain.Loan) {
	d.Loans = append(d.Loans, after)
	c := Change{EntityType: domain.EntityLoan, EntityID: after.ID, After: after}
	if before != nil {
		c.Before = before
	}
	d.Changes = append(d.Changes, c)
}

func (d *Delta) putApplication(before, after *domain.LoanApplication) {
	d.Applications = append(d.Applications, after)
	c := Change{EntityType: domain.EntityApplication, EntityID: after.ID.String(), After: after}
	if before != nil {
		c.Before = before
	}
	d.Changes = append(d.Changes, c)
}

// record appends a ledger entry, numbering it after everything already in
// the book and in this delta.
func (d *Delta) record(t *domain.Transaction) *domain.Transaction {
	d.nextSequence++
	t.ID = uuid.New()
	t.Sequence = d.nextSequence
	d.Transactions = append(d.Transactions, t)
	return t
}

// merge folds other into d, keeping d's action.
func (d *Delta) merge(other *Delta) {
	d.Members = append(d.Members, other.Members...)
	d.Loans = append(d.Loans, other.Loans...)
	d.Applications = append(d.Applications, other.Applications...)
	d.Transactions = append(d.Transactions, other.Transactions...)
	d.Changes = append(d.Changes, other.Changes...)
	if other.nextSequence > d.nextSequence {
		d.nextSequence = other.nextSequence
	}
}

func newTransaction(memberID, txType string, amount decimal.Decimal, asOf time.Time, description string) *domain.Transaction {
	return &domain.Transaction{
		MemberID:    memberID,
		Type:        txType,
		Amount:      amount,
		Date:        asOf,
		Description: description,
	}
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
