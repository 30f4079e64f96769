// Package lending implements the loan lifecycle and eligibility rules.
//
// Every operation reads a Book and returns a Delta describing the new state.
// Nothing in this package performs I/O or mutates the Book it is given; the
// caller applies the Delta and persists it.
package lending

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/lending-ledger/internal/domain"
)

// Book is an in-memory snapshot of members, loans, applications and the
// transaction ledger.
type Book struct {
	members      map[string]*domain.Member
	loans        map[string]*domain.Loan
	applications map[uuid.UUID]*domain.LoanApplication
	transactions []*domain.Transaction
	byKey        map[string]*domain.Transaction
	lastSequence int64
}

func NewBook() *Book {
	return &Book{
		members:      make(map[string]*domain.Member),
		loans:        make(map[string]*domain.Loan),
		applications: make(map[uuid.UUID]*domain.LoanApplication),
		byKey:        make(map[string]*domain.Transaction),
	}
}

// Snapshot is the plain-record form of a Book, as loaded from storage.
type Snapshot struct {
	Members      []*domain.Member
	Loans        []*domain.Loan
	Applications []*domain.LoanApplication
	Transactions []*domain.Transaction
}

// In returns a copy of the snapshot with every timestamp expressed in loc.
// Databases hand times back in UTC or a fixed offset; calendar rules such as
// the 10th-of-month due date must be evaluated in the business zone.
func (s *Snapshot) In(loc *time.Location) *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Members:      make([]*domain.Member, 0, len(s.Members)),
		Loans:        make([]*domain.Loan, 0, len(s.Loans)),
		Applications: make([]*domain.LoanApplication, 0, len(s.Applications)),
		Transactions: make([]*domain.Transaction, 0, len(s.Transactions)),
	}
	for _, m := range s.Members {
		c := m.Clone()
		c.JoinedAt = c.JoinedAt.In(loc)
		c.UpdatedAt = c.UpdatedAt.In(loc)
		c.LastLoanPaidDate = inZone(c.LastLoanPaidDate, loc)
		out.Members = append(out.Members, c)
	}
	for _, l := range s.Loans {
		c := l.Clone()
		c.StartDate = c.StartDate.In(loc)
		c.NextPaymentDue = c.NextPaymentDue.In(loc)
		c.CreatedAt = c.CreatedAt.In(loc)
		c.UpdatedAt = c.UpdatedAt.In(loc)
		c.LastInterestCalculation = inZone(c.LastInterestCalculation, loc)
		c.BorrowerSignedAt = inZone(c.BorrowerSignedAt, loc)
		c.CosignerSignedAt = inZone(c.CosignerSignedAt, loc)
		out.Loans = append(out.Loans, c)
	}
	for _, a := range s.Applications {
		c := a.Clone()
		c.CreatedAt = c.CreatedAt.In(loc)
		c.ReviewedAt = inZone(c.ReviewedAt, loc)
		out.Applications = append(out.Applications, c)
	}
	for _, t := range s.Transactions {
		c := *t
		c.Date = c.Date.In(loc)
		out.Transactions = append(out.Transactions, &c)
	}
	return out
}

func inZone(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

// LoadBook builds a Book from stored records. Transactions are ordered by
// their ledger sequence.
func LoadBook(s *Snapshot) *Book {
	b := NewBook()
	if s == nil {
		return b
	}
	for _, m := range s.Members {
		b.members[m.ID] = m.Clone()
	}
	for _, l := range s.Loans {
		b.loans[l.ID] = l.Clone()
	}
	for _, a := range s.Applications {
		b.applications[a.ID] = a.Clone()
	}
	txs := make([]*domain.Transaction, len(s.Transactions))
	copy(txs, s.Transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Sequence < txs[j].Sequence })
	for _, t := range txs {
		b.appendTransaction(t)
	}
	return b
}

func (b *Book) Member(id string) (*domain.Member, bool) {
	m, ok := b.members[id]
	return m, ok
}

func (b *Book) Loan(id string) (*domain.Loan, bool) {
	l, ok := b.loans[id]
	return l, ok
}

func (b *Book) Application(id uuid.UUID) (*domain.LoanApplication, bool) {
	a, ok := b.applications[id]
	return a, ok
}

// Members returns members ordered by id.
func (b *Book) Members() []*domain.Member {
	out := make([]*domain.Member, 0, len(b.members))
	for _, m := range b.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Loans returns loans ordered by start date, then id.
func (b *Book) Loans() []*domain.Loan {
	out := make([]*domain.Loan, 0, len(b.loans))
	for _, l := range b.loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Applications returns applications ordered by submission time.
func (b *Book) Applications() []*domain.LoanApplication {
	out := make([]*domain.LoanApplication, 0, len(b.applications))
	for _, a := range b.applications {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (b *Book) Transactions() []*domain.Transaction {
	out := make([]*domain.Transaction, len(b.transactions))
	copy(out, b.transactions)
	return out
}

// TransactionsFor returns a member's ledger entries in ledger order.
func (b *Book) TransactionsFor(memberID string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range b.transactions {
		if t.MemberID == memberID {
			out = append(out, t)
		}
	}
	return out
}

// TransactionByKey finds the ledger entry recorded under an idempotency key.
func (b *Book) TransactionByKey(key string) (*domain.Transaction, bool) {
	t, ok := b.byKey[key]
	return t, ok
}

// ActiveCosignedLoan returns an ACTIVE loan the member cosigns, if any.
func (b *Book) ActiveCosignedLoan(memberID string) (*domain.Loan, bool) {
	for _, l := range b.Loans() {
		if l.IsActive() && l.CosignerID == memberID {
			return l, true
		}
	}
	return nil, false
}

// PendingApplication returns the member's outstanding application, if any.
func (b *Book) PendingApplication(memberID string) (*domain.LoanApplication, bool) {
	for _, a := range b.applications {
		if a.MemberID == memberID && a.IsPending() {
			return a, true
		}
	}
	return nil, false
}

func (b *Book) LastSequence() int64 {
	return b.lastSequence
}

// Apply folds a Delta into the Book.
func (b *Book) Apply(d *Delta) {
	if d == nil {
		return
	}
	for _, m := range d.Members {
		b.members[m.ID] = m.Clone()
	}
	for _, l := range d.Loans {
		b.loans[l.ID] = l.Clone()
	}
	for _, a := range d.Applications {
		b.applications[a.ID] = a.Clone()
	}
	for _, t := range d.Transactions {
		b.appendTransaction(t)
	}
}

func (b *Book) appendTransaction(t *domain.Transaction) {
	tc := *t
	b.transactions = append(b.transactions, &tc)
	if tc.IdempotencyKey != "" {
		b.byKey[tc.IdempotencyKey] = &tc
	}
	if tc.Sequence > b.lastSequence {
		b.lastSequence = tc.Sequence
	}
}
