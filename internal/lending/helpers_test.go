package lending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/sequence"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activeMember(id, total string) *domain.Member {
	return &domain.Member{
		ID:                id,
		Name:              "Member " + id,
		TotalContribution: dec(total),
		AccountStatus:     domain.AccountStatusActive,
		JoinedAt:          testNow.AddDate(-1, 0, 0),
	}
}

func bookWith(members ...*domain.Member) *Book {
	return LoadBook(&Snapshot{Members: members})
}

func newTestEngine(b *Book) *Engine {
	ids := sequence.NewGenerator()
	for _, m := range b.Members() {
		ids.Observe(m.ID)
	}
	for _, l := range b.Loans() {
		ids.Observe(l.ID)
	}
	return NewEngine(ids)
}

// issue runs IssueLoan and applies the result, failing the test on error.
func issue(t *testing.T, e *Engine, b *Book, in IssueLoanInput, asOf time.Time) *domain.Loan {
	t.Helper()
	d, loan, err := e.IssueLoan(b, in, asOf)
	require.NoError(t, err)
	b.Apply(d)
	return loan
}

func standardLoan(amount string, term int, feeType string) IssueLoanInput {
	return IssueLoanInput{
		BorrowerID: "MC-0001",
		CosignerID: "MC-0002",
		Amount:     dec(amount),
		TermMonths: term,
		FeeType:    feeType,
	}
}

func countByType(txs []*domain.Transaction, txType string) int {
	n := 0
	for _, t := range txs {
		if t.Type == txType {
			n++
		}
	}
	return n
}
