package lending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
)

// Discrepancy is an aggregate that disagrees with its transaction history.
type Discrepancy struct {
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Recorded   decimal.Decimal `json:"recorded"`
	Expected   decimal.Decimal `json:"expected"`
	Detail     string          `json:"detail"`
}

// ReconciliationReport compares member and loan aggregates with the ledger.
type ReconciliationReport struct {
	GeneratedAt       time.Time     `json:"generatedAt"`
	MembersChecked    int           `json:"membersChecked"`
	LoansChecked      int           `json:"loansChecked"`
	TotalTransactions int           `json:"totalTransactions"`
	Discrepancies     []Discrepancy `json:"discrepancies"`
	IsBalanced        bool          `json:"isBalanced"`
}

// Reconcile checks that every member's contribution balance equals
// contributions less distributions, and every loan's remaining balance equals
// its original amount plus late fees less repayments.
func Reconcile(b *Book, asOf time.Time) *ReconciliationReport {
	contributed := make(map[string]decimal.Decimal)
	loanFees := make(map[string]decimal.Decimal)
	repaid := make(map[string]decimal.Decimal)

	txs := b.Transactions()
	for _, t := range txs {
		switch t.Type {
		case domain.TransactionTypeContribution:
			contributed[t.MemberID] = contributed[t.MemberID].Add(t.Amount)
		case domain.TransactionTypeDistribution:
			contributed[t.MemberID] = contributed[t.MemberID].Sub(t.Amount)
		case domain.TransactionTypeFee:
			if t.LoanID != nil {
				loanFees[*t.LoanID] = loanFees[*t.LoanID].Add(t.Amount)
			}
		case domain.TransactionTypeLoanRepayment:
			if t.LoanID != nil {
				repaid[*t.LoanID] = repaid[*t.LoanID].Add(t.Amount)
			}
		}
	}

	report := &ReconciliationReport{
		GeneratedAt:       asOf,
		TotalTransactions: len(txs),
		Discrepancies:     []Discrepancy{},
	}

	for _, m := range b.Members() {
		report.MembersChecked++
		expected := contributed[m.ID]
		if !m.TotalContribution.Equal(expected) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				EntityType: domain.EntityMember,
				EntityID:   m.ID,
				Recorded:   m.TotalContribution,
				Expected:   expected,
				Detail:     "total contribution does not match contributions less distributions",
			})
		}
	}

	for _, l := range b.Loans() {
		report.LoansChecked++
		// The issuance fee is on the ledger too; only late fees add to the balance.
		lateFees := loanFees[l.ID].Sub(l.Fee)
		expected := l.OriginalAmount.Add(lateFees).Sub(repaid[l.ID])
		if expected.IsNegative() {
			expected = decimal.Zero
		}
		if expected.Sub(l.RemainingBalance).Abs().GreaterThan(RoundingTolerance) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				EntityType: domain.EntityLoan,
				EntityID:   l.ID,
				Recorded:   l.RemainingBalance,
				Expected:   expected,
				Detail:     fmt.Sprintf("remaining balance does not match %s ledger entries", l.ID),
			})
		}
	}

	report.IsBalanced = len(report.Discrepancies) == 0
	return report
}
