package lending

import (
	"time"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

// MissedPayments counts the monthly due dates, starting at the loan's next
// due date, that had fully passed by asOf.
func MissedPayments(l *domain.Loan, asOf time.Time) int {
	if !l.IsActive() {
		return 0
	}
	missed := 0
	for due := l.NextPaymentDue.In(asOf.Location()); utils.IsPastDue(due, asOf); due = utils.PaymentDayAfter(due) {
		missed++
	}
	return missed
}

// SweepMissedPayments refreshes the missed-payment counter of every ACTIVE
// loan. Balances, fees and interest are left alone.
func (e *Engine) SweepMissedPayments(b *Book, asOf time.Time) *Delta {
	d := newDelta(b, ActionSweep)
	for _, current := range b.Loans() {
		if !current.IsActive() {
			continue
		}
		missed := MissedPayments(current, asOf)
		if missed == current.MissedPayments {
			continue
		}
		l := current.Clone()
		l.MissedPayments = missed
		l.UpdatedAt = asOf
		d.putLoan(current.Clone(), l)
	}
	return d
}

// DueBetween returns ACTIVE loans whose next payment falls in [from, to].
func DueBetween(b *Book, from, to time.Time) []*domain.Loan {
	var out []*domain.Loan
	for _, l := range b.Loans() {
		if !l.IsActive() {
			continue
		}
		if !l.NextPaymentDue.Before(utils.StartOfDay(from)) && !l.NextPaymentDue.After(utils.EndOfDay(to)) {
			out = append(out, l)
		}
	}
	return out
}
