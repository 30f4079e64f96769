package lending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

// RepaymentInput is a payment received against a loan.
type RepaymentInput struct {
	LoanID         string
	Amount         decimal.Decimal
	PaymentMethod  string
	ReceivedBy     string
	IdempotencyKey string
}

// Repay applies a payment to a loan. A payment made after the due date first
// assesses the late fee, which is added to the balance being paid down.
//
// A repeated idempotency key returns the loan's current position with
// Replayed set and a nil Delta.
func (e *Engine) Repay(b *Book, in RepaymentInput, asOf time.Time) (*Delta, *domain.RepaymentResult, error) {
	if in.IdempotencyKey != "" {
		if prior, ok := b.TransactionByKey(in.IdempotencyKey); ok {
			return replay(b, prior, in)
		}
	}

	if err := checkAmount(in.Amount, "Payment amount"); err != nil {
		return nil, nil, err
	}

	current, ok := b.Loan(in.LoanID)
	if !ok {
		return nil, nil, customError.WrapLoanNotFound(in.LoanID)
	}
	if !current.IsActive() {
		return nil, nil, customError.WrapStateConflict(fmt.Sprintf("Loan %s is %s", current.ID, current.Status))
	}

	lateFee := LateFeeDue(current, asOf)
	effective := current.RemainingBalance.Add(lateFee)
	if in.Amount.GreaterThan(effective.Add(RoundingTolerance)) {
		return nil, nil, customError.WrapLimitExceeded(fmt.Sprintf(
			"Payment %s exceeds remaining balance %s", in.Amount.StringFixed(2), effective.StringFixed(2)))
	}
	if lateFee.IsPositive() && in.Amount.LessThan(lateFee) {
		return nil, nil, customError.WrapValidation(fmt.Sprintf(
			"Late payment must at least cover the %s late fee", lateFee.StringFixed(2)))
	}

	loan := current.Clone()
	newBalance := effective.Sub(in.Amount)
	if newBalance.LessThan(RoundingTolerance) {
		newBalance = decimal.Zero
	}
	loan.RemainingBalance = newBalance
	loan.UpdatedAt = asOf
	if newBalance.IsZero() {
		loan.Status = domain.LoanStatusPaid
		loan.MissedPayments = 0
	} else {
		loan.NextPaymentDue = utils.PaymentDayAfter(current.NextPaymentDue.In(asOf.Location()))
		loan.MissedPayments = MissedPayments(loan, asOf)
	}

	d := newDelta(b, ActionRepay)
	d.putLoan(current.Clone(), loan)

	if lateFee.IsPositive() {
		fee := newTransaction(loan.BorrowerID, domain.TransactionTypeFee, lateFee, asOf,
			fmt.Sprintf("Late fee for %s (due %s)", loan.ID, current.NextPaymentDue.Format(time.DateOnly)))
		fee.LoanID = strPtr(loan.ID)
		d.record(fee)
	}

	payment := newTransaction(loan.BorrowerID, domain.TransactionTypeLoanRepayment, in.Amount, asOf,
		fmt.Sprintf("Repayment on %s", loan.ID))
	payment.LoanID = strPtr(loan.ID)
	payment.PaymentMethod = in.PaymentMethod
	payment.ReceivedBy = in.ReceivedBy
	payment.IdempotencyKey = in.IdempotencyKey
	d.record(payment)

	if loan.Status == domain.LoanStatusPaid {
		if borrower, ok := b.Member(loan.BorrowerID); ok {
			updated := borrower.Clone()
			updated.ActiveLoanID = nil
			updated.LastLoanPaidDate = timePtr(asOf)
			updated.UpdatedAt = asOf
			d.putMember(borrower.Clone(), updated)
		}
	}

	return d, resultFor(loan, lateFee, false), nil
}

func replay(b *Book, prior *domain.Transaction, in RepaymentInput) (*Delta, *domain.RepaymentResult, error) {
	if prior.Type != domain.TransactionTypeLoanRepayment || prior.LoanID == nil || *prior.LoanID != in.LoanID {
		return nil, nil, customError.WrapValidation("Idempotency key was already used for a different request")
	}
	loan, ok := b.Loan(in.LoanID)
	if !ok {
		return nil, nil, customError.WrapLoanNotFound(in.LoanID)
	}
	return nil, resultFor(loan, decimal.Zero, true), nil
}

func resultFor(loan *domain.Loan, lateFee decimal.Decimal, replayed bool) *domain.RepaymentResult {
	res := &domain.RepaymentResult{
		LoanID:     loan.ID,
		NewBalance: loan.RemainingBalance,
		Status:     loan.Status,
		LateFee:    lateFee,
		Replayed:   replayed,
	}
	if loan.IsActive() {
		res.NextPaymentDue = timePtr(loan.NextPaymentDue)
	}
	return res
}
