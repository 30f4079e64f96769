package lending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/sequence"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

const (
	ActionRegisterMember     = "member.register"
	ActionContribute         = "member.contribute"
	ActionDeactivate         = "member.deactivate"
	ActionIssueLoan          = "loan.issue"
	ActionRepay              = "loan.repay"
	ActionSweep              = "loan.sweep"
	ActionSubmitApplication  = "application.submit"
	ActionApproveApplication = "application.approve"
	ActionRejectApplication  = "application.reject"
)

// Engine runs the lending workflows. Its only state is the identifier
// sequence.
type Engine struct {
	ids *sequence.Generator
}

func NewEngine(ids *sequence.Generator) *Engine {
	return &Engine{ids: ids}
}

// IssueLoanInput carries the terms of a loan to disburse.
type IssueLoanInput struct {
	BorrowerID   string
	CosignerID   string
	Amount       decimal.Decimal
	TermMonths   int
	FeeType      string
	InterestRate decimal.NullDecimal
	InterestType string
}

// IssueLoan validates a loan against current eligibility and produces the
// loan, the borrower update, and the disbursal and fee entries.
func (e *Engine) IssueLoan(b *Book, in IssueLoanInput, asOf time.Time) (*Delta, *domain.Loan, error) {
	if in.CosignerID == "" {
		return nil, nil, customError.WrapValidation("Cosigner is required")
	}
	if in.CosignerID == in.BorrowerID {
		return nil, nil, customError.WrapValidation("Cosigner must differ from borrower")
	}
	if err := validateLoanShape(in.Amount, in.TermMonths, in.FeeType, in.InterestRate, in.InterestType); err != nil {
		return nil, nil, err
	}

	borrowerCheck := CheckEligibility(b, in.BorrowerID, asOf)
	if !borrowerCheck.Eligible {
		return nil, nil, customError.WrapEligibility(borrowerCheck.Reason)
	}
	if in.Amount.GreaterThan(borrowerCheck.Limit) {
		return nil, nil, customError.WrapLimitExceeded(fmt.Sprintf(
			"Requested %s exceeds borrowing limit %s", in.Amount.StringFixed(2), borrowerCheck.Limit.StringFixed(2)))
	}
	cosignerCheck := CheckEligibility(b, in.CosignerID, asOf)
	if !cosignerCheck.Eligible {
		return nil, nil, customError.WrapEligibility("Cosigner ineligible: " + cosignerCheck.Reason)
	}

	fee := ApplicationFee(in.Amount, in.TermMonths)
	terms := Terms{
		Principal:    FinancedPrincipal(in.Amount, fee, in.FeeType),
		TermMonths:   in.TermMonths,
		InterestRate: in.InterestRate,
		InterestType: in.InterestType,
	}
	if terms.hasInterest() {
		terms.InterestType = terms.interestType()
	}

	loan := &domain.Loan{
		ID:                   e.ids.NextLoanID(asOf.Year()),
		BorrowerID:           in.BorrowerID,
		CosignerID:           in.CosignerID,
		OriginalAmount:       terms.Principal,
		RemainingBalance:     terms.Principal,
		TermMonths:           in.TermMonths,
		MonthlyPayment:       MonthlyPayment(terms),
		Fee:                  fee,
		FeeType:              in.FeeType,
		Status:               domain.LoanStatusActive,
		StartDate:            asOf,
		NextPaymentDue:       utils.PaymentDayAfter(asOf),
		InterestRate:         in.InterestRate,
		InterestType:         terms.InterestType,
		TotalInterestAccrued: decimal.Zero,
		GracePeriodDays:      AgreementGraceDays,
		CreatedAt:            asOf,
		UpdatedAt:            asOf,
	}

	borrower, _ := b.Member(in.BorrowerID)
	updated := borrower.Clone()
	updated.ActiveLoanID = strPtr(loan.ID)
	updated.UpdatedAt = asOf

	d := newDelta(b, ActionIssueLoan)
	d.putLoan(nil, loan)
	d.putMember(borrower.Clone(), updated)

	disbursal := newTransaction(in.BorrowerID, domain.TransactionTypeLoanDisbursal, in.Amount, asOf,
		fmt.Sprintf("Loan %s disbursed", loan.ID))
	disbursal.LoanID = strPtr(loan.ID)
	d.record(disbursal)

	feeEntry := newTransaction(in.BorrowerID, domain.TransactionTypeFee, fee, asOf, feeDescription(loan.ID, in.FeeType))
	feeEntry.LoanID = strPtr(loan.ID)
	d.record(feeEntry)

	return d, loan, nil
}

func feeDescription(loanID, feeType string) string {
	if feeType == domain.FeeTypeCapitalized {
		return fmt.Sprintf("Application fee for %s (capitalized into principal)", loanID)
	}
	return fmt.Sprintf("Application fee for %s (paid upfront)", loanID)
}
