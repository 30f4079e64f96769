package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive = "ACTIVE"
	LoanStatusPaid   = "PAID"
	// LoanStatusDefault has no inbound transition yet.
	LoanStatusDefault = "DEFAULTED"
)

const (
	FeeTypeUpfront     = "upfront"
	FeeTypeCapitalized = "capitalized"
)

const (
	InterestTypeSimple   = "SIMPLE"
	InterestTypeCompound = "COMPOUND"
)

// Loan represents a loan entity
type Loan struct {
	ID                      string              `json:"id" db:"id"`
	BorrowerID              string              `json:"borrowerId" db:"borrower_id"`
	CosignerID              string              `json:"cosignerId" db:"cosigner_id"`
	OriginalAmount          decimal.Decimal     `json:"originalAmount" db:"original_amount"`
	RemainingBalance        decimal.Decimal     `json:"remainingBalance" db:"remaining_balance"`
	TermMonths              int                 `json:"termMonths" db:"term_months"`
	MonthlyPayment          decimal.Decimal     `json:"monthlyPayment" db:"monthly_payment"`
	Fee                     decimal.Decimal     `json:"fee" db:"fee"`
	FeeType                 string              `json:"feeType" db:"fee_type"`
	Status                  string              `json:"status" db:"status"`
	StartDate               time.Time           `json:"startDate" db:"start_date"`
	NextPaymentDue          time.Time           `json:"nextPaymentDue" db:"next_payment_due"`
	InterestRate            decimal.NullDecimal `json:"interestRate" db:"interest_rate"`
	InterestType            string              `json:"interestType,omitempty" db:"interest_type"`
	TotalInterestAccrued    decimal.Decimal     `json:"totalInterestAccrued" db:"total_interest_accrued"`
	LastInterestCalculation *time.Time          `json:"lastInterestCalculation" db:"last_interest_calculation"`
	MissedPayments          int                 `json:"missedPayments" db:"missed_payments"`
	GracePeriodDays         int                 `json:"gracePeriodDays" db:"grace_period_days"`
	BorrowerSignedAt        *time.Time          `json:"borrowerSignedAt,omitempty" db:"borrower_signed_at"`
	CosignerSignedAt        *time.Time          `json:"cosignerSignedAt,omitempty" db:"cosigner_signed_at"`
	CreatedAt               time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time           `json:"updatedAt" db:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

func (l *Loan) Clone() *Loan {
	c := *l
	for _, p := range []**time.Time{&c.LastInterestCalculation, &c.BorrowerSignedAt, &c.CosignerSignedAt} {
		if *p != nil {
			t := **p
			*p = &t
		}
	}
	return &c
}
