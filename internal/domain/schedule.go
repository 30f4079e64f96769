package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry is one month of a loan's amortization schedule.
type ScheduleEntry struct {
	Period    int             `json:"period"`
	DueDate   time.Time       `json:"dueDate"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type ScheduleResponse struct {
	LoanID   string           `json:"loanId"`
	Schedule []*ScheduleEntry `json:"schedule"`
}

// Quote is a preview of the cost of a prospective loan.
type Quote struct {
	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	TermMonths      int              `json:"termMonths"`
	FeeType         string           `json:"feeType"`
	Fee             decimal.Decimal  `json:"fee"`
	Principal       decimal.Decimal  `json:"principal"`
	MonthlyPayment  decimal.Decimal  `json:"monthlyPayment"`
	TotalInterest   decimal.Decimal  `json:"totalInterest"`
	Schedule        []*ScheduleEntry `json:"schedule"`
	Agreement       AgreementTerms   `json:"agreement"`
}

// AgreementTerms is the wording printed on the loan agreement. The late fee
// stated here is documentation; repayments assess the flat repayment-time fee.
type AgreementTerms struct {
	LateFee         decimal.Decimal `json:"lateFee"`
	GracePeriodDays int             `json:"gracePeriodDays"`
	Text            string          `json:"text"`
}
