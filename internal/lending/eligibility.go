package lending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/pkg/utils"
)

// Borrowing policy.
const (
	LimitMultiplier = 4
	CoolOffMonths   = 3
)

var LimitCap = decimal.NewFromInt(5000)

// Ineligibility reasons, in evaluation order.
const (
	ReasonMemberNotFound = "Member not found"
	ReasonInactive       = "Inactive account"
	ReasonActiveLoan     = "Active loan exists"
	ReasonNoContribution = "No contributions"
	ReasonActiveCosigner = "Active cosigner on another loan"
)

// Eligibility is the outcome of an eligibility check. Limit is zero unless
// Eligible is true.
type Eligibility struct {
	Eligible bool
	Reason   string
	Limit    decimal.Decimal
}

// BorrowingLimit is min(4 x total contribution, 5000).
func BorrowingLimit(totalContribution decimal.Decimal) decimal.Decimal {
	return decimal.Min(totalContribution.Mul(decimal.NewFromInt(LimitMultiplier)), LimitCap)
}

// CheckEligibility decides whether a member may borrow or cosign as of the
// given date. The first failing rule determines the reason.
func CheckEligibility(b *Book, memberID string, asOf time.Time) Eligibility {
	m, ok := b.Member(memberID)
	if !ok {
		return Eligibility{Reason: ReasonMemberNotFound}
	}
	if !m.IsActive() {
		return Eligibility{Reason: ReasonInactive}
	}
	if m.HasActiveLoan() {
		return Eligibility{Reason: ReasonActiveLoan}
	}
	if !m.TotalContribution.IsPositive() {
		return Eligibility{Reason: ReasonNoContribution}
	}
	if _, cosigning := b.ActiveCosignedLoan(memberID); cosigning {
		return Eligibility{Reason: ReasonActiveCosigner}
	}
	if m.LastLoanPaidDate != nil {
		since := utils.CalendarMonthsBetween(*m.LastLoanPaidDate, asOf)
		if since < CoolOffMonths {
			return Eligibility{Reason: coolOffReason(CoolOffMonths - since)}
		}
	}
	return Eligibility{Eligible: true, Limit: BorrowingLimit(m.TotalContribution)}
}

func coolOffReason(monthsLeft int) string {
	return fmt.Sprintf("Cool-off (%d mo. left)", monthsLeft)
}
