package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountStatusActive   = "Active"
	AccountStatusInactive = "Inactive"
)

// Member is a participant in the lending pool. TotalContribution funds the
// member's borrowing limit.
type Member struct {
	ID                string          `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Email             string          `json:"email,omitempty" db:"email"`
	TotalContribution decimal.Decimal `json:"totalContribution" db:"total_contribution"`
	AccountStatus     string          `json:"accountStatus" db:"account_status"`
	ActiveLoanID      *string         `json:"activeLoanId" db:"active_loan_id"`
	LastLoanPaidDate  *time.Time      `json:"lastLoanPaidDate" db:"last_loan_paid_date"`
	JoinedAt          time.Time       `json:"joinedAt" db:"joined_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

func (m *Member) IsActive() bool {
	return m.AccountStatus == AccountStatusActive
}

func (m *Member) HasActiveLoan() bool {
	return m.ActiveLoanID != nil && *m.ActiveLoanID != ""
}

// Clone returns a deep copy so a proposed change never aliases the current state.
func (m *Member) Clone() *Member {
	c := *m
	if m.ActiveLoanID != nil {
		id := *m.ActiveLoanID
		c.ActiveLoanID = &id
	}
	if m.LastLoanPaidDate != nil {
		d := *m.LastLoanPaidDate
		c.LastLoanPaidDate = &d
	}
	return &c
}
