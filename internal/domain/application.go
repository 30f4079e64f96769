package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ApplicationStatusPending  = "PENDING"
	ApplicationStatusApproved = "APPROVED"
	ApplicationStatusRejected = "REJECTED"
)

// LoanApplication is a member-submitted loan request awaiting admin review.
type LoanApplication struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	MemberID           string          `json:"memberId" db:"member_id"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	Term               int             `json:"term" db:"term"`
	Purpose            string          `json:"purpose" db:"purpose"`
	ProposedCosignerID string          `json:"proposedCosignerId" db:"proposed_cosigner_id"`
	Status             string          `json:"status" db:"status"`
	LoanID             *string         `json:"loanId,omitempty" db:"loan_id"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	ReviewedAt         *time.Time      `json:"reviewedAt,omitempty" db:"reviewed_at"`
	ReviewedBy         string          `json:"reviewedBy,omitempty" db:"reviewed_by"`
}

func (a *LoanApplication) IsPending() bool {
	return a.Status == ApplicationStatusPending
}

func (a *LoanApplication) Clone() *LoanApplication {
	c := *a
	if a.LoanID != nil {
		id := *a.LoanID
		c.LoanID = &id
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}
