package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DTOs for requests and responses

type RegisterMemberRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

type ContributionRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"decimal_gt0,decimal_cents"`
	PaymentMethod string          `json:"paymentMethod" validate:"omitempty,max=40"`
	ReceivedBy    string          `json:"receivedBy" validate:"omitempty,max=120"`
}

type IssueLoanRequest struct {
	BorrowerID   string              `json:"borrowerId" validate:"required"`
	CosignerID   string              `json:"cosignerId" validate:"required,nefield=BorrowerID"`
	Amount       decimal.Decimal     `json:"amount" validate:"decimal_gt0,decimal_cents"`
	TermMonths   int                 `json:"termMonths" validate:"oneof=12 24"`
	FeeType      string              `json:"feeType" validate:"oneof=upfront capitalized"`
	InterestRate decimal.NullDecimal `json:"interestRate"`
	InterestType string              `json:"interestType" validate:"omitempty,oneof=SIMPLE COMPOUND"`
}

type RepaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"decimal_gt0,decimal_cents"`
	PaymentMethod  string          `json:"paymentMethod" validate:"omitempty,max=40"`
	ReceivedBy     string          `json:"receivedBy" validate:"omitempty,max=120"`
	IdempotencyKey string          `json:"-"`
}

type RepaymentResult struct {
	LoanID         string          `json:"loanId"`
	NewBalance     decimal.Decimal `json:"newBalance"`
	Status         string          `json:"status"`
	LateFee        decimal.Decimal `json:"lateFee"`
	NextPaymentDue *time.Time      `json:"nextPaymentDue,omitempty"`
	Replayed       bool            `json:"replayed"`
}

type SubmitApplicationRequest struct {
	MemberID           string          `json:"memberId" validate:"required"`
	Amount             decimal.Decimal `json:"amount" validate:"decimal_gt0,decimal_cents"`
	Term               int             `json:"term" validate:"oneof=12 24"`
	Purpose            string          `json:"purpose" validate:"required,max=500"`
	ProposedCosignerID string          `json:"proposedCosignerId" validate:"required,nefield=MemberID"`
}

type ApproveApplicationRequest struct {
	FeeType string `json:"feeType" validate:"oneof=upfront capitalized"`
}

type EligibilityResponse struct {
	MemberID string           `json:"memberId"`
	Eligible bool             `json:"eligible"`
	Reason   string           `json:"reason,omitempty"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
}
