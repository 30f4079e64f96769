package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeContribution  = "CONTRIBUTION"
	TransactionTypeLoanDisbursal = "LOAN_DISBURSAL"
	TransactionTypeLoanRepayment = "LOAN_REPAYMENT"
	TransactionTypeFee           = "FEE"
	TransactionTypeDistribution  = "DISTRIBUTION"
)

// Transaction is an append-only ledger entry. Amount is always positive; the
// direction is implied by Type.
type Transaction struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Sequence       int64           `json:"sequence" db:"sequence"`
	MemberID       string          `json:"memberId" db:"member_id"`
	LoanID         *string         `json:"loanId,omitempty" db:"loan_id"`
	Type           string          `json:"type" db:"type"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Date           time.Time       `json:"date" db:"date"`
	Description    string          `json:"description" db:"description"`
	PaymentMethod  string          `json:"paymentMethod,omitempty" db:"payment_method"`
	ReceivedBy     string          `json:"receivedBy,omitempty" db:"received_by"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty" db:"idempotency_key"`
}
