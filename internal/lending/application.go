package lending

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

// ApplicationInput is a member's loan request.
type ApplicationInput struct {
	MemberID           string
	Amount             decimal.Decimal
	Term               int
	Purpose            string
	ProposedCosignerID string
}

// SubmitApplication records a PENDING application. A member may have only
// one PENDING application at a time.
func (e *Engine) SubmitApplication(b *Book, in ApplicationInput, asOf time.Time) (*Delta, *domain.LoanApplication, error) {
	if err := checkAmount(in.Amount, "Amount"); err != nil {
		return nil, nil, err
	}
	if in.Term != 12 && in.Term != 24 {
		return nil, nil, customError.WrapValidation("Term must be 12 or 24 months")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		return nil, nil, customError.WrapValidation("Purpose is required")
	}
	if in.ProposedCosignerID == "" {
		return nil, nil, customError.WrapValidation("Cosigner is required")
	}
	if in.ProposedCosignerID == in.MemberID {
		return nil, nil, customError.WrapValidation("Cosigner must differ from borrower")
	}
	if _, ok := b.Member(in.MemberID); !ok {
		return nil, nil, customError.WrapMemberNotFound(in.MemberID)
	}
	if _, ok := b.Member(in.ProposedCosignerID); !ok {
		return nil, nil, customError.WrapMemberNotFound(in.ProposedCosignerID)
	}
	if pending, ok := b.PendingApplication(in.MemberID); ok {
		return nil, nil, customError.WrapStateConflict(fmt.Sprintf(
			"Member %s already has pending application %s", in.MemberID, pending.ID))
	}

	app := &domain.LoanApplication{
		ID:                 uuid.New(),
		MemberID:           in.MemberID,
		Amount:             in.Amount,
		Term:               in.Term,
		Purpose:            strings.TrimSpace(in.Purpose),
		ProposedCosignerID: in.ProposedCosignerID,
		Status:             domain.ApplicationStatusPending,
		CreatedAt:          asOf,
	}

	d := newDelta(b, ActionSubmitApplication)
	d.putApplication(nil, app)
	return d, app, nil
}

// ApproveApplication issues the requested loan against current state and
// marks the application APPROVED. If issuance is refused the application
// stays PENDING and may be reviewed again.
func (e *Engine) ApproveApplication(b *Book, id uuid.UUID, feeType, reviewer string, asOf time.Time) (*Delta, *domain.Loan, error) {
	current, err := pendingApplication(b, id)
	if err != nil {
		return nil, nil, err
	}

	issued, loan, err := e.IssueLoan(b, IssueLoanInput{
		BorrowerID: current.MemberID,
		CosignerID: current.ProposedCosignerID,
		Amount:     current.Amount,
		TermMonths: current.Term,
		FeeType:    feeType,
	}, asOf)
	if err != nil {
		return nil, nil, err
	}

	app := current.Clone()
	app.Status = domain.ApplicationStatusApproved
	app.LoanID = strPtr(loan.ID)
	app.ReviewedAt = timePtr(asOf)
	app.ReviewedBy = reviewer

	d := newDelta(b, ActionApproveApplication)
	d.merge(issued)
	d.putApplication(current.Clone(), app)
	return d, loan, nil
}

// RejectApplication marks a PENDING application REJECTED.
func (e *Engine) RejectApplication(b *Book, id uuid.UUID, reviewer string, asOf time.Time) (*Delta, *domain.LoanApplication, error) {
	current, err := pendingApplication(b, id)
	if err != nil {
		return nil, nil, err
	}

	app := current.Clone()
	app.Status = domain.ApplicationStatusRejected
	app.ReviewedAt = timePtr(asOf)
	app.ReviewedBy = reviewer

	d := newDelta(b, ActionRejectApplication)
	d.putApplication(current.Clone(), app)
	return d, app, nil
}

func pendingApplication(b *Book, id uuid.UUID) (*domain.LoanApplication, error) {
	app, ok := b.Application(id)
	if !ok {
		return nil, customError.WrapApplicationNotFound(id.String())
	}
	if !app.IsPending() {
		return nil, customError.WrapStateConflict(fmt.Sprintf("Application %s is already %s", id, app.Status))
	}
	return app, nil
}
