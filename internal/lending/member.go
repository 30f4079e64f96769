package lending

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

// RegisterMember enrolls a new Active member with no contributions.
func (e *Engine) RegisterMember(b *Book, name, email string, asOf time.Time) (*Delta, *domain.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, customError.WrapValidation("Name is required")
	}

	m := &domain.Member{
		ID:                e.ids.NextMemberID(),
		Name:              name,
		Email:             strings.TrimSpace(email),
		TotalContribution: decimal.Zero,
		AccountStatus:     domain.AccountStatusActive,
		JoinedAt:          asOf,
		UpdatedAt:         asOf,
	}

	d := newDelta(b, ActionRegisterMember)
	d.putMember(nil, m)
	return d, m, nil
}

// ContributionInput is money paid into the pool by a member.
type ContributionInput struct {
	MemberID      string
	Amount        decimal.Decimal
	PaymentMethod string
	ReceivedBy    string
}

// RecordContribution credits an Active member's contribution balance.
func (e *Engine) RecordContribution(b *Book, in ContributionInput, asOf time.Time) (*Delta, *domain.Member, error) {
	if err := checkAmount(in.Amount, "Contribution"); err != nil {
		return nil, nil, err
	}
	current, ok := b.Member(in.MemberID)
	if !ok {
		return nil, nil, customError.WrapMemberNotFound(in.MemberID)
	}
	if !current.IsActive() {
		return nil, nil, customError.WrapStateConflict(fmt.Sprintf("Member %s is inactive", in.MemberID))
	}

	m := current.Clone()
	m.TotalContribution = m.TotalContribution.Add(in.Amount)
	m.UpdatedAt = asOf

	d := newDelta(b, ActionContribute)
	d.putMember(current.Clone(), m)

	tx := newTransaction(m.ID, domain.TransactionTypeContribution, in.Amount, asOf, "Member contribution")
	tx.PaymentMethod = in.PaymentMethod
	tx.ReceivedBy = in.ReceivedBy
	d.record(tx)

	return d, m, nil
}

// Deactivate pays out a member's whole contribution balance and closes the
// account. The member must not owe or guarantee an ACTIVE loan.
func (e *Engine) Deactivate(b *Book, memberID string, asOf time.Time) (*Delta, *domain.Member, error) {
	current, ok := b.Member(memberID)
	if !ok {
		return nil, nil, customError.WrapMemberNotFound(memberID)
	}
	if !current.IsActive() {
		return nil, nil, customError.WrapStateConflict(fmt.Sprintf("Member %s is already inactive", memberID))
	}
	if current.HasActiveLoan() {
		return nil, nil, customError.WrapEligibility(ReasonActiveLoan)
	}
	if _, cosigning := b.ActiveCosignedLoan(memberID); cosigning {
		return nil, nil, customError.WrapEligibility(ReasonActiveCosigner)
	}

	d := newDelta(b, ActionDeactivate)

	// Zero balances produce no entry: ledger amounts are always positive.
	if current.TotalContribution.IsPositive() {
		d.record(newTransaction(memberID, domain.TransactionTypeDistribution, current.TotalContribution, asOf,
			"Contribution balance distributed on deactivation"))
	}

	m := current.Clone()
	m.TotalContribution = decimal.Zero
	m.AccountStatus = domain.AccountStatusInactive
	m.UpdatedAt = asOf
	d.putMember(current.Clone(), m)

	return d, m, nil
}
