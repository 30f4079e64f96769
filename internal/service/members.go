package service

import (
	"context"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

// RegisterMember admits a new member with a zero contribution balance.
func (s *LendingService) RegisterMember(ctx context.Context, request *domain.RegisterMemberRequest) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, member, err := s.engine.RegisterMember(s.book, request.Name, request.Email, s.now())
	s.observe(lending.ActionRegisterMember, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	return member.Clone(), nil
}

// RecordContribution credits money paid into the pool by a member.
func (s *LendingService) RecordContribution(ctx context.Context, memberID string, request *domain.ContributionRequest) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, member, err := s.engine.RecordContribution(s.book, lending.ContributionInput{
		MemberID:      memberID,
		Amount:        request.Amount,
		PaymentMethod: request.PaymentMethod,
		ReceivedBy:    request.ReceivedBy,
	}, s.now())
	s.observe(lending.ActionContribute, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	return member.Clone(), nil
}

// Deactivate pays out a member's contribution balance and closes the account.
func (s *LendingService) Deactivate(ctx context.Context, memberID string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, member, err := s.engine.Deactivate(s.book, memberID, s.now())
	s.observe(lending.ActionDeactivate, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	return member.Clone(), nil
}

func (s *LendingService) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.book.Member(memberID)
	if !ok {
		return nil, customError.WrapMemberNotFound(memberID)
	}
	return m.Clone(), nil
}

func (s *LendingService) ListMembers(ctx context.Context) []*domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.book.Members()
	out := make([]*domain.Member, 0, len(members))
	for _, m := range members {
		out = append(out, m.Clone())
	}
	return out
}

// MemberTransactions returns the member's ledger entries in ledger order.
func (s *LendingService) MemberTransactions(ctx context.Context, memberID string) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.book.Member(memberID); !ok {
		return nil, customError.WrapMemberNotFound(memberID)
	}

	txs := s.book.TransactionsFor(memberID)
	out := make([]*domain.Transaction, 0, len(txs))
	for _, t := range txs {
		tc := *t
		out = append(out, &tc)
	}
	return out, nil
}

// CheckEligibility evaluates whether the member could borrow today.
func (s *LendingService) CheckEligibility(ctx context.Context, memberID string) *domain.EligibilityResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := lending.CheckEligibility(s.book, memberID, s.now())
	resp := &domain.EligibilityResponse{
		MemberID: memberID,
		Eligible: e.Eligible,
		Reason:   e.Reason,
	}
	if e.Eligible {
		limit := e.Limit
		resp.Limit = &limit
	}
	return resp
}
