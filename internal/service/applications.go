package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

func (s *LendingService) SubmitApplication(ctx context.Context, request *domain.SubmitApplicationRequest) (*domain.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, app, err := s.engine.SubmitApplication(s.book, lending.ApplicationInput{
		MemberID:           request.MemberID,
		Amount:             request.Amount,
		Term:               request.Term,
		Purpose:            request.Purpose,
		ProposedCosignerID: request.ProposedCosignerID,
	}, s.now())
	s.observe(lending.ActionSubmitApplication, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	return app.Clone(), nil
}

// ApproveApplication issues the requested loan against current state. When
// issuance fails the application stays PENDING and the error is returned.
func (s *LendingService) ApproveApplication(ctx context.Context, id uuid.UUID, request *domain.ApproveApplicationRequest) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, loan, err := s.engine.ApproveApplication(s.book, id, request.FeeType, ActorFrom(ctx), s.now())
	s.observe(lending.ActionApproveApplication, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	s.log.Info("application approved", zap.String("application_id", id.String()), zap.String("loan_id", loan.ID))
	return loan.Clone(), nil
}

func (s *LendingService) RejectApplication(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, app, err := s.engine.RejectApplication(s.book, id, ActorFrom(ctx), s.now())
	s.observe(lending.ActionRejectApplication, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	return app.Clone(), nil
}

func (s *LendingService) GetApplication(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.book.Application(id)
	if !ok {
		return nil, customError.WrapApplicationNotFound(id.String())
	}
	return app.Clone(), nil
}

// ListApplications returns applications in submission order, optionally
// filtered by status.
func (s *LendingService) ListApplications(ctx context.Context, status string) []*domain.LoanApplication {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.LoanApplication{}
	for _, app := range s.book.Applications() {
		if status != "" && app.Status != status {
			continue
		}
		out = append(out, app.Clone())
	}
	return out
}
