package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

// IssueLoan disburses a loan directly, without an application.
func (s *LendingService) IssueLoan(ctx context.Context, request *domain.IssueLoanRequest) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, loan, err := s.engine.IssueLoan(s.book, lending.IssueLoanInput{
		BorrowerID:   request.BorrowerID,
		CosignerID:   request.CosignerID,
		Amount:       request.Amount,
		TermMonths:   request.TermMonths,
		FeeType:      request.FeeType,
		InterestRate: request.InterestRate,
		InterestType: request.InterestType,
	}, s.now())
	s.observe(lending.ActionIssueLoan, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)
	s.log.Info("loan issued",
		zap.String("loan_id", loan.ID),
		zap.String("borrower_id", loan.BorrowerID),
		zap.String("amount", loan.OriginalAmount.StringFixed(2)),
	)
	return loan.Clone(), nil
}

func (s *LendingService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.book.Loan(loanID)
	if !ok {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	return l.Clone(), nil
}

// GetSchedule returns the loan's amortization schedule as issued.
func (s *LendingService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.book.Loan(loanID)
	if !ok {
		return nil, customError.WrapLoanNotFound(loanID)
	}

	return &domain.ScheduleResponse{
		LoanID:   l.ID,
		Schedule: lending.AmortizationSchedule(lending.LoanTerms(l), utils.PaymentDayAfter(l.StartDate)),
	}, nil
}

// Repay applies a payment. A request carrying an idempotency key that was
// already processed returns the recorded result instead of paying twice.
func (s *LendingService) Repay(ctx context.Context, loanID string, request *domain.RepaymentRequest) (*domain.RepaymentResult, error) {
	key := request.IdempotencyKey
	if key != "" {
		if cached, ok := s.cachedRepayment(ctx, key); ok {
			if cached.LoanID != loanID {
				err := customError.WrapValidation("Idempotency key was used for a different loan")
				s.observe(lending.ActionRepay, err)
				return nil, err
			}
			cached.Replayed = true
			s.observe(lending.ActionRepay, nil)
			return cached, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, result, err := s.engine.Repay(s.book, lending.RepaymentInput{
		LoanID:         loanID,
		Amount:         request.Amount,
		PaymentMethod:  request.PaymentMethod,
		ReceivedBy:     request.ReceivedBy,
		IdempotencyKey: key,
	}, s.now())
	s.observe(lending.ActionRepay, err)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, d)

	if key != "" && !result.Replayed {
		if err := s.cache.Put(ctx, key, result); err != nil {
			s.log.Warn("failed to cache repayment result", zap.Error(customError.WrapCacheError(err)))
		}
	}
	return result, nil
}

func (s *LendingService) cachedRepayment(ctx context.Context, key string) (*domain.RepaymentResult, bool) {
	var cached domain.RepaymentResult
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// The book still detects the replay; the cache only saves the lock.
		s.log.Warn("idempotency cache unavailable", zap.Error(customError.WrapCacheError(err)))
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &cached, true
}

// Quote prices a prospective loan as if issued today.
func (s *LendingService) Quote(ctx context.Context, in lending.QuoteInput) (*domain.Quote, error) {
	return lending.Quote(in, s.now())
}

// Agreement returns the late-payment clause printed on loan agreements.
func (s *LendingService) Agreement() domain.AgreementTerms {
	return lending.Agreement()
}
