package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	"github.com/segyhp/lending-ledger/internal/notify"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

// SweepMissedPayments refreshes missed-payment counters and returns the
// number of loans whose counter changed.
func (s *LendingService) SweepMissedPayments(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.engine.SweepMissedPayments(s.book, s.now())
	s.observe(lending.ActionSweep, nil)
	s.commit(ctx, d)

	updated := len(d.Loans)
	s.log.Info("missed-payment sweep completed", zap.Int("updated", updated))
	return updated
}

// SendReminders notifies borrowers whose next payment falls within the next
// days days. It returns the loans reminded.
func (s *LendingService) SendReminders(ctx context.Context, days int) []*domain.Loan {
	s.mu.Lock()
	now := s.now()
	due := lending.DueBetween(s.book, now, now.AddDate(0, 0, days))
	loans := make([]*domain.Loan, 0, len(due))
	for _, l := range due {
		loans = append(loans, l.Clone())
	}
	s.mu.Unlock()

	for _, l := range loans {
		s.notifier.Notify(ctx, notify.SeverityInfo, "Loan payment due soon",
			zap.String("loan_id", l.ID),
			zap.String("borrower_id", l.BorrowerID),
			zap.String("amount", l.MonthlyPayment.StringFixed(2)),
			zap.Time("due", l.NextPaymentDue),
		)
	}
	return loans
}

// Reconcile checks aggregates against the transaction history.
func (s *LendingService) Reconcile(ctx context.Context) *lending.ReconciliationReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := lending.Reconcile(s.book, s.now())
	if !report.IsBalanced {
		s.notifier.Notify(ctx, notify.SeverityError, "Ledger reconciliation found discrepancies",
			zap.Int("discrepancies", len(report.Discrepancies)),
		)
	}
	return report
}

// AuditTrail returns the recorded changes to one entity.
func (s *LendingService) AuditTrail(ctx context.Context, entityType, entityID string) ([]domain.AuditEvent, error) {
	switch entityType {
	case domain.EntityMember, domain.EntityLoan, domain.EntityApplication:
	default:
		return nil, customError.WrapValidation("Unknown entity type " + entityType)
	}

	events, err := s.Audit.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return events, nil
}

