package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/config"
	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/idempotency"
	"github.com/segyhp/lending-ledger/internal/lending"
	"github.com/segyhp/lending-ledger/internal/metrics"
	"github.com/segyhp/lending-ledger/internal/notify"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/tests/mocks"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *LendingService
	store    *mocks.MockStore
	audit    *mocks.MockAuditRepository
	notifier *mocks.MockNotifier
	metrics  *metrics.Metrics
	clock    *time.Time
}

func newFixture(t *testing.T, cache idempotency.Store) *fixture {
	t.Helper()
	if cache == nil {
		cache = idempotency.NewMemoryStore(time.Hour)
	}

	cfg := &config.Config{
		Database: config.DatabaseConfig{WriteTimeout: "5s"},
		Business: config.BusinessConfig{Timezone: "UTC", IdempotencyTTL: "1h"},
	}

	f := &fixture{
		store:    &mocks.MockStore{},
		audit:    &mocks.MockAuditRepository{},
		notifier: &mocks.MockNotifier{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewLendingService(f.store, f.audit, cache, f.notifier, f.metrics, zap.NewNop(), cfg)

	now := testNow
	f.clock = &now
	f.svc.now = func() time.Time { return *f.clock }

	f.audit.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) saveSucceeds() {
	f.store.On("Save", mock.Anything, mock.Anything).Return(nil)
}

// fundedPair registers two members who each contributed 1000.
func (f *fixture) fundedPair(t *testing.T, ctx context.Context) (*domain.Member, *domain.Member) {
	t.Helper()
	var out []*domain.Member
	for _, name := range []string{"Ama Mensah", "Kofi Boateng"} {
		m, err := f.svc.RegisterMember(ctx, &domain.RegisterMemberRequest{Name: name})
		require.NoError(t, err)
		m, err = f.svc.RecordContribution(ctx, m.ID, &domain.ContributionRequest{Amount: decimal.NewFromInt(1000)})
		require.NoError(t, err)
		out = append(out, m)
	}
	return out[0], out[1]
}

func (f *fixture) issueStandardLoan(t *testing.T, ctx context.Context, borrower, cosigner string) *domain.Loan {
	t.Helper()
	loan, err := f.svc.IssueLoan(ctx, &domain.IssueLoanRequest{
		BorrowerID: borrower,
		CosignerID: cosigner,
		Amount:     decimal.NewFromInt(3000),
		TermMonths: 12,
		FeeType:    domain.FeeTypeUpfront,
	})
	require.NoError(t, err)
	return loan
}

func TestLoad_SeedsSequencesFromStore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.On("Load", mock.Anything).Return(&lending.Snapshot{
		Members: []*domain.Member{
			{ID: "MC-0007", Name: "Esi", TotalContribution: decimal.NewFromInt(500), AccountStatus: domain.AccountStatusActive},
		},
	}, nil)
	f.saveSucceeds()

	require.NoError(t, f.svc.Load(ctx))

	m, err := f.svc.RegisterMember(ctx, &domain.RegisterMemberRequest{Name: "Yaw"})
	require.NoError(t, err)
	assert.Equal(t, "MC-0008", m.ID)

	got, err := f.svc.GetMember(ctx, "MC-0007")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(got.TotalContribution))
}

func TestLoad_StoreError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.On("Load", mock.Anything).Return(nil, errors.New("connection refused"))

	err := f.svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
}

func TestLoad_DueDatesFollowBusinessZone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.svc.config.Business.Timezone = "America/New_York"
	ny := f.svc.config.Location()

	// Drivers return stored times in UTC.
	loanID := "L001-26"
	f.store.On("Load", mock.Anything).Return(&lending.Snapshot{
		Members: []*domain.Member{
			{ID: "MC-0001", TotalContribution: decimal.NewFromInt(1000), AccountStatus: domain.AccountStatusActive, ActiveLoanID: &loanID},
			{ID: "MC-0002", TotalContribution: decimal.NewFromInt(1000), AccountStatus: domain.AccountStatusActive},
		},
		Loans: []*domain.Loan{{
			ID:               loanID,
			BorrowerID:       "MC-0001",
			CosignerID:       "MC-0002",
			OriginalAmount:   decimal.NewFromInt(3000),
			RemainingBalance: decimal.NewFromInt(3000),
			TermMonths:       12,
			MonthlyPayment:   decimal.NewFromInt(250),
			Fee:              decimal.NewFromInt(50),
			FeeType:          domain.FeeTypeUpfront,
			Status:           domain.LoanStatusActive,
			StartDate:        time.Date(2026, 9, 18, 16, 0, 0, 0, time.UTC),
			NextPaymentDue:   time.Date(2026, 10, 10, 4, 0, 0, 0, time.UTC),
		}},
	}, nil)
	f.saveSucceeds()
	require.NoError(t, f.svc.Load(ctx))

	for _, month := range []time.Month{time.October, time.November, time.December} {
		*f.clock = time.Date(2026, month, 10, 12, 0, 0, 0, ny)

		result, err := f.svc.Repay(ctx, loanID, &domain.RepaymentRequest{Amount: decimal.NewFromInt(250)})
		require.NoError(t, err)
		assert.True(t, result.LateFee.IsZero(), "%s payment charged a late fee", month)

		next := result.NextPaymentDue.In(ny)
		assert.Equal(t, 10, next.Day(), "%s payment moved due date to %s", month, next)
		assert.Equal(t, 0, next.Hour())
	}
}

func TestIssueLoan_PersistsAndAudits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := WithActor(context.Background(), "treasurer")
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	assert.Equal(t, "L001-26", loan.ID)
	assert.True(t, decimal.NewFromInt(250).Equal(loan.MonthlyPayment))

	f.store.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(d *lending.Delta) bool {
		return d.Action == lending.ActionIssueLoan && len(d.Transactions) == 2
	}))
	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(events []domain.AuditEvent) bool {
		if len(events) == 0 || events[0].Action != lending.ActionIssueLoan {
			return false
		}
		for _, e := range events {
			if e.Actor != "treasurer" || len(e.After) == 0 {
				return false
			}
		}
		return true
	}))

	member, err := f.svc.GetMember(ctx, borrower.ID)
	require.NoError(t, err)
	require.NotNil(t, member.ActiveLoanID)
	assert.Equal(t, loan.ID, *member.ActiveLoanID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues(lending.ActionIssueLoan, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveLoans))
}

func TestIssueLoan_RejectionIsNotPersisted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)

	_, err := f.svc.IssueLoan(ctx, &domain.IssueLoanRequest{
		BorrowerID: borrower.ID,
		CosignerID: cosigner.ID,
		Amount:     decimal.NewFromInt(4500),
		TermMonths: 24,
		FeeType:    domain.FeeTypeUpfront,
	})
	require.Error(t, err)
	assert.True(t, customError.Is(err, customError.ErrLimitExceeded))

	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.MatchedBy(func(d *lending.Delta) bool {
		return d.Action == lending.ActionIssueLoan
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.Operations.WithLabelValues(lending.ActionIssueLoan, customError.ErrCodeLimitExceeded)))
}

func TestWriteBackFailure_QueuesAndPreservesOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var saved []string
	record := func(args mock.Arguments) {
		saved = append(saved, args.Get(1).(*lending.Delta).Action)
	}
	f.store.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	f.store.On("Save", mock.Anything, mock.Anything).Run(record).Return(nil)
	f.notifier.On("Notify", mock.Anything, notify.SeverityWarning, "Saved locally but remote sync failed").Once()

	m, err := f.svc.RegisterMember(ctx, &domain.RegisterMemberRequest{Name: "Ama"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.PendingWrites())

	// The operation is applied locally even though the write failed.
	got, err := f.svc.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ama", got.Name)

	_, err = f.svc.RecordContribution(ctx, m.ID, &domain.ContributionRequest{Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	assert.Equal(t, 0, f.svc.PendingWrites())
	assert.Equal(t, []string{lending.ActionRegisterMember, lending.ActionContribute}, saved)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SyncFailures))
	f.notifier.AssertExpectations(t)
}

func TestSyncPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Twice()
	f.store.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, notify.SeverityWarning, mock.Anything)

	_, err := f.svc.RegisterMember(ctx, &domain.RegisterMemberRequest{Name: "Ama"})
	require.NoError(t, err)

	remaining, err := f.svc.SyncPending(ctx)
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
	assert.Equal(t, 1, remaining)

	remaining, err = f.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	remaining, err = f.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	f.store.AssertNumberOfCalls(t, "Save", 3)
}

func TestRepay_LateThenIdempotentReplay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	*f.clock = time.Date(2026, time.November, 12, 9, 0, 0, 0, time.UTC)
	request := &domain.RepaymentRequest{Amount: decimal.NewFromInt(250), IdempotencyKey: "pay-nov"}

	result, err := f.svc.Repay(ctx, loan.ID, request)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2755).Equal(result.NewBalance))
	assert.True(t, decimal.NewFromInt(5).Equal(result.LateFee))
	assert.False(t, result.Replayed)

	replay, err := f.svc.Repay(ctx, loan.ID, request)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.True(t, decimal.NewFromInt(2755).Equal(replay.NewBalance))

	f.store.AssertNumberOfCalls(t, "Save", 6)

	_, err = f.svc.Repay(ctx, "L999-26", request)
	require.Error(t, err)
	assert.True(t, customError.Is(err, customError.ErrValidation))

	current, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2755).Equal(current.RemainingBalance))
	assert.Equal(t, time.Date(2026, time.December, 10, 0, 0, 0, 0, time.UTC), current.NextPaymentDue)
}

func TestRepay_CacheOutageFallsBackToLedger(t *testing.T) {
	cache := &mocks.MockIdempotencyStore{}
	cache.On("Get", mock.Anything, "pay-1").Return(nil, errors.New("redis: connection refused"))
	cache.On("Put", mock.Anything, "pay-1", mock.Anything).Return(errors.New("redis: connection refused"))

	f := newFixture(t, cache)
	ctx := context.Background()
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	request := &domain.RepaymentRequest{Amount: decimal.NewFromInt(100), IdempotencyKey: "pay-1"}
	first, err := f.svc.Repay(ctx, loan.ID, request)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.Repay(ctx, loan.ID, request)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.True(t, decimal.NewFromInt(2900).Equal(second.NewBalance))

	txs, err := f.svc.MemberTransactions(ctx, borrower.ID)
	require.NoError(t, err)
	repayments := 0
	for _, tx := range txs {
		if tx.Type == domain.TransactionTypeLoanRepayment {
			repayments++
		}
	}
	assert.Equal(t, 1, repayments)
}

func TestApplicationWorkflow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := WithActor(context.Background(), "admin-1")
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)

	app, err := f.svc.SubmitApplication(ctx, &domain.SubmitApplicationRequest{
		MemberID:           borrower.ID,
		Amount:             decimal.NewFromInt(4500),
		Term:               24,
		Purpose:            "Market stall",
		ProposedCosignerID: cosigner.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)

	// 4500 exceeds the 4000 limit, so approval fails and the application stays open.
	_, err = f.svc.ApproveApplication(ctx, app.ID, &domain.ApproveApplicationRequest{FeeType: domain.FeeTypeUpfront})
	require.Error(t, err)
	assert.True(t, customError.Is(err, customError.ErrLimitExceeded))

	pending := f.svc.ListApplications(ctx, domain.ApplicationStatusPending)
	require.Len(t, pending, 1)

	_, err = f.svc.RecordContribution(ctx, borrower.ID, &domain.ContributionRequest{Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	loan, err := f.svc.ApproveApplication(ctx, app.ID, &domain.ApproveApplicationRequest{FeeType: domain.FeeTypeCapitalized})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4570).Equal(loan.OriginalAmount))

	approved, err := f.svc.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.ReviewedBy)
	require.NotNil(t, approved.LoanID)
	assert.Equal(t, loan.ID, *approved.LoanID)

	_, err = f.svc.RejectApplication(ctx, app.ID)
	assert.True(t, customError.Is(err, customError.ErrStateConflict))

	_, err = f.svc.GetApplication(ctx, uuid.New())
	assert.True(t, customError.Is(err, customError.ErrNotFound))
}

func TestSweepAndReminders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	*f.clock = time.Date(2026, time.November, 8, 9, 0, 0, 0, time.UTC)
	f.notifier.On("Notify", mock.Anything, notify.SeverityInfo, "Loan payment due soon").Once()

	reminded := f.svc.SendReminders(ctx, 3)
	require.Len(t, reminded, 1)
	assert.Equal(t, loan.ID, reminded[0].ID)
	f.notifier.AssertExpectations(t)

	assert.Equal(t, 0, f.svc.SweepMissedPayments(ctx))

	*f.clock = time.Date(2026, time.December, 11, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, f.svc.SweepMissedPayments(ctx))
	assert.Equal(t, 0, f.svc.SweepMissedPayments(ctx))

	current, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.MissedPayments)
	assert.True(t, decimal.NewFromInt(3000).Equal(current.RemainingBalance))
}

func TestDeactivateAndReconcile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()

	member, err := f.svc.RegisterMember(ctx, &domain.RegisterMemberRequest{Name: "Ama"})
	require.NoError(t, err)
	_, err = f.svc.RecordContribution(ctx, member.ID, &domain.ContributionRequest{Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	closed, err := f.svc.Deactivate(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusInactive, closed.AccountStatus)
	assert.True(t, closed.TotalContribution.IsZero())

	eligibility := f.svc.CheckEligibility(ctx, member.ID)
	assert.False(t, eligibility.Eligible)
	assert.Equal(t, lending.ReasonInactive, eligibility.Reason)
	assert.Nil(t, eligibility.Limit)

	report := f.svc.Reconcile(ctx)
	assert.True(t, report.IsBalanced)
	assert.Equal(t, 1, report.MembersChecked)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.audit.On("ListByEntity", mock.Anything, domain.EntityLoan, "L001-26").
		Return([]domain.AuditEvent{{Action: lending.ActionIssueLoan}}, nil)

	events, err := f.svc.AuditTrail(ctx, domain.EntityLoan, "L001-26")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = f.svc.AuditTrail(ctx, "payment", "x")
	assert.True(t, customError.Is(err, customError.ErrValidation))
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, SystemActor, ActorFrom(context.Background()))
	assert.Equal(t, "admin-1", ActorFrom(WithActor(context.Background(), "admin-1")))
}

func TestRepay_ConcurrentPaymentsAreSerialized(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Maybe()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	// Twenty payments of 200 against a 3000 balance: fifteen fit.
	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Repay(ctx, loan.ID, &domain.RepaymentRequest{Amount: decimal.NewFromInt(200)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case customError.Is(err, customError.ErrStateConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 15, succeeded)
	assert.Equal(t, 5, conflicts)

	got, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingBalance.IsZero())
	assert.Equal(t, domain.LoanStatusPaid, got.Status)

	txs, err := f.svc.MemberTransactions(ctx, borrower.ID)
	require.NoError(t, err)
	repaid := decimal.Zero
	for _, tx := range txs {
		if tx.Type == domain.TransactionTypeLoanRepayment {
			repaid = repaid.Add(tx.Amount)
		}
	}
	assert.True(t, decimal.NewFromInt(3000).Equal(repaid), "repaid %s", repaid)
	assert.True(t, f.svc.Reconcile(ctx).IsBalanced)
}

func TestRepay_RacingDeactivationKeepsLedgerBalanced(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.saveSucceeds()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Maybe()

	borrower, cosigner := f.fundedPair(t, ctx)
	loan := f.issueStandardLoan(t, ctx, borrower.ID, cosigner.ID)

	var (
		wg           sync.WaitGroup
		repayErr     error
		deactivated  *domain.Member
		deactivateEr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, repayErr = f.svc.Repay(ctx, loan.ID, &domain.RepaymentRequest{Amount: decimal.NewFromInt(3000)})
	}()
	go func() {
		defer wg.Done()
		deactivated, deactivateEr = f.svc.Deactivate(ctx, borrower.ID)
	}()
	wg.Wait()

	require.NoError(t, repayErr)
	if deactivateEr != nil {
		// Deactivation ran first and saw the active loan.
		assert.True(t, customError.Is(deactivateEr, customError.ErrEligibility))
		m, err := f.svc.GetMember(ctx, borrower.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusActive, m.AccountStatus)
	} else {
		assert.Equal(t, domain.AccountStatusInactive, deactivated.AccountStatus)
		assert.True(t, deactivated.TotalContribution.IsZero())
	}

	got, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, got.Status)
	assert.True(t, f.svc.Reconcile(ctx).IsBalanced)
}
