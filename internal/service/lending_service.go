package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/config"
	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/idempotency"
	"github.com/segyhp/lending-ledger/internal/lending"
	"github.com/segyhp/lending-ledger/internal/metrics"
	"github.com/segyhp/lending-ledger/internal/notify"
	"github.com/segyhp/lending-ledger/internal/repository"
	"github.com/segyhp/lending-ledger/internal/sequence"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

// pendingWrite is an applied operation whose write-back has not succeeded yet.
type pendingWrite struct {
	delta    *lending.Delta
	events   []domain.AuditEvent
	attempts int
}

// LendingService owns the in-memory book. Every mutating operation runs under
// a single lock: the engine computes a delta, the book applies it, and the
// delta is written back to the store in the same order.
type LendingService struct {
	Store    repository.Store
	Audit    repository.AuditRepository
	cache    idempotency.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	config   *config.Config

	ids    *sequence.Generator
	engine *lending.Engine

	mu     sync.Mutex
	book   *lending.Book
	outbox []*pendingWrite

	now func() time.Time
}

func NewLendingService(
	store repository.Store,
	audit repository.AuditRepository,
	cache idempotency.Store,
	notifier notify.Notifier,
	metrics *metrics.Metrics,
	log *zap.Logger,
	config *config.Config,
) *LendingService {
	ids := sequence.NewGenerator()
	loc := config.Location()
	return &LendingService{
		Store:    store,
		Audit:    audit,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		config:   config,
		ids:      ids,
		engine:   lending.NewEngine(ids),
		book:     lending.NewBook(),
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// Load rebuilds the book from the store and seeds the identifier sequences
// from the records found there.
func (s *LendingService) Load(ctx context.Context) error {
	snap, err := s.Store.Load(ctx)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.book = lending.LoadBook(snap.In(s.config.Location()))
	for _, m := range snap.Members {
		s.ids.Observe(m.ID)
	}
	for _, l := range snap.Loans {
		s.ids.Observe(l.ID)
	}
	s.refreshGauges()

	s.log.Info("ledger loaded",
		zap.Int("members", len(snap.Members)),
		zap.Int("loans", len(snap.Loans)),
		zap.Int("transactions", len(snap.Transactions)),
	)
	return nil
}

// commit applies a delta to the book and writes it back. Callers hold s.mu.
func (s *LendingService) commit(ctx context.Context, d *lending.Delta) {
	if d.Empty() {
		return
	}

	s.book.Apply(d)
	for _, t := range d.Transactions {
		s.metrics.AddAmount(t.Type, t.Amount)
	}
	s.refreshGauges()

	w := &pendingWrite{delta: d, events: s.auditEvents(ctx, d)}

	// Later deltas never overtake queued ones.
	if len(s.outbox) > 0 {
		s.outbox = append(s.outbox, w)
		s.metrics.OutboxDepth.Set(float64(len(s.outbox)))
		s.flushLocked(ctx)
		return
	}

	if err := s.write(ctx, w); err != nil {
		s.enqueue(ctx, w, err)
	}
}

func (s *LendingService) write(ctx context.Context, w *pendingWrite) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.GetDatabaseWriteTimeout())
	defer cancel()

	w.attempts++
	if err := s.Store.Save(ctx, w.delta); err != nil {
		return err
	}

	// The ledger is saved; a lost audit record is logged rather than retried.
	if err := s.Audit.Record(ctx, w.events); err != nil {
		s.log.Error("failed to record audit events",
			zap.String("action", w.delta.Action),
			zap.Error(err),
		)
	}
	return nil
}

func (s *LendingService) enqueue(ctx context.Context, w *pendingWrite, err error) {
	s.outbox = append(s.outbox, w)
	s.metrics.SyncFailures.Inc()
	s.metrics.OutboxDepth.Set(float64(len(s.outbox)))

	s.log.Error("write-back failed",
		zap.String("action", w.delta.Action),
		zap.Int("queued", len(s.outbox)),
		zap.Error(err),
	)
	s.notifier.Notify(ctx, notify.SeverityWarning, "Saved locally but remote sync failed",
		zap.String("action", w.delta.Action),
		zap.Error(err),
	)
}

// flushLocked writes queued deltas in order, stopping at the first failure.
func (s *LendingService) flushLocked(ctx context.Context) error {
	for len(s.outbox) > 0 {
		w := s.outbox[0]
		if err := s.write(ctx, w); err != nil {
			s.metrics.SyncFailures.Inc()
			s.log.Warn("write-back retry failed",
				zap.String("action", w.delta.Action),
				zap.Int("attempts", w.attempts),
				zap.Error(err),
			)
			return customError.WrapDatabaseError(err)
		}
		s.outbox = s.outbox[1:]
		s.metrics.OutboxDepth.Set(float64(len(s.outbox)))
	}
	return nil
}

// SyncPending retries queued write-backs and returns how many remain.
func (s *LendingService) SyncPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outbox) == 0 {
		return 0, nil
	}

	before := len(s.outbox)
	err := s.flushLocked(ctx)
	if synced := before - len(s.outbox); synced > 0 {
		s.log.Info("write-back synced", zap.Int("synced", synced), zap.Int("remaining", len(s.outbox)))
	}
	return len(s.outbox), err
}

// PendingWrites returns the number of operations not yet written back.
func (s *LendingService) PendingWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

func (s *LendingService) auditEvents(ctx context.Context, d *lending.Delta) []domain.AuditEvent {
	actor := ActorFrom(ctx)
	at := s.now()

	events := make([]domain.AuditEvent, 0, len(d.Changes))
	for _, c := range d.Changes {
		e := domain.AuditEvent{
			ID:         uuid.New(),
			Action:     d.Action,
			EntityType: c.EntityType,
			EntityID:   c.EntityID,
			Actor:      actor,
			At:         at,
		}
		if c.Before != nil {
			e.Before = mustJSON(c.Before)
		}
		if c.After != nil {
			e.After = mustJSON(c.After)
		}
		events = append(events, e)
	}
	return events
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return raw
}

func (s *LendingService) refreshGauges() {
	active := 0
	for _, l := range s.book.Loans() {
		if l.IsActive() {
			active++
		}
	}
	s.metrics.ActiveLoans.Set(float64(active))
}

// observe counts the outcome of an operation and logs rejected requests.
func (s *LendingService) observe(action string, err error) {
	if err == nil {
		s.metrics.ObserveOperation(action, "ok")
		return
	}
	code := customError.Code(err)
	if code == "" {
		code = "INTERNAL"
	}
	s.metrics.ObserveOperation(action, code)
	s.log.Info("operation rejected", zap.String("action", action), zap.String("code", code), zap.Error(err))
}
