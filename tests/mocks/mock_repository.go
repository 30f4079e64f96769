package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	"github.com/segyhp/lending-ledger/internal/notify"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (*lending.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.Snapshot), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, delta *lending.Delta) error {
	args := m.Called(ctx, delta)
	return args.Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, events []domain.AuditEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEvent), args.Error(1)
}

// MockIdempotencyStore stores results as JSON so Get decodes like the real stores.
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key)
	if raw, ok := args.Get(0).([]byte); ok && raw != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			return false, err
		}
		return true, args.Error(1)
	}
	return false, args.Error(1)
}

func (m *MockIdempotencyStore) Put(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, severity notify.Severity, message string, fields ...zap.Field) {
	m.Called(ctx, severity, message)
}
