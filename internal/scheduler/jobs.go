package scheduler

import (
	"context"

	"github.com/segyhp/lending-ledger/internal/service"
)

// Actor recorded on audit events written by scheduled jobs.
const Actor = "scheduler"

type serviceJobs struct {
	service *service.LendingService
}

// NewServiceJobs runs jobs directly against the in-process service.
func NewServiceJobs(s *service.LendingService) Jobs {
	return &serviceJobs{service: s}
}

func (j *serviceJobs) Sweep(ctx context.Context) (int, error) {
	return j.service.SweepMissedPayments(service.WithActor(ctx, Actor)), nil
}

func (j *serviceJobs) Remind(ctx context.Context, days int) (int, error) {
	return len(j.service.SendReminders(ctx, days)), nil
}

func (j *serviceJobs) Sync(ctx context.Context) (int, error) {
	return j.service.SyncPending(ctx)
}
