package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/types"
	"github.com/soko-platform/ms-go-settlement/config"
)

type jobIntentStore interface {
	ListForVerify(ctx context.Context, oldest, newest time.Time, limit int32) ([]*entity.PaymentIntent, error)
	ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.PaymentIntent, error)
}

type subscriptionStore interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type signalApplier interface {
	PollAndApply(ctx context.Context, intent *entity.PaymentIntent) error
	Cancel(ctx context.Context, intentID uint64) (bool, error)
}

// JobsService holds the reconciliation batch jobs. Each batch keeps going
// past per-intent failures and reports the first error at the end, so one
// broken row cannot stall the whole sweep.
type JobsService struct {
	intents       jobIntentStore
	subscriptions subscriptionStore
	payments      signalApplier
	alerter       Alerter
	cfg           config.PaymentsConfig
	logger        logrus.FieldLogger
}

func NewJobsService(
	intents jobIntentStore,
	subscriptions subscriptionStore,
	payments signalApplier,
	alerter Alerter,
	cfg config.PaymentsConfig,
	logger logrus.FieldLogger,
) *JobsService {
	return &JobsService{
		intents:       intents,
		subscriptions: subscriptions,
		payments:      payments,
		alerter:       alerter,
		cfg:           cfg,
		logger:        logger,
	}
}

// RunVerifyPendingBatch re-polls PENDING intents old enough that a webhook
// should have arrived (past the grace window) but young enough to still be
// worth polling (inside the ceiling).
func (s *JobsService) RunVerifyPendingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	oldest := now.Add(-s.cfg.VerifyCeiling)
	newest := now.Add(-s.cfg.VerifyGrace)

	intents, err := s.intents.ListForVerify(ctx, oldest, newest, s.cfg.JobBatchSize)
	if err != nil {
		return err
	}

	var firstErr error
	settled := 0
	for _, intent := range intents {
		if err := s.payments.PollAndApply(ctx, intent); err != nil {
			s.logger.WithError(err).WithField("intent_id", intent.ID).Warn("verify poll failed")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if types.IntentStatus(intent.Status).Terminal() {
			settled++
			s.alerter.Alert(ctx, "settled_by_reconciliation", map[string]interface{}{
				"intent_id": intent.ID,
				"provider":  types.Provider(intent.Provider).String(),
				"status":    types.IntentStatus(intent.Status).String(),
			})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"checked": len(intents),
		"settled": settled,
	}).Info("verify pending batch done")
	return firstErr
}

// RunExpireIntentsBatch cancels open intents older than the pending TTL.
func (s *JobsService) RunExpireIntentsBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.cfg.PendingTTL)

	intents, err := s.intents.ListUnsettledBefore(ctx, cutoff, s.cfg.JobBatchSize)
	if err != nil {
		return err
	}

	var firstErr error
	expired := 0
	for _, intent := range intents {
		cancelled, err := s.payments.Cancel(ctx, intent.ID)
		if err != nil {
			s.logger.WithError(err).WithField("intent_id", intent.ID).Warn("expire failed")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if cancelled {
			expired++
		}
	}

	if expired > 0 {
		s.logger.WithField("expired", expired).Info("expired stale intents")
	}
	return firstErr
}

// RunExpireSubscriptionsBatch demotes subscriptions past their end date.
func (s *JobsService) RunExpireSubscriptionsBatch(ctx context.Context) error {
	expired, err := s.subscriptions.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("expired subscriptions")
	}
	return nil
}

func keepFirstErr(current, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
