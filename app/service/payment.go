package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/repository"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type intentStore interface {
	Create(ctx context.Context, intent *entity.PaymentIntent) error
	UpdateProviderResult(ctx context.Context, intent *entity.PaymentIntent) error
	UpdateStatusFrom(ctx context.Context, id uint64, from []int32, to int32, now time.Time) (bool, error)
	FindByID(ctx context.Context, id uint64) (*entity.PaymentIntent, error)
	FindByIdempotencyKey(ctx context.Context, accountID, key string) (*entity.PaymentIntent, error)
	FindByProviderRef(ctx context.Context, providerCode int32, ref string) (*entity.PaymentIntent, error)
}

type eventStore interface {
	InsertOnce(ctx context.Context, providerCode int32, eventID string, intentID uint64, payload []byte, now time.Time) (bool, error)
}

type providerRegistry interface {
	Get(code int32) (provider.Provider, error)
}

type fulfiller interface {
	Fulfill(ctx context.Context, intent *entity.PaymentIntent) error
}

// PaymentService owns the intent lifecycle. All inbound provider signals,
// whether webhook, poll, or admin verify, funnel through ApplySignal so the
// dedup and transition rules are applied in exactly one place.
type PaymentService struct {
	intents     intentStore
	events      eventStore
	catalog     Catalog
	providers   providerRegistry
	fulfillment fulfiller
	alerter     Alerter
	logger      logrus.FieldLogger
}

func NewPaymentService(
	intents intentStore,
	events eventStore,
	catalog Catalog,
	providers providerRegistry,
	fulfillment fulfiller,
	alerter Alerter,
	logger logrus.FieldLogger,
) *PaymentService {
	return &PaymentService{
		intents:     intents,
		events:      events,
		catalog:     catalog,
		providers:   providers,
		fulfillment: fulfillment,
		alerter:     alerter,
		logger:      logger,
	}
}

func (s *PaymentService) InitiatePayment(ctx context.Context, accountID string, req *types.InitiatePaymentRequest) (*entity.PaymentIntent, error) {
	providerType, err := types.ParseProvider(req.Provider)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	productType, err := types.ParseProductType(req.ProductType)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	if req.IdempotencyKey != "" {
		existing, err := s.intents.FindByIdempotencyKey(ctx, accountID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.Provider != int32(providerType) || existing.ProductType != int32(productType) || existing.ProductRefID != req.ProductRefID {
				return nil, ErrInvalidRequest
			}
			// A key hit on an intent that never reached the provider means an
			// earlier attempt failed at initiation. Re-run that step so the
			// retry can complete instead of returning a stuck intent.
			if existing.Status == int32(types.StatusInitiated) && existing.ProviderRef == nil {
				product, err := s.catalog.Resolve(ctx, productType, req.ProductRefID, req.Country)
				if err != nil {
					return nil, err
				}
				return s.startProvider(ctx, existing, req.Phone, product)
			}
			return existing, nil
		}
	}

	product, err := s.catalog.Resolve(ctx, productType, req.ProductRefID, req.Country)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	intent := &entity.PaymentIntent{
		AccountID:    accountID,
		Provider:     int32(providerType),
		ProductType:  int32(productType),
		ProductRefID: req.ProductRefID,
		AmountMinor:  product.AmountMinor,
		Currency:     product.Currency,
		Country:      req.Country,
		Status:       int32(types.StatusInitiated),
		ProviderData: map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		intent.IdempotencyKey = &key
	}
	if product.Credits > 0 {
		credits := product.Credits
		intent.FulfillCredits = &credits
	}
	if product.DurationDays > 0 {
		days := product.DurationDays
		intent.FulfillDurationDays = &days
	}
	if product.BoostRank > 0 {
		rank := product.BoostRank
		intent.FulfillBoostRank = &rank
	}

	if err := s.intents.Create(ctx, intent); err != nil {
		// Two initiations racing on the same key: the loser's insert collides
		// after its lookup missed, so fetch the winner's row.
		if errors.Is(err, repository.ErrIntentAlreadyExists) && req.IdempotencyKey != "" {
			existing, lookupErr := s.intents.FindByIdempotencyKey(ctx, accountID, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return s.startProvider(ctx, intent, req.Phone, product)
}

// startProvider runs the provider initiation step for an INITIATED intent.
// On provider failure the intent stays INITIATED, so a retry with the same
// idempotency key re-attempts this step; abandoned INITIATED intents are
// closed by the expiry job.
func (s *PaymentService) startProvider(ctx context.Context, intent *entity.PaymentIntent, phone string, product *ResolvedProduct) (*entity.PaymentIntent, error) {
	adapter, err := s.providers.Get(intent.Provider)
	if err != nil {
		return nil, err
	}

	output, err := adapter.Initiate(ctx, &provider.InitiateInput{
		IntentID:    intent.ID,
		AccountID:   intent.AccountID,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		Country:     intent.Country,
		Phone:       phone,
		Description: product.Description,
	})
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) || errors.Is(err, provider.ErrAuthFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	ref := output.ProviderRef
	intent.Status = int32(types.StatusPending)
	intent.ProviderRef = &ref
	intent.CheckoutURL = output.CheckoutURL
	intent.Instructions = output.Instructions
	if output.Data != nil {
		intent.ProviderData = output.Data
	}
	intent.UpdatedAt = time.Now().UTC()
	if err := s.intents.UpdateProviderResult(ctx, intent); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id":    intent.ID,
		"account_id":   intent.AccountID,
		"provider":     types.Provider(intent.Provider).String(),
		"product_type": types.ProductType(intent.ProductType).String(),
		"amount_minor": intent.AmountMinor,
		"currency":     intent.Currency,
	}).Info("payment initiated")

	if output.InitialOutcome == int32(types.OutcomeSuccess) {
		if err := s.ApplySignal(ctx, intent, "init:"+ref, nil, int32(types.OutcomeSuccess), "SETTLED_AT_INITIATION"); err != nil {
			return nil, err
		}
		return s.refresh(ctx, intent)
	}

	return intent, nil
}

// GetPaymentStatus returns the caller's intent, polling the provider first
// when the intent is still open. Poll failures degrade to the stored status.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, accountID string, intentID uint64) (*entity.PaymentIntent, error) {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent == nil || intent.AccountID != accountID {
		return nil, ErrIntentNotFound
	}

	if !types.IntentStatus(intent.Status).Terminal() && intent.ProviderRef != nil {
		if err := s.pollProvider(ctx, intent); err != nil {
			s.logger.WithError(err).WithField("intent_id", intent.ID).Warn("status poll failed")
		} else {
			return s.refresh(ctx, intent)
		}
	}

	return intent, nil
}

// HandleWebhook parses, verifies, and applies one inbound callback.
func (s *PaymentService) HandleWebhook(ctx context.Context, providerCode int32, payload []byte, header http.Header) (*entity.PaymentIntent, error) {
	adapter, err := s.providers.Get(providerCode)
	if err != nil {
		return nil, err
	}

	result, err := adapter.ParseCallback(ctx, payload, header)
	if err != nil {
		return nil, err
	}

	intent, err := s.intents.FindByProviderRef(ctx, providerCode, result.ProviderRef)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrIntentNotFound
	}

	eventID := fmt.Sprintf("cb:%s:%s", result.ProviderRef, types.Outcome(result.Outcome).String())
	if result.EventID != nil {
		eventID = *result.EventID
	}

	if err := s.ApplySignal(ctx, intent, eventID, payload, result.Outcome, result.RawStatus); err != nil {
		return nil, err
	}
	return intent, nil
}

// ApplySignal records the provider signal in the event ledger and drives the
// resulting transition. Every step is idempotent, so replaying a signal
// (duplicate webhook, webhook racing a poll, retry after a crash) converges
// on the same final state with the product granted exactly once.
func (s *PaymentService) ApplySignal(ctx context.Context, intent *entity.PaymentIntent, eventID string, payload []byte, outcome int32, rawStatus string) error {
	now := time.Now().UTC()

	first, err := s.events.InsertOnce(ctx, intent.Provider, eventID, intent.ID, payload, now)
	if err != nil {
		return err
	}
	if !first {
		s.logger.WithFields(logrus.Fields{
			"intent_id": intent.ID,
			"event_id":  eventID,
		}).Debug("duplicate provider event")
	}

	switch types.Outcome(outcome) {
	case types.OutcomeSuccess:
		transitioned, err := s.intents.UpdateStatusFrom(ctx, intent.ID, types.NonTerminalStatuses(), int32(types.StatusSuccess), now)
		if err != nil {
			return err
		}
		if transitioned {
			intent.Status = int32(types.StatusSuccess)
			s.logger.WithFields(logrus.Fields{
				"intent_id":  intent.ID,
				"event_id":   eventID,
				"raw_status": rawStatus,
			}).Info("payment settled")
		}
		// Fulfillment runs even when the transition was a no-op: the intent
		// may already be SUCCESS from an earlier signal that crashed before
		// granting. The fulfillment claim keeps this at-most-once.
		return s.fulfillment.Fulfill(ctx, intent)

	case types.OutcomeFailed:
		transitioned, err := s.intents.UpdateStatusFrom(ctx, intent.ID, types.NonTerminalStatuses(), int32(types.StatusFailed), now)
		if err != nil {
			return err
		}
		if transitioned {
			intent.Status = int32(types.StatusFailed)
			s.logger.WithFields(logrus.Fields{
				"intent_id":  intent.ID,
				"raw_status": rawStatus,
			}).Info("payment failed")
			s.alerter.Alert(ctx, "payment_failed", map[string]interface{}{
				"intent_id":  intent.ID,
				"provider":   types.Provider(intent.Provider).String(),
				"raw_status": rawStatus,
			})
		}
		return nil

	case types.OutcomeCancelled:
		transitioned, err := s.intents.UpdateStatusFrom(ctx, intent.ID, types.NonTerminalStatuses(), int32(types.StatusCancelled), now)
		if err != nil {
			return err
		}
		if transitioned {
			intent.Status = int32(types.StatusCancelled)
			s.logger.WithFields(logrus.Fields{
				"intent_id":  intent.ID,
				"raw_status": rawStatus,
			}).Info("payment cancelled")
		}
		return nil

	default:
		return nil
	}
}

// Cancel moves an open intent to CANCELLED. Returns false when the intent is
// already terminal.
func (s *PaymentService) Cancel(ctx context.Context, intentID uint64) (bool, error) {
	return s.intents.UpdateStatusFrom(ctx, intentID, types.NonTerminalStatuses(), int32(types.StatusCancelled), time.Now().UTC())
}

// MarkRefunded moves a settled intent to REFUNDED. Only SUCCESS qualifies;
// the granted product is not clawed back. Marking an already refunded intent
// is a no-op.
func (s *PaymentService) MarkRefunded(ctx context.Context, intentID uint64) error {
	transitioned, err := s.intents.UpdateStatusFrom(ctx, intentID, []int32{int32(types.StatusSuccess)}, int32(types.StatusRefunded), time.Now().UTC())
	if err != nil {
		return err
	}
	if !transitioned {
		intent, err := s.intents.FindByID(ctx, intentID)
		if err != nil {
			return err
		}
		if intent != nil && intent.Status == int32(types.StatusRefunded) {
			return nil
		}
		return ErrInvalidStatus
	}
	s.alerter.Alert(ctx, "payment_refunded", map[string]interface{}{
		"intent_id": intentID,
	})
	return nil
}

// PollAndApply polls the provider for one open intent and applies the result.
func (s *PaymentService) PollAndApply(ctx context.Context, intent *entity.PaymentIntent) error {
	return s.pollProvider(ctx, intent)
}

func (s *PaymentService) pollProvider(ctx context.Context, intent *entity.PaymentIntent) error {
	if intent.ProviderRef == nil {
		return ErrInvalidStatus
	}

	adapter, err := s.providers.Get(intent.Provider)
	if err != nil {
		return err
	}

	result, err := adapter.PollStatus(ctx, *intent.ProviderRef, intent.ProviderData)
	if err != nil {
		return err
	}

	eventID := fmt.Sprintf("poll:%s:%s", *intent.ProviderRef, types.Outcome(result.Outcome).String())
	return s.ApplySignal(ctx, intent, eventID, nil, result.Outcome, result.RawStatus)
}

func (s *PaymentService) refresh(ctx context.Context, intent *entity.PaymentIntent) (*entity.PaymentIntent, error) {
	fresh, err := s.intents.FindByID(ctx, intent.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return intent, nil
	}
	return fresh, nil
}
