package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/factory"
	"github.com/soko-platform/ms-go-settlement/app/mapper"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type PaymentController struct {
	payments *service.PaymentService
	logger   logrus.FieldLogger
}

func NewPaymentController(payments *service.PaymentService, logger logrus.FieldLogger) *PaymentController {
	return &PaymentController{payments: payments, logger: logger}
}

func (c *PaymentController) InitiatePayment(ctx echo.Context) error {
	accountID := ctx.Request().Header.Get(types.AccountIDHeader)

	req, err := types.NewInitiatePaymentRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, types.ErrInvalidPhone) {
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidPhone})
		}
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	intent, err := c.payments.InitiatePayment(ctx.Request().Context(), accountID, req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("payment initiation failed")
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.InitiateResponseFromIntent(intent))
}

func (c *PaymentController) GetPaymentStatus(ctx echo.Context) error {
	accountID := ctx.Request().Header.Get(types.AccountIDHeader)

	id, err := types.IntentIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	intent, err := c.payments.GetPaymentStatus(ctx.Request().Context(), accountID, id)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.StatusResponseFromIntent(intent))
}

// StripeWebhook acknowledges every verified delivery, including duplicates
// and sessions we cannot match, so the provider stops retrying. Unverified
// payloads are rejected.
func (c *PaymentController) StripeWebhook(ctx echo.Context) error {
	payload, err := types.ReadRawBody(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	_, err = c.payments.HandleWebhook(ctx.Request().Context(), int32(types.ProviderStripe), payload, ctx.Request().Header)
	if err != nil {
		logger := factory.LoggerWithContext(c.logger, ctx)
		switch {
		case errors.Is(err, provider.ErrInvalidSignature):
			logger.Warn("stripe webhook signature rejected")
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
		case errors.Is(err, provider.ErrNotConfigured):
			return ctx.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: types.CodeNotConfigured})
		case errors.Is(err, service.ErrIntentNotFound), errors.Is(err, provider.ErrMissingReference):
			logger.WithError(err).Warn("stripe webhook for unknown session")
			return ctx.JSON(http.StatusOK, types.WebhookAckResponse{Received: true})
		default:
			logger.WithError(err).Error("stripe webhook processing failed")
			return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: types.CodeInternal})
		}
	}

	return ctx.JSON(http.StatusOK, types.WebhookAckResponse{Received: true})
}

func (c *PaymentController) MTNWebhook(ctx echo.Context) error {
	return c.mobileMoneyWebhook(ctx, types.ProviderMTN)
}

func (c *PaymentController) OrangeWebhook(ctx echo.Context) error {
	return c.mobileMoneyWebhook(ctx, types.ProviderOrange)
}

func (c *PaymentController) mobileMoneyWebhook(ctx echo.Context, providerType types.Provider) error {
	payload, err := types.ReadRawBody(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	_, err = c.payments.HandleWebhook(ctx.Request().Context(), int32(providerType), payload, ctx.Request().Header)
	if err != nil {
		logger := factory.LoggerWithContext(c.logger, ctx).WithField("provider", providerType.String())
		switch {
		case errors.Is(err, provider.ErrMissingReference):
			logger.Warn("callback without reference")
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeMissingReference})
		case errors.Is(err, service.ErrIntentNotFound):
			logger.Warn("callback for unknown reference")
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.CodeIntentNotFound})
		default:
			logger.WithError(err).Error("callback processing failed")
			return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: types.CodeInternal})
		}
	}

	return ctx.JSON(http.StatusOK, types.WebhookAckResponse{Received: true})
}
