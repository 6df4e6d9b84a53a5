package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrPackNotFound        = errors.New("credit pack not found")
	ErrOfferNotFound       = errors.New("offer not found")
	ErrInvalidStatus       = errors.New("operation not allowed in current status")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRefundUnsupported   = errors.New("provider does not support refunds")
	ErrProviderFailure     = errors.New("provider request failed")
)
