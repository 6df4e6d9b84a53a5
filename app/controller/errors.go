package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

// respondServiceError maps sentinel errors from the service and provider
// layers onto the stable error codes clients consume.
func respondServiceError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	case errors.Is(err, types.ErrInvalidPhone):
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidPhone})
	case errors.Is(err, service.ErrPackNotFound):
		return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.CodePackNotFound})
	case errors.Is(err, service.ErrOfferNotFound):
		return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.CodeOfferNotFound})
	case errors.Is(err, service.ErrIntentNotFound):
		return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.CodeIntentNotFound})
	case errors.Is(err, service.ErrInsufficientCredits):
		return ctx.JSON(http.StatusConflict, types.ErrorResponse{Error: types.CodeInsufficientCredits})
	case errors.Is(err, service.ErrInvalidStatus):
		return ctx.JSON(http.StatusConflict, types.ErrorResponse{Error: types.CodeInvalidStatus})
	case errors.Is(err, service.ErrRefundUnsupported):
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeRefundUnsupported})
	case errors.Is(err, provider.ErrMissingReference):
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeMissingReference})
	case errors.Is(err, provider.ErrNotConfigured):
		return ctx.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: types.CodeNotConfigured})
	case errors.Is(err, provider.ErrProviderNotSupported):
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	case errors.Is(err, provider.ErrAuthFailed), errors.Is(err, service.ErrProviderFailure):
		return ctx.JSON(http.StatusBadGateway, types.ErrorResponse{Error: types.CodeProviderError})
	default:
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: types.CodeInternal})
	}
}
