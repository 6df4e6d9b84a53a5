package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/factory"
	"github.com/soko-platform/ms-go-settlement/app/mapper"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

const adminActorHeader = "X-Admin-Actor"

type AdminController struct {
	admin  *service.AdminService
	logger logrus.FieldLogger
}

func NewAdminController(admin *service.AdminService, logger logrus.FieldLogger) *AdminController {
	return &AdminController{admin: admin, logger: logger}
}

func (c *AdminController) ListIntents(ctx echo.Context) error {
	req, err := types.NewAdminListIntentsRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	intents, err := c.admin.ListIntents(ctx.Request().Context(), req)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.ListIntentsResponse{Intents: mapper.IntentViewsFromEntities(intents)})
}

func (c *AdminController) ExportIntents(ctx echo.Context) error {
	req, err := types.NewAdminListIntentsRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	data, err := c.admin.ExportCSV(ctx.Request().Context(), req)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="payments.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

func (c *AdminController) Revenue(ctx echo.Context) error {
	since := time.Now().UTC().AddDate(0, 0, -30)
	if raw := strings.TrimSpace(ctx.QueryParam("since")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
		}
		since = parsed
	}

	rows, err := c.admin.Revenue(ctx.Request().Context(), since)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.RevenueResponseFromRows(since, rows))
}

func (c *AdminController) StuckIntents(ctx echo.Context) error {
	intents, err := c.admin.StuckIntents(ctx.Request().Context())
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.ListIntentsResponse{Intents: mapper.IntentViewsFromEntities(intents)})
}

func (c *AdminController) RefundIntent(ctx echo.Context) error {
	id, err := types.IntentIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	if err := c.admin.Refund(ctx.Request().Context(), actor(ctx), id); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("intent_id", id).Warn("refund failed")
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "refunded"})
}

func (c *AdminController) VerifyIntent(ctx echo.Context) error {
	id, err := types.IntentIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	intent, err := c.admin.Verify(ctx.Request().Context(), actor(ctx), id)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.IntentViewFromEntity(intent))
}

func (c *AdminController) CancelIntent(ctx echo.Context) error {
	id, err := types.IntentIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	if err := c.admin.Cancel(ctx.Request().Context(), actor(ctx), id); err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "cancelled"})
}

func (c *AdminController) AdjustCredits(ctx echo.Context) error {
	req, err := types.NewAdminAdjustCreditsRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	txn, err := c.admin.AdjustCredits(ctx.Request().Context(), actor(ctx), req)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.TransactionViewFromEntity(txn))
}

func actor(ctx echo.Context) string {
	if a := strings.TrimSpace(ctx.Request().Header.Get(adminActorHeader)); a != "" {
		return a
	}
	return "admin"
}
