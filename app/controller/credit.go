package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/factory"
	"github.com/soko-platform/ms-go-settlement/app/mapper"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type CreditController struct {
	wallets *service.WalletService
	logger  logrus.FieldLogger
}

func NewCreditController(wallets *service.WalletService, logger logrus.FieldLogger) *CreditController {
	return &CreditController{wallets: wallets, logger: logger}
}

func (c *CreditController) GetBalance(ctx echo.Context) error {
	accountID := ctx.Request().Header.Get(types.AccountIDHeader)

	balance, err := c.wallets.Balance(ctx.Request().Context(), accountID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.BalanceResponse{AccountID: accountID, Balance: balance})
}

func (c *CreditController) ListTransactions(ctx echo.Context) error {
	accountID := ctx.Request().Header.Get(types.AccountIDHeader)

	limit := queryInt32(ctx, "limit", 100)
	offset := queryInt32(ctx, "offset", 0)

	txns, err := c.wallets.Transactions(ctx.Request().Context(), accountID, limit, offset)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, types.ListTransactionsResponse{
		AccountID:    accountID,
		Transactions: mapper.TransactionViewsFromEntities(txns),
	})
}

func (c *CreditController) SpendCredits(ctx echo.Context) error {
	accountID := ctx.Request().Header.Get(types.AccountIDHeader)

	req, err := types.NewSpendCreditsRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	reason, err := types.ParseTxnReason(req.Reason)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.CodeInvalidRequest})
	}

	txn, err := c.wallets.Spend(ctx.Request().Context(), accountID, req.Amount, reason, req.Meta)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Info("spend rejected")
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, mapper.TransactionViewFromEntity(txn))
}

func queryInt32(ctx echo.Context, name string, fallback int32) int32 {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(value)
}
