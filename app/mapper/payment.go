package mapper

import (
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/repository"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

func InitiateResponseFromIntent(intent *entity.PaymentIntent) *types.InitiatePaymentResponse {
	resp := &types.InitiatePaymentResponse{
		IntentID: intent.ID,
		Status:   types.IntentStatus(intent.Status).String(),
	}
	if intent.CheckoutURL != nil {
		resp.CheckoutURL = *intent.CheckoutURL
	}
	if intent.ProviderRef != nil {
		resp.Reference = *intent.ProviderRef
	}
	if intent.Instructions != nil {
		resp.Instructions = *intent.Instructions
	}
	return resp
}

func StatusResponseFromIntent(intent *entity.PaymentIntent) *types.PaymentStatusResponse {
	return &types.PaymentStatusResponse{
		ID:       intent.ID,
		Status:   types.IntentStatus(intent.Status).String(),
		Provider: types.Provider(intent.Provider).String(),
		Amount:   intent.AmountMinor,
		Currency: intent.Currency,
	}
}

func IntentViewFromEntity(intent *entity.PaymentIntent) *types.IntentView {
	view := &types.IntentView{
		ID:           intent.ID,
		AccountID:    intent.AccountID,
		Provider:     types.Provider(intent.Provider).String(),
		ProductType:  types.ProductType(intent.ProductType).String(),
		ProductRefID: intent.ProductRefID,
		Amount:       intent.AmountMinor,
		Currency:     intent.Currency,
		Country:      intent.Country,
		Status:       types.IntentStatus(intent.Status).String(),
		Fulfilled:    intent.FulfilledAt != nil,
		CreatedAt:    intent.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    intent.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if intent.ProviderRef != nil {
		view.ProviderRef = *intent.ProviderRef
	}
	return view
}

func IntentViewsFromEntities(intents []*entity.PaymentIntent) []*types.IntentView {
	views := make([]*types.IntentView, 0, len(intents))
	for _, intent := range intents {
		views = append(views, IntentViewFromEntity(intent))
	}
	return views
}

func TransactionViewFromEntity(txn *entity.CreditTransaction) *types.TransactionView {
	return &types.TransactionView{
		ID:        txn.ID,
		Type:      types.TxnType(txn.Type).String(),
		Amount:    txn.Amount,
		Reason:    types.TxnReason(txn.Reason).String(),
		CreatedAt: txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func TransactionViewsFromEntities(txns []*entity.CreditTransaction) []*types.TransactionView {
	views := make([]*types.TransactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, TransactionViewFromEntity(txn))
	}
	return views
}

func RevenueResponseFromRows(since time.Time, rows []*repository.RevenueRow) *types.RevenueResponse {
	resp := &types.RevenueResponse{
		Since: since.UTC().Format(time.RFC3339),
		Rows:  make([]*types.RevenueRow, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, &types.RevenueRow{
			Currency:    row.Currency,
			ProductType: types.ProductType(row.ProductType).String(),
			Total:       row.TotalMinor,
			Count:       row.Count,
		})
	}
	return resp
}
