package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

// MockProvider settles immediately at initiation. Used by tests and by
// environments without real provider credentials.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Code() int32 {
	return int32(types.ProviderMock)
}

func (p *MockProvider) Initiate(_ context.Context, _ *InitiateInput) (*InitiateOutput, error) {
	return &InitiateOutput{
		ProviderRef:    "mock-" + uuid.NewString(),
		InitialOutcome: int32(types.OutcomeSuccess),
		Data:           map[string]string{},
	}, nil
}

func (p *MockProvider) PollStatus(_ context.Context, _ string, _ map[string]string) (*StatusResult, error) {
	return &StatusResult{RawStatus: "SUCCESSFUL", Outcome: int32(types.OutcomeSuccess)}, nil
}

func (p *MockProvider) ParseCallback(_ context.Context, payload []byte, _ http.Header) (*CallbackResult, error) {
	var body struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Reference) == "" {
		return nil, ErrMissingReference
	}

	return &CallbackResult{
		ProviderRef: strings.TrimSpace(body.Reference),
		RawStatus:   body.Status,
		Outcome:     NormalizeStatus(body.Status),
	}, nil
}
