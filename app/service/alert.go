package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Alerter surfaces settlement anomalies to operators. The default sink is a
// structured log line a log-based alerting pipeline picks up.
type Alerter interface {
	Alert(ctx context.Context, event string, fields map[string]interface{})
}

type LogAlerter struct {
	logger logrus.FieldLogger
}

func NewLogAlerter(logger logrus.FieldLogger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) Alert(_ context.Context, event string, fields map[string]interface{}) {
	a.logger.WithField("alert", event).WithFields(fields).Warn("settlement alert")
}

// WebhookAlerter posts alerts to an operator-configured endpoint (chat hook,
// incident tool). Delivery failures degrade to a log line; an alert must
// never fail the operation that raised it.
type WebhookAlerter struct {
	url    string
	client *http.Client
	logger logrus.FieldLogger
}

func NewWebhookAlerter(url string, logger logrus.FieldLogger) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

func (a *WebhookAlerter) Alert(ctx context.Context, event string, fields map[string]interface{}) {
	body, err := json.Marshal(map[string]interface{}{
		"event":  event,
		"fields": fields,
		"at":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.WithError(err).WithField("alert", event).Warn("alert encode failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		a.logger.WithError(err).WithField("alert", event).Warn("alert delivery failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.WithError(err).WithField("alert", event).WithFields(fields).Warn("alert delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.logger.WithFields(logrus.Fields{
			"alert":  event,
			"status": resp.StatusCode,
		}).Warn("alert endpoint rejected delivery")
	}
}
