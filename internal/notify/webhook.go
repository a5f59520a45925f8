// Package notify delivers ledger-update webhooks to the dashboard backend.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier posts ledger updates so the dashboard can refresh cached
// balances. Delivery is best effort: failures are logged and dropped, the
// admission path never fails because of them.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier creates a notifier for the given URL. An empty URL
// disables delivery.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &WebhookNotifier{client: client, url: url, logger: logger}
}

type ledgerUpdate struct {
	Event   string   `json:"event"`
	UserID  string   `json:"user_id"`
	Periods []string `json:"periods"`
}

// LedgerUpdated posts the recomputed periods for the user.
func (n *WebhookNotifier) LedgerUpdated(ctx context.Context, userID string, periods []string) {
	if n.url == "" {
		return
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(ledgerUpdate{Event: "ledger_updated", UserID: userID, Periods: periods}).
		Post(n.url)
	if err != nil {
		n.logger.Warn("Ledger webhook delivery failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("Ledger webhook rejected",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode()))
	}
}
