package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stock247/lending-engine/internal/config"
	customError "github.com/stock247/lending-engine/pkg/errors"
)

// Notification types carried to the SMS gateway.
const (
	TypeRepaymentReceived = "repayment_received"
	TypeLoanCompleted     = "loan_completed"
	TypeRepaymentFailed   = "repayment_failed"
)

// Sender delivers outbound SMS. Settlement treats every send as
// best-effort: errors are logged by the caller and never propagated.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	Phone            string `json:"phone"`
	Message          string `json:"message"`
	ApplicationID    string `json:"applicationId,omitempty"`
	NotificationType string `json:"notificationType"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	Provider  string `json:"provider"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message"`
}

type smsClient struct {
	cfg        config.SMSConfig
	httpClient *http.Client
}

func NewSMSClient(cfg config.SMSConfig) Sender {
	return &smsClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *smsClient) Send(ctx context.Context, msg Message) error {
	if c.cfg.URL == "" {
		return customError.WrapNotificationError(fmt.Errorf("sms gateway not configured"))
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return customError.WrapNotificationError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return customError.WrapNotificationError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return customError.WrapNotificationError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return customError.WrapNotificationError(fmt.Errorf("sms gateway returned status %d", resp.StatusCode))
	}

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return customError.WrapNotificationError(fmt.Errorf("malformed sms response: %w", err))
	}
	if !sr.Success {
		return customError.WrapNotificationError(fmt.Errorf("sms gateway rejected message: %s", sr.Message))
	}

	return nil
}
