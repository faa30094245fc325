package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stock247/lending-engine/internal/config"
	customError "github.com/stock247/lending-engine/pkg/errors"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// Gateway timestamps are local-time YYYYMMDDHHMMSS.
	timestampLayout = "20060102150405"
)

// Client submits STK push payment requests to the Daraja gateway.
// Access tokens are short-lived and cached until shortly before expiry.
type Client struct {
	cfg        config.MpesaConfig
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.MpesaConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PushResult carries the correlation ids the gateway issues for one
// accepted STK push request.
type PushResult struct {
	CheckoutRequestID string
	MerchantRequestID string
	ResponseDesc      string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

// StkPush prompts the subscriber's handset to authorize a payment of
// amount toward the loan identified by accountRef.
func (c *Client) StkPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef string) (*PushResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}

	timestamp := time.Now().Format(timestampLayout)
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          derivePassword(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.Round(0).String(),
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   "Stock 24/7 loan repayment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}

	var pushResp stkPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, customError.WrapGatewayUnavailable(fmt.Errorf("malformed push response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || pushResp.ResponseCode != "0" {
		reason := pushResp.ResponseDescription
		if reason == "" {
			reason = pushResp.ErrorMessage
		}
		return nil, customError.WrapGatewayUnavailable(fmt.Errorf("push rejected (status %d): %s", resp.StatusCode, reason))
	}

	return &PushResult{
		CheckoutRequestID: pushResp.CheckoutRequestID,
		MerchantRequestID: pushResp.MerchantRequestID,
		ResponseDesc:      pushResp.ResponseDescription,
	}, nil
}

// accessToken returns a cached bearer token, exchanging credentials for
// a fresh one when the cache is empty or within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("malformed token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty token")
	}

	ttl := 3600 * time.Second
	if secs := strings.TrimSpace(tok.ExpiresIn); secs != "" {
		if d, err := time.ParseDuration(secs + "s"); err == nil {
			ttl = d
		}
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(ttl)
	return c.token, nil
}

// derivePassword encodes shortcode+passkey+timestamp as Daraja requires.
func derivePassword(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}
