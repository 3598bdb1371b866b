package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrIntentNotFound      = errors.New("payment intent not found")
)

const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
)

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Client is the boundary to the hosted payment processor. The server only
// orchestrates the confirmation handshake; card collection happens on the
// processor's side.
type Client interface {
	CreateCustomer(ctx context.Context, email, name string) (customerID string, err error)
	CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	Payout(ctx context.Context, userID int, amountUSD float64, reference string) (providerRef string, err error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds the real gateway client. Every call carries a request
// timeout so a hung provider cannot stall a handler forever.
func NewClient(baseURL, apiKey string) Client {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *httpClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/v1/customers", map[string]string{
		"email": email,
		"name":  name,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *httpClient) CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := c.post(ctx, "/v1/payment_intents", map[string]interface{}{
		"customer":     customerID,
		"amount_cents": amountCents,
		"currency":     currency,
	}, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *httpClient) GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrIntentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *httpClient) Payout(ctx context.Context, userID int, amountUSD float64, reference string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/v1/payouts", map[string]interface{}{
		"user_id":    userID,
		"amount_usd": amountUSD,
		"reference":  reference,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
