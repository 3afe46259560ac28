// Package payment talks to the external payment provider. Verification is
// plain request/response and is always finished before any database
// transaction opens; settlement never holds a transaction across this call.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
)

var ErrPaymentNotFound = errors.New("payment reference not found")
var ErrPaymentNotPaid = errors.New("payment not in paid state")

type Verification struct {
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Amount    int    `json:"amount"`
	Status    string `json:"status"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(10*time.Second),
			httpclient.WithRetryCount(2),
		),
	}
}

// Verify fetches the provider's view of a checkout reference. Only a "paid"
// reference may be credited to a wallet.
func (c *Client) Verify(reference string) (*Verification, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Get(fmt.Sprintf("%s/v1/payments/%s", c.baseURL, reference), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	var v Verification
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}

	if v.Status != "paid" {
		return nil, ErrPaymentNotPaid
	}

	return &v, nil
}
