package services

import (
	"errors"
	"os"

	"daredo/internal/pkg/payment"

	"github.com/samber/do"
)

// PaymentVerifier fronts the external payment provider. It is always
// consulted before the settlement transaction opens.
type PaymentVerifier struct {
	client *payment.Client
}

func NewPaymentVerifier(container *do.Injector) (*PaymentVerifier, error) {
	baseURL := os.Getenv("PAYMENT_API_URL")
	if baseURL == "" {
		return nil, errors.New("PAYMENT_API_URL not set")
	}

	return &PaymentVerifier{
		client: payment.NewClient(baseURL, os.Getenv("PAYMENT_API_KEY")),
	}, nil
}

func (service *PaymentVerifier) Verify(reference string) (*payment.Verification, error) {
	return service.client.Verify(reference)
}
