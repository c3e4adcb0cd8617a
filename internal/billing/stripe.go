package billing

import (
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Config struct {
	SecretKey string
	Currency  string
}

// Service wraps the Stripe calls the invoice flow needs: one customer per
// client, one payment intent per sent invoice.
type Service struct {
	currency string
}

func NewService(cfg Config) *Service {
	stripe.Key = cfg.SecretKey

	currency := cfg.Currency
	if currency == "" {
		currency = "eur"
	}

	return &Service{currency: currency}
}

func (s *Service) EnsureCustomer(name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreatePaymentIntent registers the invoice total with Stripe and returns
// the intent id to store on the invoice. Amounts are in the minor unit.
func (s *Service) CreatePaymentIntent(customerID, invoiceNumber string, total float64) (string, error) {
	amount := int64(math.Round(total * 100))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
		Customer: stripe.String(customerID),
	}
	params.AddMetadata("invoice_number", invoiceNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return pi.ID, nil
}
