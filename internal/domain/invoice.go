package domain

import (
	"fmt"
	"time"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// invoiceTransitions mirrors the project adjacency table: legal moves only,
// checked before any store write. paid and cancelled are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:     {InvoiceSent, InvoiceCancelled},
	InvoiceSent:      {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue:   {InvoicePaid, InvoiceCancelled},
	InvoicePaid:      {},
	InvoiceCancelled: {},
}

func CanInvoiceTransition(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type UnknownInvoiceStatusError struct {
	Status InvoiceStatus
}

func (e *UnknownInvoiceStatusError) Error() string {
	return fmt.Sprintf("unknown invoice status: %q", e.Status)
}

type IllegalInvoiceTransitionError struct {
	From, To InvoiceStatus
}

func (e *IllegalInvoiceTransitionError) Error() string {
	return fmt.Sprintf("illegal invoice transition: %s -> %s", e.From, e.To)
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

type Invoice struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	ClientID  string        `json:"client_id"`
	Number    string        `json:"number"`
	Items     []LineItem    `json:"items"`
	Subtotal  float64       `json:"subtotal"`
	TaxRate   float64       `json:"tax_rate"`
	TaxAmount float64       `json:"tax_amount"`
	Total     float64       `json:"total"`
	Status    InvoiceStatus `json:"status"`

	AllowCard         bool `json:"allow_card"`
	AllowBankTransfer bool `json:"allow_bank_transfer"`

	StripeCustomerID      string `json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`

	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type LineItemInput struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	ProjectID         string          `json:"project_id" validate:"required"`
	Items             []LineItemInput `json:"items" validate:"required,min=1,dive"`
	TaxRate           float64         `json:"tax_rate" validate:"gte=0,lte=1"`
	AllowCard         bool            `json:"allow_card"`
	AllowBankTransfer bool            `json:"allow_bank_transfer"`
	DueAt             *time.Time      `json:"due_at"`
}

// ComputeTotals is the single construction path for invoice arithmetic:
// line total = quantity * unit price, subtotal = sum of line totals,
// tax = subtotal * rate, total = subtotal + tax.
func ComputeTotals(items []LineItemInput, taxRate float64) ([]LineItem, float64, float64, float64) {
	lines := make([]LineItem, 0, len(items))
	var subtotal float64
	for _, in := range items {
		line := LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       in.Quantity * in.UnitPrice,
		}
		subtotal += line.Total
		lines = append(lines, line)
	}
	taxAmount := subtotal * taxRate
	return lines, subtotal, taxAmount, subtotal + taxAmount
}
