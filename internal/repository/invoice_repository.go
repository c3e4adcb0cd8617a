package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"websiter-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type InvoiceRepository interface {
	Create(invoice *domain.Invoice) error
	FindByID(id string) (*domain.Invoice, error)
	ListByClient(clientID string) ([]*domain.Invoice, error)
	ListByProject(projectID string) ([]*domain.Invoice, error)
	Update(invoice *domain.Invoice) error
	Count() (int, error)
}

type invoiceRepository struct {
	client *kivik.Client
	dbName string
}

func NewInvoiceRepository(client *kivik.Client, dbName string) InvoiceRepository {
	return &invoiceRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *invoiceRepository) Create(invoice *domain.Invoice) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("invoice:%s", invoice.ID)
	_, err := db.Put(context.Background(), docID, invoice)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func (r *invoiceRepository) FindByID(id string) (*domain.Invoice, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("invoice:%s", id)
	row := db.Get(context.Background(), docID)

	var invoice domain.Invoice
	if err := row.ScanDoc(&invoice); err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	return &invoice, nil
}

func (r *invoiceRepository) ListByClient(clientID string) ([]*domain.Invoice, error) {
	return r.list(map[string]interface{}{
		"client_id": clientID,
		"number":    map[string]interface{}{"$exists": true},
	})
}

func (r *invoiceRepository) ListByProject(projectID string) ([]*domain.Invoice, error) {
	return r.list(map[string]interface{}{
		"project_id": projectID,
		"number":     map[string]interface{}{"$exists": true},
	})
}

func (r *invoiceRepository) list(selector map[string]interface{}) ([]*domain.Invoice, error) {
	db := r.client.DB(r.dbName)

	rows := db.Find(context.Background(), map[string]interface{}{"selector": selector})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		var invoice domain.Invoice
		if err := rows.ScanDoc(&invoice); err != nil {
			continue
		}
		invoices = append(invoices, &invoice)
	}

	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})

	return invoices, nil
}

func (r *invoiceRepository) Update(invoice *domain.Invoice) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("invoice:%s", invoice.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return fmt.Errorf("failed to fetch existing invoice for update: %w", err)
	}

	existingDoc["items"] = invoice.Items
	existingDoc["subtotal"] = invoice.Subtotal
	existingDoc["tax_rate"] = invoice.TaxRate
	existingDoc["tax_amount"] = invoice.TaxAmount
	existingDoc["total"] = invoice.Total
	existingDoc["status"] = invoice.Status
	existingDoc["allow_card"] = invoice.AllowCard
	existingDoc["allow_bank_transfer"] = invoice.AllowBankTransfer
	existingDoc["stripe_customer_id"] = invoice.StripeCustomerID
	existingDoc["stripe_payment_intent_id"] = invoice.StripePaymentIntentID
	existingDoc["updated_at"] = time.Now()

	if invoice.IssuedAt != nil {
		existingDoc["issued_at"] = *invoice.IssuedAt
	}
	if invoice.DueAt != nil {
		existingDoc["due_at"] = *invoice.DueAt
	}

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return nil
}

// Count is used to derive sequential invoice numbers.
func (r *invoiceRepository) Count() (int, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"number": map[string]interface{}{"$exists": true},
		},
		"fields": []string{"_id"},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}

	return count, nil
}
