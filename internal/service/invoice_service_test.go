package service

import (
	"errors"
	"math"
	"testing"

	"websiter-server/internal/domain"
)

type mockInvoiceRepo struct {
	invoices map[string]*domain.Invoice
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[string]*domain.Invoice)}
}

func (m *mockInvoiceRepo) Create(inv *domain.Invoice) error {
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) FindByID(id string) (*domain.Invoice, error) {
	if inv, exists := m.invoices[id]; exists {
		return inv, nil
	}
	return nil, errors.New("invoice not found")
}

func (m *mockInvoiceRepo) ListByClient(clientID string) ([]*domain.Invoice, error) {
	var result []*domain.Invoice
	for _, inv := range m.invoices {
		if inv.ClientID == clientID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (m *mockInvoiceRepo) ListByProject(projectID string) ([]*domain.Invoice, error) {
	var result []*domain.Invoice
	for _, inv := range m.invoices {
		if inv.ProjectID == projectID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (m *mockInvoiceRepo) Update(inv *domain.Invoice) error {
	if _, exists := m.invoices[inv.ID]; !exists {
		return errors.New("invoice not found")
	}
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) Count() (int, error) {
	return len(m.invoices), nil
}

type mockBiller struct {
	customers int
	intents   int
	fail      bool
}

func (b *mockBiller) EnsureCustomer(name, email string) (string, error) {
	if b.fail {
		return "", errors.New("stripe unavailable")
	}
	b.customers++
	return "cus_test", nil
}

func (b *mockBiller) CreatePaymentIntent(customerID, invoiceNumber string, total float64) (string, error) {
	if b.fail {
		return "", errors.New("stripe unavailable")
	}
	b.intents++
	return "pi_test", nil
}

func invoiceFixture(t *testing.T) (*InvoiceService, *mockInvoiceRepo, *mockBiller) {
	t.Helper()
	repo := newMockInvoiceRepo()
	projectRepo := newMockProjectRepo(&domain.Project{ID: "p1", ClientID: "client-1", Title: "Shop", Status: domain.StatusConfirmed})
	biller := &mockBiller{}
	service := NewInvoiceService(repo, projectRepo, newMockClientRepo(testClient()), biller, nil, "WS", 0.19)
	return service, repo, biller
}

func TestInvoiceService_CreateAppliesDefaultTaxRate(t *testing.T) {
	service, _, _ := invoiceFixture(t)

	inv, err := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		Items:     []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if inv.TaxRate != 0.19 {
		t.Errorf("tax rate = %v, want configured default 0.19", inv.TaxRate)
	}
	if math.Abs(inv.TaxAmount-19) > 1e-9 {
		t.Errorf("tax = %v, want 19", inv.TaxAmount)
	}
	if math.Abs(inv.Total-119) > 1e-9 {
		t.Errorf("total = %v, want 119", inv.Total)
	}
}

func TestInvoiceService_CreateExplicitTaxRateWins(t *testing.T) {
	service, _, _ := invoiceFixture(t)

	inv, err := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		TaxRate:   0.07,
		Items:     []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if inv.TaxRate != 0.07 {
		t.Errorf("tax rate = %v, want request value 0.07", inv.TaxRate)
	}
}

func TestInvoiceService_CreateComputesTotals(t *testing.T) {
	service, _, _ := invoiceFixture(t)

	inv, err := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		TaxRate:   0.19,
		Items: []domain.LineItemInput{
			{Description: "Design", Quantity: 10, UnitPrice: 80},
			{Description: "Development", Quantity: 25, UnitPrice: 90},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if inv.Items[0].Total != 800 {
		t.Errorf("line total = %v, want 800", inv.Items[0].Total)
	}
	if inv.Items[1].Total != 2250 {
		t.Errorf("line total = %v, want 2250", inv.Items[1].Total)
	}
	if inv.Subtotal != 3050 {
		t.Errorf("subtotal = %v, want 3050", inv.Subtotal)
	}
	if math.Abs(inv.TaxAmount-3050*0.19) > 1e-9 {
		t.Errorf("tax = %v, want %v", inv.TaxAmount, 3050*0.19)
	}
	if math.Abs(inv.Total-(inv.Subtotal+inv.TaxAmount)) > 1e-9 {
		t.Errorf("total = %v, want subtotal+tax = %v", inv.Total, inv.Subtotal+inv.TaxAmount)
	}
	if inv.Status != domain.InvoiceDraft {
		t.Errorf("new invoice must be draft, got %s", inv.Status)
	}
	if inv.Number == "" {
		t.Error("expected generated invoice number")
	}
}

func TestInvoiceService_SendProvisionsStripe(t *testing.T) {
	service, _, biller := invoiceFixture(t)

	inv, _ := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		TaxRate:   0.19,
		AllowCard: true,
		Items:     []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 500}},
	})

	sent, err := service.Send(inv.ID, "s1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sent.Status != domain.InvoiceSent {
		t.Errorf("expected sent, got %s", sent.Status)
	}
	if sent.IssuedAt == nil {
		t.Error("expected issued_at to be set")
	}
	if sent.StripeCustomerID != "cus_test" || sent.StripePaymentIntentID != "pi_test" {
		t.Errorf("expected stripe refs, got %q / %q", sent.StripeCustomerID, sent.StripePaymentIntentID)
	}
	if biller.customers != 1 || biller.intents != 1 {
		t.Errorf("expected one customer and one intent, got %d / %d", biller.customers, biller.intents)
	}
}

func TestInvoiceService_SendWithoutCardSkipsStripe(t *testing.T) {
	service, _, biller := invoiceFixture(t)

	inv, _ := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID:         "p1",
		AllowBankTransfer: true,
		Items:             []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 500}},
	})

	if _, err := service.Send(inv.ID, "s1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if biller.customers != 0 || biller.intents != 0 {
		t.Error("bank-transfer-only invoice must not touch stripe")
	}
}

func TestInvoiceService_StripeFailureKeepsDraft(t *testing.T) {
	service, repo, biller := invoiceFixture(t)
	biller.fail = true

	inv, _ := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		AllowCard: true,
		Items:     []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 500}},
	})

	if _, err := service.Send(inv.ID, "s1"); err == nil {
		t.Fatal("expected stripe error to propagate")
	}

	stored, _ := repo.FindByID(inv.ID)
	if stored.Status != domain.InvoiceDraft {
		t.Errorf("failed send must leave invoice in draft, got %s", stored.Status)
	}
}

func TestInvoiceService_StatusTransitions(t *testing.T) {
	service, _, _ := invoiceFixture(t)

	inv, _ := service.Create("s1", &domain.CreateInvoiceRequest{
		ProjectID: "p1",
		Items:     []domain.LineItemInput{{Description: "Design", Quantity: 1, UnitPrice: 500}},
	})

	// draft -> paid skips sent and must be rejected
	if _, err := service.SetStatus(inv.ID, "s1", domain.InvoicePaid); err == nil {
		t.Error("expected draft -> paid to be rejected")
	}

	if _, err := service.SetStatus(inv.ID, "s1", "bogus"); err == nil {
		t.Error("expected unknown status to be rejected")
	}

	if _, err := service.Send(inv.ID, "s1"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := service.SetStatus(inv.ID, "s1", domain.InvoicePaid); err != nil {
		t.Errorf("sent -> paid should be legal, got %v", err)
	}

	// paid is terminal
	if _, err := service.SetStatus(inv.ID, "s1", domain.InvoiceCancelled); err == nil {
		t.Error("expected paid -> cancelled to be rejected")
	}
}
