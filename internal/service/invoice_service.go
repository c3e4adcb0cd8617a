package service

import (
	"encoding/json"
	"fmt"
	"time"

	"websiter-server/internal/domain"
	"websiter-server/internal/events"
	"websiter-server/internal/repository"

	"github.com/google/uuid"
)

// Biller is what the invoice flow needs from Stripe. internal/billing
// satisfies it; tests substitute their own.
type Biller interface {
	EnsureCustomer(name, email string) (string, error)
	CreatePaymentIntent(customerID, invoiceNumber string, total float64) (string, error)
}

type InvoiceService struct {
	repo           repository.InvoiceRepository
	projectRepo    repository.ProjectRepository
	clientRepo     repository.ClientRepository
	biller         Biller
	bus            events.Bus
	numberPrefix   string
	defaultTaxRate float64
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	projectRepo repository.ProjectRepository,
	clientRepo repository.ClientRepository,
	biller Biller,
	bus events.Bus,
	numberPrefix string,
	defaultTaxRate float64,
) *InvoiceService {
	if numberPrefix == "" {
		numberPrefix = "WS"
	}
	return &InvoiceService{
		repo:           repo,
		projectRepo:    projectRepo,
		clientRepo:     clientRepo,
		biller:         biller,
		bus:            bus,
		numberPrefix:   numberPrefix,
		defaultTaxRate: defaultTaxRate,
	}
}

// Create builds the invoice through the single arithmetic path in
// domain.ComputeTotals; nothing else ever writes the money fields.
func (s *InvoiceService) Create(sessionID string, req *domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	project, err := s.projectRepo.FindByID(req.ProjectID)
	if err != nil {
		return nil, ErrNotFound
	}

	taxRate := req.TaxRate
	if taxRate == 0 {
		taxRate = s.defaultTaxRate
	}
	items, subtotal, taxAmount, total := domain.ComputeTotals(req.Items, taxRate)

	number, err := s.nextNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice := &domain.Invoice{
		ID:                uuid.New().String(),
		ProjectID:         project.ID,
		ClientID:          project.ClientID,
		Number:            number,
		Items:             items,
		Subtotal:          subtotal,
		TaxRate:           taxRate,
		TaxAmount:         taxAmount,
		Total:             total,
		Status:            domain.InvoiceDraft,
		AllowCard:         req.AllowCard,
		AllowBankTransfer: req.AllowBankTransfer,
		DueAt:             req.DueAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(invoice); err != nil {
		return nil, err
	}

	s.publish(domain.OpInsert, invoice, sessionID)
	return invoice, nil
}

func (s *InvoiceService) Get(id string) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return invoice, nil
}

func (s *InvoiceService) ListByClient(clientID string) ([]*domain.Invoice, error) {
	return s.repo.ListByClient(clientID)
}

func (s *InvoiceService) ListByProject(projectID string) ([]*domain.Invoice, error) {
	return s.repo.ListByProject(projectID)
}

// Send moves a draft to sent. When card payments are enabled and a biller
// is configured it provisions the Stripe customer and payment intent first;
// a Stripe failure leaves the invoice in draft.
func (s *InvoiceService) Send(id, sessionID string) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if !domain.CanInvoiceTransition(invoice.Status, domain.InvoiceSent) {
		return nil, &domain.IllegalInvoiceTransitionError{From: invoice.Status, To: domain.InvoiceSent}
	}

	if invoice.AllowCard && s.biller != nil {
		client, err := s.clientRepo.FindByID(invoice.ClientID)
		if err != nil {
			return nil, ErrNotFound
		}

		customerID := invoice.StripeCustomerID
		if customerID == "" {
			customerID, err = s.biller.EnsureCustomer(client.Name, client.Email)
			if err != nil {
				return nil, err
			}
		}

		intentID, err := s.biller.CreatePaymentIntent(customerID, invoice.Number, invoice.Total)
		if err != nil {
			return nil, err
		}

		invoice.StripeCustomerID = customerID
		invoice.StripePaymentIntentID = intentID
	}

	now := time.Now()
	invoice.Status = domain.InvoiceSent
	invoice.IssuedAt = &now
	invoice.UpdatedAt = now

	if err := s.repo.Update(invoice); err != nil {
		return nil, err
	}

	s.publish(domain.OpUpdate, invoice, sessionID)
	return invoice, nil
}

func (s *InvoiceService) SetStatus(id, sessionID string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if !status.Valid() {
		return nil, &domain.UnknownInvoiceStatusError{Status: status}
	}

	invoice, err := s.repo.FindByID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if !domain.CanInvoiceTransition(invoice.Status, status) {
		return nil, &domain.IllegalInvoiceTransitionError{From: invoice.Status, To: status}
	}

	invoice.Status = status
	invoice.UpdatedAt = time.Now()

	if err := s.repo.Update(invoice); err != nil {
		return nil, err
	}

	s.publish(domain.OpUpdate, invoice, sessionID)
	return invoice, nil
}

func (s *InvoiceService) nextNumber() (string, error) {
	count, err := s.repo.Count()
	if err != nil {
		return "", fmt.Errorf("failed to derive invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%04d", s.numberPrefix, time.Now().Year(), count+1), nil
}

func (s *InvoiceService) publish(op domain.ChangeOp, invoice *domain.Invoice, sessionID string) {
	if s.bus == nil {
		return
	}

	ownerEmail := ""
	if client, err := s.clientRepo.FindByID(invoice.ClientID); err == nil {
		ownerEmail = client.Email
	}

	payload, _ := json.Marshal(invoice)
	s.bus.Publish(domain.ChangeEvent{
		Table:         domain.TableInvoices,
		Op:            op,
		RowID:         invoice.ID,
		OwnerID:       invoice.ClientID,
		OwnerEmail:    ownerEmail,
		OriginSession: sessionID,
		Payload:       payload,
		Timestamp:     time.Now(),
	})
}
