package handler

import (
	"encoding/json"
	"net/http"

	"websiter-server/internal/domain"
	"websiter-server/internal/middleware"
	"websiter-server/internal/service"
	"websiter-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type InvoiceHandler struct {
	service  *service.InvoiceService
	validate *validator.Validate
}

func NewInvoiceHandler(service *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	invoice, err := h.service.Create(middleware.GetSessionID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, invoice)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	invoiceID := mux.Vars(r)["id"]
	if invoiceID == "" {
		response.BadRequest(w, "Invoice ID is required")
		return
	}

	invoice, err := h.service.Get(invoiceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !middleware.IsAdmin(r) && invoice.ClientID != middleware.GetUserID(r) {
		response.Forbidden(w, "Invoice does not belong to you")
		return
	}

	response.Success(w, invoice)
}

// List returns the caller's invoices; admins may ask for another client's
// with ?client_id= or for a project's with ?project_id=.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetUserID(r)

	if middleware.IsAdmin(r) {
		if projectID := r.URL.Query().Get("project_id"); projectID != "" {
			invoices, err := h.service.ListByProject(projectID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			response.Success(w, invoices)
			return
		}
		if id := r.URL.Query().Get("client_id"); id != "" {
			clientID = id
		}
	}

	invoices, err := h.service.ListByClient(clientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, invoices)
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	invoiceID := mux.Vars(r)["id"]
	if invoiceID == "" {
		response.BadRequest(w, "Invoice ID is required")
		return
	}

	invoice, err := h.service.Send(invoiceID, middleware.GetSessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, invoice)
}

type setInvoiceStatusRequest struct {
	Status domain.InvoiceStatus `json:"status" validate:"required"`
}

func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	invoiceID := mux.Vars(r)["id"]
	if invoiceID == "" {
		response.BadRequest(w, "Invoice ID is required")
		return
	}

	var req setInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	invoice, err := h.service.SetStatus(invoiceID, middleware.GetSessionID(r), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, invoice)
}
