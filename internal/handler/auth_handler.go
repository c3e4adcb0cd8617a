package handler

import (
	"encoding/json"
	"net/http"

	"websiter-server/internal/domain"
	"websiter-server/internal/middleware"
	"websiter-server/internal/service"
	"websiter-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	service  *service.AuthService
	validate *validator.Validate
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	client, err := h.service.Register(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, client)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, resp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.service.RefreshToken(&req)
	if err != nil {
		response.Unauthorized(w, "Invalid refresh token")
		return
	}

	response.Success(w, resp)
}

func (h *AuthHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, clients)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.GetClient(middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, client)
}
