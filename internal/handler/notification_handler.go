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

type NotificationHandler struct {
	service  *service.NotificationService
	validate *validator.Validate
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	notification, err := h.service.Create(middleware.GetSessionID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, notification)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.ListForUser(middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["id"]
	if notificationID == "" {
		response.BadRequest(w, "Notification ID is required")
		return
	}

	err := h.service.MarkRead(notificationID, middleware.GetUserID(r), middleware.IsAdmin(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Message(w, "Notification marked as read")
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, map[string]int{"unread": count})
}
