package handler

import (
	"errors"
	"net/http"

	"websiter-server/internal/domain"
	"websiter-server/internal/service"
	"websiter-server/pkg/response"
)

// writeServiceError maps service-layer errors onto HTTP codes so every
// handler reports failures the same way.
func writeServiceError(w http.ResponseWriter, err error) {
	var unknownStatus *domain.UnknownStatusError
	var illegalTransition *domain.IllegalTransitionError
	var unknownInvoiceStatus *domain.UnknownInvoiceStatusError
	var illegalInvoiceTransition *domain.IllegalInvoiceTransitionError

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrRecipientConflict),
		errors.Is(err, service.ErrNoRecipient),
		errors.As(err, &unknownStatus),
		errors.As(err, &unknownInvoiceStatus):
		response.BadRequest(w, err.Error())
	case errors.As(err, &illegalTransition),
		errors.As(err, &illegalInvoiceTransition):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
