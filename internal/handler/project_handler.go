package handler

import (
	"encoding/json"
	"net/http"

	"websiter-server/internal/board"
	"websiter-server/internal/domain"
	"websiter-server/internal/middleware"
	"websiter-server/internal/service"
	"websiter-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ProjectHandler struct {
	service  *service.ProjectService
	validate *validator.Validate
}

func NewProjectHandler(service *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	project, err := h.service.Create(middleware.GetUserID(r), middleware.GetSessionID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, project)
}

// List returns every project for admins and the caller's own projects
// for everyone else.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		projects []*domain.Project
		err      error
	)

	if middleware.IsAdmin(r) {
		projects, err = h.service.ListAll()
	} else {
		projects, err = h.service.ListByClient(middleware.GetUserID(r))
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, projects)
}

// Board renders every project into the kanban columns.
func (h *ProjectHandler) Board(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, board.Build(projects))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if projectID == "" {
		response.BadRequest(w, "Project ID is required")
		return
	}

	project, err := h.service.Get(projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !middleware.IsAdmin(r) && project.ClientID != middleware.GetUserID(r) {
		response.Forbidden(w, "Project does not belong to you")
		return
	}

	response.Success(w, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if projectID == "" {
		response.BadRequest(w, "Project ID is required")
		return
	}

	var req domain.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	project, err := h.service.Update(projectID, middleware.GetSessionID(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, project)
}

// UpdateStatus moves a project through the pipeline. Unknown statuses and
// moves the transition table forbids are rejected before anything is
// written.
func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if projectID == "" {
		response.BadRequest(w, "Project ID is required")
		return
	}

	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	project, err := h.service.UpdateStatus(projectID, middleware.GetSessionID(r), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if projectID == "" {
		response.BadRequest(w, "Project ID is required")
		return
	}

	if err := h.service.Delete(projectID, middleware.GetSessionID(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Message(w, "Project deleted successfully")
}
