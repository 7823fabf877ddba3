package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
}

func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		staff := middleware.RequireRole(auth.RoleHR, auth.RoleAdmin)
		r.With(staff).Post("/", h.handleRegister)
		r.With(staff).Get("/", h.handleList)
		r.With(staff).Post("/{employeeID}/deactivate", h.handleDeactivate)
		r.Get("/{employeeID}", h.handleGet)
	})
}

type registerPayload struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.Register(r.Context(), core.RegisterInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Password:   payload.Password,
		Department: core.Department(payload.Department),
		Role:       auth.Role(payload.Role),
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if employeeID != user.EmployeeID && user.Role == auth.RoleEmployee {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient role", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.Employee(r.Context(), employeeID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.Pagination(r)
	employees, total, err := h.Service.ListEmployees(r.Context(), limit, offset)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"employees": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.SetActive(r.Context(), employeeID, false); err != nil {
		writeCoreError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"deactivated": employeeID}, middleware.GetRequestID(r.Context()))
}

func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, core.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, core.ErrAlreadyExists):
		api.Fail(w, http.StatusConflict, "already_exists", err.Error(), requestID)
	default:
		slog.Error("employee operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}
