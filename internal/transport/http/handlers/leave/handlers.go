package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Metrics *metrics.Collector
}

func NewHandler(service *leave.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Post("/requests", h.handleFileRequest)
		r.Get("/requests", h.handleListRequests)
		r.Get("/requests/pending", h.handlePendingRequests)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		decide := middleware.RequireRole(auth.RoleManager, auth.RoleHR, auth.RoleAdmin, auth.RoleTopManagement)
		r.With(decide).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(decide).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.Get("/balances/{employeeID}", h.handleGetBalance)
		r.Get("/approvers", h.handleListApprovers)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/approvers", h.handleAddApprover)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/approvers/{department}/{employeeID}", h.handleRemoveApprover)
	})
}

type fileRequestPayload struct {
	LeaveType  string `json:"leaveType"`
	Department string `json:"department"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason"`
	ApproverID string `json:"approverId"`
}

func (h *Handler) handleFileRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload fileRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	startDate, err := shared.ParseDate(payload.StartDate)
	if err != nil || startDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "validation_error", "startDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	endDate, err := shared.ParseDate(payload.EndDate)
	if err != nil || endDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "validation_error", "endDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.File(r.Context(), leave.FileInput{
		EmployeeID: user.EmployeeID,
		Type:       leave.LeaveType(payload.LeaveType),
		Department: core.Department(payload.Department),
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     payload.Reason,
		ApproverID: payload.ApproverID,
	})
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Remarks string `json:"remarks"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "approved", h.Service.Approve)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "rejected", h.Service.Reject)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, outcome string, decide func(ctx context.Context, requestID, actorID, remarks string) (leave.LeaveRequest, error)) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	req, err := decide(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, payload.Remarks)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Request(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	if req.EmployeeID != user.EmployeeID && user.Role == auth.RoleEmployee {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	limit, offset := shared.Pagination(r)
	requests, total, err := h.Service.ListRequests(r.Context(), user.EmployeeID, limit, offset)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"requests": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requests, err := h.Service.PendingRequests(r.Context(), user.EmployeeID)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if employeeID != user.EmployeeID && user.Role == auth.RoleEmployee {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your balance", middleware.GetRequestID(r.Context()))
		return
	}

	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "validation_error", "year must be numeric", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	balance, err := h.Service.Balance(r.Context(), employeeID, year)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

type approverPayload struct {
	Department string `json:"department"`
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleAddApprover(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload approverPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	assignment, err := h.Service.AddDepartmentApprover(r.Context(), user.EmployeeID, core.Department(payload.Department), payload.EmployeeID)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Created(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveApprover(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	department := core.Department(chi.URLParam(r, "department"))
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.RemoveDepartmentApprover(r.Context(), user.EmployeeID, department, employeeID); err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"removed": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListApprovers(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	department := core.Department(r.URL.Query().Get("department"))
	assignments, err := h.Service.DepartmentApprovers(r.Context(), department)
	if err != nil {
		writeLeaveError(w, r, err)
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func writeLeaveError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, leave.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, leave.ErrAlreadyExists):
		api.Fail(w, http.StatusConflict, "already_exists", err.Error(), requestID)
	default:
		slog.Error("leave operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}
