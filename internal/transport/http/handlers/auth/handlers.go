package authhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Core      *core.Service
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(coreSvc *core.Service, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Core: coreSvc, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Core.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{
		EmployeeID: emp.ID,
		Role:       string(emp.Role),
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{"token": token, "employee": emp}, middleware.GetRequestID(r.Context()))
}
