package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/terra-clan/car-marketplace/internal/auth"
	"github.com/terra-clan/car-marketplace/internal/models"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := s.auth.Login(r.Context(), req)
	if err != nil {
		respondAuthError(w, err, "login")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterBuyer(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterBuyerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := s.auth.RegisterBuyer(r.Context(), req)
	if err != nil {
		respondAuthError(w, err, "register buyer")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRegisterDealer(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDealerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := s.auth.RegisterDealer(r.Context(), req)
	if err != nil {
		respondAuthError(w, err, "register dealer")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	if err := s.auth.Logout(r.Context(), session.Token); err != nil {
		respondAuthError(w, err, "logout")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":       UserFromContext(r.Context()),
		"expires_at": SessionFromContext(r.Context()).ExpiresAt,
	})
}

func respondAuthError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", err.Error())
	default:
		slog.Error("auth request failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}
