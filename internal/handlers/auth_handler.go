package handlers

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/services"
)

type AuthHandler struct {
	Service *services.UserService
	Logger  logrus.FieldLogger
	Timeout time.Duration
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// WriteAuthFailure answers in the {success,message} shape used by the
// authentication endpoint and the token checker.
func WriteAuthFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.AuthResponse{Success: false, Message: message})
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req, nil); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	resp, err := h.Service.Authenticate(ctx, req.Email, req.Password)
	var appErr *models.Error
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case models.KindOf(err) == models.KindUnauthenticated && errors.As(err, &appErr):
		WriteAuthFailure(w, http.StatusUnauthorized, appErr.Message)
	default:
		writeServiceError(w, h.Logger, err)
	}
}
