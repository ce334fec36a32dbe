package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
)

const defaultTimeout = 5 * time.Second

var validate = validator.New()

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func contextWithTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// StatusOf maps an error returned by a service to an HTTP status code.
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindUnauthenticated:
		return http.StatusUnauthorized
	case models.KindInvalidInput, models.KindConflict, models.KindInsufficientFunds:
		return http.StatusBadRequest
	case models.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status and message of err. Anything
// that is not a known application error is logged and hidden.
func writeServiceError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status := StatusOf(err)
	var appErr *models.Error
	switch {
	case status == http.StatusServiceUnavailable && !errors.As(err, &appErr):
		logger.WithError(err).Warn("request timed out")
		writeError(w, status, models.ErrUnavailable.Message)
	case status == http.StatusInternalServerError:
		logger.WithError(err).Error("internal error")
		writeError(w, status, models.ErrInternal.Message)
	default:
		errors.As(err, &appErr)
		writeError(w, status, appErr.Message)
	}
}

// decodeJSON reads the request body into dst and checks its validate tags.
// A failing field is reported with its entry in fieldErrs.
func decodeJSON(r *http.Request, dst interface{}, fieldErrs map[string]*models.Error) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.ErrInvalidRequestBody
	}
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		if mapped, ok := fieldErrs[invalid[0].Field()]; ok {
			return mapped
		}
	}
	return models.ErrInvalidRequestBody
}
