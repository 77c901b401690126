package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/authd/authd/internal/autherr"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondWithDomainError translates a typed core error into an HTTP status
// and the stable error code clients match on.
func respondWithDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, autherr.ErrInvalidCredentials),
		errors.Is(err, autherr.ErrOtpInvalidOrExpired),
		errors.Is(err, autherr.ErrTokenMalformed),
		errors.Is(err, autherr.ErrSignatureInvalid),
		errors.Is(err, autherr.ErrAlgorithmMismatch),
		errors.Is(err, autherr.ErrTokenExpired),
		errors.Is(err, autherr.ErrTokenInvalidated),
		errors.Is(err, autherr.ErrTokenAlreadyUsed),
		errors.Is(err, autherr.ErrJTIMismatch),
		errors.Is(err, autherr.ErrTokenNotFound),
		errors.Is(err, autherr.ErrClientSecretMismatch):
		status = http.StatusUnauthorized
	case errors.Is(err, autherr.ErrUserNotFound),
		errors.Is(err, autherr.ErrClientNotFound),
		errors.Is(err, autherr.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, autherr.ErrClientIDMismatch),
		errors.Is(err, autherr.ErrCodeExpired),
		errors.Is(err, autherr.ErrCodeAlreadyUsed):
		status = http.StatusBadRequest
	case errors.Is(err, autherr.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, autherr.ErrDeliveryFailed):
		status = http.StatusBadGateway
	}

	message := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		message = "internal error"
	case errors.Is(err, autherr.ErrDeliveryFailed):
		// The wrapped cause carries SMTP detail that must not reach clients.
		message = autherr.ErrDeliveryFailed.Error()
	}

	respondWithError(w, status, autherr.Code(err), message)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
