package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mpomar16/cancha-system/services"
)

type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"error": message})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id parameter")
	}
	return id, nil
}

// mapServiceErrorToHTTP переводит сентинельные ошибки сервисного слоя в
// HTTP-статусы. Незнакомая ошибка считается внутренней.
func mapServiceErrorToHTTP(err error) int {
	switch {
	case errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrClienteNotFound),
		errors.Is(err, services.ErrCanchaNotFound),
		errors.Is(err, services.ErrDisciplinaNotFound),
		errors.Is(err, services.ErrDeportistaNotFound),
		errors.Is(err, services.ErrEncargadoNotFound),
		errors.Is(err, services.ErrParticipationNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrTokenNotFound),
		errors.Is(err, services.ErrIncidentNotFound),
		errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrPaymentImmutable),
		errors.Is(err, services.ErrPaymentInvalidTransition),
		errors.Is(err, services.ErrDuplicateToken),
		errors.Is(err, services.ErrTokenCodeConflict),
		errors.Is(err, services.ErrTokenAlreadyUsed),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrReservationNotDeletable),
		errors.Is(err, services.ErrAuthEmailTaken):
		return http.StatusConflict

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrReservationInvalidCupo),
		errors.Is(err, services.ErrReservationCupoOverCapacity),
		errors.Is(err, services.ErrReservationInvalidBalance),
		errors.Is(err, services.ErrReservationStateManaged),
		errors.Is(err, services.ErrParticipationInvalidState),
		errors.Is(err, services.ErrPaymentInvalidAmount),
		errors.Is(err, services.ErrPaymentInvalidKind),
		errors.Is(err, services.ErrPaymentInvalidStatus),
		errors.Is(err, services.ErrTokenInvalidWindow),
		errors.Is(err, services.ErrAuthInvalidRole),
		errors.Is(err, services.ErrPasswordTooShort):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrAuthInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func serviceError(w http.ResponseWriter, err error) {
	status := mapServiceErrorToHTTP(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	errorResponse(w, status, message)
}
