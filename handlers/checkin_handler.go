package handlers

import (
	"net/http"

	"github.com/mpomar16/cancha-system/middleware"
	"github.com/mpomar16/cancha-system/services"
)

type CheckInHandler struct {
	checkInService services.CheckInService
}

func NewCheckInHandler(checkInService services.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

func (h *CheckInHandler) Issue(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var input services.IssueTokenInput
	if err := readJSON(w, r, &input); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ReservaID = reservaID

	token, err := h.checkInService.Issue(r.Context(), input)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// Redeem гасит код при сканировании. Идентификатор энкаргадо берётся из
// JWT, если сканирует авторизованный encargado.
func (h *CheckInHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Codigo string `json:"codigo"`
	}
	if err := readJSON(w, r, &input); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Codigo == "" {
		errorResponse(w, http.StatusBadRequest, "codigo is required")
		return
	}

	var encargadoID *int
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		encargadoID = &id
	}

	token, err := h.checkInService.Redeem(r.Context(), input.Codigo, encargadoID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *CheckInHandler) GetByReservation(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.checkInService.GetByReservation(r.Context(), reservaID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *CheckInHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var input struct {
		ReservaID int `json:"reserva_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.checkInService.Reassign(r.Context(), id, input.ReservaID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *CheckInHandler) MarkExpired(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.checkInService.MarkExpired(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckInHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.checkInService.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
