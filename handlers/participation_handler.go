package handlers

import (
	"net/http"

	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/services"
)

type ParticipationHandler struct {
	participationService services.ParticipationService
}

func NewParticipationHandler(participationService services.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participationService: participationService}
}

func (h *ParticipationHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var input services.EnrollInput
	if err := readJSON(w, r, &input); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ReservaID = reservaID

	participation, err := h.participationService.Enroll(r.Context(), input)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participation)
}

func (h *ParticipationHandler) SetState(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	deportistaID, err := getIDFromURL(r, "deportistaID")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var input struct {
		Estado models.ParticipationState `json:"estado"`
	}
	if err := readJSON(w, r, &input); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	participation, err := h.participationService.SetState(r.Context(), deportistaID, reservaID, input.Estado)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participation)
}

func (h *ParticipationHandler) GetByPair(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	deportistaID, err := getIDFromURL(r, "deportistaID")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	participation, err := h.participationService.GetByPair(r.Context(), deportistaID, reservaID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participation)
}

func (h *ParticipationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	deportistaID, err := getIDFromURL(r, "deportistaID")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.participationService.Remove(r.Context(), deportistaID, reservaID); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParticipationHandler) ListByReservation(w http.ResponseWriter, r *http.Request) {
	reservaID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	participations, err := h.participationService.ListByReservation(r.Context(), reservaID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participations)
}
