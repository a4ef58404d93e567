package models

import "time"

// ParticipationState представляет статусы участия (participa_en).
type ParticipationState string

const (
	ParticipationConfirmado ParticipationState = "confirmado"
	ParticipationPendiente  ParticipationState = "pendiente"
	ParticipationCancelado  ParticipationState = "cancelado"
)

func (s ParticipationState) Valid() bool {
	switch s {
	case ParticipationConfirmado, ParticipationPendiente, ParticipationCancelado:
		return true
	}
	return false
}

// Participation — заявка спортсмена на слот резервы. Составной ключ
// (deportista_id, reserva_id) уникален.
type Participation struct {
	DeportistaID     int                `json:"deportista_id" db:"deportista_id"`
	ReservaID        int                `json:"reserva_id" db:"reserva_id"`
	FechaInscripcion time.Time          `json:"fecha_inscripcion" db:"fecha_inscripcion"`
	Estado           ParticipationState `json:"estado" db:"estado"`

	Deportista *Deportista `json:"deportista,omitempty" db:"-"`
}
