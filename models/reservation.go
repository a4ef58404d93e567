package models

import "time"

// ReservationState представляет состояния резервы, соответствующие ENUM в БД.
type ReservationState string

const (
	ReservationPendiente ReservationState = "pendiente"
	ReservationEnCuotas  ReservationState = "en_cuotas"
	ReservationPagada    ReservationState = "pagada"
	ReservationCancelada ReservationState = "cancelada"
)

func (s ReservationState) Valid() bool {
	switch s {
	case ReservationPendiente, ReservationEnCuotas, ReservationPagada, ReservationCancelada:
		return true
	}
	return false
}

// DeriveReservationState computes the lifecycle state from the running
// balance. Cancelada is terminal: once a reservation is cancelled the state
// is never re-derived from its balance.
func DeriveReservationState(current ReservationState, saldoPendiente, montoTotal int64) ReservationState {
	if current == ReservationCancelada {
		return ReservationCancelada
	}
	switch {
	case saldoPendiente == 0:
		return ReservationPagada
	case saldoPendiente < montoTotal:
		return ReservationEnCuotas
	default:
		return ReservationPendiente
	}
}

// Reservation представляет бронь площадки: слот с денежным итогом и
// вместимостью участников. Все суммы хранятся в сентаво (целые числа),
// чтобы арифметика баланса была точной.
type Reservation struct {
	ID             int              `json:"id" db:"id"`
	Fecha          time.Time        `json:"fecha" db:"fecha"`
	Cupo           int              `json:"cupo" db:"cupo"`
	MontoTotal     int64            `json:"monto_total" db:"monto_total"`
	SaldoPendiente int64            `json:"saldo_pendiente" db:"saldo_pendiente"`
	Estado         ReservationState `json:"estado" db:"estado"`
	ClienteID      int              `json:"cliente_id" db:"cliente_id"`
	CanchaID       int              `json:"cancha_id" db:"cancha_id"`
	DisciplinaID   int              `json:"disciplina_id" db:"disciplina_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Cliente    *Cliente    `json:"cliente,omitempty" db:"-"`
	Cancha     *Cancha     `json:"cancha,omitempty" db:"-"`
	Disciplina *Disciplina `json:"disciplina,omitempty" db:"-"`
}
