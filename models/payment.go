package models

import "time"

// PaymentKind представляет тип платежа.
type PaymentKind string

const (
	PaymentTotal PaymentKind = "total"
	PaymentCuota PaymentKind = "cuota"
)

func (k PaymentKind) Valid() bool {
	return k == PaymentTotal || k == PaymentCuota
}

// PaymentStatus представляет статусы платежа, соответствующие ENUM в БД.
type PaymentStatus string

const (
	PaymentExitoso     PaymentStatus = "exitoso"
	PaymentPendiente   PaymentStatus = "pendiente"
	PaymentFallido     PaymentStatus = "fallido"
	PaymentReembolsado PaymentStatus = "reembolsado"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentExitoso, PaymentPendiente, PaymentFallido, PaymentReembolsado:
		return true
	}
	return false
}

// Payment — одно денежное применение против баланса резервы. Monto в
// сентаво. Recibo — номер квитанции, генерируется при создании.
type Payment struct {
	ID        int           `json:"id" db:"id"`
	ReservaID int           `json:"reserva_id" db:"reserva_id"`
	Tipo      PaymentKind   `json:"tipo" db:"tipo"`
	Monto     int64         `json:"monto" db:"monto"`
	Metodo    string        `json:"metodo" db:"metodo"`
	Fecha     time.Time     `json:"fecha" db:"fecha"`
	Estado    PaymentStatus `json:"estado" db:"estado"`
	Recibo    string        `json:"recibo" db:"recibo"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
