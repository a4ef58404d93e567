package models

import "time"

// Incident — отчёт об инциденте (reporte_incidencia), привязанный к
// резерве и ответственному.
type Incident struct {
	ID          int       `json:"id" db:"id"`
	ReservaID   int       `json:"reserva_id" db:"reserva_id"`
	EncargadoID int       `json:"encargado_id" db:"encargado_id"`
	Detalle     string    `json:"detalle" db:"detalle"`
	Sugerencia  *string   `json:"sugerencia,omitempty" db:"sugerencia"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
