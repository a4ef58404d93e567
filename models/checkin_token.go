package models

import "time"

// TokenState представляет состояния QR-токена.
type TokenState string

const (
	TokenActivo   TokenState = "activo"
	TokenUsado    TokenState = "usado"
	TokenExpirado TokenState = "expirado"
)

func (s TokenState) Valid() bool {
	switch s {
	case TokenActivo, TokenUsado, TokenExpirado:
		return true
	}
	return false
}

// CheckInToken — одноразовый QR-пропуск резервы (qr_reserva). На резерву
// допускается не более одного токена; codigo глобально уникален.
type CheckInToken struct {
	ID          int        `json:"id" db:"id"`
	ReservaID   int        `json:"reserva_id" db:"reserva_id"`
	Codigo      string     `json:"codigo" db:"codigo"`
	GeneradoEn  time.Time  `json:"generado_en" db:"generado_en"`
	ExpiraEn    time.Time  `json:"expira_en" db:"expira_en"`
	Estado      TokenState `json:"estado" db:"estado"`
	EncargadoID *int       `json:"encargado_id,omitempty" db:"encargado_id"`

	ImageKey *string `json:"-" db:"imagen_key"`
	ImageURL *string `json:"imagen_url,omitempty" db:"-"`
}

// ExpiredAt reports whether the token is past its expiry at the given
// instant. Expiry is derived at read time; the stored estado may lag until
// the sweeper persists it.
func (t *CheckInToken) ExpiredAt(now time.Time) bool {
	return t.Estado == TokenExpirado || !now.Before(t.ExpiraEn)
}
