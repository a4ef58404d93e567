package models

import "time"

type Role string

const (
	RoleAdministrador Role = "administrador"
	RoleCliente       Role = "cliente"
	RoleDeportista    Role = "deportista"
	RoleEncargado     Role = "encargado"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrador, RoleCliente, RoleDeportista, RoleEncargado:
		return true
	}
	return false
}

// User — учётная запись для входа в систему.
type User struct {
	ID           int       `json:"id" db:"id"`
	Nombre       string    `json:"nombre" db:"nombre"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Rol          Role      `json:"rol" db:"rol"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
