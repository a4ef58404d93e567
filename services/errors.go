package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed            = errors.New("validation failed")
	ErrReservationInvalidCupo      = errors.New("reservation cupo must be positive")
	ErrReservationCupoOverCapacity = errors.New("reservation cupo exceeds court capacity")
	ErrReservationInvalidBalance   = errors.New("reservation balance must be between zero and the total amount")
	ErrReservationStateManaged     = errors.New("reservation state is derived from payments and cancellation only")
	ErrParticipationInvalidState   = errors.New("invalid participation state provided")
	ErrPaymentInvalidAmount        = errors.New("payment amount must be positive")
	ErrPaymentInvalidKind          = errors.New("invalid payment type provided")
	ErrPaymentInvalidStatus        = errors.New("invalid payment status provided")
	ErrPaymentInvalidTransition    = errors.New("invalid payment status transition")
	ErrTokenInvalidWindow          = errors.New("token expiry must be strictly after generation")

	// Ошибки конфликтов
	ErrCapacityExceeded        = errors.New("reservation has no confirmed slots left")
	ErrAlreadyEnrolled         = errors.New("athlete is already enrolled for this reservation")
	ErrInsufficientBalance     = errors.New("payment amount exceeds the outstanding balance")
	ErrPaymentImmutable        = errors.New("successful payment amount and reservation are immutable")
	ErrDuplicateToken          = errors.New("reservation already has a check-in token")
	ErrTokenCodeConflict       = errors.New("check-in code already exists")
	ErrTokenAlreadyUsed        = errors.New("check-in token has already been used")
	ErrTokenExpired            = errors.New("check-in token has expired")
	ErrReservationNotDeletable = errors.New("reservation must be cancelled and without successful payments to be deleted")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthInvalidRole        = errors.New("invalid role provided")
	ErrPasswordTooShort       = errors.New("password is too short")

	// Ошибки, специфичные для сущностей
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrClienteNotFound       = errors.New("cliente not found")
	ErrCanchaNotFound        = errors.New("cancha not found")
	ErrDisciplinaNotFound    = errors.New("disciplina not found")
	ErrDeportistaNotFound    = errors.New("deportista not found")
	ErrEncargadoNotFound     = errors.New("encargado not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrTokenNotFound         = errors.New("check-in token not found")
	ErrIncidentNotFound      = errors.New("incident report not found")
)
