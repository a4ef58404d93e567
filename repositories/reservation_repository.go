package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mpomar16/cancha-system/models"
)

var (
	ErrReservationNotFound          = errors.New("reservation not found")
	ErrReservationClienteInvalid    = errors.New("reservation cliente conflict or invalid")
	ErrReservationCanchaInvalid     = errors.New("reservation cancha conflict or invalid")
	ErrReservationDisciplinaInvalid = errors.New("reservation disciplina conflict or invalid")
	ErrReservationCheckViolation    = errors.New("reservation violates a balance or capacity check")
	ErrReservationInUse             = errors.New("reservation is referenced by payments, enrollments or tokens")
)

type ReservationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, r *models.Reservation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error)
	// GetByIDForUpdate locks the reservation row for the rest of the
	// transaction. exec must be a *sql.Tx.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error)
	Update(ctx context.Context, exec SQLExecutor, r *models.Reservation) error
	UpdateBalanceState(ctx context.Context, exec SQLExecutor, id int, saldoPendiente int64, estado models.ReservationState) error
	UpdateState(ctx context.Context, exec SQLExecutor, id int, estado models.ReservationState) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListByCliente(ctx context.Context, clienteID int) ([]models.Reservation, error)
	ListByCancha(ctx context.Context, canchaID int) ([]models.Reservation, error)
}

type postgresReservationRepository struct {
	db *sql.DB
}

func NewPostgresReservationRepository(db *sql.DB) ReservationRepository {
	return &postgresReservationRepository{db: db}
}

func (r *postgresReservationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const reservationColumns = `id, fecha, cupo, monto_total, saldo_pendiente, estado, cliente_id, cancha_id, disciplina_id, created_at`

func mapReservationPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "reserva_cliente_id_fkey":
				return ErrReservationClienteInvalid
			case "reserva_cancha_id_fkey":
				return ErrReservationCanchaInvalid
			case "reserva_disciplina_id_fkey":
				return ErrReservationDisciplinaInvalid
			default:
				// FK pointing at the reservation from a child table.
				return ErrReservationInUse
			}
		case "23514": // check_violation
			return ErrReservationCheckViolation
		}
	}
	return nil
}

func (r *postgresReservationRepository) Create(ctx context.Context, exec SQLExecutor, res *models.Reservation) error {
	query := `
		INSERT INTO reserva (fecha, cupo, monto_total, saldo_pendiente, estado, cliente_id, cancha_id, disciplina_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		res.Fecha,
		res.Cupo,
		res.MontoTotal,
		res.SaldoPendiente,
		res.Estado,
		res.ClienteID,
		res.CanchaID,
		res.DisciplinaID,
	).Scan(&res.ID, &res.CreatedAt)

	if err != nil {
		if mapped := mapReservationPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *postgresReservationRepository) scanReservation(rowScanner interface {
	Scan(dest ...interface{}) error
}, res *models.Reservation) error {
	return rowScanner.Scan(
		&res.ID,
		&res.Fecha,
		&res.Cupo,
		&res.MontoTotal,
		&res.SaldoPendiente,
		&res.Estado,
		&res.ClienteID,
		&res.CanchaID,
		&res.DisciplinaID,
		&res.CreatedAt,
	)
}

func (r *postgresReservationRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Reservation, error) {
	res := &models.Reservation{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, args...)
	if err := r.scanReservation(row, res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return res, nil
}

func (r *postgresReservationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reserva WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresReservationRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reserva WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresReservationRepository) Update(ctx context.Context, exec SQLExecutor, res *models.Reservation) error {
	query := `
		UPDATE reserva
		SET fecha = $1, cupo = $2, monto_total = $3, saldo_pendiente = $4, estado = $5
		WHERE id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		res.Fecha, res.Cupo, res.MontoTotal, res.SaldoPendiente, res.Estado, res.ID)
	if err != nil {
		if mapped := mapReservationPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return checkAffectedRows(result, ErrReservationNotFound)
}

func (r *postgresReservationRepository) UpdateBalanceState(ctx context.Context, exec SQLExecutor, id int, saldoPendiente int64, estado models.ReservationState) error {
	query := `UPDATE reserva SET saldo_pendiente = $1, estado = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, saldoPendiente, estado, id)
	if err != nil {
		if mapped := mapReservationPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update reservation balance: %w", err)
	}
	return checkAffectedRows(result, ErrReservationNotFound)
}

func (r *postgresReservationRepository) UpdateState(ctx context.Context, exec SQLExecutor, id int, estado models.ReservationState) error {
	query := `UPDATE reserva SET estado = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, estado, id)
	if err != nil {
		return fmt.Errorf("failed to update reservation state: %w", err)
	}
	return checkAffectedRows(result, ErrReservationNotFound)
}

func (r *postgresReservationRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM reserva WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		if mapped := mapReservationPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return checkAffectedRows(result, ErrReservationNotFound)
}

func (r *postgresReservationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		var res models.Reservation
		if err := r.scanReservation(rows, &res); err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *postgresReservationRepository) ListByCliente(ctx context.Context, clienteID int) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reserva WHERE cliente_id = $1 ORDER BY fecha DESC`
	return r.list(ctx, query, clienteID)
}

func (r *postgresReservationRepository) ListByCancha(ctx context.Context, canchaID int) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reserva WHERE cancha_id = $1 ORDER BY fecha DESC`
	return r.list(ctx, query, canchaID)
}
