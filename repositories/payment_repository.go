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
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentReservaInvalid = errors.New("payment reserva conflict or invalid")
	ErrPaymentReciboConflict = errors.New("payment receipt number already exists")
)

type PaymentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Payment) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Payment, error)
	Update(ctx context.Context, exec SQLExecutor, p *models.Payment) error
	HasSuccessfulByReserva(ctx context.Context, exec SQLExecutor, reservaID int) (bool, error)
	ListByReserva(ctx context.Context, reservaID int) ([]*models.Payment, error)
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

func (r *postgresPaymentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func mapPaymentPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrPaymentReciboConflict
		case "23503": // foreign_key_violation
			return ErrPaymentReservaInvalid
		}
	}
	return nil
}

func (r *postgresPaymentRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Payment) error {
	query := `
		INSERT INTO pago (reserva_id, tipo, monto, metodo, fecha, estado, recibo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.ReservaID,
		p.Tipo,
		p.Monto,
		p.Metodo,
		p.Fecha,
		p.Estado,
		p.Recibo,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		if mapped := mapPaymentPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *postgresPaymentRepository) scanPayment(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Payment) error {
	return rowScanner.Scan(
		&p.ID,
		&p.ReservaID,
		&p.Tipo,
		&p.Monto,
		&p.Metodo,
		&p.Fecha,
		&p.Estado,
		&p.Recibo,
		&p.CreatedAt,
	)
}

func (r *postgresPaymentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Payment, error) {
	query := `
		SELECT id, reserva_id, tipo, monto, metodo, fecha, estado, recibo, created_at
		FROM pago WHERE id = $1`

	p := &models.Payment{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, id)
	if err := r.scanPayment(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return p, nil
}

func (r *postgresPaymentRepository) Update(ctx context.Context, exec SQLExecutor, p *models.Payment) error {
	query := `
		UPDATE pago
		SET reserva_id = $1, tipo = $2, monto = $3, metodo = $4, fecha = $5, estado = $6
		WHERE id = $7`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.ReservaID, p.Tipo, p.Monto, p.Metodo, p.Fecha, p.Estado, p.ID)
	if err != nil {
		if mapped := mapPaymentPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) HasSuccessfulByReserva(ctx context.Context, exec SQLExecutor, reservaID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pago WHERE reserva_id = $1 AND estado = $2)`
	var exists bool
	err := r.getExecutor(exec).QueryRowContext(ctx, query, reservaID, models.PaymentExitoso).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check successful payments: %w", err)
	}
	return exists, nil
}

func (r *postgresPaymentRepository) ListByReserva(ctx context.Context, reservaID int) ([]*models.Payment, error) {
	query := `
		SELECT id, reserva_id, tipo, monto, metodo, fecha, estado, recibo, created_at
		FROM pago WHERE reserva_id = $1
		ORDER BY fecha ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, reservaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by reservation: %w", err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if err := r.scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}
