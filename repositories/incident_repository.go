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
	ErrIncidentNotFound         = errors.New("incident report not found")
	ErrIncidentReservaInvalid   = errors.New("incident reserva conflict or invalid")
	ErrIncidentEncargadoInvalid = errors.New("incident encargado conflict or invalid")
)

type IncidentRepository interface {
	Create(ctx context.Context, i *models.Incident) error
	GetByID(ctx context.Context, id int) (*models.Incident, error)
	Update(ctx context.Context, i *models.Incident) error
	Delete(ctx context.Context, id int) error
	ListByReserva(ctx context.Context, reservaID int) ([]*models.Incident, error)
}

type postgresIncidentRepository struct {
	db *sql.DB
}

func NewPostgresIncidentRepository(db *sql.DB) IncidentRepository {
	return &postgresIncidentRepository{db: db}
}

func mapIncidentPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "reporte_incidencia_reserva_id_fkey":
			return ErrIncidentReservaInvalid
		case "reporte_incidencia_encargado_id_fkey":
			return ErrIncidentEncargadoInvalid
		}
	}
	return nil
}

func (r *postgresIncidentRepository) Create(ctx context.Context, i *models.Incident) error {
	query := `
		INSERT INTO reporte_incidencia (reserva_id, encargado_id, detalle, sugerencia)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		i.ReservaID,
		i.EncargadoID,
		i.Detalle,
		i.Sugerencia,
	).Scan(&i.ID, &i.CreatedAt)

	if err != nil {
		if mapped := mapIncidentPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create incident report: %w", err)
	}
	return nil
}

func (r *postgresIncidentRepository) scanIncident(rowScanner interface {
	Scan(dest ...interface{}) error
}, i *models.Incident) error {
	return rowScanner.Scan(
		&i.ID,
		&i.ReservaID,
		&i.EncargadoID,
		&i.Detalle,
		&i.Sugerencia,
		&i.CreatedAt,
	)
}

func (r *postgresIncidentRepository) GetByID(ctx context.Context, id int) (*models.Incident, error) {
	query := `
		SELECT id, reserva_id, encargado_id, detalle, sugerencia, created_at
		FROM reporte_incidencia WHERE id = $1`

	i := &models.Incident{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanIncident(row, i); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to find incident report: %w", err)
	}
	return i, nil
}

func (r *postgresIncidentRepository) Update(ctx context.Context, i *models.Incident) error {
	query := `
		UPDATE reporte_incidencia
		SET reserva_id = $1, encargado_id = $2, detalle = $3, sugerencia = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		i.ReservaID, i.EncargadoID, i.Detalle, i.Sugerencia, i.ID)
	if err != nil {
		if mapped := mapIncidentPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update incident report: %w", err)
	}
	return checkAffectedRows(result, ErrIncidentNotFound)
}

func (r *postgresIncidentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM reporte_incidencia WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident report: %w", err)
	}
	return checkAffectedRows(result, ErrIncidentNotFound)
}

func (r *postgresIncidentRepository) ListByReserva(ctx context.Context, reservaID int) ([]*models.Incident, error) {
	query := `
		SELECT id, reserva_id, encargado_id, detalle, sugerencia, created_at
		FROM reporte_incidencia WHERE reserva_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, reservaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident reports: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		var i models.Incident
		if err := r.scanIncident(rows, &i); err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incident rows: %w", err)
	}
	return incidents, nil
}
