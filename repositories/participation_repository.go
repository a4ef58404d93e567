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
	ErrParticipationNotFound          = errors.New("participation not found")
	ErrParticipationConflict          = errors.New("participation conflict: athlete already enrolled for this reservation")
	ErrParticipationDeportistaInvalid = errors.New("participation deportista conflict or invalid")
	ErrParticipationReservaInvalid    = errors.New("participation reserva conflict or invalid")
)

type ParticipationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participation) error
	GetByPair(ctx context.Context, exec SQLExecutor, deportistaID, reservaID int) (*models.Participation, error)
	// CountConfirmed counts enrollments in state confirmado for the
	// reservation. excludeDeportistaID, when non-nil, skips that athlete's
	// row so a state transition does not count itself.
	CountConfirmed(ctx context.Context, exec SQLExecutor, reservaID int, excludeDeportistaID *int) (int, error)
	UpdateState(ctx context.Context, exec SQLExecutor, deportistaID, reservaID int, estado models.ParticipationState) error
	Delete(ctx context.Context, deportistaID, reservaID int) error
	ListByReserva(ctx context.Context, reservaID int) ([]*models.Participation, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participation) error {
	query := `
		INSERT INTO participa_en (deportista_id, reserva_id, fecha_inscripcion, estado)
		VALUES ($1, $2, $3, $4)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.DeportistaID,
		p.ReservaID,
		p.FechaInscripcion,
		p.Estado,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrParticipationConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participa_en_deportista_id_fkey":
					return ErrParticipationDeportistaInvalid
				case "participa_en_reserva_id_fkey":
					return ErrParticipationReservaInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func (r *postgresParticipationRepository) scanParticipation(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participation) error {
	return rowScanner.Scan(
		&p.DeportistaID,
		&p.ReservaID,
		&p.FechaInscripcion,
		&p.Estado,
	)
}

func (r *postgresParticipationRepository) GetByPair(ctx context.Context, exec SQLExecutor, deportistaID, reservaID int) (*models.Participation, error) {
	query := `
		SELECT deportista_id, reserva_id, fecha_inscripcion, estado
		FROM participa_en
		WHERE deportista_id = $1 AND reserva_id = $2`

	p := &models.Participation{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, deportistaID, reservaID)
	if err := r.scanParticipation(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}
	return p, nil
}

func (r *postgresParticipationRepository) CountConfirmed(ctx context.Context, exec SQLExecutor, reservaID int, excludeDeportistaID *int) (int, error) {
	query := `
		SELECT COUNT(*) FROM participa_en
		WHERE reserva_id = $1 AND estado = $2`
	args := []interface{}{reservaID, models.ParticipationConfirmado}
	if excludeDeportistaID != nil {
		query += ` AND deportista_id <> $3`
		args = append(args, *excludeDeportistaID)
	}

	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed participations: %w", err)
	}
	return count, nil
}

func (r *postgresParticipationRepository) UpdateState(ctx context.Context, exec SQLExecutor, deportistaID, reservaID int, estado models.ParticipationState) error {
	query := `UPDATE participa_en SET estado = $1 WHERE deportista_id = $2 AND reserva_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, estado, deportistaID, reservaID)
	if err != nil {
		return fmt.Errorf("failed to update participation state: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) Delete(ctx context.Context, deportistaID, reservaID int) error {
	query := `DELETE FROM participa_en WHERE deportista_id = $1 AND reserva_id = $2`
	result, err := r.db.ExecContext(ctx, query, deportistaID, reservaID)
	if err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) ListByReserva(ctx context.Context, reservaID int) ([]*models.Participation, error) {
	query := `
		SELECT p.deportista_id, p.reserva_id, p.fecha_inscripcion, p.estado,
		       d.id, d.nombre, d.email
		FROM participa_en p
		JOIN deportista d ON d.id = p.deportista_id
		WHERE p.reserva_id = $1
		ORDER BY p.fecha_inscripcion ASC`

	rows, err := r.db.QueryContext(ctx, query, reservaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations by reservation: %w", err)
	}
	defer rows.Close()

	participations := make([]*models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		var d models.Deportista
		if err := rows.Scan(
			&p.DeportistaID, &p.ReservaID, &p.FechaInscripcion, &p.Estado,
			&d.ID, &d.Nombre, &d.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		p.Deportista = &d
		participations = append(participations, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation rows: %w", err)
	}
	return participations, nil
}
