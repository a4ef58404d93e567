package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mpomar16/cancha-system/models"
)

var (
	ErrTokenNotFound         = errors.New("check-in token not found")
	ErrTokenReservaConflict  = errors.New("reservation already has a check-in token")
	ErrTokenCodigoConflict   = errors.New("check-in code already exists")
	ErrTokenReservaInvalid   = errors.New("token reserva conflict or invalid")
	ErrTokenEncargadoInvalid = errors.New("token encargado conflict or invalid")
	ErrTokenNotRedeemable    = errors.New("check-in token is not in a redeemable state")
)

type TokenRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.CheckInToken) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CheckInToken, error)
	GetByReserva(ctx context.Context, exec SQLExecutor, reservaID int) (*models.CheckInToken, error)
	GetByCodigo(ctx context.Context, codigo string) (*models.CheckInToken, error)
	Update(ctx context.Context, exec SQLExecutor, t *models.CheckInToken) error
	UpdateState(ctx context.Context, exec SQLExecutor, id int, estado models.TokenState) error
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	// MarkUsed flips an active, unexpired token to usado in one conditional
	// statement. Returns ErrTokenNotRedeemable when the token exists but is
	// used or past expiry at the given instant.
	MarkUsed(ctx context.Context, id int, encargadoID *int, now time.Time) error
	// ExpireDue persists estado=expirado on every active token whose expiry
	// has passed. Returns the number of rows swept.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id int) error
}

type postgresTokenRepository struct {
	db *sql.DB
}

func NewPostgresTokenRepository(db *sql.DB) TokenRepository {
	return &postgresTokenRepository{db: db}
}

func (r *postgresTokenRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tokenColumns = `id, reserva_id, codigo, generado_en, expira_en, estado, encargado_id, imagen_key`

func mapTokenPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "qr_reserva_codigo_key" {
				return ErrTokenCodigoConflict
			}
			return ErrTokenReservaConflict
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "qr_reserva_encargado_id_fkey" {
				return ErrTokenEncargadoInvalid
			}
			return ErrTokenReservaInvalid
		}
	}
	return nil
}

func (r *postgresTokenRepository) Create(ctx context.Context, exec SQLExecutor, t *models.CheckInToken) error {
	query := `
		INSERT INTO qr_reserva (reserva_id, codigo, generado_en, expira_en, estado, encargado_id, imagen_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.ReservaID,
		t.Codigo,
		t.GeneradoEn,
		t.ExpiraEn,
		t.Estado,
		t.EncargadoID,
		t.ImageKey,
	).Scan(&t.ID)

	if err != nil {
		if mapped := mapTokenPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create check-in token: %w", err)
	}
	return nil
}

func (r *postgresTokenRepository) scanToken(rowScanner interface {
	Scan(dest ...interface{}) error
}, t *models.CheckInToken) error {
	return rowScanner.Scan(
		&t.ID,
		&t.ReservaID,
		&t.Codigo,
		&t.GeneradoEn,
		&t.ExpiraEn,
		&t.Estado,
		&t.EncargadoID,
		&t.ImageKey,
	)
}

func (r *postgresTokenRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.CheckInToken, error) {
	t := &models.CheckInToken{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, args...)
	if err := r.scanToken(row, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find check-in token: %w", err)
	}
	return t, nil
}

func (r *postgresTokenRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CheckInToken, error) {
	return r.findOne(ctx, exec, `SELECT `+tokenColumns+` FROM qr_reserva WHERE id = $1`, id)
}

func (r *postgresTokenRepository) GetByReserva(ctx context.Context, exec SQLExecutor, reservaID int) (*models.CheckInToken, error) {
	return r.findOne(ctx, exec, `SELECT `+tokenColumns+` FROM qr_reserva WHERE reserva_id = $1`, reservaID)
}

func (r *postgresTokenRepository) GetByCodigo(ctx context.Context, codigo string) (*models.CheckInToken, error) {
	return r.findOne(ctx, nil, `SELECT `+tokenColumns+` FROM qr_reserva WHERE codigo = $1`, codigo)
}

func (r *postgresTokenRepository) Update(ctx context.Context, exec SQLExecutor, t *models.CheckInToken) error {
	query := `
		UPDATE qr_reserva
		SET reserva_id = $1, generado_en = $2, expira_en = $3, estado = $4, encargado_id = $5
		WHERE id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		t.ReservaID, t.GeneradoEn, t.ExpiraEn, t.Estado, t.EncargadoID, t.ID)
	if err != nil {
		if mapped := mapTokenPqError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update check-in token: %w", err)
	}
	return checkAffectedRows(result, ErrTokenNotFound)
}

func (r *postgresTokenRepository) UpdateState(ctx context.Context, exec SQLExecutor, id int, estado models.TokenState) error {
	query := `UPDATE qr_reserva SET estado = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, estado, id)
	if err != nil {
		return fmt.Errorf("failed to update token state: %w", err)
	}
	return checkAffectedRows(result, ErrTokenNotFound)
}

func (r *postgresTokenRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	query := `UPDATE qr_reserva SET imagen_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update token image key: %w", err)
	}
	return checkAffectedRows(result, ErrTokenNotFound)
}

func (r *postgresTokenRepository) MarkUsed(ctx context.Context, id int, encargadoID *int, now time.Time) error {
	query := `
		UPDATE qr_reserva
		SET estado = $1, encargado_id = COALESCE($2, encargado_id)
		WHERE id = $3 AND estado = $4 AND expira_en > $5`

	result, err := r.db.ExecContext(ctx, query, models.TokenUsado, encargadoID, id, models.TokenActivo, now)
	if err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish missing token from a non-redeemable one.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM qr_reserva WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check token existence: %w", err)
		}
		if !exists {
			return ErrTokenNotFound
		}
		return ErrTokenNotRedeemable
	}
	return nil
}

func (r *postgresTokenRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE qr_reserva SET estado = $1 WHERE estado = $2 AND expira_en <= $3`
	result, err := r.db.ExecContext(ctx, query, models.TokenExpirado, models.TokenActivo, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire due tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected, nil
}

func (r *postgresTokenRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM qr_reserva WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete check-in token: %w", err)
	}
	return checkAffectedRows(result, ErrTokenNotFound)
}
