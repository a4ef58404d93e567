package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpomar16/cancha-system/models"
)

var (
	ErrClienteNotFound    = errors.New("cliente not found")
	ErrCanchaNotFound     = errors.New("cancha not found")
	ErrDisciplinaNotFound = errors.New("disciplina not found")
	ErrDeportistaNotFound = errors.New("deportista not found")
	ErrEncargadoNotFound  = errors.New("encargado not found")
)

// CatalogRepository — read-only шлюз к справочникам. Ядро использует его
// для проверки существования ссылок и чтения вместимости площадки.
type CatalogRepository interface {
	ClienteExists(ctx context.Context, id int) (bool, error)
	DisciplinaExists(ctx context.Context, id int) (bool, error)
	DeportistaExists(ctx context.Context, id int) (bool, error)
	EncargadoExists(ctx context.Context, id int) (bool, error)
	GetClienteByID(ctx context.Context, id int) (*models.Cliente, error)
	GetCanchaByID(ctx context.Context, id int) (*models.Cancha, error)
	GetDisciplinaByID(ctx context.Context, id int) (*models.Disciplina, error)
	GetDeportistaByID(ctx context.Context, id int) (*models.Deportista, error)
	GetEncargadoByID(ctx context.Context, id int) (*models.Encargado, error)
}

type postgresCatalogRepository struct {
	db *sql.DB
}

func NewPostgresCatalogRepository(db *sql.DB) CatalogRepository {
	return &postgresCatalogRepository{db: db}
}

func (r *postgresCatalogRepository) exists(ctx context.Context, table string, id int) (bool, error) {
	// table is always one of the fixed catalog table names below.
	query := `SELECT EXISTS(SELECT 1 FROM ` + table + ` WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

func (r *postgresCatalogRepository) ClienteExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, "cliente", id)
}

func (r *postgresCatalogRepository) DisciplinaExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, "disciplina", id)
}

func (r *postgresCatalogRepository) DeportistaExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, "deportista", id)
}

func (r *postgresCatalogRepository) EncargadoExists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, "encargado", id)
}

func (r *postgresCatalogRepository) GetClienteByID(ctx context.Context, id int) (*models.Cliente, error) {
	c := &models.Cliente{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nombre, email FROM cliente WHERE id = $1`, id).
		Scan(&c.ID, &c.Nombre, &c.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClienteNotFound
		}
		return nil, fmt.Errorf("failed to find cliente: %w", err)
	}
	return c, nil
}

func (r *postgresCatalogRepository) GetCanchaByID(ctx context.Context, id int) (*models.Cancha, error) {
	c := &models.Cancha{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nombre, capacidad, ubicacion FROM cancha WHERE id = $1`, id).
		Scan(&c.ID, &c.Nombre, &c.Capacidad, &c.Ubicacion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCanchaNotFound
		}
		return nil, fmt.Errorf("failed to find cancha: %w", err)
	}
	return c, nil
}

func (r *postgresCatalogRepository) GetDisciplinaByID(ctx context.Context, id int) (*models.Disciplina, error) {
	d := &models.Disciplina{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nombre FROM disciplina WHERE id = $1`, id).
		Scan(&d.ID, &d.Nombre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisciplinaNotFound
		}
		return nil, fmt.Errorf("failed to find disciplina: %w", err)
	}
	return d, nil
}

func (r *postgresCatalogRepository) GetDeportistaByID(ctx context.Context, id int) (*models.Deportista, error) {
	d := &models.Deportista{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nombre, email FROM deportista WHERE id = $1`, id).
		Scan(&d.ID, &d.Nombre, &d.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeportistaNotFound
		}
		return nil, fmt.Errorf("failed to find deportista: %w", err)
	}
	return d, nil
}

func (r *postgresCatalogRepository) GetEncargadoByID(ctx context.Context, id int) (*models.Encargado, error) {
	e := &models.Encargado{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nombre, email FROM encargado WHERE id = $1`, id).
		Scan(&e.ID, &e.Nombre, &e.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEncargadoNotFound
		}
		return nil, fmt.Errorf("failed to find encargado: %w", err)
	}
	return e, nil
}
