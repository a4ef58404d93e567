package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
)

// CatalogService — читающий фасад над справочниками (клиенты, площадки,
// дисциплины, спортсмены, энкаргадо). Записи справочников ведёт внешняя
// админка, здесь только чтение.
type CatalogService interface {
	GetCliente(ctx context.Context, id int) (*models.Cliente, error)
	GetCancha(ctx context.Context, id int) (*models.Cancha, error)
	GetDisciplina(ctx context.Context, id int) (*models.Disciplina, error)
	GetDeportista(ctx context.Context, id int) (*models.Deportista, error)
	GetEncargado(ctx context.Context, id int) (*models.Encargado, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
}

func NewCatalogService(catalogRepo repositories.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) GetCliente(ctx context.Context, id int) (*models.Cliente, error) {
	cliente, err := s.catalogRepo.GetClienteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrClienteNotFound) {
			return nil, ErrClienteNotFound
		}
		return nil, fmt.Errorf("failed to find cliente: %w", err)
	}
	return cliente, nil
}

func (s *catalogService) GetCancha(ctx context.Context, id int) (*models.Cancha, error) {
	cancha, err := s.catalogRepo.GetCanchaByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCanchaNotFound) {
			return nil, ErrCanchaNotFound
		}
		return nil, fmt.Errorf("failed to find cancha: %w", err)
	}
	return cancha, nil
}

func (s *catalogService) GetDisciplina(ctx context.Context, id int) (*models.Disciplina, error) {
	disciplina, err := s.catalogRepo.GetDisciplinaByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDisciplinaNotFound) {
			return nil, ErrDisciplinaNotFound
		}
		return nil, fmt.Errorf("failed to find disciplina: %w", err)
	}
	return disciplina, nil
}

func (s *catalogService) GetDeportista(ctx context.Context, id int) (*models.Deportista, error) {
	deportista, err := s.catalogRepo.GetDeportistaByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDeportistaNotFound) {
			return nil, ErrDeportistaNotFound
		}
		return nil, fmt.Errorf("failed to find deportista: %w", err)
	}
	return deportista, nil
}

func (s *catalogService) GetEncargado(ctx context.Context, id int) (*models.Encargado, error) {
	encargado, err := s.catalogRepo.GetEncargadoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEncargadoNotFound) {
			return nil, ErrEncargadoNotFound
		}
		return nil, fmt.Errorf("failed to find encargado: %w", err)
	}
	return encargado, nil
}
