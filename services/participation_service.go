package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
)

type EnrollInput struct {
	DeportistaID int                        `json:"deportista_id"`
	ReservaID    int                        `json:"reserva_id"`
	Fecha        time.Time                  `json:"fecha_inscripcion"`
	Estado       *models.ParticipationState `json:"estado,omitempty"`
}

// ParticipationService решает, допустима ли новая или переходящая заявка
// участника. Подсчёт подтверждённых мест и вставка/обновление выполняются
// под блокировкой строки резервы, чтобы два конкурентных зачисления не
// прошли оба через проверку вместимости.
type ParticipationService interface {
	Enroll(ctx context.Context, input EnrollInput) (*models.Participation, error)
	SetState(ctx context.Context, deportistaID, reservaID int, estado models.ParticipationState) (*models.Participation, error)
	GetByPair(ctx context.Context, deportistaID, reservaID int) (*models.Participation, error)
	Remove(ctx context.Context, deportistaID, reservaID int) error
	ListByReservation(ctx context.Context, reservaID int) ([]*models.Participation, error)
}

type participationService struct {
	txRunner          repositories.TxRunner
	participationRepo repositories.ParticipationRepository
	reservationRepo   repositories.ReservationRepository
	catalogRepo       repositories.CatalogRepository
}

func NewParticipationService(
	txRunner repositories.TxRunner,
	participationRepo repositories.ParticipationRepository,
	reservationRepo repositories.ReservationRepository,
	catalogRepo repositories.CatalogRepository,
) ParticipationService {
	return &participationService{
		txRunner:          txRunner,
		participationRepo: participationRepo,
		reservationRepo:   reservationRepo,
		catalogRepo:       catalogRepo,
	}
}

func (s *participationService) Enroll(ctx context.Context, input EnrollInput) (*models.Participation, error) {
	estado := models.ParticipationConfirmado
	if input.Estado != nil {
		estado = *input.Estado
	}
	if !estado.Valid() {
		return nil, ErrParticipationInvalidState
	}
	fecha := input.Fecha
	if fecha.IsZero() {
		fecha = time.Now()
	}

	ok, err := s.catalogRepo.DeportistaExists(ctx, input.DeportistaID)
	if err != nil {
		return nil, fmt.Errorf("failed to check deportista: %w", err)
	}
	if !ok {
		return nil, ErrDeportistaNotFound
	}

	participation := &models.Participation{
		DeportistaID:     input.DeportistaID,
		ReservaID:        input.ReservaID,
		FechaInscripcion: fecha,
		Estado:           estado,
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, input.ReservaID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		if _, err := s.participationRepo.GetByPair(ctx, exec, input.DeportistaID, input.ReservaID); err == nil {
			return ErrAlreadyEnrolled
		} else if !errors.Is(err, repositories.ErrParticipationNotFound) {
			return fmt.Errorf("failed to check existing enrollment: %w", err)
		}

		if estado == models.ParticipationConfirmado {
			confirmed, err := s.participationRepo.CountConfirmed(ctx, exec, input.ReservaID, nil)
			if err != nil {
				return fmt.Errorf("failed to count confirmed participations: %w", err)
			}
			if confirmed >= reservation.Cupo {
				return ErrCapacityExceeded
			}
		}

		if err := s.participationRepo.Create(ctx, exec, participation); err != nil {
			switch {
			case errors.Is(err, repositories.ErrParticipationConflict):
				return ErrAlreadyEnrolled
			case errors.Is(err, repositories.ErrParticipationDeportistaInvalid):
				return ErrDeportistaNotFound
			case errors.Is(err, repositories.ErrParticipationReservaInvalid):
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to create participation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participation, nil
}

// SetState переводит заявку в новое состояние. Вместимость перепроверяется
// только при переходе в confirmado; собственная строка при подсчёте
// исключается. Переход в cancelado проходит всегда.
func (s *participationService) SetState(ctx context.Context, deportistaID, reservaID int, estado models.ParticipationState) (*models.Participation, error) {
	if !estado.Valid() {
		return nil, ErrParticipationInvalidState
	}

	var updated *models.Participation
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, reservaID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		participation, err := s.participationRepo.GetByPair(ctx, exec, deportistaID, reservaID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipationNotFound) {
				return ErrParticipationNotFound
			}
			return fmt.Errorf("failed to find participation: %w", err)
		}

		if estado == models.ParticipationConfirmado && participation.Estado != models.ParticipationConfirmado {
			confirmed, err := s.participationRepo.CountConfirmed(ctx, exec, reservaID, &deportistaID)
			if err != nil {
				return fmt.Errorf("failed to count confirmed participations: %w", err)
			}
			if confirmed >= reservation.Cupo {
				return ErrCapacityExceeded
			}
		}

		if err := s.participationRepo.UpdateState(ctx, exec, deportistaID, reservaID, estado); err != nil {
			return fmt.Errorf("failed to update participation state: %w", err)
		}
		participation.Estado = estado
		updated = participation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *participationService) GetByPair(ctx context.Context, deportistaID, reservaID int) (*models.Participation, error) {
	participation, err := s.participationRepo.GetByPair(ctx, nil, deportistaID, reservaID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}
	return participation, nil
}

func (s *participationService) Remove(ctx context.Context, deportistaID, reservaID int) error {
	if err := s.participationRepo.Delete(ctx, deportistaID, reservaID); err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrParticipationNotFound
		}
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return nil
}

func (s *participationService) ListByReservation(ctx context.Context, reservaID int) ([]*models.Participation, error) {
	return s.participationRepo.ListByReserva(ctx, reservaID)
}
