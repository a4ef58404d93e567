package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateReservationInput struct {
	Fecha          time.Time `json:"fecha"`
	Cupo           int       `json:"cupo"`
	MontoTotal     int64     `json:"monto_total"`
	SaldoPendiente int64     `json:"saldo_pendiente"`
	ClienteID      int       `json:"cliente_id"`
	CanchaID       int       `json:"cancha_id"`
	DisciplinaID   int       `json:"disciplina_id"`
}

type UpdateReservationInput struct {
	Fecha          *time.Time `json:"fecha,omitempty"`
	Cupo           *int       `json:"cupo,omitempty"`
	MontoTotal     *int64     `json:"monto_total,omitempty"`
	SaldoPendiente *int64     `json:"saldo_pendiente,omitempty"`
}

// ReservationService владеет записью резервы и её денежными инвариантами
// на момент записи. Estado не принимается извне: он выводится из баланса
// и явной отмены.
type ReservationService interface {
	Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error)
	GetByID(ctx context.Context, id int) (*models.Reservation, error)
	Update(ctx context.Context, id int, input UpdateReservationInput) (*models.Reservation, error)
	Cancel(ctx context.Context, id int) (*models.Reservation, error)
	Delete(ctx context.Context, id int) error
	ListByCliente(ctx context.Context, clienteID int) ([]models.Reservation, error)
	ListByCancha(ctx context.Context, canchaID int) ([]models.Reservation, error)
}

type reservationService struct {
	txRunner          repositories.TxRunner
	reservationRepo   repositories.ReservationRepository
	participationRepo repositories.ParticipationRepository
	paymentRepo       repositories.PaymentRepository
	catalogRepo       repositories.CatalogRepository
}

func NewReservationService(
	txRunner repositories.TxRunner,
	reservationRepo repositories.ReservationRepository,
	participationRepo repositories.ParticipationRepository,
	paymentRepo repositories.PaymentRepository,
	catalogRepo repositories.CatalogRepository,
) ReservationService {
	return &reservationService{
		txRunner:          txRunner,
		reservationRepo:   reservationRepo,
		participationRepo: participationRepo,
		paymentRepo:       paymentRepo,
		catalogRepo:       catalogRepo,
	}
}

func (s *reservationService) Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	if input.Cupo <= 0 {
		return nil, ErrReservationInvalidCupo
	}
	if input.MontoTotal < 0 || input.SaldoPendiente < 0 || input.SaldoPendiente > input.MontoTotal {
		return nil, ErrReservationInvalidBalance
	}

	// Проверки существования ссылок выполняются параллельно.
	var cancha *models.Cancha
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := s.catalogRepo.ClienteExists(gCtx, input.ClienteID)
		if err != nil {
			return fmt.Errorf("failed to check cliente: %w", err)
		}
		if !ok {
			return ErrClienteNotFound
		}
		return nil
	})
	g.Go(func() error {
		ok, err := s.catalogRepo.DisciplinaExists(gCtx, input.DisciplinaID)
		if err != nil {
			return fmt.Errorf("failed to check disciplina: %w", err)
		}
		if !ok {
			return ErrDisciplinaNotFound
		}
		return nil
	})
	g.Go(func() error {
		c, err := s.catalogRepo.GetCanchaByID(gCtx, input.CanchaID)
		if err != nil {
			if errors.Is(err, repositories.ErrCanchaNotFound) {
				return ErrCanchaNotFound
			}
			return fmt.Errorf("failed to check cancha: %w", err)
		}
		cancha = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if input.Cupo > cancha.Capacidad {
		return nil, ErrReservationCupoOverCapacity
	}

	reservation := &models.Reservation{
		Fecha:          input.Fecha,
		Cupo:           input.Cupo,
		MontoTotal:     input.MontoTotal,
		SaldoPendiente: input.SaldoPendiente,
		Estado:         models.DeriveReservationState(models.ReservationPendiente, input.SaldoPendiente, input.MontoTotal),
		ClienteID:      input.ClienteID,
		CanchaID:       input.CanchaID,
		DisciplinaID:   input.DisciplinaID,
	}

	if err := s.reservationRepo.Create(ctx, nil, reservation); err != nil {
		switch {
		case errors.Is(err, repositories.ErrReservationClienteInvalid):
			return nil, ErrClienteNotFound
		case errors.Is(err, repositories.ErrReservationCanchaInvalid):
			return nil, ErrCanchaNotFound
		case errors.Is(err, repositories.ErrReservationDisciplinaInvalid):
			return nil, ErrDisciplinaNotFound
		case errors.Is(err, repositories.ErrReservationCheckViolation):
			return nil, ErrReservationInvalidBalance
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}
	reservation.Cancha = cancha
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id int) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return reservation, nil
}

// Update применяет частичное обновление. Валидации касаются только
// присутствующих полей; saldo без monto проверяется против сохранённого
// monto_total. Estado не обновляется напрямую: он перевыводится из
// итогового баланса (cancelada остаётся терминальным).
func (s *reservationService) Update(ctx context.Context, id int, input UpdateReservationInput) (*models.Reservation, error) {
	var updated *models.Reservation
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		if input.Fecha != nil {
			reservation.Fecha = *input.Fecha
		}
		if input.Cupo != nil {
			if *input.Cupo <= 0 {
				return ErrReservationInvalidCupo
			}
			cancha, err := s.catalogRepo.GetCanchaByID(ctx, reservation.CanchaID)
			if err != nil {
				return fmt.Errorf("failed to check cancha capacity: %w", err)
			}
			if *input.Cupo > cancha.Capacidad {
				return ErrReservationCupoOverCapacity
			}
			// Нельзя сузить cupo ниже уже подтверждённых участников.
			confirmed, err := s.participationRepo.CountConfirmed(ctx, exec, id, nil)
			if err != nil {
				return fmt.Errorf("failed to count confirmed participations: %w", err)
			}
			if *input.Cupo < confirmed {
				return ErrReservationInvalidCupo
			}
			reservation.Cupo = *input.Cupo
		}
		if input.MontoTotal != nil {
			reservation.MontoTotal = *input.MontoTotal
		}
		if input.SaldoPendiente != nil {
			reservation.SaldoPendiente = *input.SaldoPendiente
		}
		if reservation.MontoTotal < 0 || reservation.SaldoPendiente < 0 || reservation.SaldoPendiente > reservation.MontoTotal {
			return ErrReservationInvalidBalance
		}
		reservation.Estado = models.DeriveReservationState(reservation.Estado, reservation.SaldoPendiente, reservation.MontoTotal)

		if err := s.reservationRepo.Update(ctx, exec, reservation); err != nil {
			if errors.Is(err, repositories.ErrReservationCheckViolation) {
				return ErrReservationInvalidBalance
			}
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		updated = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel переводит резерву в cancelada из любого состояния. Платежи не
// сторнируются и записи участников не освобождаются автоматически —
// вызывающий отменяет участия отдельно.
func (s *reservationService) Cancel(ctx context.Context, id int) (*models.Reservation, error) {
	var cancelled *models.Reservation
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}
		if reservation.Estado != models.ReservationCancelada {
			if err := s.reservationRepo.UpdateState(ctx, exec, id, models.ReservationCancelada); err != nil {
				return fmt.Errorf("failed to cancel reservation: %w", err)
			}
			reservation.Estado = models.ReservationCancelada
		}
		cancelled = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Delete удаляет резерву только если она отменена и не имеет успешных
// платежей. Зависимые участия, токен и неуспешные платежи каскадируются
// на уровне схемы.
func (s *reservationService) Delete(ctx context.Context, id int) error {
	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}
		if reservation.Estado != models.ReservationCancelada {
			return ErrReservationNotDeletable
		}
		hasSuccessful, err := s.paymentRepo.HasSuccessfulByReserva(ctx, exec, id)
		if err != nil {
			return fmt.Errorf("failed to check payments: %w", err)
		}
		if hasSuccessful {
			return ErrReservationNotDeletable
		}
		if err := s.reservationRepo.Delete(ctx, exec, id); err != nil {
			if errors.Is(err, repositories.ErrReservationInUse) {
				return ErrReservationNotDeletable
			}
			return fmt.Errorf("failed to delete reservation: %w", err)
		}
		return nil
	})
}

func (s *reservationService) ListByCliente(ctx context.Context, clienteID int) ([]models.Reservation, error) {
	return s.reservationRepo.ListByCliente(ctx, clienteID)
}

func (s *reservationService) ListByCancha(ctx context.Context, canchaID int) ([]models.Reservation, error) {
	return s.reservationRepo.ListByCancha(ctx, canchaID)
}
