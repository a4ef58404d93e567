package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
)

type ApplyPaymentInput struct {
	ReservaID int                   `json:"reserva_id"`
	Tipo      models.PaymentKind    `json:"tipo"`
	Monto     int64                 `json:"monto"`
	Metodo    string                `json:"metodo"`
	Fecha     time.Time             `json:"fecha"`
	Estado    *models.PaymentStatus `json:"estado,omitempty"`
}

type UpdatePaymentInput struct {
	Tipo   *models.PaymentKind   `json:"tipo,omitempty"`
	Monto  *int64                `json:"monto,omitempty"`
	Metodo *string               `json:"metodo,omitempty"`
	Fecha  *time.Time            `json:"fecha,omitempty"`
	Estado *models.PaymentStatus `json:"estado,omitempty"`
}

// PaymentService применяет платежи против баланса резервы. Вставка платежа
// и корректировка saldo/estado — одна операция под блокировкой строки
// резервы; баланс никогда не уходит в минус, и ни один вызывающий не
// обновляет его отдельным запросом.
type PaymentService interface {
	Apply(ctx context.Context, input ApplyPaymentInput) (*models.Payment, error)
	Update(ctx context.Context, id int, input UpdatePaymentInput) (*models.Payment, error)
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	ListByReservation(ctx context.Context, reservaID int) ([]*models.Payment, error)
}

type paymentService struct {
	txRunner        repositories.TxRunner
	paymentRepo     repositories.PaymentRepository
	reservationRepo repositories.ReservationRepository
	logger          *slog.Logger
}

func NewPaymentService(
	txRunner repositories.TxRunner,
	paymentRepo repositories.PaymentRepository,
	reservationRepo repositories.ReservationRepository,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		txRunner:        txRunner,
		paymentRepo:     paymentRepo,
		reservationRepo: reservationRepo,
		logger:          logger,
	}
}

func (s *paymentService) Apply(ctx context.Context, input ApplyPaymentInput) (*models.Payment, error) {
	if input.Monto <= 0 {
		return nil, ErrPaymentInvalidAmount
	}
	if !input.Tipo.Valid() {
		return nil, ErrPaymentInvalidKind
	}
	estado := models.PaymentExitoso
	if input.Estado != nil {
		estado = *input.Estado
	}
	if !estado.Valid() {
		return nil, ErrPaymentInvalidStatus
	}
	fecha := input.Fecha
	if fecha.IsZero() {
		fecha = time.Now()
	}

	payment := &models.Payment{
		ReservaID: input.ReservaID,
		Tipo:      input.Tipo,
		Monto:     input.Monto,
		Metodo:    input.Metodo,
		Fecha:     fecha,
		Estado:    estado,
		Recibo:    uuid.NewString(),
	}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, input.ReservaID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		if payment.Monto > reservation.SaldoPendiente {
			return ErrInsufficientBalance
		}

		if err := s.paymentRepo.Create(ctx, exec, payment); err != nil {
			if errors.Is(err, repositories.ErrPaymentReservaInvalid) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to create payment: %w", err)
		}

		// Баланс двигают только успешные платежи.
		if payment.Estado == models.PaymentExitoso {
			saldo := reservation.SaldoPendiente - payment.Monto
			estado := models.DeriveReservationState(reservation.Estado, saldo, reservation.MontoTotal)
			if err := s.reservationRepo.UpdateBalanceState(ctx, exec, reservation.ID, saldo, estado); err != nil {
				return fmt.Errorf("failed to update reservation balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		slog.Int("payment_id", payment.ID),
		slog.Int("reserva_id", payment.ReservaID),
		slog.Int64("monto", payment.Monto),
		slog.String("estado", string(payment.Estado)),
	)
	return payment, nil
}

// validPaymentTransition таблица переходов статуса платежа. Успешный
// платёж можно только вернуть; возвращённый — терминален.
func validPaymentTransition(from, to models.PaymentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.PaymentPendiente:
		return to == models.PaymentExitoso || to == models.PaymentFallido
	case models.PaymentFallido:
		return to == models.PaymentPendiente
	case models.PaymentExitoso:
		return to == models.PaymentReembolsado
	case models.PaymentReembolsado:
		return false
	}
	return false
}

// Update редактирует платёж, пересчитывая дельту баланса в той же
// транзакции. Monto успешного платежа неизменяем; переход
// exitoso -> reembolsado возвращает сумму в saldo_pendiente.
func (s *paymentService) Update(ctx context.Context, id int, input UpdatePaymentInput) (*models.Payment, error) {
	var updated *models.Payment
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		payment, err := s.paymentRepo.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrPaymentNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to find payment: %w", err)
		}

		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, payment.ReservaID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		oldEstado := payment.Estado
		oldMonto := payment.Monto

		if input.Tipo != nil {
			if !input.Tipo.Valid() {
				return ErrPaymentInvalidKind
			}
			payment.Tipo = *input.Tipo
		}
		if input.Metodo != nil {
			payment.Metodo = *input.Metodo
		}
		if input.Fecha != nil {
			payment.Fecha = *input.Fecha
		}
		if input.Monto != nil {
			if *input.Monto <= 0 {
				return ErrPaymentInvalidAmount
			}
			if oldEstado == models.PaymentExitoso && *input.Monto != oldMonto {
				return ErrPaymentImmutable
			}
			payment.Monto = *input.Monto
		}
		if input.Estado != nil {
			if !input.Estado.Valid() {
				return ErrPaymentInvalidStatus
			}
			if !validPaymentTransition(oldEstado, *input.Estado) {
				return ErrPaymentInvalidTransition
			}
			payment.Estado = *input.Estado
		}

		// Дельта баланса: поступление при переходе в exitoso, возврат при
		// переходе из exitoso в reembolsado.
		saldo := reservation.SaldoPendiente
		switch {
		case oldEstado != models.PaymentExitoso && payment.Estado == models.PaymentExitoso:
			if payment.Monto > saldo {
				return ErrInsufficientBalance
			}
			saldo -= payment.Monto
		case oldEstado == models.PaymentExitoso && payment.Estado == models.PaymentReembolsado:
			saldo += oldMonto
			if saldo > reservation.MontoTotal {
				saldo = reservation.MontoTotal
			}
		}

		if err := s.paymentRepo.Update(ctx, exec, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if saldo != reservation.SaldoPendiente {
			estado := models.DeriveReservationState(reservation.Estado, saldo, reservation.MontoTotal)
			if err := s.reservationRepo.UpdateBalanceState(ctx, exec, reservation.ID, saldo, estado); err != nil {
				return fmt.Errorf("failed to update reservation balance: %w", err)
			}
			s.logger.Info("payment reconciled",
				slog.Int("payment_id", payment.ID),
				slog.Int("reserva_id", reservation.ID),
				slog.Int64("saldo_pendiente", saldo),
			)
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *paymentService) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return payment, nil
}

func (s *paymentService) ListByReservation(ctx context.Context, reservaID int) ([]*models.Payment, error) {
	return s.paymentRepo.ListByReserva(ctx, reservaID)
}
