package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/mpomar16/cancha-system/live"
	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
	"github.com/mpomar16/cancha-system/storage"
)

const qrImageSize = 512

// EventBroadcaster рассылает событие подписчикам комнаты. Реализуется
// live.Hub; в тестах подменяется заглушкой.
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type IssueTokenInput struct {
	ReservaID   int       `json:"reserva_id"`
	GeneradoEn  time.Time `json:"qr_generado_en"`
	ExpiraEn    time.Time `json:"qr_expira_en"`
	EncargadoID *int      `json:"encargado_id,omitempty"`
}

// CheckInService выпускает и гасит одноразовые QR-токены входа. У резервы
// не больше одного токена; гашение — одно условное обновление, так что
// два сканера не погасят один код дважды.
type CheckInService interface {
	Issue(ctx context.Context, input IssueTokenInput) (*models.CheckInToken, error)
	Redeem(ctx context.Context, codigo string, encargadoID *int) (*models.CheckInToken, error)
	GetByReservation(ctx context.Context, reservaID int) (*models.CheckInToken, error)
	Reassign(ctx context.Context, id int, newReservaID int) (*models.CheckInToken, error)
	MarkUsed(ctx context.Context, id int, encargadoID *int) error
	MarkExpired(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	SweepExpired(ctx context.Context) (int64, error)
}

type checkInService struct {
	txRunner        repositories.TxRunner
	tokenRepo       repositories.TokenRepository
	reservationRepo repositories.ReservationRepository
	catalogRepo     repositories.CatalogRepository
	uploader        storage.FileUploader
	broadcaster     EventBroadcaster
	logger          *slog.Logger
}

func NewCheckInService(
	txRunner repositories.TxRunner,
	tokenRepo repositories.TokenRepository,
	reservationRepo repositories.ReservationRepository,
	catalogRepo repositories.CatalogRepository,
	uploader storage.FileUploader,
	broadcaster EventBroadcaster,
	logger *slog.Logger,
) CheckInService {
	return &checkInService{
		txRunner:        txRunner,
		tokenRepo:       tokenRepo,
		reservationRepo: reservationRepo,
		catalogRepo:     catalogRepo,
		uploader:        uploader,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *checkInService) Issue(ctx context.Context, input IssueTokenInput) (*models.CheckInToken, error) {
	generado := input.GeneradoEn
	if generado.IsZero() {
		generado = time.Now()
	}
	if !input.ExpiraEn.After(generado) {
		return nil, ErrTokenInvalidWindow
	}
	if input.EncargadoID != nil {
		ok, err := s.catalogRepo.EncargadoExists(ctx, *input.EncargadoID)
		if err != nil {
			return nil, fmt.Errorf("failed to check encargado: %w", err)
		}
		if !ok {
			return nil, ErrEncargadoNotFound
		}
	}

	token := &models.CheckInToken{
		ReservaID:   input.ReservaID,
		Codigo:      uuid.NewString(),
		GeneradoEn:  generado,
		ExpiraEn:    input.ExpiraEn,
		Estado:      models.TokenActivo,
		EncargadoID: input.EncargadoID,
	}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, input.ReservaID); err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		existing, err := s.tokenRepo.GetByReserva(ctx, exec, input.ReservaID)
		if err != nil && !errors.Is(err, repositories.ErrTokenNotFound) {
			return fmt.Errorf("failed to check existing token: %w", err)
		}
		if existing != nil {
			return ErrDuplicateToken
		}

		if err := s.tokenRepo.Create(ctx, exec, token); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTokenReservaConflict):
				return ErrDuplicateToken
			case errors.Is(err, repositories.ErrTokenCodigoConflict):
				return ErrTokenCodeConflict
			case errors.Is(err, repositories.ErrTokenReservaInvalid):
				return ErrReservationNotFound
			case errors.Is(err, repositories.ErrTokenEncargadoInvalid):
				return ErrEncargadoNotFound
			}
			return fmt.Errorf("failed to create token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Загрузка картинки вне транзакции: токен валиден и без изображения.
	s.attachImage(ctx, token)

	s.logger.Info("check-in token issued",
		slog.Int("token_id", token.ID),
		slog.Int("reserva_id", token.ReservaID),
		slog.Time("expira_en", token.ExpiraEn),
	)
	return token, nil
}

// attachImage рендерит PNG с кодом токена, кладёт его в хранилище и
// запоминает ключ. Ошибки не фатальны, токен уже выпущен.
func (s *checkInService) attachImage(ctx context.Context, token *models.CheckInToken) {
	png, err := qrcode.Encode(token.Codigo, qrcode.Medium, qrImageSize)
	if err != nil {
		s.logger.Warn("failed to encode qr image", slog.Int("token_id", token.ID), slog.String("error", err.Error()))
		return
	}
	key := fmt.Sprintf("qr/reserva-%d/%s.png", token.ReservaID, token.Codigo)
	if _, err := s.uploader.Upload(ctx, key, "image/png", bytes.NewReader(png)); err != nil {
		s.logger.Warn("failed to upload qr image", slog.Int("token_id", token.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.tokenRepo.UpdateImageKey(ctx, token.ID, &key); err != nil {
		s.logger.Warn("failed to persist qr image key", slog.Int("token_id", token.ID), slog.String("error", err.Error()))
		return
	}
	token.ImageKey = &key
	url := s.uploader.GetPublicURL(key)
	token.ImageURL = &url
}

func (s *checkInService) Redeem(ctx context.Context, codigo string, encargadoID *int) (*models.CheckInToken, error) {
	token, err := s.tokenRepo.GetByCodigo(ctx, codigo)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	now := time.Now()
	if err := s.tokenRepo.MarkUsed(ctx, token.ID, encargadoID, now); err != nil {
		if errors.Is(err, repositories.ErrTokenNotRedeemable) {
			if token.Estado == models.TokenUsado {
				return nil, ErrTokenAlreadyUsed
			}
			// Просроченный активный токен фиксируем как expirado.
			if token.Estado == models.TokenActivo && token.ExpiredAt(now) {
				if uerr := s.tokenRepo.UpdateState(ctx, nil, token.ID, models.TokenExpirado); uerr != nil {
					s.logger.Warn("failed to persist token expiry", slog.Int("token_id", token.ID), slog.String("error", uerr.Error()))
				}
			}
			return nil, ErrTokenExpired
		}
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to redeem token: %w", err)
	}

	token, err = s.tokenRepo.GetByID(ctx, nil, token.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload token: %w", err)
	}

	s.broadcaster.BroadcastToRoom(strconv.Itoa(token.ReservaID), live.Event{
		Type:    live.EventCheckInRedeemed,
		Payload: token,
	})
	s.logger.Info("check-in token redeemed",
		slog.Int("token_id", token.ID),
		slog.Int("reserva_id", token.ReservaID),
	)
	return token, nil
}

func (s *checkInService) GetByReservation(ctx context.Context, reservaID int) (*models.CheckInToken, error) {
	token, err := s.tokenRepo.GetByReserva(ctx, nil, reservaID)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	// Истечение считается от текущего момента, даже если sweeper ещё не
	// успел обновить строку.
	if token.Estado == models.TokenActivo && token.ExpiredAt(time.Now()) {
		token.Estado = models.TokenExpirado
	}
	if token.ImageKey != nil {
		url := s.uploader.GetPublicURL(*token.ImageKey)
		token.ImageURL = &url
	}
	return token, nil
}

func (s *checkInService) Reassign(ctx context.Context, id int, newReservaID int) (*models.CheckInToken, error) {
	var reassigned *models.CheckInToken
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		token, err := s.tokenRepo.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTokenNotFound) {
				return ErrTokenNotFound
			}
			return fmt.Errorf("failed to find token: %w", err)
		}

		if _, err := s.reservationRepo.GetByIDForUpdate(ctx, exec, newReservaID); err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation: %w", err)
		}

		existing, err := s.tokenRepo.GetByReserva(ctx, exec, newReservaID)
		if err != nil && !errors.Is(err, repositories.ErrTokenNotFound) {
			return fmt.Errorf("failed to check existing token: %w", err)
		}
		if existing != nil && existing.ID != token.ID {
			return ErrDuplicateToken
		}

		token.ReservaID = newReservaID
		if err := s.tokenRepo.Update(ctx, exec, token); err != nil {
			if errors.Is(err, repositories.ErrTokenReservaConflict) {
				return ErrDuplicateToken
			}
			return fmt.Errorf("failed to update token: %w", err)
		}
		reassigned = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reassigned, nil
}

func (s *checkInService) MarkUsed(ctx context.Context, id int, encargadoID *int) error {
	err := s.tokenRepo.MarkUsed(ctx, id, encargadoID, time.Now())
	switch {
	case errors.Is(err, repositories.ErrTokenNotFound):
		return ErrTokenNotFound
	case errors.Is(err, repositories.ErrTokenNotRedeemable):
		token, gerr := s.tokenRepo.GetByID(ctx, nil, id)
		if gerr == nil && token.Estado == models.TokenUsado {
			return ErrTokenAlreadyUsed
		}
		return ErrTokenExpired
	}
	return err
}

func (s *checkInService) MarkExpired(ctx context.Context, id int) error {
	if err := s.tokenRepo.UpdateState(ctx, nil, id, models.TokenExpirado); err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to expire token: %w", err)
	}
	return nil
}

func (s *checkInService) Delete(ctx context.Context, id int) error {
	token, err := s.tokenRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to find token: %w", err)
	}
	if err := s.tokenRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if token.ImageKey != nil {
		if derr := s.uploader.Delete(ctx, *token.ImageKey); derr != nil {
			s.logger.Warn("failed to delete qr image", slog.Int("token_id", id), slog.String("error", derr.Error()))
		}
	}
	return nil
}

// SweepExpired переводит просроченные активные токены в expirado. Гоняется
// планировщиком из main по тикеру.
func (s *checkInService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.tokenRepo.ExpireDue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired tokens: %w", err)
	}
	if swept > 0 {
		s.logger.Info("expired check-in tokens swept", slog.Int64("count", swept))
	}
	return swept, nil
}
