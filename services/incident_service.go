package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mpomar16/cancha-system/live"
	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
)

type ReportIncidentInput struct {
	ReservaID   int     `json:"reserva_id"`
	EncargadoID int     `json:"encargado_id"`
	Detalle     string  `json:"detalle"`
	Sugerencia  *string `json:"sugerencia,omitempty"`
}

type UpdateIncidentInput struct {
	ReservaID   *int    `json:"reserva_id,omitempty"`
	EncargadoID *int    `json:"encargado_id,omitempty"`
	Detalle     *string `json:"detalle,omitempty"`
	Sugerencia  *string `json:"sugerencia,omitempty"`
}

// IncidentService фиксирует отчёты энкаргадо о происшествиях на резерве.
type IncidentService interface {
	Report(ctx context.Context, input ReportIncidentInput) (*models.Incident, error)
	Update(ctx context.Context, id int, input UpdateIncidentInput) (*models.Incident, error)
	GetByID(ctx context.Context, id int) (*models.Incident, error)
	Delete(ctx context.Context, id int) error
	ListByReservation(ctx context.Context, reservaID int) ([]*models.Incident, error)
}

type incidentService struct {
	incidentRepo    repositories.IncidentRepository
	reservationRepo repositories.ReservationRepository
	catalogRepo     repositories.CatalogRepository
	broadcaster     EventBroadcaster
	logger          *slog.Logger
}

func NewIncidentService(
	incidentRepo repositories.IncidentRepository,
	reservationRepo repositories.ReservationRepository,
	catalogRepo repositories.CatalogRepository,
	broadcaster EventBroadcaster,
	logger *slog.Logger,
) IncidentService {
	return &incidentService{
		incidentRepo:    incidentRepo,
		reservationRepo: reservationRepo,
		catalogRepo:     catalogRepo,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *incidentService) Report(ctx context.Context, input ReportIncidentInput) (*models.Incident, error) {
	if strings.TrimSpace(input.Detalle) == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.reservationRepo.GetByID(ctx, nil, input.ReservaID); err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to check reservation: %w", err)
	}
	ok, err := s.catalogRepo.EncargadoExists(ctx, input.EncargadoID)
	if err != nil {
		return nil, fmt.Errorf("failed to check encargado: %w", err)
	}
	if !ok {
		return nil, ErrEncargadoNotFound
	}

	incident := &models.Incident{
		ReservaID:   input.ReservaID,
		EncargadoID: input.EncargadoID,
		Detalle:     input.Detalle,
		Sugerencia:  input.Sugerencia,
	}
	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		switch {
		case errors.Is(err, repositories.ErrIncidentReservaInvalid):
			return nil, ErrReservationNotFound
		case errors.Is(err, repositories.ErrIncidentEncargadoInvalid):
			return nil, ErrEncargadoNotFound
		}
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	s.broadcaster.BroadcastToRoom(strconv.Itoa(incident.ReservaID), live.Event{
		Type:    live.EventIncidentReported,
		Payload: incident,
	})
	s.logger.Info("incident reported",
		slog.Int("incident_id", incident.ID),
		slog.Int("reserva_id", incident.ReservaID),
		slog.Int("encargado_id", incident.EncargadoID),
	)
	return incident, nil
}

func (s *incidentService) Update(ctx context.Context, id int, input UpdateIncidentInput) (*models.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrIncidentNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to find incident: %w", err)
	}

	if input.ReservaID != nil && *input.ReservaID != incident.ReservaID {
		if _, err := s.reservationRepo.GetByID(ctx, nil, *input.ReservaID); err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return nil, ErrReservationNotFound
			}
			return nil, fmt.Errorf("failed to check reservation: %w", err)
		}
		incident.ReservaID = *input.ReservaID
	}
	if input.EncargadoID != nil && *input.EncargadoID != incident.EncargadoID {
		ok, err := s.catalogRepo.EncargadoExists(ctx, *input.EncargadoID)
		if err != nil {
			return nil, fmt.Errorf("failed to check encargado: %w", err)
		}
		if !ok {
			return nil, ErrEncargadoNotFound
		}
		incident.EncargadoID = *input.EncargadoID
	}
	if input.Detalle != nil {
		if strings.TrimSpace(*input.Detalle) == "" {
			return nil, ErrValidationFailed
		}
		incident.Detalle = *input.Detalle
	}
	if input.Sugerencia != nil {
		incident.Sugerencia = input.Sugerencia
	}

	if err := s.incidentRepo.Update(ctx, incident); err != nil {
		if errors.Is(err, repositories.ErrIncidentNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}
	return incident, nil
}

func (s *incidentService) GetByID(ctx context.Context, id int) (*models.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrIncidentNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to find incident: %w", err)
	}
	return incident, nil
}

func (s *incidentService) Delete(ctx context.Context, id int) error {
	if err := s.incidentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrIncidentNotFound) {
			return ErrIncidentNotFound
		}
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	return nil
}

func (s *incidentService) ListByReservation(ctx context.Context, reservaID int) ([]*models.Incident, error) {
	return s.incidentRepo.ListByReserva(ctx, reservaID)
}
