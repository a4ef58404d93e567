package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mpomar16/cancha-system/models"
)

type participationFixture struct {
	svc             ParticipationService
	reservationRepo *fakeReservationRepo
	participRepo    *fakeParticipationRepo
	catalogRepo     *fakeCatalogRepo
	reservaID       int
}

// newParticipationFixture подготавливает резерву с cupo=2 и трёх спортсменов.
func newParticipationFixture() *participationFixture {
	reservationRepo := newFakeReservationRepo()
	participRepo := newFakeParticipationRepo()
	catalogRepo := newFakeCatalogRepo()

	for i := 1; i <= 3; i++ {
		catalogRepo.deportistas[i] = &models.Deportista{ID: i}
	}
	res := reservationRepo.put(&models.Reservation{
		Fecha:          time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC),
		Cupo:           2,
		MontoTotal:     20000,
		SaldoPendiente: 20000,
		Estado:         models.ReservationPendiente,
		ClienteID:      1,
		CanchaID:       1,
		DisciplinaID:   1,
	})

	return &participationFixture{
		svc:             NewParticipationService(fakeTxRunner{}, participRepo, reservationRepo, catalogRepo),
		reservationRepo: reservationRepo,
		participRepo:    participRepo,
		catalogRepo:     catalogRepo,
		reservaID:       res.ID,
	}
}

func TestEnrollConsumesCapacity(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		p, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: i, ReservaID: f.reservaID})
		if err != nil {
			t.Fatalf("Enroll deportista %d: %v", i, err)
		}
		if p.Estado != models.ParticipationConfirmado {
			t.Errorf("estado = %s, want confirmado by default", p.Estado)
		}
	}

	// Третий подтверждённый не влезает в cupo=2.
	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 3, ReservaID: f.reservaID}); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Enroll error = %v, want %v", err, ErrCapacityExceeded)
	}
}

func TestEnrollPendingDoesNotConsumeCapacity(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: i, ReservaID: f.reservaID}); err != nil {
			t.Fatalf("Enroll deportista %d: %v", i, err)
		}
	}

	pendiente := models.ParticipationPendiente
	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 3, ReservaID: f.reservaID, Estado: &pendiente}); err != nil {
		t.Fatalf("Enroll pendiente over full cupo: %v", err)
	}
}

func TestEnrollRejectsDuplicates(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 1, ReservaID: f.reservaID}); err != nil {
		t.Fatalf("first Enroll: %v", err)
	}
	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 1, ReservaID: f.reservaID}); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("second Enroll error = %v, want %v", err, ErrAlreadyEnrolled)
	}
}

func TestEnrollUnknownReferences(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 99, ReservaID: f.reservaID}); !errors.Is(err, ErrDeportistaNotFound) {
		t.Errorf("Enroll error = %v, want %v", err, ErrDeportistaNotFound)
	}
	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 1, ReservaID: 99}); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("Enroll error = %v, want %v", err, ErrReservationNotFound)
	}
}

func TestSetStateRechecksCapacityOnConfirm(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	pendiente := models.ParticipationPendiente
	for i := 1; i <= 2; i++ {
		if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: i, ReservaID: f.reservaID}); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}
	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 3, ReservaID: f.reservaID, Estado: &pendiente}); err != nil {
		t.Fatalf("Enroll pendiente: %v", err)
	}

	// Подтверждение третьего поверх заполненного cupo отклоняется.
	if _, err := f.svc.SetState(ctx, 3, f.reservaID, models.ParticipationConfirmado); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("SetState error = %v, want %v", err, ErrCapacityExceeded)
	}

	// После отмены одного из подтверждённых место освобождается.
	if _, err := f.svc.SetState(ctx, 1, f.reservaID, models.ParticipationCancelado); err != nil {
		t.Fatalf("SetState cancelado: %v", err)
	}
	p, err := f.svc.SetState(ctx, 3, f.reservaID, models.ParticipationConfirmado)
	if err != nil {
		t.Fatalf("SetState confirmado: %v", err)
	}
	if p.Estado != models.ParticipationConfirmado {
		t.Errorf("estado = %s, want confirmado", p.Estado)
	}
}

func TestSetStateDoesNotCountOwnRow(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: i, ReservaID: f.reservaID}); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}

	// Повторное подтверждение уже подтверждённого не съедает второе место.
	if _, err := f.svc.SetState(ctx, 1, f.reservaID, models.ParticipationConfirmado); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
}

func TestRemoveParticipation(t *testing.T) {
	f := newParticipationFixture()
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, EnrollInput{DeportistaID: 1, ReservaID: f.reservaID}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := f.svc.Remove(ctx, 1, f.reservaID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := f.svc.Remove(ctx, 1, f.reservaID); !errors.Is(err, ErrParticipationNotFound) {
		t.Errorf("second Remove error = %v, want %v", err, ErrParticipationNotFound)
	}
}
