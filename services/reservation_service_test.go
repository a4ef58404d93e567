package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mpomar16/cancha-system/models"
)

type reservationFixture struct {
	svc             ReservationService
	reservationRepo *fakeReservationRepo
	participRepo    *fakeParticipationRepo
	paymentRepo     *fakePaymentRepo
	catalogRepo     *fakeCatalogRepo
}

func newReservationFixture() *reservationFixture {
	reservationRepo := newFakeReservationRepo()
	participRepo := newFakeParticipationRepo()
	paymentRepo := newFakePaymentRepo()
	catalogRepo := newFakeCatalogRepo()

	catalogRepo.clientes[1] = &models.Cliente{ID: 1, Nombre: "Marco"}
	catalogRepo.canchas[1] = &models.Cancha{ID: 1, Nombre: "Cancha Norte", Capacidad: 10}
	catalogRepo.disciplinas[1] = &models.Disciplina{ID: 1, Nombre: "Futsal"}

	return &reservationFixture{
		svc:             NewReservationService(fakeTxRunner{}, reservationRepo, participRepo, paymentRepo, catalogRepo),
		reservationRepo: reservationRepo,
		participRepo:    participRepo,
		paymentRepo:     paymentRepo,
		catalogRepo:     catalogRepo,
	}
}

func validCreateInput() CreateReservationInput {
	return CreateReservationInput{
		Fecha:          time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC),
		Cupo:           8,
		MontoTotal:     20000,
		SaldoPendiente: 20000,
		ClienteID:      1,
		CanchaID:       1,
		DisciplinaID:   1,
	}
}

func TestReservationCreateDerivesState(t *testing.T) {
	tests := []struct {
		name  string
		monto int64
		saldo int64
		want  models.ReservationState
	}{
		{"unpaid", 20000, 20000, models.ReservationPendiente},
		{"partially paid", 20000, 5000, models.ReservationEnCuotas},
		{"fully paid", 20000, 0, models.ReservationPagada},
		{"free slot", 0, 0, models.ReservationPagada},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReservationFixture()
			input := validCreateInput()
			input.MontoTotal = tt.monto
			input.SaldoPendiente = tt.saldo

			res, err := f.svc.Create(context.Background(), input)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if res.Estado != tt.want {
				t.Errorf("estado = %s, want %s", res.Estado, tt.want)
			}
			if res.ID == 0 {
				t.Error("expected assigned id")
			}
		})
	}
}

func TestReservationCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateReservationInput)
		wantErr error
	}{
		{"zero cupo", func(in *CreateReservationInput) { in.Cupo = 0 }, ErrReservationInvalidCupo},
		{"negative cupo", func(in *CreateReservationInput) { in.Cupo = -3 }, ErrReservationInvalidCupo},
		{"cupo over cancha capacity", func(in *CreateReservationInput) { in.Cupo = 11 }, ErrReservationCupoOverCapacity},
		{"saldo above monto", func(in *CreateReservationInput) { in.SaldoPendiente = 30000 }, ErrReservationInvalidBalance},
		{"negative monto", func(in *CreateReservationInput) { in.MontoTotal = -1 }, ErrReservationInvalidBalance},
		{"unknown cliente", func(in *CreateReservationInput) { in.ClienteID = 99 }, ErrClienteNotFound},
		{"unknown cancha", func(in *CreateReservationInput) { in.CanchaID = 99 }, ErrCanchaNotFound},
		{"unknown disciplina", func(in *CreateReservationInput) { in.DisciplinaID = 99 }, ErrDisciplinaNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReservationFixture()
			input := validCreateInput()
			tt.mutate(&input)

			if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReservationUpdateRederivesState(t *testing.T) {
	f := newReservationFixture()
	res, err := f.svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	saldo := int64(0)
	updated, err := f.svc.Update(context.Background(), res.ID, UpdateReservationInput{SaldoPendiente: &saldo})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Estado != models.ReservationPagada {
		t.Errorf("estado = %s, want pagada", updated.Estado)
	}
}

func TestReservationUpdateRejectsCupoBelowConfirmed(t *testing.T) {
	f := newReservationFixture()
	res, err := f.svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= 3; i++ {
		f.participRepo.items[participationKey{i, res.ID}] = &models.Participation{
			DeportistaID: i, ReservaID: res.ID, Estado: models.ParticipationConfirmado,
		}
	}

	cupo := 2
	if _, err := f.svc.Update(context.Background(), res.ID, UpdateReservationInput{Cupo: &cupo}); !errors.Is(err, ErrReservationInvalidCupo) {
		t.Errorf("Update error = %v, want %v", err, ErrReservationInvalidCupo)
	}

	cupo = 3
	if _, err := f.svc.Update(context.Background(), res.ID, UpdateReservationInput{Cupo: &cupo}); err != nil {
		t.Errorf("Update with cupo == confirmed: %v", err)
	}
}

func TestReservationCancelIsTerminal(t *testing.T) {
	f := newReservationFixture()
	res, err := f.svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Estado != models.ReservationCancelada {
		t.Fatalf("estado = %s, want cancelada", cancelled.Estado)
	}

	// Пересчёт баланса не выводит отменённую резерву из cancelada.
	saldo := int64(0)
	updated, err := f.svc.Update(context.Background(), res.ID, UpdateReservationInput{SaldoPendiente: &saldo})
	if err != nil {
		t.Fatalf("Update after cancel: %v", err)
	}
	if updated.Estado != models.ReservationCancelada {
		t.Errorf("estado after update = %s, want cancelada", updated.Estado)
	}

	// Повторная отмена идемпотентна.
	if _, err := f.svc.Cancel(context.Background(), res.ID); err != nil {
		t.Errorf("second Cancel: %v", err)
	}
}

func TestReservationDeleteRestrictions(t *testing.T) {
	ctx := context.Background()

	t.Run("active reservation is not deletable", func(t *testing.T) {
		f := newReservationFixture()
		res, _ := f.svc.Create(ctx, validCreateInput())
		if err := f.svc.Delete(ctx, res.ID); !errors.Is(err, ErrReservationNotDeletable) {
			t.Errorf("Delete error = %v, want %v", err, ErrReservationNotDeletable)
		}
	})

	t.Run("cancelled with successful payment is not deletable", func(t *testing.T) {
		f := newReservationFixture()
		res, _ := f.svc.Create(ctx, validCreateInput())
		if _, err := f.svc.Cancel(ctx, res.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		f.paymentRepo.items[1] = &models.Payment{ID: 1, ReservaID: res.ID, Monto: 5000, Estado: models.PaymentExitoso}

		if err := f.svc.Delete(ctx, res.ID); !errors.Is(err, ErrReservationNotDeletable) {
			t.Errorf("Delete error = %v, want %v", err, ErrReservationNotDeletable)
		}
	})

	t.Run("cancelled without successful payments is deletable", func(t *testing.T) {
		f := newReservationFixture()
		res, _ := f.svc.Create(ctx, validCreateInput())
		if _, err := f.svc.Cancel(ctx, res.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		f.paymentRepo.items[1] = &models.Payment{ID: 1, ReservaID: res.ID, Monto: 5000, Estado: models.PaymentFallido}

		if err := f.svc.Delete(ctx, res.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := f.svc.GetByID(ctx, res.ID); !errors.Is(err, ErrReservationNotFound) {
			t.Errorf("GetByID after delete = %v, want %v", err, ErrReservationNotFound)
		}
	})
}
