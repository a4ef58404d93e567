package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mpomar16/cancha-system/live"
	"github.com/mpomar16/cancha-system/models"
)

type incidentFixture struct {
	svc         IncidentService
	broadcaster *fakeBroadcaster
	reservaID   int
}

func newIncidentFixture() *incidentFixture {
	incidentRepo := newFakeIncidentRepo()
	reservationRepo := newFakeReservationRepo()
	catalogRepo := newFakeCatalogRepo()
	broadcaster := &fakeBroadcaster{}

	catalogRepo.encargados[1] = &models.Encargado{ID: 1}
	res := reservationRepo.put(&models.Reservation{
		Fecha:          time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC),
		Cupo:           8,
		MontoTotal:     20000,
		SaldoPendiente: 20000,
		Estado:         models.ReservationPendiente,
		ClienteID:      1,
		CanchaID:       1,
		DisciplinaID:   1,
	})

	return &incidentFixture{
		svc:         NewIncidentService(incidentRepo, reservationRepo, catalogRepo, broadcaster, testLogger()),
		broadcaster: broadcaster,
		reservaID:   res.ID,
	}
}

func TestReportIncident(t *testing.T) {
	f := newIncidentFixture()
	sugerencia := "revisar la red de la cancha"

	incident, err := f.svc.Report(context.Background(), ReportIncidentInput{
		ReservaID:   f.reservaID,
		EncargadoID: 1,
		Detalle:     "red rota en el segundo tiempo",
		Sugerencia:  &sugerencia,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if incident.ID == 0 {
		t.Error("expected assigned id")
	}

	if len(f.broadcaster.calls) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(f.broadcaster.calls))
	}
	event, ok := f.broadcaster.calls[0].message.(live.Event)
	if !ok || event.Type != live.EventIncidentReported {
		t.Errorf("broadcast = %#v, want %s event", f.broadcaster.calls[0].message, live.EventIncidentReported)
	}
}

func TestReportIncidentValidation(t *testing.T) {
	f := newIncidentFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ReportIncidentInput
		wantErr error
	}{
		{"empty detalle", ReportIncidentInput{ReservaID: f.reservaID, EncargadoID: 1, Detalle: "   "}, ErrValidationFailed},
		{"unknown reservation", ReportIncidentInput{ReservaID: 99, EncargadoID: 1, Detalle: "x"}, ErrReservationNotFound},
		{"unknown encargado", ReportIncidentInput{ReservaID: f.reservaID, EncargadoID: 99, Detalle: "x"}, ErrEncargadoNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Report(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Report error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateIncident(t *testing.T) {
	f := newIncidentFixture()
	ctx := context.Background()

	incident, err := f.svc.Report(ctx, ReportIncidentInput{ReservaID: f.reservaID, EncargadoID: 1, Detalle: "luz quemada"})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	detalle := "dos focos quemados"
	updated, err := f.svc.Update(ctx, incident.ID, UpdateIncidentInput{Detalle: &detalle})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Detalle != detalle {
		t.Errorf("detalle = %q, want %q", updated.Detalle, detalle)
	}

	badEncargado := 99
	if _, err := f.svc.Update(ctx, incident.ID, UpdateIncidentInput{EncargadoID: &badEncargado}); !errors.Is(err, ErrEncargadoNotFound) {
		t.Errorf("Update error = %v, want %v", err, ErrEncargadoNotFound)
	}
}

func TestDeleteIncident(t *testing.T) {
	f := newIncidentFixture()
	ctx := context.Background()

	incident, err := f.svc.Report(ctx, ReportIncidentInput{ReservaID: f.reservaID, EncargadoID: 1, Detalle: "gol fantasma"})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := f.svc.Delete(ctx, incident.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.GetByID(ctx, incident.ID); !errors.Is(err, ErrIncidentNotFound) {
		t.Errorf("GetByID after delete = %v, want %v", err, ErrIncidentNotFound)
	}
}
