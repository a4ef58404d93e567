package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mpomar16/cancha-system/handlers"
	"github.com/mpomar16/cancha-system/middleware"
	"github.com/mpomar16/cancha-system/models"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Reservation   *handlers.ReservationHandler
	Participation *handlers.ParticipationHandler
	Payment       *handlers.PaymentHandler
	CheckIn       *handlers.CheckInHandler
	Incident      *handlers.IncidentHandler
	Catalog       *handlers.CatalogHandler
	Live          *handlers.LiveHandler
}

func SetupRoutes(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Route("/reservas", func(r chi.Router) {
				r.Post("/", h.Reservation.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Reservation.GetByID)
					r.Patch("/", h.Reservation.Update)
					r.Post("/cancelar", h.Reservation.Cancel)
					r.With(middleware.Authorize(models.RoleAdministrador)).Delete("/", h.Reservation.Delete)

					r.Route("/participantes", func(r chi.Router) {
						r.Post("/", h.Participation.Enroll)
						r.Get("/", h.Participation.ListByReservation)
						r.Route("/{deportistaID}", func(r chi.Router) {
							r.Get("/", h.Participation.GetByPair)
							r.Patch("/", h.Participation.SetState)
							r.Delete("/", h.Participation.Remove)
						})
					})

					r.Route("/pagos", func(r chi.Router) {
						r.Post("/", h.Payment.Apply)
						r.Get("/", h.Payment.ListByReservation)
					})

					r.Route("/qr", func(r chi.Router) {
						r.Post("/", h.CheckIn.Issue)
						r.Get("/", h.CheckIn.GetByReservation)
					})

					r.Route("/incidencias", func(r chi.Router) {
						r.With(middleware.Authorize(models.RoleEncargado, models.RoleAdministrador)).Post("/", h.Incident.Report)
						r.Get("/", h.Incident.ListByReservation)
					})
				})
			})

			r.Route("/pagos/{id}", func(r chi.Router) {
				r.Get("/", h.Payment.GetByID)
				r.Patch("/", h.Payment.Update)
			})

			r.Route("/qr", func(r chi.Router) {
				r.Post("/canjear", h.CheckIn.Redeem)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/reasignar", h.CheckIn.Reassign)
					r.Post("/expirar", h.CheckIn.MarkExpired)
					r.With(middleware.Authorize(models.RoleAdministrador)).Delete("/", h.CheckIn.Delete)
				})
			})

			r.Route("/incidencias/{id}", func(r chi.Router) {
				r.Get("/", h.Incident.GetByID)
				r.With(middleware.Authorize(models.RoleEncargado, models.RoleAdministrador)).Patch("/", h.Incident.Update)
				r.With(middleware.Authorize(models.RoleAdministrador)).Delete("/", h.Incident.Delete)
			})

			r.Get("/clientes/{id}", h.Catalog.GetCliente)
			r.Get("/clientes/{clienteID}/reservas", h.Reservation.ListByCliente)
			r.Get("/canchas/{id}", h.Catalog.GetCancha)
			r.Get("/canchas/{canchaID}/reservas", h.Reservation.ListByCancha)
			r.Get("/disciplinas/{id}", h.Catalog.GetDisciplina)
			r.Get("/deportistas/{id}", h.Catalog.GetDeportista)
			r.Get("/encargados/{id}", h.Catalog.GetEncargado)
		})
	})

	r.Get("/ws/reservas/{id}", h.Live.ServeReservationFeed)

	return r
}
