package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/config"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/events"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/handlers"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/identity"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/middleware"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/presign"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository/postgres"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

func New(log zerolog.Logger, db *pgxpool.Pool, cfg config.Config, idp *identity.Service, issuer *identity.TokenIssuer, pub events.Publisher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.ActionHeader},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))

	// Health + metrics + key discovery
	r.Get("/healthz", handlers.Health())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		utils.JSON(w, http.StatusOK, issuer.JWKS())
	})

	// Identity provider surface (unauthenticated; dispatch on header)
	ih := handlers.NewIdentityHTTP(idp, log)
	r.Post("/identity", ih.Dispatch())

	// Repos + handlers
	ticketRepo := postgres.NewTicketRepo(db)
	userRepo := postgres.NewUserRepo(db)
	th := handlers.NewTicketHTTP(ticketRepo, userRepo, pub, log)
	uh := handlers.NewUserHTTP(userRepo)
	rh := handlers.NewReportsHTTP(ticketRepo)
	ah := handlers.NewAttachmentHTTP(presign.New(cfg.PresignSecret), cfg.AttachmentsDir, cfg.PublicBaseURL, log)

	// Attachment transfer endpoints authenticate by signed URL, not token.
	r.Put("/attachments/{key}", ah.Put())
	r.Get("/attachments/{key}", ah.Get())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.WithAuth(log, idp))
		r.Use(middleware.RequireAuth)

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", th.List())
			r.Post("/", th.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.Get())
				r.Patch("/", th.Update())
				r.Delete("/", th.Delete())
				r.With(middleware.RequireRoles(models.RoleTech, models.RoleAdmin)).
					Post("/assign", th.Assign())
				r.Get("/comments", th.ListComments())
				r.Post("/comments", th.AddComment())
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", uh.Me())
			r.With(middleware.RequireRoles(models.RoleAdmin)).Get("/", uh.List())
			r.With(middleware.RequireRoles(models.RoleAdmin)).Patch("/{id}/role", uh.UpdateRole())
		})

		r.With(middleware.RequireRoles(models.RoleTech, models.RoleAdmin)).
			Get("/technicians", uh.Technicians())

		r.With(middleware.RequireRoles(models.RoleTech, models.RoleAdmin)).
			Get("/reports/summary", rh.Summary())

		r.Post("/attachments/upload-url", ah.UploadURL())
	})

	return r
}
