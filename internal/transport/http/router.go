package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rentx/rentx-api/internal/application/activity"
	"github.com/rentx/rentx-api/internal/application/authflow"
	"github.com/rentx/rentx-api/internal/application/directory"
	"github.com/rentx/rentx-api/internal/application/listing"
	"github.com/rentx/rentx-api/internal/application/media"
	"github.com/rentx/rentx-api/internal/config"
	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/rentx/rentx-api/internal/infrastructure/jwt"
	s3infra "github.com/rentx/rentx-api/internal/infrastructure/s3"
	"github.com/rentx/rentx-api/internal/infrastructure/smtp"
	"github.com/rentx/rentx-api/internal/infrastructure/sns"
	"github.com/rentx/rentx-api/internal/pkg/credential"
	"github.com/rentx/rentx-api/internal/session"
	"github.com/rentx/rentx-api/internal/transport/http/handler"
	appmiddleware "github.com/rentx/rentx-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo  *dynamo.AccountRepo
	PropertyRepo *dynamo.PropertyRepo
	ActivityRepo *dynamo.ActivityRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	Publisher    sns.Publisher
	Redis        *redis.Client
	JWTProvider  *jwtinfra.Provider
	Logger       *slog.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the login flow endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scheme := credential.FromName(cfg.CredentialScheme)
	dirSvc := directory.NewService(deps.AccountRepo, scheme)
	listingSvc := listing.NewService(deps.PropertyRepo)
	mediaSvc := media.NewService(deps.S3Store)
	tracker := activity.NewTracker(deps.ActivityRepo, logger)

	var sender authflow.CodeSender
	if cfg.OTPChannel == "sms" && deps.Publisher != nil {
		sender = authflow.NewTopicSender(deps.Publisher)
	} else {
		sender = authflow.NewEmailSender(deps.Mailer)
	}

	// Each flow gets its own durable session slot, keyed by flow id; the slot
	// outlives the flow instance so the session survives registry expiry.
	slotFor := func(flowID string) session.Slot {
		switch cfg.SessionSlotBackend {
		case "redis":
			if deps.Redis != nil {
				return session.NewRedisSlot(deps.Redis, flowID)
			}
		case "file":
			slot, err := session.NewFileSlot(cfg.SessionFileDir, flowID)
			if err == nil {
				return slot
			}
			logger.Warn("file slot unavailable, falling back to memory", "err", err)
		}
		return session.NewMemorySlot()
	}
	registry := handler.NewFlowRegistry(cfg.FlowTTL, func(flowID string) *authflow.Controller {
		return authflow.NewController(dirSvc, scheme, session.NewManager(slotFor(flowID)), sender, logger)
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registry, deps.JWTProvider, tracker)
	listingH := handler.NewListingHandler(listingSvc, tracker)
	mediaH := handler.NewMediaHandler(mediaSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/flows", authH.Start)
		r.Get("/auth/flows/{flowID}", authH.State)
		r.With(sensitiveRL.Limit).Post("/auth/flows/{flowID}/{action}", authH.Action)

		r.Get("/listings", listingH.List)
		r.Get("/listings/{id}", listingH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/listings/{id}/contact", listingH.Contact)
			r.Get("/media/url", mediaH.URL)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/listings", listingH.Create)
				r.Put("/listings/{id}", listingH.Update)
				r.Delete("/listings/{id}", listingH.Delete)
				r.Put("/listings/{id}/status", listingH.SetStatus)
				r.Put("/listings/{id}/rooms", listingH.SetRooms)
				r.Post("/listings/{id}/media", mediaH.Upload)
				r.Post("/listings/{id}/media/base64", mediaH.UploadBase64)
				r.Delete("/media", mediaH.Delete)
			})
		})
	})

	return r
}
