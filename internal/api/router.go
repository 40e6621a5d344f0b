package api

import (
	"habit_tracker/internal/api/handler"
	"habit_tracker/internal/api/middleware"
	"habit_tracker/internal/app/service"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/validation"
	"habit_tracker/internal/platform/metrics"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const serviceName = "Habit Tracker API"

// Deps is everything the router wires into handlers and middleware.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// ExposeInternals adds error text and stack traces to 5xx bodies.
	ExposeInternals bool
	// RequestTimeout bounds each request; zero means 60s.
	RequestTimeout time.Duration

	Tokens       middleware.TokenVerifier
	AuthService  *service.AuthService
	UserService  *service.UserService
	HabitService *service.HabitService
	TagService   *service.TagService
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout == 0 {
		d.RequestTimeout = 60 * time.Second
	}
	errs := common.NewErrorResponder(d.Logger, d.ExposeInternals)
	v := validation.New()

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(d.RequestTimeout))
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.Respond(w, r, common.ErrNotFound)
	})

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"service":   serviceName,
		})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(d.AuthService, v, errs)
		api.Route("/auth", authHandler.RegisterRoutes)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(d.Tokens, d.Logger, d.Metrics, errs))

			protected.Route("/users", handler.NewUserHandler(d.UserService, v, errs).RegisterRoutes)
			protected.Route("/habits", handler.NewHabitHandler(d.HabitService, v, errs).RegisterRoutes)
			protected.Route("/tags", handler.NewTagHandler(d.TagService, v, errs).RegisterRoutes)
		})
	})

	return r
}
