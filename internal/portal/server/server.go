package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/xela07ax/ovcare-portal/internal/domain"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/infra/auth"
	"github.com/xela07ax/ovcare-portal/internal/portal/handler"
	"go.uber.org/zap"
)

// HealthChecker — зависимости, без которых портал не обслуживает запросы
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type PortalServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *infra.Metrics

	// Проверка токенов (RS256) и живой сессии в Redis
	authValidator auth.TokenValidator
	sessions      auth.SessionChecker
	health        []HealthChecker

	authHandler    *handler.AuthHandler    // /auth/*
	patientHandler *handler.PatientHandler // /api/v1/me
	doctorHandler  *handler.DoctorHandler  // /api/v1/doctor
}

// NewPortalServer инициализирует HTTP API портала со всеми зависимостями
func NewPortalServer(
	cfg *infra.Config,
	logger *zap.Logger,
	metrics *infra.Metrics,
	validator auth.TokenValidator,
	sessions auth.SessionChecker,
	authH *handler.AuthHandler,
	patientH *handler.PatientHandler,
	doctorH *handler.DoctorHandler,
	health ...HealthChecker,
) *PortalServer {
	s := &PortalServer{
		router:         chi.NewRouter(),
		logger:         logger.Named("portal-api"),
		cfg:            cfg,
		metrics:        metrics,
		authValidator:  validator,
		sessions:       sessions,
		health:         health,
		authHandler:    authH,
		patientHandler: patientH,
		doctorHandler:  doctorH,
	}

	s.routes()
	return s
}

func (s *PortalServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(ObservabilityMiddleware(s.logger, s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get("/health", s.healthz)
		r.Post("/auth/patient/login", s.authHandler.PatientLogin)
		r.Post("/auth/doctor/login", s.authHandler.DoctorLogin)
		r.Post("/auth/patient/register", s.authHandler.Register)
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (RS256 токен + живая сессия) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.sessions, s.cfg.Auth.CookieName, s.logger))

		r.Post("/auth/logout", s.authHandler.Logout)

		// Кабинет пациента: идентичность только из сессии
		r.Route("/api/v1/me", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RolePatient))

			r.Get("/dashboard", s.patientHandler.Dashboard)
			r.Get("/profile", s.patientHandler.GetProfile)
			r.Put("/profile", s.patientHandler.UpdateProfile)
			r.Put("/password", s.authHandler.ChangePassword)
			r.Get("/biomarkers", s.patientHandler.ListBiomarkers)
			r.Post("/biomarkers", s.patientHandler.AddBiomarkers)
			r.Get("/risk", s.patientHandler.Risk)
			r.Get("/risk/history", s.patientHandler.RiskHistory)
			r.Get("/alerts", s.patientHandler.Alerts)
			r.Get("/notifications", s.patientHandler.Notifications)
			r.Post("/notifications/{id}/read", s.patientHandler.MarkNotificationRead)
			r.Post("/predict", s.patientHandler.Predict)
		})

		// Кабинет врача
		r.Route("/api/v1/doctor", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleDoctor))

			r.Get("/dashboard", s.doctorHandler.Dashboard)
			r.Get("/analytics", s.doctorHandler.Analytics)
			r.Route("/patients/{id}", func(r chi.Router) {
				r.Get("/", s.doctorHandler.PatientView)
				r.Post("/biomarkers", s.doctorHandler.AddBiomarkers)
				r.Post("/notes", s.doctorHandler.AddNote)
			})
		})
	})
}

func (s *PortalServer) healthz(w http.ResponseWriter, r *http.Request) {
	for _, h := range s.health {
		if err := h.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// ServeHTTP позволяет использовать PortalServer как стандартный http.Handler
func (s *PortalServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
