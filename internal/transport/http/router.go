package http

import (
	"context"
	"net/http"

	"github.com/go-auth-nosql/internal/application/auth"
	"github.com/go-auth-nosql/internal/application/session"
	"github.com/go-auth-nosql/internal/application/verification"
	"github.com/go-auth-nosql/internal/config"
	"github.com/go-auth-nosql/internal/observability"
	"github.com/go-auth-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-nosql/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo      AccountRepository
	VerificationRepo VerificationRepository
	SessionRepo      SessionRepository
	Mailer           Mailer
	JWTProvider      TokenProvider
	Metrics          *observability.Metrics
	Gatherer         prometheus.Gatherer
}

// NewRouter builds and returns the application router. Background work owned
// by the router (rate-limiter cleanup) stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 for credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)
	// Code submissions and code mails: 1 request/second, burst of 5.
	codeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(1), 5)

	codeSvc := verification.NewService(verification.ServiceDeps{
		Accounts:         deps.AccountRepo,
		Records:          deps.VerificationRepo,
		Metrics:          deps.Metrics,
		EmailVerifyTTL:   cfg.EmailVerifyTTL,
		PasswordResetTTL: cfg.PasswordResetTTL,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		SessionRepo: deps.SessionRepo,
		JWTProvider: deps.JWTProvider,
		Expiry:      cfg.JWTExpiry,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo:      deps.AccountRepo,
		Codes:            codeSvc,
		Sessions:         sessionSvc,
		Mailer:           deps.Mailer,
		EmailVerifyTTL:   cfg.EmailVerifyTTL,
		PasswordResetTTL: cfg.PasswordResetTTL,
	})

	cookie := handler.CookieConfig{Secure: cfg.CookieSecure, MaxAge: cfg.JWTExpiry}
	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc, cookie)
	authH := handler.NewAuthHandler(authSvc, cookie)
	authMw := appmiddleware.Auth(deps.JWTProvider, sessionSvc)

	r.Get("/health-check/{action}", healthH.Ping)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(sensitiveRL.Limit).Post("/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/login", sessionH.Login)
		r.With(codeRL.Limit).Post("/verify-email", authH.VerifyEmail)
		r.With(codeRL.Limit).Post("/resend-verification", authH.ResendVerification)
		r.With(codeRL.Limit).Post("/forgot-password", authH.ForgotPassword)
		r.With(codeRL.Limit).Post("/verify-reset-code", authH.VerifyResetCode)
		r.With(codeRL.Limit).Post("/reset-password", authH.ResetPassword)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/me", sessionH.Me)
			r.Post("/logout", sessionH.Logout)
		})
	})

	return r
}
