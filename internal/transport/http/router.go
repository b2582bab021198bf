package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/occamy/fieldops-api/internal/application/activity"
	"github.com/occamy/fieldops-api/internal/application/authz"
	"github.com/occamy/fieldops-api/internal/application/identity"
	"github.com/occamy/fieldops-api/internal/application/otp"
	"github.com/occamy/fieldops-api/internal/application/session"
	"github.com/occamy/fieldops-api/internal/config"
	"github.com/occamy/fieldops-api/internal/infrastructure/google"
	jwtinfra "github.com/occamy/fieldops-api/internal/infrastructure/jwt"
	"github.com/occamy/fieldops-api/internal/infrastructure/sns"
	"github.com/occamy/fieldops-api/internal/transport/http/handler"
	appmiddleware "github.com/occamy/fieldops-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo       UserRepository
	OTPRepo        OTPRepository
	SessionRepo    SessionRepository
	ActivityRepo   ActivityRepository
	CodeSender     sns.CodeSender
	GoogleVerifier *google.Verifier
	JWTProvider    *jwtinfra.Provider
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
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to the code-guessing surface.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	identitySvc := identity.NewService(deps.UserRepo)
	authzSvc := authz.NewService(deps.UserRepo)
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:       deps.OTPRepo,
		Identities:  identitySvc,
		Sender:      deps.CodeSender,
		MaxAttempts: cfg.OTPMaxAttempts,
		DevMode:     cfg.DevMode(),
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		Users:           deps.UserRepo,
		Sessions:        deps.SessionRepo,
		Receipts:        deps.OTPRepo,
		Verifier:        deps.GoogleVerifier,
		Identities:      identitySvc,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour,
	})
	activitySvc := activity.NewService(deps.ActivityRepo, authzSvc)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	lookupH := handler.NewOTPLookupHandler(otpSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	assignH := handler.NewAssignRoleHandler(authzSvc)
	activityH := handler.NewActivityHandler(activitySvc)
	userH := handler.NewUserHandler(deps.UserRepo, authzSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/otp", otpH.Action)
		r.With(sensitiveRL.Limit).Post("/otp-lookup", lookupH.Lookup)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/google", sessionH.LoginWithGoogle)
		r.With(sensitiveRL.Limit).Post("/sessions/farmer", sessionH.Farmer)
		r.Post("/sessions/refresh", sessionH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Post("/assign-role", assignH.Assign)

			r.Get("/activities", activityH.List)
			r.Post("/activities", activityH.Create)
			r.Get("/activities/{id}", activityH.Get)

			// Admin checks happen inside the handlers against the user store,
			// never against the token's role claim.
			r.Get("/users", userH.List)
			r.Put("/users/{id}/role", userH.UpdateRole)
		})
	})

	return r
}
