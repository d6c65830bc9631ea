package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cliqstr/cliqstr-backend/api/controllers"
	"github.com/cliqstr/cliqstr-backend/api/middleware"
	"github.com/cliqstr/cliqstr-backend/internal/approvals"
	"github.com/cliqstr/cliqstr-backend/internal/auth"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/internal/consent"
	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/internal/profiles"
	"github.com/cliqstr/cliqstr-backend/pkg/auth/session"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/db"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// redisStore is the slice of the redis client the HTTP surface touches:
// readiness pings, idempotency records, and auth rate-limit counters.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Deps bundles everything the HTTP surface needs. The consent workflow is
// the heart of the API: invites and approvals guard it in front, child
// permission management follows it.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redisStore
	Sessions sessionManager

	Auth          auth.Service
	Register      auth.RegisterService
	Upgrade       auth.UpgradeService
	Invites       invites.Service
	Approvals     approvals.Service
	Consent       consent.Service
	Profiles      profiles.Service
	ChildSettings childsettings.Service
	Cliqs         cliqs.Service
	Memberships   middleware.MembershipChecker
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	validatePolicy := middleware.NewAuthRateLimitPolicy(
		"validate",
		cfg.AuthRateLimit.ValidateWindow,
		cfg.AuthRateLimit.ValidateIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
	})

	// Public by design: the invitee and the consenting parent follow emailed
	// links before they hold a session.
	r.Group(func(r chi.Router) {
		r.With(middleware.AuthRateLimit(validatePolicy, deps.Redis, logg)).
			Get("/api/v1/invites/{code}/validate", controllers.InvitesValidate(deps.Invites, logg))
		r.With(middleware.AuthRateLimit(validatePolicy, deps.Redis, logg)).
			Get("/api/v1/approvals/validate", controllers.ApprovalsValidate(deps.Approvals, logg))
		r.With(middleware.Idempotency(deps.Redis, logg)).
			Post("/api/v1/approvals", controllers.ApprovalsRequest(deps.Approvals, logg))
		r.With(middleware.Idempotency(deps.Redis, logg)).
			Post("/api/v1/consent/decline", controllers.ConsentDecline(deps.Consent, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/invites", func(r chi.Router) {
			r.Use(middleware.ForbidChildren(logg))
			r.Get("/", controllers.InvitesList(deps.Invites, logg))
			r.Post("/", controllers.InvitesCreate(deps.Invites, logg))
			r.Delete("/{code}", controllers.InvitesCancel(deps.Invites, logg))
		})

		r.Route("/consent", func(r chi.Router) {
			r.Use(middleware.ForbidChildren(logg))
			r.Post("/child", controllers.ConsentChild(deps.Consent, logg))
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/{profileId}", controllers.ProfilesGet(deps.Profiles, logg))
		})

		r.Route("/children", func(r chi.Router) {
			r.Use(middleware.RequireParent(logg))
			r.Get("/{profileId}/permissions", controllers.ChildPermissionsGet(deps.ChildSettings, logg))
			r.Patch("/{profileId}/permissions", controllers.ChildPermissionsUpdate(deps.ChildSettings, logg))
		})

		r.Route("/parents", func(r chi.Router) {
			r.Use(middleware.ForbidChildren(logg))
			r.Post("/upgrade", controllers.ParentsUpgrade(deps.Upgrade, logg))
			r.With(middleware.RequireParent(logg)).
				Get("/children", controllers.ParentsChildren(deps.ChildSettings, logg))
		})

		r.Route("/cliqs", func(r chi.Router) {
			r.Get("/", controllers.CliqsListMine(deps.Cliqs, logg))
			r.Post("/", controllers.CliqsCreate(deps.Cliqs, logg))
			r.With(middleware.RequireCliqRoles(deps.Memberships, logg,
				enums.CliqMemberRoleOwner, enums.CliqMemberRoleModerator, enums.CliqMemberRoleMember)).
				Get("/{cliqId}/members", controllers.CliqsMembers(deps.Cliqs, logg))
		})
	})

	return r
}
