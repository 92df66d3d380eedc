package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/internal/coach/store"
	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/aussiebroadwan/coach/pkg/slogx"

	_ "github.com/aussiebroadwan/coach/api/coach" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	Cookie         CookieConfig
	Mock           bool
	LedgerPinger   Pinger         // Optional: set when the ledger lives outside the store
	TrustedProxies []netip.Prefix // Proxies whose X-Forwarded-For is believed
	AccountService *service.AccountService
	TokenService   *service.TokenService
	CoachService   *service.CoachService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		traceRequests(),
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares, httpx.ClientIP(r.TrustedProxies))

	r.registerAuth()
	r.registerUser()
	r.registerCoach()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Coach API
//	@version		0.1.0
//	@description	Fitness coach chat service. Access tokens are short-lived HS256 JWTs sent as bearer tokens;
//	@description	refresh tokens travel only in the HttpOnly coach_refresh cookie scoped to /api/auth.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/coach
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Accounts: r.AccountService,
		Tokens:   r.TokenService,
		Cookie:   r.Cookie,
	}

	// Credential endpoints - strict rate limit by IP + email to slow guessing
	r.Mux.Handle("POST /api/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignup),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// Cookie endpoints - moderate rate limit by IP (clients refresh every 14 minutes)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUser() {
	h := &UserHandler{Accounts: r.AccountService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RequireSession(r.verifier),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/user/profile", secured(h.HandleGetProfile))
	r.Mux.Handle("PUT /api/user/profile", secured(h.HandleUpdateProfile))
	r.Mux.Handle("POST /api/user/avatar", secured(h.HandleUpdateAvatar))
}

func (r *Router) registerCoach() {
	h := &CoachHandler{Coach: r.CoachService, Mock: r.Mock}

	// Anonymous callers are welcome; a valid token only adds personalization
	optional := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.OptionalSession(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /api/chat", optional(h.HandleChat))
	r.Mux.Handle("POST /api/trainer", optional(h.HandleTrainer))
	r.Mux.Handle("POST /api/analyze-form", optional(h.HandleAnalyzeForm))

	r.Mux.Handle("GET /api/health",
		httpx.Chain(http.HandlerFunc(h.HandleHealth),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	// Diag hits the provider, so it gets the strict profile
	r.Mux.Handle("GET /api/diag",
		httpx.Chain(http.HandlerFunc(h.HandleDiag),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.LedgerPinger),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
