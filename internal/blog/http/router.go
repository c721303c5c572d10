package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/media"
	"github.com/aussiebroadwan/billboard/internal/blog/service"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
	"github.com/aussiebroadwan/billboard/pkg/metricsx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"

	_ "github.com/aussiebroadwan/billboard/api/blog" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultMaxUploadBytes caps profile picture uploads when the router is not
// told otherwise.
const DefaultMaxUploadBytes = 5 << 20

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	sessions  *Sessions
	templates *Templates
	limits    httpx.RateLimits
	metrics   *metricsx.Metrics

	StaticDir      string
	MaxUploadBytes int64

	UserService *service.UserService
	PostService *service.PostService
	Authorizer  service.Authorizer
	Avatars     *media.AvatarStore
}

func NewRouter(
	sessions *Sessions,
	templates *Templates,
	limits httpx.RateLimits,
	metrics *metricsx.Metrics,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	if metrics == nil {
		metrics = metricsx.New()
	}

	r := &Router{
		Mux:            http.NewServeMux(),
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		store:          st,
		sessions:       sessions,
		templates:      templates,
		limits:         limits,
		metrics:        metrics,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.InstrumentHandler,
	}

	return r
}

// ApplyRoutes registers every route. Services must be assigned first.
func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAccount()
	r.registerPosts()
	r.registerUsers()
	r.registerSystem()

	r.middlewares = append(r.middlewares,
		LoadSession(r.sessions, r.UserService),
		CSRF(r.sessions),
	)
	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Billboard API
//	@version		0.1.0
//	@description	JSON endpoints of the Billboard blogging site. HTML pages are not described here.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/billboard
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		r.handler = httpx.Chain(r.Mux, r.middlewares...)
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) protected(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		RequireLogin,
		httpx.RateLimitByUser(r.limits.Moderate),
	)
}

func (r *Router) registerPages() {
	public := httpx.RateLimitByIP(r.limits.Public)

	r.Mux.Handle("GET /{$}", httpx.Chain(http.HandlerFunc(r.handleHome), public))
	r.Mux.Handle("GET /home", httpx.Chain(http.HandlerFunc(r.handleHome), public))
	r.Mux.Handle("GET /about", httpx.Chain(http.HandlerFunc(r.handleAbout), public))

	// Anything unmatched gets the HTML 404 page.
	r.Mux.HandleFunc("/", r.notFound)
}

func (r *Router) registerAccount() {
	r.Mux.Handle("GET /register", httpx.Chain(http.HandlerFunc(r.handleRegisterForm),
		RedirectIfAuthenticated,
	))
	// Strict limit by IP: account creation is the cheapest spam vector.
	r.Mux.Handle("POST /register", httpx.Chain(http.HandlerFunc(r.handleRegister),
		RedirectIfAuthenticated,
		httpx.RateLimitByIP(r.limits.Strict),
	))

	r.Mux.Handle("GET /login", httpx.Chain(http.HandlerFunc(r.handleLoginForm),
		RedirectIfAuthenticated,
	))
	// Strict limit by IP + email to slow down credential stuffing.
	r.Mux.Handle("POST /login", httpx.Chain(http.HandlerFunc(r.handleLogin),
		RedirectIfAuthenticated,
		httpx.RateLimitByIPAndFormField(r.limits.Strict, "email"),
	))

	r.Mux.HandleFunc("GET /logout", r.handleLogout)

	r.Mux.Handle("GET /profile", httpx.Chain(http.HandlerFunc(r.handleProfileForm), RequireLogin))
	r.Mux.Handle("POST /profile", r.protected(r.handleProfile))

	r.Mux.Handle("GET /status", r.protected(r.handleStatus))
	r.Mux.Handle("POST /status", r.protected(r.handleStatus))
}

func (r *Router) registerPosts() {
	r.Mux.Handle("GET /post/new", httpx.Chain(http.HandlerFunc(r.handleNewPostForm), RequireLogin))
	r.Mux.Handle("POST /post/new", r.protected(r.handleNewPost))

	r.Mux.Handle("GET /post/{id}", httpx.Chain(http.HandlerFunc(r.handleShowPost),
		httpx.RateLimitByIP(r.limits.Public),
	))
}

func (r *Router) registerUsers() {
	lenient := httpx.RateLimitByUser(r.limits.Lenient)

	r.Mux.Handle("GET /users", httpx.Chain(http.HandlerFunc(r.handleListUsers), RequireLogin, lenient))
	r.Mux.Handle("GET /user/{id}", httpx.Chain(http.HandlerFunc(r.handleShowUser), RequireLogin, lenient))
}

func (r *Router) registerSystem() {
	lenient := httpx.RateLimitByIP(r.limits.Lenient)

	if r.StaticDir != "" {
		files := http.StripPrefix("/static/", http.FileServer(http.Dir(r.StaticDir)))
		r.Mux.Handle("GET /static/", httpx.Chain(noDirectoryListing(files), lenient))
	}

	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(r.limits.Public),
	))
	avatarDir := ""
	if r.Avatars != nil {
		avatarDir = r.Avatars.Dir
	}
	r.Mux.Handle("GET /readyz", httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, avatarDir),
		httpx.RateLimitByIP(r.limits.Public),
	))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
