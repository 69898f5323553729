package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"eventdesk.org/internal/audit"
	"eventdesk.org/internal/auth"
	"eventdesk.org/internal/obs"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is required")

// ReadyProbe checks the backing database. A nil DB means the in-memory store
// is in use and the service is always ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Auth    *auth.Service
	RBAC    *auth.RBACService
	Gate    *auth.Gate
	Audit   *audit.Logger
	Logger  zerolog.Logger
	Ready   ReadyProbe
	Limiter *RateLimiter
	Version string
}

// API is the HTTP layer.
type API struct {
	mux      *http.ServeMux
	auth     *auth.Service
	rbac     *auth.RBACService
	gate     *auth.Gate
	audit    *audit.Logger
	logger   zerolog.Logger
	ready    ReadyProbe
	limiter  *RateLimiter
	validate *validator.Validate
	version  string
}

// route binds a mux pattern to its access metadata.
type route struct {
	pattern string
	access  auth.Route
	limited bool
	handler http.HandlerFunc
}

var (
	public    = auth.Route{Public: true}
	protected = auth.Route{}
	adminOnly = auth.Route{RequiredRoles: []string{auth.RoleAdmin}}
)

func New(deps Deps) (*API, error) {
	if deps.Auth == nil || deps.RBAC == nil || deps.Gate == nil {
		return nil, errors.New("httpapi: auth, rbac and gate are required")
	}
	if deps.Audit == nil {
		deps.Audit = audit.New(deps.Logger)
	}
	obs.Init()

	a := &API{
		mux:      http.NewServeMux(),
		auth:     deps.Auth,
		rbac:     deps.RBAC,
		gate:     deps.Gate,
		audit:    deps.Audit,
		logger:   deps.Logger.With().Str("component", "http").Logger(),
		ready:    deps.Ready,
		limiter:  deps.Limiter,
		validate: validator.New(),
		version:  deps.Version,
	}
	for _, rt := range a.routes() {
		var h http.Handler = rt.handler
		if rt.limited && a.limiter != nil {
			h = a.limiter.Middleware(h)
		}
		a.mux.Handle(rt.pattern, a.withGate(rt.access, h))
	}
	a.mux.HandleFunc("/", a.fallback)
	return a, nil
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// fallback answers 405 when the path is routed for another method and 404
// otherwise.
func (a *API) fallback(w http.ResponseWriter, r *http.Request) {
	var allowed []string
	for _, m := range routeMethods {
		if m == r.Method {
			continue
		}
		alt := r.Clone(r.Context())
		alt.Method = m
		if _, pattern := a.mux.Handler(alt); pattern != "/" && pattern != "" {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeError(w, r, http.StatusNotFound, "resource not found")
}

func (a *API) routes() []route {
	return []route{
		{pattern: "GET /healthz", access: public, handler: a.Healthz},
		{pattern: "GET /readyz", access: public, handler: a.Ready},
		{pattern: "GET /metrics", access: public, handler: obs.Handler().ServeHTTP},

		{pattern: "POST /auth/login", access: public, limited: true, handler: a.handleLogin},
		{pattern: "POST /auth/register", access: public, limited: true, handler: a.handleRegister},

		{pattern: "GET /api/users/{id}", access: protected, handler: a.handleGetUser},

		{pattern: "POST /roles-permission/create-role", access: adminOnly, handler: a.handleCreateRole},
		{pattern: "GET /roles-permission/get-roles", access: protected, handler: a.handleListRoles},
		{pattern: "POST /roles-permission/create-permission", access: adminOnly, handler: a.handleCreatePermission},
		{pattern: "GET /roles-permission/get-permission", access: protected, handler: a.handleListPermissions},
		{pattern: "POST /roles-permission/assign-role", access: adminOnly, handler: a.handleAssignRole},
	}
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, maxBodyBytes)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = obs.Instrument(h)
	h = Logging(a.logger)(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "eventdesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.ready.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) auditEvent(ctx context.Context, event string, fields map[string]any) {
	if err := a.audit.Event(ctx, event, fields); err != nil {
		a.logger.Warn().Err(err).Str("event", event).Msg("audit event dropped")
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// validationError renders the first failed field of a validator error.
func validationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}
	return field + " is " + fe.Tag()
}
