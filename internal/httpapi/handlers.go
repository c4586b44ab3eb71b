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

	"civicgov.org/internal/audit"
	"civicgov.org/internal/meeting"
	"civicgov.org/internal/obs"
	"civicgov.org/internal/publish"
)

// ReadyProbe — readiness check (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the meeting governance engine.
type API struct {
	mux        *http.ServeMux
	engine     *meeting.Service
	stream     *publish.Stream
	readyProbe ReadyProbe
	version    string
	authOff    bool
}

// Option configures the API.
type Option func(*API)

// WithStream attaches the SSE notice stream.
func WithStream(s *publish.Stream) Option {
	return func(a *API) { a.stream = s }
}

// WithoutAuth disables bearer-token authentication. Smoke tooling only.
func WithoutAuth() Option {
	return func(a *API) { a.authOff = true }
}

func New(engine *meeting.Service, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		engine:     engine,
		readyProbe: rp,
		version:    version,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// token minting
	a.mux.HandleFunc("/v1/auth/token", a.handleToken)

	// governing bodies
	a.mux.HandleFunc("/v1/bodies", a.handleBodiesCollection)
	a.mux.HandleFunc("/v1/bodies/", a.handleBodyResource)

	// meetings and everything under them
	a.mux.HandleFunc("/v1/meetings", a.handleMeetingsCollection)
	a.mux.HandleFunc("/v1/meetings/", a.handleMeetingResource)

	// notice event stream
	a.mux.HandleFunc("/v1/notices/stream", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "civicgov-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
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

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "civicgov-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event, entity, id string, meta map[string]string) {
	fields := map[string]any{
		"entity":    entity,
		"entity_id": id,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
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

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
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

// handleEngineError maps engine sentinels onto HTTP statuses.
func handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, meeting.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, meeting.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, meeting.ErrInvalidTransition),
		errors.Is(err, meeting.ErrAlreadyTerminal),
		errors.Is(err, meeting.ErrSessionActive),
		errors.Is(err, meeting.ErrVoteBlocked),
		errors.Is(err, meeting.ErrRecusedMember),
		errors.Is(err, meeting.ErrAlreadySeconded),
		errors.Is(err, meeting.ErrUncertifiedSession):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
