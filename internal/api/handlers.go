// Package api exposes the note service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/notes"
	"example.com/notes-api/internal/ratelimit"
	"example.com/notes-api/internal/response"
)

// Service is the note use-case layer. It allows unit-testing handlers
// without a real store.
type Service interface {
	List(ctx context.Context, params url.Values) (notes.Page, error)
	Get(ctx context.Context, id string) (notes.Note, error)
	Create(ctx context.Context, body map[string]json.RawMessage) (notes.Note, error)
	Update(ctx context.Context, id string, body map[string]json.RawMessage) (notes.Note, error)
	Delete(ctx context.Context, id string) (notes.Note, error)
	Count(ctx context.Context) (int, error)
}

// Options configures the router. The zero value serves the note routes
// with no rate limit, no body cap, and no change feed.
type Options struct {
	Environment  string
	Version      string
	StartedAt    time.Time
	CORSOrigins  []string
	TrustProxy   bool
	MaxBodyBytes int64
	Limiter      *ratelimit.Limiter
	Events       http.Handler
	Logger       zerolog.Logger
}

type Handlers struct {
	svc  Service
	opts Options
}

func NewHandlers(svc Service, opts Options) *Handlers {
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	return &Handlers{svc: svc, opts: opts}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(AccessLog(h.opts.Logger))
	r.Use(Recoverer)
	r.Use(SecurityHeaders()...)
	r.Use(CORS(h.opts.CORSOrigins))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/health", h.health)
	r.Get("/", h.root)

	r.Route("/notes", func(r chi.Router) {
		if h.opts.Limiter != nil {
			r.Use(ratelimit.Middleware(h.opts.Limiter, ratelimit.ClientIP))
		}
		if h.opts.Events != nil {
			r.Method(http.MethodGet, "/events", h.opts.Events)
		}

		r.Get("/", h.list)
		r.With(BodyLimit(h.opts.MaxBodyBytes)).Post("/", h.create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.With(BodyLimit(h.opts.MaxBodyBytes)).Put("/", h.update)
			r.Delete("/", h.delete)
		})
	})

	return r
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), r.URL.Query())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Paginated(w, page, "Notes retrieved successfully")
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, n, "Note retrieved successfully")
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	body, err := decode(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	n, err := h.svc.Create(r.Context(), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, n, "Note created successfully")
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	body, err := decode(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, n, "Note updated successfully")
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, n, "Note deleted successfully")
}

// Health is the liveness payload.
type Health struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
	Goroutines  int     `json:"goroutines"`
	PID         int     `json:"pid"`
	Notes       int     `json:"notes"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Count(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	now := time.Now()
	response.OK(w, Health{
		Status:      "OK",
		Timestamp:   now.UTC().Format(response.TimeFormat),
		Uptime:      now.Sub(h.opts.StartedAt).Seconds(),
		Environment: h.opts.Environment,
		Version:     h.opts.Version,
		Goroutines:  runtime.NumGoroutine(),
		PID:         os.Getpid(),
		Notes:       count,
	}, "API is running")
}

// Info describes the API at its root.
type Info struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Features  []string          `json:"features"`
}

func (h *Handlers) root(w http.ResponseWriter, _ *http.Request) {
	endpoints := map[string]string{
		"health": "/health",
		"notes":  "/notes",
	}
	if h.opts.Events != nil {
		endpoints["events"] = "/notes/events"
	}

	response.OK(w, Info{
		Message:   "Welcome to DevStream API",
		Version:   h.opts.Version,
		Endpoints: endpoints,
		Features: []string{
			"RESTful API for notes management",
			"Pagination, search, and sorting",
			"Input validation and sanitization",
			"Structured logging",
			"Rate limiting",
			"Security headers",
			"Live change feed",
		},
	}, "DevStream API is running")
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path), nil)
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path), nil)
}

func decode(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := notes.DecodeBody(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errs.Wrap(errs.TooLarge, "Request body too large", err)
	}
	return body, err
}
