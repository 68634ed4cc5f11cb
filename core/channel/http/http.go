// Package http serves a read-only diagnostics surface over the runtime:
// live types, their records, stored descriptors and their projections.
// Responses are JSON:API documents.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/typeforge/core/registry"
	"github.com/artpar/typeforge/core/runtime"
	"github.com/artpar/typeforge/core/schema"
	"github.com/artpar/typeforge/core/storage"
	"github.com/artpar/typeforge/pkg/jsonapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Metrics records served requests.
type Metrics interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Config configures the channel.
type Config struct {
	// Addr is the listen address. Start is a no-op when empty.
	Addr string

	// Metrics receives request observations. Optional.
	Metrics Metrics

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// PerPage is the default page size of record listings.
	PerPage int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger zerolog.Logger
}

// Channel implements the diagnostics HTTP channel.
type Channel struct {
	router  chi.Router
	runtime *runtime.Runtime
	cfg     Config
	logger  zerolog.Logger
	server  *http.Server
	perPage atomic.Int64
}

// New creates a new HTTP channel over rt.
func New(rt *runtime.Runtime, cfg Config) *Channel {
	if cfg.PerPage < 1 {
		cfg.PerPage = 20
	}

	c := &Channel{
		router:  chi.NewRouter(),
		runtime: rt,
		cfg:     cfg,
		logger:  cfg.Logger.With().Str("channel", "http").Logger(),
	}
	c.perPage.Store(int64(cfg.PerPage))

	c.router.Use(middleware.RequestID)
	c.router.Use(middleware.RealIP)
	c.router.Use(c.observe)
	c.router.Use(middleware.Recoverer)

	c.router.Get("/healthz", c.handleHealth)
	c.router.Route("/types", func(r chi.Router) {
		r.Get("/", c.handleTypes)
		r.Get("/{name}", c.handleType)
		r.Get("/{name}/atoms", c.handleAtoms)
	})
	c.router.Route("/elements/{id}", func(r chi.Router) {
		r.Get("/", c.handleElement)
		r.Get("/projections/{kind}", c.handleProjection)
	})
	if cfg.MetricsHandler != nil {
		c.router.Handle("/metrics", cfg.MetricsHandler)
	}

	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "http"
}

// Handler returns the HTTP handler.
func (c *Channel) Handler() http.Handler {
	return c.router
}

// SetPerPage changes the default page size of record listings.
func (c *Channel) SetPerPage(n int) {
	if n > 0 {
		c.perPage.Store(int64(n))
	}
}

// Start starts the HTTP server in the background.
func (c *Channel) Start(ctx context.Context) error {
	if c.cfg.Addr == "" {
		return nil
	}

	c.server = &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           c.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       c.cfg.ReadTimeout,
		WriteTimeout:      c.cfg.WriteTimeout,
	}

	go func() {
		c.logger.Info().Str("addr", c.cfg.Addr).Msg("diagnostics server listening")
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Msg("diagnostics server failed")
		}
	}()

	return nil
}

// Stop gracefully shuts the HTTP server down.
func (c *Channel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

// observe logs and measures each request by its route pattern.
func (c *Channel) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		if c.cfg.Metrics != nil {
			c.cfg.Metrics.ObserveRequest(r.Method, route, ww.Status(), elapsed)
		}

		c.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("latency", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (c *Channel) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonapi.Write(w, jsonapi.Status(jsonapi.Meta{
		"status":     "ok",
		"live_types": c.runtime.Registry().Len(),
	}))
}

func (c *Channel) handleTypes(w http.ResponseWriter, r *http.Request) {
	handles := c.runtime.Registry().List()
	resources := make([]jsonapi.Resource, len(handles))
	for i, h := range handles {
		resources[i] = typeResource(h)
	}
	jsonapi.Write(w, jsonapi.Many(resources, nil))
}

func (c *Channel) handleType(w http.ResponseWriter, r *http.Request) {
	h, ok := c.runtime.Registry().Get(chi.URLParam(r, "name"))
	if !ok {
		jsonapi.WriteError(w, jsonapi.ErrNotFound("type"))
		return
	}
	jsonapi.Write(w, jsonapi.One(typeResource(h)))
}

func typeResource(h *registry.Handle) jsonapi.Resource {
	shape := h.Shape()
	bindings := make([]string, 0, len(shape.Bindings))
	for _, b := range shape.Bindings {
		bindings = append(bindings, b.String())
	}

	return jsonapi.Resource{Type: jsonapi.KindType, ID: h.Name(), Attributes: schema.Pairs[any]{
		{Key: "owner", Value: h.Owner()},
		{Key: "static", Value: shape.Static},
		{Key: "generation", Value: h.Generation()},
		{Key: "installed_at", Value: h.InstalledAt()},
		{Key: "group", Value: shape.Group},
		{Key: "fields", Value: h.Fields()},
		{Key: "stubs", Value: h.Stubs()},
		{Key: "localized", Value: shape.Localized},
		{Key: "bindings", Value: bindings},
	}}
}

// handleAtoms lists the records of a live type. format=csv renders one
// csv line per record instead of a JSON:API collection.
func (c *Channel) handleAtoms(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	records, err := c.runtime.Atoms(r.Context(), name)
	if err != nil {
		c.writeError(w, err)
		return
	}

	page, perPage := jsonapi.ParsePaginationParams(r.URL.Query(), int(c.perPage.Load()))
	p := jsonapi.NewPagination(len(records), page, perPage, r.URL.String())
	lo, hi := p.Window(len(records))
	records = records[lo:hi]

	if r.URL.Query().Get("format") == "csv" {
		var b strings.Builder
		for _, rec := range records {
			line, err := rec.CSV()
			if err != nil {
				c.writeError(w, err)
				return
			}
			b.WriteString(line)
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(b.String()))
		return
	}

	resources := make([]jsonapi.Resource, 0, len(records))
	for _, rec := range records {
		public, err := rec.Public()
		if err != nil {
			c.writeError(w, err)
			return
		}
		resources = append(resources, jsonapi.Resource{Type: name, ID: rec.ID, Attributes: public})
	}
	jsonapi.Write(w, jsonapi.Many(resources, p))
}

// handleElement describes a stored descriptor. only and except take comma
// separated key lists.
func (c *Channel) handleElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	view, err := c.runtime.Describe(r.Context(), id, schema.SplitNames(q.Get("only")), schema.SplitNames(q.Get("except")))
	if err != nil {
		c.writeError(w, err)
		return
	}
	jsonapi.Write(w, jsonapi.One(jsonapi.Resource{Type: jsonapi.KindElement, ID: id, Attributes: view}))
}

func (c *Channel) handleProjection(w http.ResponseWriter, r *http.Request) {
	kind, err := schema.ParseProjectionKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrBadRequest(err.Error()).WithParameter("kind"))
		return
	}

	id := chi.URLParam(r, "id")
	d, err := c.runtime.Descriptor(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	names, err := c.runtime.Projection(d, kind)
	if err != nil {
		c.writeError(w, err)
		return
	}

	jsonapi.Write(w, jsonapi.One(jsonapi.Resource{
		Type: jsonapi.KindProjection,
		ID:   id + "/" + string(kind),
		Attributes: schema.Pairs[any]{
			{Key: "kind", Value: string(kind)},
			{Key: "attributes", Value: names},
		},
	}))
}

// writeError maps runtime errors to JSON:API errors.
func (c *Channel) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonapi.WriteError(w, jsonapi.ErrNotFound("element"))
	case errors.Is(err, runtime.ErrTypeNotLive):
		jsonapi.WriteError(w, jsonapi.ErrNotFound("type"))
	case errors.Is(err, runtime.ErrStaticInstances):
		jsonapi.WriteError(w, jsonapi.ErrUnprocessable(err.Error()))
	case errors.Is(err, runtime.ErrNoAtomStore):
		jsonapi.WriteError(w, jsonapi.ErrUnavailable(err.Error()))
	default:
		c.logger.Error().Err(err).Msg("diagnostics request failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal(""))
	}
}
