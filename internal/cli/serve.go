package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/deps"
	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/export"
	"github.com/matzehuels/cratedeps/pkg/observability"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/store"
	"github.com/matzehuels/cratedeps/pkg/version"
)

const (
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type serveFlags struct {
	addr     string
	registry registryFlags
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency graphs over HTTP",
		Long: `Serve dependency graphs over HTTP.

Graphs are built on request, cached by crate, version and options, and
every fresh build is saved to the run store. Prometheus metrics are
exposed on /metrics.`,
		Example: `  cratedeps serve --addr :9000
  curl 'localhost:9000/api/crates/serde/graph?format=svg&max_depth=2'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config, :8080)")
	addRegistryFlags(cmd, &f.registry)
	registerRegistryCompletions(cmd)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, f serveFlags) error {
	logger := loggerFromContext(ctx)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := observability.NewPrometheus(promReg)
	observability.SetBuildHooks(m)
	observability.SetRegistryHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)

	reg, err := c.openRegistry(ctx, f.registry)
	if err != nil {
		return err
	}
	defer reg.Close()

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &server{
		cfg:       c.cfg,
		registry:  reg,
		artifacts: reg.cache,
		keyer:     cache.NewDefaultKeyer(),
		store:     st,
		logger:    logger,
		metrics:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}),
	}

	addr := c.cfg.Server.Addr
	if f.addr != "" {
		addr = f.addr
	}
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()
	printInfo("Listening on %s (registry %s)", StyleLink.Render("http://"+displayAddr(addr)), reg.Name())

	select {
	case err := <-errCh:
		return errs.Wrap(errs.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// =============================================================================
// HTTP API
// =============================================================================

// server holds what the HTTP handlers share. artifacts caches encoded
// graphs; store may be nil, in which case runs are not recorded.
type server struct {
	cfg       config.Config
	registry  registry.Registry
	artifacts cache.Cache
	keyer     cache.Keyer
	store     store.Store
	logger    *log.Logger
	metrics   http.Handler
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/crates/{name}/graph", s.handleGraph)
		r.Get("/crates/{name}/versions/latest", s.handleLatest)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// graphRequest is the parsed query of a graph request.
type graphRequest struct {
	crate   string
	version string
	format  string
	opts    deps.Options
}

func (s *server) parseGraphRequest(r *http.Request) (graphRequest, error) {
	q := r.URL.Query()
	b := s.cfg.Build
	req := graphRequest{
		crate:   chi.URLParam(r, "name"),
		version: q.Get("version"),
		format:  export.FormatJSON,
		opts: deps.Options{
			MaxDepth:         b.MaxDepth,
			SkipUnresolvable: b.SkipUnresolvable,
			StableOnly:       b.StableOnly,
			Logger:           s.logger,
		},
	}
	if err := errs.ValidateCrateName(req.crate); err != nil {
		return req, err
	}

	if v := q.Get("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return req, err
		}
		req.format = f
	}
	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errs.New(errs.ErrCodeInvalidInput, "max_depth must be a non-negative integer, got %q", v)
		}
		req.opts.MaxDepth = n
	}
	if v := q.Get("skip_unresolvable"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return req, errs.New(errs.ErrCodeInvalidInput, "skip_unresolvable must be a boolean, got %q", v)
		}
		req.opts.SkipUnresolvable = skip
	}

	kinds, err := s.cfg.Kinds()
	if err != nil {
		return req, err
	}
	if v := q.Get("kinds"); v != "" {
		if kinds, err = registry.ParseKinds(v); err != nil {
			return req, errs.Wrap(errs.ErrCodeInvalidInput, err, "kinds")
		}
	}
	req.opts.Kinds = kinds
	return req, nil
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := s.parseGraphRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := s.keyer.GraphKey(s.registry.Name(), req.crate, cache.GraphKeyOpts{
		Version:          req.version,
		MaxDepth:         req.opts.MaxDepth,
		Kinds:            req.opts.Kinds.Strings(),
		SkipUnresolvable: req.opts.SkipUnresolvable,
		Format:           req.format,
	})
	// An unpinned version follows new releases, so only pinned graphs are
	// served from the artifact cache.
	cacheable := req.version != ""
	if cacheable {
		if data, ok, err := s.artifacts.Get(ctx, key); err != nil {
			s.logger.Warn("artifact cache read failed", "err", err)
		} else if ok {
			observability.Cache().OnCacheHit(ctx, "graph")
			w.Header().Set("X-Cache", "hit")
			writeArtifact(w, req.format, data)
			return
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	b := deps.NewBuilder(s.registry, req.opts)
	var res *deps.Result
	if req.version != "" {
		res, err = b.BuildVersion(ctx, req.crate, req.version)
	} else {
		res, err = b.Build(ctx, req.crate)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := export.Encode(ctx, res.Graph, req.format, export.Options{
		RankDir:    s.cfg.Export.RankDir,
		MarkCycles: s.cfg.Export.MarkCycles,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if cacheable {
		if err := s.artifacts.Set(ctx, key, data, s.cfg.Cache.TTL.Duration); err != nil {
			s.logger.Warn("artifact cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}
	if s.store != nil {
		rec := store.NewRecord(res, s.registry.Name(), req.opts)
		if err := s.store.Save(ctx, rec); err != nil {
			s.logger.Warn("could not save run", "crate", req.crate, "err", err)
		} else {
			w.Header().Set("X-Run-ID", rec.ID)
		}
	}

	w.Header().Set("X-Cache", "miss")
	writeArtifact(w, req.format, data)
}

func (s *server) handleLatest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errs.ValidateCrateName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	stableOnly, _ := strconv.ParseBool(r.URL.Query().Get("stable_only"))

	res := version.NewResolver(s.registry, version.Options{StableOnly: stableOnly, Logger: s.logger})
	v, err := res.Latest(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "version": v.String()})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "run store is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid run id %q", id))
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeNotFound, err, "run %s", id))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "run store is disabled"))
		return
	}
	q := r.URL.Query()
	crate := q.Get("crate")
	if crate != "" {
		if err := errs.ValidateCrateName(crate); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	limit := defaultRunLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.store.List(r.Context(), crate, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  errs.Code `json:"code"`
	Error string    `json:"error"`
}

// statusFor maps an error's outermost code to an HTTP status.
func statusFor(err error) int {
	switch code := errs.GetCode(err); code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidPackage, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeUnknownCrate, errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeNoMatchingVersion, errs.ErrCodeRequirementParse:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeRegistryConnection, errs.ErrCodeRegistryQuery:
		return http.StatusBadGateway
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errs.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
