// Package server exposes a running layout over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/loader"
	"github.com/san-kum/forcelab/internal/sim"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var validate = validator.New()

type Options struct {
	PublishFPS int
	Logger     *zap.Logger
}

type Server struct {
	driver   *sim.Driver
	logger   *zap.Logger
	interval time.Duration
	registry *prometheus.Registry
	upgrader websocket.Upgrader
}

// New builds a server for d and registers its metrics collector as an
// observer, so it must be called before d starts running.
func New(d *sim.Driver, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PublishFPS <= 0 {
		opts.PublishFPS = 30
	}
	reg := prometheus.NewRegistry()
	d.AddObserver(NewCollector(reg))

	return &Server{
		driver:   d,
		logger:   opts.Logger,
		interval: time.Second / time.Duration(opts.PublishFPS),
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.health)
	r.Get("/ws", s.stream)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/frame", s.getFrame)
		r.Get("/graph", s.getGraph)
		r.Route("/vertices", func(r chi.Router) {
			r.Post("/", s.createVertex)
			r.Get("/{key}", s.getVertex)
			r.Delete("/{key}", s.deleteVertex)
			r.Get("/{key}/top", s.getTop)
		})
		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.createEdge)
			r.Delete("/{source}/{target}", s.deleteEdge)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) getFrame(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.driver.Frame())
}

func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request) {
	var spec loader.Spec
	err := s.driver.Do(func(g *graph.Graph) error {
		spec = loader.FromGraph(g)
		return nil
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, spec)
}

func (s *Server) getVertex(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, ok := s.driver.Frame().Vertex(key)
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("vertex %q not found", key))
		return
	}
	s.respondJSON(w, http.StatusOK, v)
}

func (s *Server) getTop(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	n := graph.DefaultTopConnections
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	v, ok := s.driver.Frame().Vertex(key)
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("vertex %q not found", key))
		return
	}
	s.respondJSON(w, http.StatusOK, v.Top(n))
}

type vertexRequest struct {
	Key string `json:"key" validate:"required"`
}

type edgeRequest struct {
	Source string   `json:"source" validate:"required"`
	Target string   `json:"target" validate:"required"`
	Weight *float64 `json:"weight" validate:"required"`
}

type mutationResponse struct {
	Changed   bool `json:"changed"`
	Vertices  int  `json:"vertices"`
	EdgeCount int  `json:"edge_count"`
}

func (s *Server) createVertex(w http.ResponseWriter, r *http.Request) {
	var req vertexRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mutate(w, http.StatusCreated, func(g *graph.Graph) (bool, error) {
		return g.InsertVertex(req.Key)
	})
}

func (s *Server) deleteVertex(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mutate(w, http.StatusOK, func(g *graph.Graph) (bool, error) {
		return g.RemoveVertex(key)
	})
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mutate(w, http.StatusCreated, func(g *graph.Graph) (bool, error) {
		return g.InsertEdge(req.Source, req.Target, *req.Weight)
	})
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	source, target := chi.URLParam(r, "source"), chi.URLParam(r, "target")
	s.mutate(w, http.StatusOK, func(g *graph.Graph) (bool, error) {
		return g.RemoveEdge(source, target)
	})
}

// mutate applies fn between steps and recomputes masses. created is the
// status for a mutation that changed the graph; 200 is used otherwise.
func (s *Server) mutate(w http.ResponseWriter, created int, fn func(g *graph.Graph) (bool, error)) {
	var resp mutationResponse
	err := s.driver.Do(func(g *graph.Graph) error {
		changed, err := fn(g)
		if err != nil {
			return err
		}
		if changed {
			g.UpdateMasses()
		}
		resp = mutationResponse{Changed: changed, Vertices: g.Len(), EdgeCount: g.EdgeCount()}
		return nil
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	status := http.StatusOK
	if resp.Changed {
		status = created
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation error: "+validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	logger.Debug("websocket connected")

	// the read side only exists to notice the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()

	send := func(f graph.Frame) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}
	if err := send(s.driver.Frame()); err != nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			logger.Debug("websocket disconnected")
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := send(s.driver.Frame()); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrInvalidArgument):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrStopped):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
