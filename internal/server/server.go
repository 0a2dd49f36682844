// Package server assembles the HTTP server: Connect services, health and
// metrics endpoints, and the static web client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// rpcPathPrefix is shared by every Connect procedure path.
const rpcPathPrefix = "/settleup.v1."

// Deps are the long-lived components the server is built from. Store and
// JWTManager are required; the rest have defaults.
type Deps struct {
	Store         storage.Store
	Guests        *guest.Registry
	JWTManager    *auth.JWTManager
	Authenticator auth.Authenticator
	// Registry receives the server's collectors and backs /metrics.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Server serves the SettleUp API over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	started    time.Time
}

// New wires the services and routes.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Authenticator == nil {
		deps.Authenticator = auth.NewPasswordAuthenticator(deps.Store)
	}
	if deps.Guests == nil {
		deps.Guests = guest.NewRegistry(cfg.GuestTTL, cfg.GuestMaxSessions)
	}

	s := &Server{started: time.Now()}

	var reg prometheus.Registerer
	if deps.Registry != nil {
		reg = deps.Registry
	}
	m := metrics.New(reg, deps.Guests.Len)
	stores := service.NewStores(deps.Store, deps.Guests)
	interceptors := connect.WithInterceptors(
		m.Interceptor(),
		middleware.OptionalAuth(deps.JWTManager),
		middleware.LoggingInterceptor(),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Mount(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(deps.Authenticator, deps.Store, deps.JWTManager, deps.Guests, deps.Logger),
		interceptors,
	))
	r.Mount(apiconnect.NewGroupServiceHandler(service.NewGroupService(stores, m), interceptors))
	r.Mount(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(stores), interceptors))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestLogger)
		r.Get("/health", s.handleHealth)
		if deps.Registry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
		}
		r.Handle("/*", staticHandler(cfg.StaticPath))
	})

	// h2c lets Connect and gRPC clients use HTTP/2 without TLS.
	s.handler = h2c.NewHandler(r, &http2.Server{})
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	slog.Info("Connect server starting", "address", s.httpServer.Addr)
	return ignoreClosed(s.httpServer.ListenAndServe())
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	slog.Info("Connect server starting", "address", l.Addr().String())
	return ignoreClosed(s.httpServer.Serve(l))
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
	if err != nil {
		slog.Warn("Failed to write health response", "error", err)
	}
}

// staticHandler serves the web client from dir. Unknown paths get index.html
// so client-side routes survive a reload.
func staticHandler(dir string) http.Handler {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}
	slog.Info("Serving static files", "path", root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown procedures must not fall through to the web client.
		if strings.HasPrefix(r.URL.Path, rpcPathPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(root, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			http.ServeFile(w, r, filePath)
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
