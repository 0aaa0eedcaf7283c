// Package httpserver exposes the registry operations over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/and161185/goods-ledger/internal/metrics"
	"github.com/and161185/goods-ledger/internal/model"
	"github.com/and161185/goods-ledger/internal/service"
)

// Config holds listener and lifecycle settings.
type Config struct {
	ListenAddr  string
	MetricsAddr string // empty disables the metrics listener

	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration

	// RequireAuth guards manufacturer, factory and product writes with a bearer token
	// and checks that the caller owns the account, manufacturer or product written to.
	RequireAuth bool
	// CORSOrigins restricts cross-origin callers; empty allows any origin.
	CORSOrigins []string
	// ReadinessCheck, when set, must succeed for /readyz to report ready.
	ReadinessCheck func(context.Context) error
}

// TokenVerifier returns the subject of a valid token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Server serves the registry API and the operational endpoints.
type Server struct {
	cfg     Config
	isReady atomic.Bool
	log     *zap.Logger
	reg     *service.Registry
	tokens  TokenVerifier
	metrics *metrics.Metrics

	srv        *http.Server
	metricsSrv *http.Server
}

// New builds the server. gatherer backs the /metrics endpoint.
func New(cfg Config, reg *service.Registry, tokens TokenVerifier, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	s := &Server{cfg: cfg, log: log, reg: reg, tokens: tokens, metrics: m}
	s.isReady.Store(true)

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.MetricsAddr != "" {
		mux := chi.NewRouter()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		s.metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, s.recoverer, s.accessLog)
	mux.Use(s.corsHandler().Handler)

	mux.Get("/livez", s.handleLivez)
	mux.Get("/readyz", s.handleReadyz)
	mux.Get("/drain", s.handleDrain)
	mux.Get("/undrain", s.handleUndrain)

	mux.Post("/loginAccount", s.handleLogin)
	mux.Post("/registerAccount", handle(s, s.reg.RegisterAccount))
	mux.Post("/updateAccount", handle(s, s.reg.UpdateAccount))
	mux.Post("/updateAccountToken", handle(s, s.reg.UpdateAccountToken))

	mux.Group(func(r chi.Router) {
		if s.cfg.RequireAuth {
			r.Use(s.requireBearer)
		}
		r.Post("/addManufacturer", guarded(s, s.reg.AddManufacturer,
			func(_ context.Context, caller string, in model.ManufacturerInput) error {
				return service.AccountIs(caller, in.AccountID)
			}))
		r.Post("/updateManufacturer", guarded(s, s.reg.UpdateManufacturer,
			func(ctx context.Context, caller string, in model.ManufacturerUpdate) error {
				return s.reg.ManufacturerOwnedBy(ctx, caller, in.Key)
			}))
		r.Post("/addFactory", guarded(s, s.reg.AddFactory,
			func(ctx context.Context, caller string, in model.FactoryInput) error {
				return s.reg.ManufacturerOwnedBy(ctx, caller, in.ManufacturerID)
			}))
		// the ledger has no lookup by factory key, so only the token is checked
		r.Post("/updateFactory", handle(s, s.reg.UpdateFactory))
		r.Post("/addProduct", guarded(s, s.reg.AddProduct,
			func(ctx context.Context, caller string, in model.ProductInput) error {
				return s.reg.ManufacturerOwnedBy(ctx, caller, in.ManufacturerID)
			}))
		r.Post("/updateProductOwner", guarded(s, s.reg.UpdateProductOwner,
			func(ctx context.Context, caller string, in model.ProductOwnerUpdate) error {
				return s.reg.ProductOwnedBy(ctx, caller, in.Key)
			}))
		r.Post("/updateProduct", guarded(s, s.reg.UpdateProduct,
			func(ctx context.Context, caller string, in model.ProductUpdate) error {
				return s.reg.ProductOwnedBy(ctx, caller, in.Key)
			}))
	})

	mux.Post("/queryAccountbyToken", lookup(s, "accountToken", s.reg.AccountByToken))
	mux.Post("/queryAccountbyEmail", lookup(s, "accountEmail", s.reg.AccountByEmail))
	mux.Post("/queryAccountbyUsername", lookup(s, "accountUsername", s.reg.AccountByUsername))
	mux.Post("/queryManufacturerbyAccountID", lookup(s, "manufacturerAccountID", s.reg.ManufacturerByAccountID))
	mux.Post("/queryManufacturerbyTradeLicenceID", lookup(s, "manufacturerTradeLicenceID", s.reg.ManufacturerByTradeLicenceID))
	mux.Post("/queryFactorybyManufacturerID", lookup(s, "factoryManufacturerID", s.reg.FactoriesByManufacturerID))
	mux.Post("/queryFactorybyID", lookup(s, "factoryID", s.reg.FactoriesByID))
	mux.Post("/queryProductbyID", lookup(s, "productID", s.reg.ProductsByID))
	mux.Post("/queryProductbyCode", lookup(s, "productCode", s.reg.ProductsByCode))
	mux.Post("/queryProductbyOwnerAccountID", lookup(s, "productOwnerAccountID", s.reg.ProductsByOwnerAccountID))
	mux.Post("/queryProductbyManufacturerID", lookup(s, "productManufacturerID", s.reg.ProductsByManufacturerID))
	mux.Post("/queryProductbyFactoryID", lookup(s, "productFactoryID", s.reg.ProductsByFactoryID))

	return mux
}

func (s *Server) corsHandler() *cors.Cors {
	if len(s.cfg.CORSOrigins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}

func (s *Server) handleLivez(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	if s.cfg.ReadinessCheck != nil {
		if err := s.cfg.ReadinessCheck(r.Context()); err != nil {
			s.log.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDrain(w http.ResponseWriter, _ *http.Request) {
	if !s.isReady.Swap(false) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already draining"})
		return
	}
	s.log.Info("marked not ready", zap.Duration("drain", s.cfg.DrainDuration))
	writeJSON(w, http.StatusOK, map[string]string{"status": "draining"})
}

func (s *Server) handleUndrain(w http.ResponseWriter, _ *http.Request) {
	if s.isReady.Swap(true) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already ready"})
		return
	}
	s.log.Info("marked ready")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Run serves until ctx is done, then drains and shuts both listeners down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	serve := func(name string, srv *http.Server) {
		s.log.Info("listening", zap.String("server", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}
	go serve("api", s.srv)
	if s.metricsSrv != nil {
		go serve("metrics", s.metricsSrv)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.shutdown()
		return err
	}

	s.isReady.Store(false)
	if s.cfg.DrainDuration > 0 {
		s.log.Info("draining", zap.Duration("for", s.cfg.DrainDuration))
		time.Sleep(s.cfg.DrainDuration)
	}
	s.shutdown()
	return nil
}

func (s *Server) shutdown() {
	for name, srv := range map[string]*http.Server{"api": s.srv, "metrics": s.metricsSrv} {
		if srv == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error("graceful shutdown failed", zap.String("server", name), zap.Error(err))
			_ = srv.Close()
		} else {
			s.log.Info("stopped", zap.String("server", name))
		}
		cancel()
	}
}
