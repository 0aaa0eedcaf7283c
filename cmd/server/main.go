// Command goods-ledger-gateway serves the supply-chain registry over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/limiter"
	"github.com/and161185/goods-ledger/internal/metrics"
	"github.com/and161185/goods-ledger/internal/migrate"
	"github.com/and161185/goods-ledger/internal/repository"
	"github.com/and161185/goods-ledger/internal/repository/memory"
	"github.com/and161185/goods-ledger/internal/repository/postgres"
	httpserver "github.com/and161185/goods-ledger/internal/server/http"
	"github.com/and161185/goods-ledger/internal/service"
	"github.com/and161185/goods-ledger/internal/tracing"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func defaultListenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":3050"
}

var flags = []cli.Flag{
	&cli.StringFlag{Name: "listen-addr", EnvVars: []string{"LISTEN_ADDR"}, Value: defaultListenAddr(), Usage: "address to listen on for the API"},
	&cli.StringFlag{Name: "metrics-addr", EnvVars: []string{"METRICS_ADDR"}, Value: "127.0.0.1:9090", Usage: "address for Prometheus metrics; empty disables"},
	&cli.StringFlag{Name: "token-secret", EnvVars: []string{"TOKEN_SECRET"}, Usage: "HS256 signing secret (required)"},
	&cli.DurationFlag{Name: "token-ttl", EnvVars: []string{"TOKEN_TTL"}, Usage: "token lifetime; 0 issues tokens without expiry"},
	&cli.StringFlag{Name: "ledger", EnvVars: []string{"LEDGER"}, Value: "fabric", Usage: "ledger backend: 'fabric' (chaincode must match the ledger.Ledger contract) or 'memory'"},

	&cli.StringFlag{Name: "peer-endpoint", EnvVars: []string{"PEER_ENDPOINT"}, Value: "localhost:7051", Usage: "gateway peer host:port"},
	&cli.StringFlag{Name: "gateway-peer", EnvVars: []string{"GATEWAY_PEER"}, Value: "peer0.org1.example.com", Usage: "TLS server name of the gateway peer"},
	&cli.StringFlag{Name: "tls-cert", EnvVars: []string{"TLS_CERT_PATH"}, Usage: "peer TLS CA certificate (PEM)"},
	&cli.StringFlag{Name: "cert-path", EnvVars: []string{"CERT_PATH"}, Usage: "client signing certificate (PEM)"},
	&cli.StringFlag{Name: "key-dir", EnvVars: []string{"KEY_DIRECTORY_PATH"}, Usage: "directory holding the client private key"},
	&cli.StringFlag{Name: "msp-id", EnvVars: []string{"MSP_ID"}, Value: "Org1MSP", Usage: "client MSP id"},
	&cli.StringFlag{Name: "channel", EnvVars: []string{"CHANNEL_NAME"}, Value: "mychannel", Usage: "ledger channel"},
	&cli.StringFlag{Name: "chaincode", EnvVars: []string{"CHAINCODE_NAME"}, Value: "goods-ledger", Usage: "chaincode name"},

	&cli.StringFlag{Name: "dsn", EnvVars: []string{"DATABASE_DSN"}, Usage: "PostgreSQL DSN for claims and the login limiter; empty keeps them in memory"},
	&cli.DurationFlag{Name: "login-window", Value: limiter.DefaultPolicy.Window, Usage: "failed login counting window"},
	&cli.IntFlag{Name: "login-max-fails", Value: limiter.DefaultPolicy.MaxFails, Usage: "failures within the window before a block"},
	&cli.DurationFlag{Name: "login-block", Value: limiter.DefaultPolicy.BlockFor, Usage: "block duration"},

	&cli.BoolFlag{Name: "require-auth", EnvVars: []string{"REQUIRE_AUTH"}, Usage: "require a bearer token on manufacturer, factory and product writes"},
	&cli.StringSliceFlag{Name: "cors-origin", EnvVars: []string{"CORS_ORIGINS"}, Usage: "allowed CORS origins; empty allows any"},
	&cli.BoolFlag{Name: "log-debug", EnvVars: []string{"LOG_DEBUG"}, Usage: "log debug messages in development format"},
	&cli.StringFlag{Name: "trace-exporter", EnvVars: []string{"TRACE_EXPORTER"}, Value: "none", Usage: "span exporter: none, stdout or otlp"},
	&cli.StringFlag{Name: "otlp-endpoint", EnvVars: []string{"OTLP_ENDPOINT"}, Usage: "OTLP gRPC collector endpoint"},
	&cli.Int64Flag{Name: "drain-seconds", Value: 0, Usage: "seconds to stay unready before shutting down"},
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:   "goods-ledger-gateway",
		Usage:  "Serve the supply-chain registry API on top of the ledger",
		Flags:  flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cCtx *cli.Context) error {
	logger, err := newLogger(cCtx.Bool("log-debug"))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("ledger", cCtx.String("ledger")),
	)

	tokens, err := pkgcrypto.NewTokens([]byte(cCtx.String("token-secret")), cCtx.Duration("token-ttl"))
	if err != nil {
		return fmt.Errorf("--token-secret: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Exporter:     cCtx.String("trace-exporter"),
		OTLPEndpoint: cCtx.String("otlp-endpoint"),
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	base, closeLedger, err := openLedger(cCtx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			logger.Warn("close ledger", zap.Error(err))
		}
	}()
	l := ledger.NewInstrumented(base, m, tp.Tracer(), logger)

	policy := limiter.Policy{
		Window:   cCtx.Duration("login-window"),
		MaxFails: cCtx.Int("login-max-fails"),
		BlockFor: cCtx.Duration("login-block"),
	}
	st, err := openStores(ctx, cCtx.String("dsn"), policy, logger)
	if err != nil {
		return err
	}
	defer st.close()

	reg := service.NewRegistry(l, st.claims, tokens, st.lim, m, logger)
	srv := httpserver.New(httpserver.Config{
		ListenAddr:               cCtx.String("listen-addr"),
		MetricsAddr:              cCtx.String("metrics-addr"),
		DrainDuration:            time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             90 * time.Second,
		RequireAuth:              cCtx.Bool("require-auth"),
		CORSOrigins:              cCtx.StringSlice("cors-origin"),
		ReadinessCheck:           st.ping,
	}, reg, tokens, m, promReg, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func openLedger(cCtx *cli.Context) (ledger.Ledger, func() error, error) {
	switch kind := cCtx.String("ledger"); kind {
	case "memory":
		return ledger.NewMemory(), func() error { return nil }, nil
	case "fabric":
		f, closer, err := ledger.Dial(ledger.FabricConfig{
			PeerEndpoint: cCtx.String("peer-endpoint"),
			GatewayPeer:  cCtx.String("gateway-peer"),
			TLSCertPath:  cCtx.String("tls-cert"),
			CertPath:     cCtx.String("cert-path"),
			KeyDir:       cCtx.String("key-dir"),
			MSPID:        cCtx.String("msp-id"),
			Channel:      cCtx.String("channel"),
			Chaincode:    cCtx.String("chaincode"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("fabric gateway: %w", err)
		}
		return f, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown --ledger %q", kind)
	}
}

// stores are the off-ledger backends: uniqueness claims and the login limiter.
type stores struct {
	claims repository.ClaimRepository
	lim    limiter.Limiter
	ping   func(context.Context) error
	close  func()
}

// openStores picks PostgreSQL-backed claims and limiter when dsn is set.
func openStores(ctx context.Context, dsn string, p limiter.Policy, logger *zap.Logger) (stores, error) {
	if dsn == "" {
		logger.Warn("no --dsn: uniqueness claims and login limits are process-local")
		return stores{claims: memory.NewClaims(), lim: limiter.NewMemory(p), close: func() {}}, nil
	}
	if err := migrate.Up(ctx, dsn); err != nil {
		return stores{}, fmt.Errorf("migrate up: %w", err)
	}
	db, pool, err := postgres.New(ctx, dsn)
	if err != nil {
		return stores{}, err
	}
	return stores{
		claims: postgres.NewClaimRepo(db),
		lim:    limiter.NewPG(pool, p),
		ping:   db.Ping,
		close:  db.Close,
	}, nil
}
