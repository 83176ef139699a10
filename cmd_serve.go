package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	accountsapp "smartpark-iot/internal/accounts/application"
	accounts "smartpark-iot/internal/accounts/domain"
	accountsmemory "smartpark-iot/internal/accounts/infrastructure/memory"
	accountspostgres "smartpark-iot/internal/accounts/infrastructure/postgres"
	accountshttp "smartpark-iot/internal/accounts/interfaces/http"
	"smartpark-iot/internal/audit"
	"smartpark-iot/internal/auth"
	billingapp "smartpark-iot/internal/billing/application"
	billing "smartpark-iot/internal/billing/domain"
	billingmemory "smartpark-iot/internal/billing/infrastructure/memory"
	billingpostgres "smartpark-iot/internal/billing/infrastructure/postgres"
	billinghttp "smartpark-iot/internal/billing/interfaces/http"
	"smartpark-iot/internal/eventbus"
	"smartpark-iot/internal/observability/metrics"
	parkingapp "smartpark-iot/internal/parking/application"
	parking "smartpark-iot/internal/parking/domain"
	parkinghttp "smartpark-iot/internal/parking/interfaces/http"
	"smartpark-iot/internal/platform/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SmartPark HTTP server",
	Long:  `Start the HTTP server, the simulation session and the live update streams.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics.Init()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	go app.hub.Run(ctx)
	if cfg.Simulation.Autostart {
		app.session.Start(ctx)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Println("shutdown signal received")
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	app.session.Stop()
	logger.Println("server stopped")
	return nil
}

type app struct {
	handler http.Handler
	session *parkingapp.Session
	hub     *parkinghttp.Hub
	db      *sql.DB
}

func (a *app) close() {
	if a.session != nil {
		a.session.Stop()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// newApp wires repositories, the parking session and the HTTP surface. The
// caller runs the hub and starts the session.
func newApp(ctx context.Context, cfg config, logger *log.Logger) (*app, error) {
	var (
		db           *sql.DB
		userRepo     accounts.Repository
		reservations billing.Repository
		auditLogger  audit.Logger
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		userRepo = accountspostgres.NewUserRepository(db)
		reservations = billingpostgres.NewReservationRepository(db)
		auditLogger = audit.NewRepository(db)
		logger.Println("storage: postgres")
	} else {
		var seed []billing.Reservation
		if cfg.SeedDemoReservations {
			seed = billing.DemoReservations(time.Now().UTC())
		}
		userRepo = accountsmemory.NewUserRepository()
		reservations = billingmemory.NewReservationRepository(seed...)
		logAudit, err := audit.NewLogLogger(logger)
		if err != nil {
			return nil, err
		}
		auditLogger = logAudit
		logger.Printf("storage: memory (demo reservations=%d)", len(seed))
	}

	fail := func(err error) (*app, error) {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	session, err := newSession(cfg.Simulation, eventbus.NewInMemoryBus(), logger)
	if err != nil {
		return fail(err)
	}

	hub, err := parkinghttp.NewHub(logger)
	if err != nil {
		return fail(err)
	}
	broker := parkinghttp.NewSSEBroker()
	parkinghttp.BindLive(session.bus, broker, hub)

	parkingHandler, err := parkinghttp.NewHandler(session.Session, auditLogger, logger)
	if err != nil {
		return fail(err)
	}

	accountService, err := accountsapp.NewService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return fail(err)
	}
	accountHandler, err := accountshttp.NewHandler(accountService, logger)
	if err != nil {
		return fail(err)
	}

	payments, err := billingapp.NewPaymentService(reservations, session.Session, cfg.Pricing.PerHour, logger)
	if err != nil {
		return fail(err)
	}
	reports, err := billingapp.NewReportService(reservations)
	if err != nil {
		return fail(err)
	}
	billingHandler, err := billinghttp.NewHandler(payments, reports, logger)
	if err != nil {
		return fail(err)
	}

	router := mux.NewRouter()
	parkingHandler.Register(router)
	accountHandler.Register(router)
	billingHandler.Register(router)
	router.Handle("/api/v1/stream", parkinghttp.NewStreamHandler(broker)).Methods(http.MethodGet)
	router.Handle("/api/v1/ws", hub).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy, cfg.AuthEnforce)

	return &app{
		handler: loggingMiddleware(authMiddleware.Wrap(router), logger),
		session: session.Session,
		hub:     hub,
		db:      db,
	}, nil
}

type boundSession struct {
	*parkingapp.Session
	bus *eventbus.InMemoryBus
}

func newSession(cfg simulationConfig, bus *eventbus.InMemoryBus, logger *log.Logger) (boundSession, error) {
	registry, err := parking.NewRegistry(cfg.Slots, parkingapp.NewRandom(cfg.Seed), time.Now().UTC())
	if err != nil {
		return boundSession{}, fmt.Errorf("parking registry: %w", err)
	}
	simSeed := cfg.Seed
	if simSeed != 0 {
		simSeed++
	}
	sim, err := parkingapp.NewSimulator(parkingapp.NewRandom(simSeed), parkingapp.SimulatorConfig{
		PicksPerTick:    cfg.PicksPerTick,
		FlipProbability: cfg.FlipProbability,
	})
	if err != nil {
		return boundSession{}, err
	}
	session, err := parkingapp.NewSession(registry, sim, bus, logger,
		parkingapp.WithInterval(cfg.Interval),
		parkingapp.WithEnvironment(cfg.initialEnvironment()),
	)
	if err != nil {
		return boundSession{}, err
	}
	return boundSession{Session: session, bus: bus}, nil
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the SSE stream working behind the logger.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack lets the WebSocket upgrade take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("http: response does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
