package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/cashledger/internal/adapter/http"
	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/cashledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/cashledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashledger/internal/adapter/repository/redis"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/config"
	"github.com/iho/cashledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cashledger/internal/infrastructure/logger"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/infrastructure/redis"
	"github.com/iho/cashledger/internal/usecase"
)

const eventStream = "cashledger:events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.SetDefault(l)

	if err := run(cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server failed")
	}
}

// storage bundles the repositories of one storage driver.
type storage struct {
	txManager usecase.TransactionManager
	outbox    usecase.OutboxRepository
	balances  usecase.BalanceRepository
	cashBook  usecase.CashBookRepository
	ledger    usecase.LedgerRepository
	petty     usecase.PettyCashRepository
	salaries  usecase.SalaryRepository
	employees usecase.EmployeeDirectory
	overtime  usecase.OvertimeSource
	revenue   usecase.RevenueSource
	retrier   usecase.Retrier
	ping      handler.Pinger
	close     func()
}

func newMemoryStorage() *storage {
	store := memoryRepo.NewStore()
	hr := memoryRepo.NewHRDirectory()

	return &storage{
		txManager: store,
		outbox:    memoryRepo.NewOutboxRepository(store),
		balances:  memoryRepo.NewBalanceRepository(store),
		cashBook:  memoryRepo.NewCashBookRepository(store),
		ledger:    memoryRepo.NewLedgerRepository(store),
		petty:     memoryRepo.NewPettyCashRepository(store),
		salaries:  memoryRepo.NewSalaryRepository(store),
		employees: hr,
		overtime:  hr,
		revenue:   memoryRepo.NewOrderBook(),
		close:     func() {},
	}
}

func newPostgresStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*storage, error) {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if m != nil {
		m.RegisterPool(pool)
	}

	var outbox usecase.OutboxRepository = postgresRepo.NewNullOutboxRepository()
	if cfg.OutboxEnabled {
		outbox = postgresRepo.NewOutboxRepository(pool)
	}
	hr := postgresRepo.NewHRDirectory(pool)

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		outbox:    outbox,
		balances:  postgresRepo.NewBalanceRepository(pool),
		cashBook:  postgresRepo.NewCashBookRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		petty:     postgresRepo.NewPettyCashRepository(pool),
		salaries:  postgresRepo.NewSalaryRepository(pool),
		employees: hr,
		overtime:  hr,
		revenue:   postgresRepo.NewOrderRevenue(pool),
		retrier:   postgresRepo.NewRetrier().WithMaxRetries(cfg.TxMaxRetries),
		ping:      pool,
		close:     pool.Close,
	}, nil
}

// app holds the wired use cases.
type app struct {
	clock    usecase.Clock
	cashBook *usecase.CashBookUseCase
	petty    *usecase.PettyCashUseCase
	payroll  *usecase.PayrollUseCase
	reports  *usecase.ReconciliationUseCase
	ledger   *usecase.LedgerUseCase
	journal  *usecase.LedgerJournal
	balances *usecase.BalanceStore
}

func newApp(s *storage, clock usecase.Clock, policy domain.PayrollPolicy, opts ...usecase.UnitOfWorkOption) *app {
	opts = append([]usecase.UnitOfWorkOption{usecase.WithClock(clock)}, opts...)
	if s.retrier != nil {
		opts = append(opts, usecase.WithRetrier(s.retrier))
	}

	uow := usecase.NewUnitOfWork(s.txManager, s.outbox, postgresRepo.NewULIDGenerator(), opts...)
	balances := usecase.NewBalanceStore(uow, s.balances)
	journal := usecase.NewLedgerJournal(uow, s.ledger)
	cashBook := usecase.NewCashBookUseCase(uow, balances, journal, s.cashBook)

	return &app{
		clock:    clock,
		cashBook: cashBook,
		petty:    usecase.NewPettyCashUseCase(uow, balances, cashBook, s.petty),
		payroll:  usecase.NewPayrollUseCase(uow, cashBook, s.salaries, s.employees, s.overtime, policy),
		reports:  usecase.NewReconciliationUseCase(clock, s.balances, s.cashBook, s.ledger, s.petty, s.salaries, s.revenue),
		ledger:   usecase.NewLedgerUseCase(s.balances, s.cashBook, s.ledger, s.petty),
		journal:  journal,
		balances: balances,
	}
}

func run(cfg *config.Config, l zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := usecase.NewSystemClock(loc)

	policy, err := config.LoadPayrollPolicy(cfg.PayrollPolicyFile)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var s *storage
	switch cfg.StorageDriver {
	case config.StorageMemory:
		s = newMemoryStorage()
		l.Warn().Msg("using in-memory storage; data is lost on restart")
	default:
		s, err = newPostgresStorage(ctx, cfg, m)
		if err != nil {
			return err
		}
		l.Info().Msg("connected to postgres")
	}
	defer s.close()

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		l.Info().Msg("connected to redis")
	}

	a := newApp(s, clock, policy, usecase.WithMetrics(m))

	routerCfg := httpAdapter.RouterConfig{
		CashBookHandler:  handler.NewCashBookHandler(a.cashBook, clock),
		PettyCashHandler: handler.NewPettyCashHandler(a.petty, clock),
		PayrollHandler:   handler.NewPayrollHandler(a.payroll, clock),
		ReportHandler:    handler.NewReportHandler(a.reports, clock),
		LedgerHandler:    handler.NewLedgerHandler(a.journal, a.ledger, a.balances, clock),
		HealthHandler:    handler.NewHealthHandler(s.ping, nil),
		MetricsHandler:   promhttp.Handler(),
		Logger:           l,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
	}

	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(l)
	if redisClient != nil {
		a.reports.WithCache(redisRepo.NewCache(redisClient), cfg.ReportCacheTTL)
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		routerCfg.IdempotencyTTL = cfg.IdempotencyTTL
		routerCfg.HealthHandler = handler.NewHealthHandler(s.ping, handler.PingerFunc(redis.Ping(redisClient)))
		publisher = eventpublisher.MultiPublisher{
			publisher,
			eventpublisher.NewStreamPublisher(redisClient, eventStream, 10000),
		}
	}

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.RunCleanup(ctx, time.Minute)
		routerCfg.RateLimiter = limiter
	}

	if cfg.OutboxEnabled {
		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: s.outbox,
			Publisher:  publisher,
			Recorder:   m,
			Logger:     l,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := ep.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				l.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", server.Addr).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	l.Info().Msg("server stopped")
	return nil
}

func listenAddr(port string) string {
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
