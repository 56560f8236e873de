package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xela07ax/ovcare-portal/internal/alerts"
	"github.com/xela07ax/ovcare-portal/internal/audit"
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/infra/auth"
	"github.com/xela07ax/ovcare-portal/internal/mlclient"
	"github.com/xela07ax/ovcare-portal/internal/portal/handler"
	"github.com/xela07ax/ovcare-portal/internal/portal/server"
	"github.com/xela07ax/ovcare-portal/internal/portal/service"
	"github.com/xela07ax/ovcare-portal/internal/repository/postgres"
	"github.com/xela07ax/ovcare-portal/internal/risk"
	"github.com/xela07ax/ovcare-portal/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Контекст жизненного цикла: SIGINT/SIGTERM останавливает слушателей и серверы
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Инфраструктура: Postgres и Redis
	startCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(startCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	repo := postgres.NewPortalRepo(pool)
	if err := repo.Ping(startCtx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(startCtx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	// 3. Метрики на отдельном порту
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	// 4. Ключи RS256
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return err
	}
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		return err
	}

	// 5. ML-сервис: реальный клиент под предохранителем, mock или выключен
	var predictor risk.Predictor
	switch {
	case cfg.ML.Mock:
		logger.Warn("ML service mocked")
		predictor = mlclient.MockPredictor{}
	case cfg.ML.BaseURL != "":
		client := mlclient.NewClient(cfg.ML.BaseURL, cfg.ML.ConnectTimeout, cfg.ML.Timeout)
		predictor = mlclient.NewReliabilityWrapper(client, cfg.ML, metrics, logger)
	default:
		logger.Warn("ML service disabled: risk falls back to heuristic")
	}

	// 6. Журнал доступа к медданным
	trail := audit.NewTrail(repo, cfg.Audit, metrics, logger)
	trail.Start()
	defer trail.Stop()

	// 7. Сервисный слой (Dependency Injection)
	sessions := session.NewRedisStore(rdb, cfg.Auth.SessionTimeout)
	resolver := risk.NewResolver(repo, predictor, cfg.Risk.HistoryWindow, logger)
	riskSvc := service.NewRiskService(resolver, repo, rdb, cfg.Risk, metrics, logger)
	biomarkerSvc := service.NewBiomarkerService(repo, riskSvc, rdb, logger)
	authSvc := service.NewAuthService(repo, sessions, privKey, cfg.Auth, logger)
	patientSvc := service.NewPatientService(repo, riskSvc, biomarkerSvc, predictor, logger)
	doctorSvc := service.NewDoctorService(repo, riskSvc, biomarkerSvc, trail, logger)

	// 8. Уведомления о высоком риске
	notifier := alerts.NewNotifier(repo, logger)
	go notifier.Run(appCtx, rdb)

	// 9. HTTP API
	portal := server.NewPortalServer(cfg, logger, metrics,
		auth.NewBaseValidator(pubKey), sessions,
		handler.NewAuthHandler(authSvc, cfg.Auth, logger),
		handler.NewPatientHandler(patientSvc, logger),
		handler.NewDoctorHandler(doctorSvc, logger),
		repo, redisPinger{rdb},
	)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      portal,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. gRPC health (для балансировщика/k8s)
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	go watchReadiness(appCtx, healthSrv, logger, repo, redisPinger{rdb})

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen gRPC: %w", err)
	}
	go func() {
		logger.Info("gRPC health server started", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("portal API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	// 11. Graceful Shutdown
	select {
	case <-appCtx.Done():
	case err := <-srvErr:
		logger.Error("listen failed", zap.Error(err))
	}
	logger.Info("portal stopping...")
	healthSrv.Shutdown()

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()

	logger.Info("portal exited properly")
	return nil
}

type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// watchReadiness переключает статус gRPC health по доступности БД и Redis
func watchReadiness(ctx context.Context, hs *health.Server, logger *zap.Logger, deps ...server.HealthChecker) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		for _, d := range deps {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := d.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				status = healthpb.HealthCheckResponse_NOT_SERVING
				break
			}
		}
		hs.SetServingStatus("", status)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
