package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/infrastructure/artifact"
	"github.com/bibbank/creditrisk/internal/infrastructure/config"
	"github.com/bibbank/creditrisk/internal/infrastructure/kafka"
	"github.com/bibbank/creditrisk/internal/infrastructure/telemetry"
	grpcpresentation "github.com/bibbank/creditrisk/internal/presentation/grpc"
	"github.com/bibbank/creditrisk/internal/presentation/rest"
	"github.com/bibbank/creditrisk/pkg/auth"
	pkgkafka "github.com/bibbank/creditrisk/pkg/kafka"
	"github.com/bibbank/creditrisk/pkg/middleware"
	"github.com/bibbank/creditrisk/pkg/observability"
)

const serviceName = "credit-risk-service"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("credit-risk-service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting credit-risk-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"model_dir", cfg.Model.Dir,
		"environment", cfg.Environment,
	)

	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName:       serviceName,
		RuntimeCollectors: true,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	recorder, err := telemetry.NewRecorder(meterProvider.Meter("github.com/bibbank/creditrisk"))
	if err != nil {
		return fmt.Errorf("init inference metrics: %w", err)
	}

	// Artifacts load before any listener opens; without them there is
	// nothing to serve.
	store := artifact.NewStore(artifact.Config{
		Dir:              cfg.Model.Dir,
		PreprocessorFile: cfg.Model.PreprocessorFile,
		ModelFile:        cfg.Model.ModelFile,
		ONNXRuntimeLib:   cfg.Model.ONNXRuntimeLib,
		ForceWrapper:     cfg.Model.ForceWrapper,
	}, logger)
	defer func() { _ = store.Close() }()

	artifacts, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	info := artifacts.Info()
	logger.Info("all models loaded successfully",
		"preprocessor", info.PreprocessorPath,
		"classifier", info.ClassifierPath,
		"classifier_kind", info.ClassifierKind,
	)

	var publisher port.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(pkgkafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			ClientID:      cfg.Kafka.ClientID,
			TLS:           cfg.Kafka.TLS,
			SASLEnabled:   cfg.Kafka.SASLMechanism != "",
			SASLMechanism: cfg.Kafka.SASLMechanism,
			SASLUsername:  cfg.Kafka.SASLUsername,
			SASLPassword:  cfg.Kafka.SASLPassword,
		})
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
		async := kafka.NewAsyncPublisher(kafka.NewPublisher(producer, cfg.Kafka.Topic, logger), kafka.AsyncConfig{}, logger)
		defer func() {
			drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer drainCancel()
			_ = async.Close(drainCtx)
		}()
		publisher = async
		logger.Info("decision events enabled", "topic", cfg.Kafka.Topic, "brokers", strings.Join(cfg.Kafka.Brokers, ","))
	}

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return err
	}

	assessUC := usecase.NewAssessApplication(artifacts, publisher, recorder, logger)
	explainUC := usecase.NewExplainApplication()

	// gRPC server.
	grpcHandler := grpcpresentation.NewCreditRiskHandler(assessUC, explainUC, jwtService != nil, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:      cfg.GRPCAddress(),
		JWT:          jwtService,
		CertFile:     cfg.TLS.CertFile,
		KeyFile:      cfg.TLS.KeyFile,
		ClientCAFile: cfg.TLS.ClientCAFile,
		Reflection:   cfg.GRPCReflection,
		Ready:        assessUC.Ready(),
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	cors := middleware.DefaultCORSConfig()
	cors.Origins = cfg.CORSOrigins
	router := rest.NewRouter(rest.NewHandler(assessUC, logger), rest.RouterConfig{
		Metrics:      metricsHandler,
		JWT:          jwtService,
		CORS:         cors,
		RateLimitRPS: cfg.RateLimitRPS,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down credit-risk-service")

		grpcServer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	logger.Info("credit-risk-service started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"auth", jwtService != nil,
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("credit-risk-service stopped")
	return nil
}

// newJWTService returns nil when authentication is disabled.
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if !cfg.Auth.Enabled {
		return nil, nil
	}

	jwtCfg := auth.JWTConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.TokenTTL,
	}
	if cfg.Auth.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.Auth.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = pem
	}

	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return svc, nil
}
