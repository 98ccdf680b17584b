package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/storefront-kit/authcore/config"
	"github.com/storefront-kit/authcore/handlers"
	"github.com/storefront-kit/authcore/internal/auth"
	"github.com/storefront-kit/authcore/internal/email"
	"github.com/storefront-kit/authcore/internal/store"
	"github.com/storefront-kit/authcore/internal/token"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "authcore"

func main() {
	var conf config.Config
	if err := envconfig.Process("", &conf); err != nil {
		panic("Failed to load environment variables:" + err.Error())
	}
	conf.DatabaseURI = strings.Trim(conf.DatabaseURI, "'")
	if !strings.HasPrefix(conf.ServerPort, ":") {
		conf.ServerPort = ":" + conf.ServerPort
	}

	logger, err := setupLogger(conf.SentryDSN)
	if err != nil {
		panic("Failed to set up logger:" + err.Error())
	}
	defer logger.Sync()

	startService(&conf, logger)
}

func setupLogger(sentryDSN string) (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	logger = logger.Named(serviceName)

	if sentryDSN == "" {
		return logger, nil
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
		return nil, err
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
	}, zapsentry.NewSentryClientFromDSN(sentryDSN))
	if err != nil {
		return nil, err
	}

	return zapsentry.AttachCoreToLogger(core, logger), nil
}

func startService(conf *config.Config, logger *zap.Logger) {
	logger.Info("Starting", zap.String("service", serviceName), zap.String("env", os.Getenv("ENV")))

	psqlConn, err := connectPostgres(conf.DatabaseURI)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	postgresStore := store.NewPostgresStore(psqlConn)

	tp, shutdown := newTracerProvider(serviceName, conf.OTLPEndpoint, logger)
	defer shutdown()

	sender, err := email.NewSender(&email.SMTPConfig{
		Host:        conf.SMTP.Host,
		Port:        conf.SMTP.Port,
		Username:    conf.SMTP.Username,
		Password:    conf.SMTP.Password,
		FromAddress: conf.SMTP.FromAddress,
		FromName:    conf.SMTP.FromName,
	})
	if err != nil {
		logger.Fatal("Failed to set up email sender", zap.Error(err))
	}

	issuer := token.NewIssuer([]byte(conf.JWT.Secret), conf.JWT.TTL)
	authService := auth.NewAuthService(postgresStore, logger, sender, conf.Reset.CodeTTL)

	srv := &handlers.Service{
		ServiceName:    serviceName,
		Config:         conf,
		Logger:         logger,
		TracerProvider: tp,
		AuthService:    authService,
		TokenIssuer:    issuer,
	}

	router, err := handlers.SetupRouter(srv)
	if err != nil {
		logger.Panic("Failed to setup router", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		errCh <- listenAndServe(ctx, router, conf.ServerPort, logger)
	}()

	err = <-errCh
	if err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}
}

func listenAndServe(ctx context.Context, router *gin.Engine, serverPort string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:    serverPort,
		Handler: router,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		logger.Info("Listening on address", zap.String("port", serverPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")

		ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutDown); err != nil {
			return err
		}

		return nil
	case err := <-serverErrCh:
		return err
	}
}
