package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garittea/internal/config"
	"garittea/internal/infra"
	"garittea/internal/query"
	"garittea/internal/router"
	"garittea/internal/service"
	"garittea/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	var rdb *redis.Client
	if cfg.UsesRedis() {
		if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	}

	tokens := infra.TokenStore(infra.NewFileTokenStore(cfg.TokenPath))
	if cfg.TokenStore == "redis" {
		tokens = infra.NewRedisTokenStore(rdb, cfg.TokenRedisKey)
	}

	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      time.Duration(cfg.BreakerOpenSeconds) * time.Second,
	})
	gw := infra.NewClient(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSeconds)*time.Second, tokens, infra.WithBreaker(breaker))
	cache := query.New(time.Duration(cfg.QueryTTLSeconds) * time.Second)

	sesion := service.NewSesion(gw, tokens, cache)
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if a := sesion.Restaurar(restoreCtx); a.Autenticado() {
		log.Info().Str("usuario", a.Usuario.Email).Msg("sesion restaurada, los clientes web deben iniciar sesion de nuevo")
	} else {
		log.Info().Str("motivo", a.Motivo).Msg("sin sesion activa")
	}
	restoreCancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := router.Deps{
		Gateway: gw,
		Breaker: breaker,
		Tokens:  tokens,
		Cache:   cache,
		Sesion:  sesion,
	}
	// An unconfigured mailer leaves Notificador nil so report mailing answers 503.
	mailer := infra.NewMailer(cfg)
	switch {
	case !mailer.Configured():
		log.Warn().Msg("SMTP_HOST vacio: envio de reportes deshabilitado")
	case cfg.MailQueue == "redis":
		dispatcher := worker.NewDispatcher(rdb)
		worker.StartWorkerPool(ctx, rdb, &worker.Handlers{
			Reportes:    worker.NewEmailWorker(mailer),
			MaxIntentos: cfg.MailMaxAttempts,
		}, cfg.WorkerPoolSize)
		deps.Notificador = dispatcher
		deps.Cola = dispatcher
	default:
		deps.Notificador = mailer
	}

	r := router.New(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.APITimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("backend", cfg.APIBaseURL).Msgf("garittea listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev is pretty, prod is JSON.
func setupLogger(cfg *config.Config) {
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
