package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"garittea/internal/config"
	"garittea/internal/infra"
	"garittea/internal/query"
	"garittea/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := config.Load()
	errAndDie(err)
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli, err := newCommandLine(ctx, cfg)
	errAndDie(err)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", mensaje(err))
		}
		stop()
		os.Exit(1)
	}
}

// newCommandLine builds the same service graph as the server, without the HTTP
// surface, and restores the persisted session.
func newCommandLine(ctx context.Context, cfg *config.Config) (*commandLine, error) {
	tokens := infra.TokenStore(infra.NewFileTokenStore(cfg.TokenPath))
	if cfg.TokenStore == "redis" {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		tokens = infra.NewRedisTokenStore(rdb, cfg.TokenRedisKey)
	}

	gw := infra.NewClient(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSeconds)*time.Second, tokens)
	// one-shot process: no TTL needed
	cache := query.New(0)
	sesion := service.NewSesion(gw, tokens, cache)
	sesion.Restaurar(ctx)

	var notificador service.Notificador
	if mailer := infra.NewMailer(cfg); mailer.Configured() {
		notificador = mailer
	}

	facturas := service.NewFacturaService(gw, cache)
	creditos := service.NewCreditoService(gw, cache, sesion)
	dashboard := service.NewDashboardService(gw, cache)
	return &commandLine{
		sesion:   sesion,
		creditos: creditos,
		ciclo:    service.NewCicloCreditoService(creditos, facturas),
		masivas: service.NewNotasMasivasService(facturas, infra.ColumnReadOptions{
			Column:     cfg.BulkColumn,
			HeaderRows: cfg.BulkHeaderRows,
			Sheet:      cfg.BulkSheet,
		}),
		reportes: service.NewReporteService(dashboard, notificador, cfg.ReportStoragePath),
		out:      os.Stdout,
		stdinFD:  int(os.Stdin.Fd()),
	}, nil
}

// mensaje prefers the user-facing text; unclassified errors (flags, files) keep their own.
func mensaje(err error) string {
	if m := service.MensajeUsuario(err); m != service.MensajeInesperado {
		return m
	}
	return err.Error()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("garittea")
	}
}
