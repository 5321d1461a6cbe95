package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"garittea/internal/dto"
	"garittea/internal/infra"

	"github.com/rs/zerolog/log"
)

// Notificador delivers a generated report file. *infra.Mailer satisfies it.
type Notificador interface {
	SendReport(to, subject, body, pdfPath string) error
}

var _ Notificador = (*infra.Mailer)(nil)

// ErrCorreoNoConfigurado is returned by Enviar when no SMTP host is configured.
var ErrCorreoNoConfigurado = errors.New("el envio de reportes por correo no esta configurado")

// ReporteService renders the dashboard summary as a PDF and optionally mails it.
type ReporteService interface {
	Generar(ctx context.Context, filtro dto.ResumenFilter, w io.Writer) error
	Enviar(ctx context.Context, req dto.EnviarReporteRequest) (string, error)
}

type reporteService struct {
	dashboard   DashboardService
	notificador Notificador
	storagePath string
	now         func() time.Time
}

// NewReporteService accepts a nil notificador; Enviar then fails without
// generating anything.
func NewReporteService(dashboard DashboardService, notificador Notificador, storagePath string) ReporteService {
	return &reporteService{
		dashboard:   dashboard,
		notificador: notificador,
		storagePath: storagePath,
		now:         time.Now,
	}
}

func (s *reporteService) reporte(ctx context.Context, filtro dto.ResumenFilter) (infra.DashboardReport, error) {
	resumen, err := s.dashboard.Resumen(ctx, filtro)
	if err != nil {
		return infra.DashboardReport{}, err
	}
	return infra.DashboardReport{
		Desde:      filtro.Desde,
		Hasta:      filtro.Hasta,
		GeneradoEn: s.now(),
		Resumen:    *resumen,
	}, nil
}

// Generar writes the PDF for the given range into w.
func (s *reporteService) Generar(ctx context.Context, filtro dto.ResumenFilter, w io.Writer) error {
	r, err := s.reporte(ctx, filtro)
	if err != nil {
		return err
	}
	return infra.WriteDashboardPDF(w, r)
}

// Enviar stores the PDF under the storage path and mails it. Returns the stored path.
func (s *reporteService) Enviar(ctx context.Context, req dto.EnviarReporteRequest) (string, error) {
	if err := Validar(req); err != nil {
		return "", err
	}
	if s.notificador == nil {
		return "", ErrCorreoNoConfigurado
	}
	r, err := s.reporte(ctx, dto.ResumenFilter{Desde: req.Desde, Hasta: req.Hasta})
	if err != nil {
		return "", err
	}
	path, err := infra.SaveDashboardPDF(r, s.storagePath)
	if err != nil {
		return "", err
	}

	asunto := "Reporte de ventas a crédito"
	cuerpo := fmt.Sprintf("Adjunto el reporte de ventas a crédito generado el %s.",
		r.GeneradoEn.Format("02/01/2006 15:04"))
	if err := s.notificador.SendReport(req.Destinatario, asunto, cuerpo, path); err != nil {
		log.Error().Str("destinatario", req.Destinatario).Err(err).Msg("envio de reporte fallido")
		return path, fmt.Errorf("reporte: %w", err)
	}
	log.Info().Str("destinatario", req.Destinatario).Str("archivo", path).Msg("reporte enviado")
	return path, nil
}
