package worker

// email_worker.go
// Delivers queued dashboard reports over SMTP.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ReportePayload is the job body stored in QueueReportes.
type ReportePayload struct {
	Para    string `json:"to"`
	Asunto  string `json:"subject"`
	Cuerpo  string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// Sender is satisfied by *infra.Mailer.
type Sender interface {
	SendReport(to, subject, body, pdfPath string) error
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// IsPermanent reports whether retrying the job cannot succeed.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type EmailWorker struct {
	sender Sender
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

// Process sends one report. Malformed payloads fail permanently; SMTP errors are retryable.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload ReportePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanentError{fmt.Errorf("email_worker: payload invalido: %w", err)}
	}
	if payload.Para == "" || payload.PDFPath == "" {
		return permanentError{errors.New("email_worker: falta destinatario o adjunto")}
	}

	if err := w.sender.SendReport(payload.Para, payload.Asunto, payload.Cuerpo, payload.PDFPath); err != nil {
		log.Error().Err(err).Str("to", payload.Para).Msg("email_worker: envio fallido")
		return err
	}
	log.Info().Str("to", payload.Para).Str("pdf", payload.PDFPath).Msg("email_worker: reporte enviado")
	return nil
}
