package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"garittea/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportes = "jobs:reportes"
	jobReporte    = "reporte"
)

// Job is the envelope stored in the Redis list.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues report mails into Redis; the worker pool dequeues them via BRPOP.
// It satisfies service.Notificador, so the report service does not know whether
// mail goes out inline or through the queue.
type Dispatcher struct {
	rdb     *redis.Client
	timeout time.Duration
}

var _ service.Notificador = (*Dispatcher)(nil)

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb, timeout: 5 * time.Second}
}

// SendReport pushes a mail job. The PDF must already be on disk.
func (d *Dispatcher) SendReport(to, subject, body, pdfPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.enqueue(ctx, Job{Type: jobReporte}, ReportePayload{
		Para:    to,
		Asunto:  subject,
		Cuerpo:  body,
		PDFPath: pdfPath,
	})
}

// Pendientes returns the queued and dead-lettered job counts.
func (d *Dispatcher) Pendientes(ctx context.Context) (cola, dlq int64, err error) {
	if cola, err = d.rdb.LLen(ctx, QueueReportes).Result(); err != nil {
		return 0, 0, err
	}
	if dlq, err = DLQLength(ctx, d.rdb, QueueReportes); err != nil {
		return 0, 0, err
	}
	return cola, dlq, nil
}

func (d *Dispatcher) enqueue(ctx context.Context, job Job, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return push(ctx, d.rdb, job)
}

func push(ctx context.Context, rdb *redis.Client, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := rdb.LPush(ctx, QueueReportes, encoded).Err(); err != nil {
		return fmt.Errorf("worker: encolar %s: %w", job.Type, err)
	}
	return nil
}

// Handlers are the job processors wired by the composition root.
type Handlers struct {
	Reportes *EmailWorker
	// Jobs failing this many times go to the DLQ.
	MaxIntentos int
}

// StartWorkerPool launches numWorkers goroutines consuming the report queue.
// Each goroutine blocks on BRPOP and stops when ctx is cancelled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, h *Handlers, numWorkers int) {
	if h.MaxIntentos <= 0 {
		h.MaxIntentos = 3
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, h, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, h *Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueReportes).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, h, result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, h *Handlers, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		SendToDLQ(ctx, rdb, QueueReportes, Job{Type: "desconocido", Payload: json.RawMessage(raw)}, "envelope ilegible: "+err.Error())
		return
	}
	if job.Type != jobReporte {
		SendToDLQ(ctx, rdb, QueueReportes, job, "tipo de job desconocido")
		return
	}

	err := h.Reportes.Process(ctx, job.Payload)
	if err == nil {
		return
	}
	job.Attempts++
	if IsPermanent(err) || job.Attempts >= h.MaxIntentos {
		SendToDLQ(ctx, rdb, QueueReportes, job, err.Error())
		return
	}
	log.Warn().Err(err).Int("attempts", job.Attempts).Msg("worker: reencolando reporte")
	if err := push(ctx, rdb, job); err != nil {
		log.Error().Err(err).Msg("worker: no se pudo reencolar")
	}
}
