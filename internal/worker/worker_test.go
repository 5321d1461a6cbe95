package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envio struct{ to, subject, body, pdf string }

type senderFake struct {
	envios []envio
	err    error
}

func (s *senderFake) SendReport(to, subject, body, pdfPath string) error {
	s.envios = append(s.envios, envio{to, subject, body, pdfPath})
	return s.err
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// pop runs the next queued job the way a pool worker would.
func pop(t *testing.T, rdb *redis.Client, h *Handlers) {
	t.Helper()
	raw, err := rdb.RPop(context.Background(), QueueReportes).Result()
	require.NoError(t, err)
	processJob(context.Background(), rdb, h, raw)
}

func TestDispatcher_EncolaYEnvia(t *testing.T) {
	rdb := newRedis(t)
	d := NewDispatcher(rdb)
	sender := &senderFake{}
	h := &Handlers{Reportes: NewEmailWorker(sender), MaxIntentos: 3}

	require.NoError(t, d.SendReport("gerencia@garittea.test", "Reporte", "cuerpo", "/tmp/r.pdf"))
	cola, dlq, err := d.Pendientes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cola)
	assert.Zero(t, dlq)

	pop(t, rdb, h)

	require.Len(t, sender.envios, 1)
	assert.Equal(t, envio{"gerencia@garittea.test", "Reporte", "cuerpo", "/tmp/r.pdf"}, sender.envios[0])
	cola, _, _ = d.Pendientes(context.Background())
	assert.Zero(t, cola)
}

func TestProcessJob_ReintentaHastaDLQ(t *testing.T) {
	rdb := newRedis(t)
	d := NewDispatcher(rdb)
	sender := &senderFake{err: errors.New("smtp: 421 try later")}
	h := &Handlers{Reportes: NewEmailWorker(sender), MaxIntentos: 2}

	require.NoError(t, d.SendReport("a@b.test", "s", "b", "/tmp/r.pdf"))

	pop(t, rdb, h) // first failure: requeued
	cola, dlq, _ := d.Pendientes(context.Background())
	assert.Equal(t, int64(1), cola)
	assert.Zero(t, dlq)

	pop(t, rdb, h) // second failure: dead-lettered
	cola, dlq, _ = d.Pendientes(context.Background())
	assert.Zero(t, cola)
	assert.Equal(t, int64(1), dlq)
	assert.Len(t, sender.envios, 2)

	entries, err := ListDLQ(context.Background(), rdb, QueueReportes, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Attempts)
	assert.Equal(t, "reporte", entries[0].JobType)
	assert.Contains(t, entries[0].Reason, "421")
}

func TestProcessJob_PayloadInvalidoVaDirectoADLQ(t *testing.T) {
	rdb := newRedis(t)
	sender := &senderFake{}
	h := &Handlers{Reportes: NewEmailWorker(sender), MaxIntentos: 5}
	ctx := context.Background()

	sinDestino, _ := json.Marshal(ReportePayload{PDFPath: "/tmp/r.pdf"})
	require.NoError(t, push(ctx, rdb, Job{Type: jobReporte, Payload: sinDestino}))
	require.NoError(t, push(ctx, rdb, Job{Type: "otro", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, rdb.LPush(ctx, QueueReportes, "no-json").Err())

	pop(t, rdb, h)
	pop(t, rdb, h)
	pop(t, rdb, h)

	assert.Empty(t, sender.envios)
	n, err := DLQLength(ctx, rdb, QueueReportes)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entradas, err := ListDLQ(ctx, rdb, QueueReportes, 10)
	require.NoError(t, err)
	require.Len(t, entradas, 3)
	// newest first: the unreadable envelope is kept as its raw text
	assert.Equal(t, "desconocido", entradas[0].JobType)
	assert.JSONEq(t, `"no-json"`, string(entradas[0].Payload))
	assert.Contains(t, entradas[0].Reason, "envelope ilegible")
	assert.Equal(t, "otro", entradas[1].JobType)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(permanentError{errors.New("x")}))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.False(t, IsPermanent(nil))
}
