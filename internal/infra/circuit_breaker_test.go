package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func newTestBreaker(threshold int, timeout time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, OpenTimeout: timeout})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_AbreYSeRecupera(t *testing.T) {
	cb, now := newTestBreaker(2, time.Minute)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, CBOpen, cb.State())

	ran := false
	assert.ErrorIs(t, cb.Execute(func() error { ran = true; return nil }), ErrCircuitOpen)
	assert.False(t, ran)

	*now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_ProbeFallidaReabre(t *testing.T) {
	cb, now := newTestBreaker(1, time.Second)

	_ = cb.Execute(func() error { return errBoom })
	*now = now.Add(time.Second)
	assert.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_ExitoReiniciaConteo(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, CBClosed, cb.State())
}

func TestCBState_String(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
	assert.Equal(t, "unknown", CBState(42).String())
}
