package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"garittea/internal/infra"
	"garittea/internal/middleware"

	"github.com/gin-gonic/gin"
)

// EstadoCola is satisfied by *worker.Dispatcher.
type EstadoCola interface {
	Pendientes(ctx context.Context) (cola, dlq int64, err error)
}

// Health reports the backend circuit breaker, the token store and, when mail is
// queued, the report queue. An open breaker or an unreadable store answers 503.
func Health(breaker *infra.CircuitBreaker, tokens infra.TokenStore, sesion middleware.SesionActual, cola EstadoCola) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		backend := "unguarded"
		if breaker != nil {
			backend = breaker.State().String()
		}

		store := "token"
		if _, err := tokens.Load(ctx); err != nil {
			store = "empty"
			if !errors.Is(err, infra.ErrNoToken) {
				store = "error"
			}
		}

		status := http.StatusOK
		if (breaker != nil && breaker.State() == infra.CBOpen) || store == "error" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":          status == http.StatusOK,
			"backend":     backend,
			"token_store": store,
			"sesion":      sesion.Actual().Autenticado(),
		}
		if cola != nil {
			if pendientes, dlq, err := cola.Pendientes(ctx); err == nil {
				body["cola_reportes"] = gin.H{"pendientes": pendientes, "dlq": dlq}
			} else {
				body["cola_reportes"] = "error"
			}
		}
		c.JSON(status, body)
	}
}
