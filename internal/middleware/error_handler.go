package middleware

import (
	"errors"
	"net/http"
	"time"

	"garittea/internal/apierror"
	"garittea/internal/infra"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the fallback for errors handlers push with c.Error instead of
// answering themselves. Backend failures (an *infra.HTTPError or
// *infra.NetworkError anywhere in the chain) answer 502 with the user-facing
// message; anything else is a local fault and answers a generic 500. Nothing
// is written when the handler already responded.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, detail := http.StatusInternalServerError, "Error interno del servidor"
		var httpErr *infra.HTTPError
		var netErr *infra.NetworkError
		switch {
		case errors.As(err, &httpErr):
			status, detail = http.StatusBadGateway, service.MensajeUsuario(err)
		case errors.As(err, &netErr):
			status, detail = http.StatusBadGateway, service.MensajeErrorRed
		}

		ev := log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Int("status", status)
		if httpErr != nil {
			ev = ev.Int("backend_status", httpErr.Status)
		}
		if u := GetUsuario(c); u != nil {
			ev = ev.Int64("usuario_id", u.ID)
		}
		ev.Err(err).Msg("unhandled error")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(status, apierror.New(detail))
		}
	}
}

// Recovery converts panics into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with the acting operator when RequireSesion ran;
// 5xx at error level, 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}
		ev := log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start))
		if u := GetUsuario(c); u != nil {
			ev = ev.Str("usuario", u.Email)
		}
		ev.Msg("request")
	}
}
