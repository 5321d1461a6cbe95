package router

import (
	"strings"
	"time"

	"garittea/internal/config"
	"garittea/internal/handler"
	"garittea/internal/infra"
	"garittea/internal/middleware"
	"garittea/internal/query"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

// Deps are the long-lived objects built once by the composition root.
// Notificador may be nil when SMTP is not configured; Cola is set only when
// report mail goes through the Redis queue.
type Deps struct {
	Gateway     infra.Gateway
	Breaker     *infra.CircuitBreaker
	Tokens      infra.TokenStore
	Cache       *query.Cache
	Sesion      *service.Sesion
	Notificador service.Notificador
	Cola        handler.EstadoCola
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Gateway/Cache ← backend API
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(splitOrigins(cfg.CORSOrigins)))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute))

	// ── Services ─────────────────────────────────────────────────────────────
	facturaSvc := service.NewFacturaService(d.Gateway, d.Cache)
	creditoSvc := service.NewCreditoService(d.Gateway, d.Cache, d.Sesion)
	cicloSvc := service.NewCicloCreditoService(creditoSvc, facturaSvc)
	personaSvc := service.NewPersonaService(d.Gateway, d.Cache)
	facultadSvc := service.NewFacultadService(d.Gateway, d.Cache)
	usuarioSvc := service.NewUsuarioService(d.Gateway, d.Cache)
	notaSvc := service.NewNotaCreditoService(d.Gateway, d.Cache)
	dashboardSvc := service.NewDashboardService(d.Gateway, d.Cache)
	reporteSvc := service.NewReporteService(dashboardSvc, d.Notificador, cfg.ReportStoragePath)
	masivasSvc := service.NewNotasMasivasService(facturaSvc, infra.ColumnReadOptions{
		Column:     cfg.BulkColumn,
		HeaderRows: cfg.BulkHeaderRows,
		Sheet:      cfg.BulkSheet,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(d.Sesion, cfg.Env == "production")
	creditosH := handler.NewCreditosHandler(creditoSvc, cicloSvc)
	facturasH := handler.NewFacturasHandler(facturaSvc, masivasSvc)
	notasH := handler.NewNotasCreditoHandler(notaSvc)
	personasH := handler.NewPersonasHandler(personaSvc)
	facultadesH := handler.NewFacultadesHandler(facultadSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc, reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(d.Breaker, d.Tokens, d.Sesion, d.Cola))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.GET("/sesion", authH.Sesion)
	}

	v1 := r.Group("/v1", middleware.RequireSesion(d.Sesion))
	{
		v1.GET("/auth/me", authH.Me)
		v1.POST("/auth/logout", authH.Logout)

		creditos := v1.Group("/creditos")
		{
			creditos.GET("", creditosH.Listar)
			creditos.POST("", creditosH.Crear)
			creditos.GET("/:id", creditosH.Obtener)
			creditos.GET("/:id/edicion", creditosH.Edicion)
			creditos.PATCH("/:id", creditosH.Editar)
			creditos.DELETE("/:id", creditosH.Eliminar)
		}

		v1.GET("/notas-credito", notasH.Listar)
		v1.POST("/notas-credito", notasH.Crear)

		v1.PATCH("/facturas/:id/estado", facturasH.ActualizarEstado)
		v1.POST("/facturas/notas-asociadas", facturasH.NotasAsociadas)

		v1.GET("/personas", personasH.Listar)
		v1.GET("/personas/:id", personasH.Obtener)
		v1.POST("/personas", personasH.Crear)
		v1.PUT("/personas/:id", personasH.Actualizar)
		v1.DELETE("/personas/:id", personasH.Eliminar)

		v1.GET("/facultades", facultadesH.Listar)

		// Users: everyone reads, admin writes
		v1.GET("/usuarios", usuariosH.Listar)
		v1.GET("/usuarios/:id", usuariosH.Obtener)
		usuarios := v1.Group("/usuarios", middleware.RequireRole("admin"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Eliminar)
		}

		dash := v1.Group("/dashboard")
		{
			dash.GET("", dashboardH.Resumen)
			dash.GET("/reporte", dashboardH.ReportePDF)
			dash.POST("/reporte/enviar", dashboardH.EnviarReporte)
		}
	}

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
