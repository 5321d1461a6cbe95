package middleware

import (
	"net/http"

	"garittea/internal/apierror"
	"garittea/internal/model"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	UsuarioKey = "usuario"
	// CookieSesion carries the clave issued by Sesion.Login.
	CookieSesion = "garittea_sesion"
)

// SesionActual is satisfied by *service.Sesion.
type SesionActual interface {
	Actual() service.Autenticacion
}

// SesionVerificable also checks the clave presented by a request.
type SesionVerificable interface {
	SesionActual
	Verificar(clave string) bool
}

var _ SesionVerificable = (*service.Sesion)(nil)

// RequireSesion rejects requests that do not carry the clave of the active
// operator session in CookieSesion. The acting user is stored under UsuarioKey.
func RequireSesion(s SesionVerificable) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := s.Actual()
		clave, _ := c.Cookie(CookieSesion)
		if !auth.Autenticado() || !s.Verificar(clave) {
			msg := "Debe iniciar sesión"
			if auth.Motivo != "" {
				msg += ": " + auth.Motivo
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(msg))
			return
		}
		c.Set(UsuarioKey, auth.Usuario)
		c.Next()
	}
}

// RequireRole rejects authenticated operators whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		u := GetUsuario(c)
		if u == nil || !allowed[u.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetUsuario returns the operator set by RequireSesion, or nil.
func GetUsuario(c *gin.Context) *model.Usuario {
	u, _ := c.Get(UsuarioKey)
	usuario, _ := u.(*model.Usuario)
	return usuario
}
