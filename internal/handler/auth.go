package handler

import (
	"context"
	"net/http"

	"garittea/internal/dto"
	"garittea/internal/middleware"
	"garittea/internal/model"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

// Autenticador is satisfied by *service.Sesion.
type Autenticador interface {
	Actual() service.Autenticacion
	Login(ctx context.Context, req dto.LoginRequest) (service.Autenticacion, error)
	Logout(ctx context.Context) (service.Autenticacion, error)
	Me(ctx context.Context) (*model.Usuario, error)
	Clave() string
	Verificar(clave string) bool
}

var _ Autenticador = (*service.Sesion)(nil)

type AuthHandler struct {
	sesion Autenticador
	// cookieSegura marks the session cookie Secure (HTTPS only).
	cookieSegura bool
}

func NewAuthHandler(sesion Autenticador, cookieSegura bool) *AuthHandler {
	return &AuthHandler{sesion: sesion, cookieSegura: cookieSegura}
}

func (h *AuthHandler) setCookie(c *gin.Context, clave string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.CookieSesion, clave, maxAge, "/", "", h.cookieSegura, true)
}

func sesionResponse(a service.Autenticacion) dto.SesionResponse {
	return dto.SesionResponse{Autenticado: a.Autenticado(), Usuario: a.Usuario, Motivo: a.Motivo}
}

// Login POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.sesion.Login(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	// session cookie: lives until logout or the next login
	h.setCookie(c, h.sesion.Clave(), 0)
	c.JSON(http.StatusOK, sesionResponse(h.sesion.Actual()))
}

// Logout POST /v1/auth/logout (behind RequireSesion)
func (h *AuthHandler) Logout(c *gin.Context) {
	auth, err := h.sesion.Logout(c.Request.Context())
	h.setCookie(c, "", -1)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sesionResponse(auth))
}

// Sesion GET /v1/auth/sesion reports the session variant seen by this client,
// without calling the backend. A request without the session cookie is
// NoAutenticado even while another client holds the session.
func (h *AuthHandler) Sesion(c *gin.Context) {
	auth := h.sesion.Actual()
	if clave, _ := c.Cookie(middleware.CookieSesion); auth.Autenticado() && !h.sesion.Verificar(clave) {
		auth = service.Autenticacion{Estado: service.NoAutenticado, Motivo: "sesion no iniciada en este cliente"}
	}
	c.JSON(http.StatusOK, sesionResponse(auth))
}

// Me GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.sesion.Me(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
