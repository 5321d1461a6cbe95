package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"garittea/internal/dto"
	"garittea/internal/infra"
	"garittea/internal/model"
	"garittea/internal/query"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EstadoSesion distinguishes the two session variants.
type EstadoSesion int

const (
	NoAutenticado EstadoSesion = iota
	Autenticado
)

// Autenticacion is the explicit session value views render from.
// Usuario is set only when Estado == Autenticado; Motivo explains NoAutenticado.
type Autenticacion struct {
	Estado  EstadoSesion
	Usuario *model.Usuario
	Motivo  string
}

func (a Autenticacion) Autenticado() bool { return a.Estado == Autenticado && a.Usuario != nil }

func noAutenticado(motivo string) Autenticacion {
	return Autenticacion{Estado: NoAutenticado, Motivo: motivo}
}

// Sesion owns the operator session: it is created once at startup and passed
// to whatever needs the acting user. Token validity is the backend's call; the
// client only decodes the JWT expiry to avoid sending a token known to be dead.
//
// Each successful Login also issues a random clave. HTTP callers must present
// it (see Verificar); a session restored from the token store has none until
// the next Login.
type Sesion struct {
	gw     infra.Gateway
	tokens infra.TokenStore
	cache  *query.Cache
	now    func() time.Time

	mu     sync.RWMutex
	actual Autenticacion
	clave  string
}

func NewSesion(gw infra.Gateway, tokens infra.TokenStore, cache *query.Cache) *Sesion {
	return &Sesion{
		gw:     gw,
		tokens: tokens,
		cache:  cache,
		now:    time.Now,
		actual: noAutenticado("sesion no iniciada"),
	}
}

// Actual returns the current session variant.
func (s *Sesion) Actual() Autenticacion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actual
}

// Clave returns the key issued by the last successful Login, empty when there is none.
func (s *Sesion) Clave() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clave
}

// Verificar reports whether clave belongs to the current authenticated session.
func (s *Sesion) Verificar(clave string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if clave == "" || s.clave == "" || !s.actual.Autenticado() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(clave), []byte(s.clave)) == 1
}

// set replaces the session variant. Leaving Autenticado revokes the clave.
func (s *Sesion) set(a Autenticacion) Autenticacion {
	s.mu.Lock()
	s.actual = a
	if !a.Autenticado() {
		s.clave = ""
	}
	s.mu.Unlock()
	return a
}

func (s *Sesion) iniciar(a Autenticacion) Autenticacion {
	s.mu.Lock()
	s.actual = a
	s.clave = uuid.NewString()
	s.mu.Unlock()
	return a
}

// Login authenticates against POST /auth/login, persists the returned token
// and loads the operator profile. On failure the session is NoAutenticado and
// nothing is persisted.
func (s *Sesion) Login(ctx context.Context, req dto.LoginRequest) (Autenticacion, error) {
	if err := Validar(req); err != nil {
		return s.Actual(), err
	}

	var resp dto.LoginResponse
	if err := s.gw.Do(ctx, http.MethodPost, "/auth/login", req, nil, &resp); err != nil {
		return s.set(noAutenticado(MensajeUsuario(err))), err
	}
	if resp.Token == "" {
		err := errors.New("el backend no devolvio un token")
		return s.set(noAutenticado(err.Error())), err
	}
	if err := s.tokens.Save(ctx, resp.Token); err != nil {
		return s.set(noAutenticado("no se pudo guardar la sesion")), err
	}
	s.cache.Limpiar()

	usuario, err := s.Me(ctx)
	if err != nil {
		_ = s.tokens.Clear(ctx)
		return s.set(noAutenticado(MensajeUsuario(err))), err
	}

	log.Info().Str("email", usuario.Email).Msg("sesion iniciada")
	return s.iniciar(Autenticacion{Estado: Autenticado, Usuario: usuario}), nil
}

// Logout notifies the backend and always drops the local token and cache.
// A backend failure is logged, not returned: the session ends either way.
func (s *Sesion) Logout(ctx context.Context) (Autenticacion, error) {
	if _, err := s.gw.Request(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		log.Warn().Err(err).Msg("logout en backend fallido, se cierra la sesion local")
	}
	s.cache.Limpiar()
	if err := s.tokens.Clear(ctx); err != nil {
		return s.set(noAutenticado("sesion cerrada")), fmt.Errorf("logout: %w", err)
	}
	return s.set(noAutenticado("sesion cerrada")), nil
}

// Restaurar rebuilds the session from the persisted token at startup.
func (s *Sesion) Restaurar(ctx context.Context) Autenticacion {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, infra.ErrNoToken) {
			log.Warn().Err(err).Msg("no se pudo leer el token persistido")
		}
		return s.set(noAutenticado("sin token"))
	}

	if exp, ok := expiracion(token); ok && !exp.After(s.now()) {
		_ = s.tokens.Clear(ctx)
		return s.set(noAutenticado("token expirado"))
	}

	usuario, err := s.Me(ctx)
	if err != nil {
		var httpErr *infra.HTTPError
		if errors.As(err, &httpErr) && (httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden) {
			_ = s.tokens.Clear(ctx)
			return s.set(noAutenticado("token rechazado"))
		}
		// keep the token: the backend may just be down
		return s.set(noAutenticado(MensajeUsuario(err)))
	}
	return s.set(Autenticacion{Estado: Autenticado, Usuario: usuario})
}

// Me reads GET /auth/me. Both a bare user and {"user": {...}} are accepted.
func (s *Sesion) Me(ctx context.Context) (*model.Usuario, error) {
	raw, err := s.gw.Request(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		User *model.Usuario `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.User != nil {
		return envelope.User, nil
	}
	u, err := decodeOne[model.Usuario](raw)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("el backend no devolvio el usuario")
	}
	return u, nil
}

// UsuarioID resolves the acting operator: session profile first, then token
// claims, then GET /auth/me.
func (s *Sesion) UsuarioID(ctx context.Context) (int64, error) {
	if a := s.Actual(); a.Autenticado() && a.Usuario.ID > 0 {
		return a.Usuario.ID, nil
	}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		return 0, ErrSinSesion
	}
	if id, ok := idDesdeClaims(token); ok {
		return id, nil
	}

	usuario, err := s.Me(ctx)
	if err != nil {
		return 0, err
	}
	if usuario.ID <= 0 {
		return 0, ErrSinSesion
	}
	s.set(Autenticacion{Estado: Autenticado, Usuario: usuario})
	return usuario.ID, nil
}

// ── token claims ─────────────────────────────────────────────────────────────

func claims(token string) (jwt.MapClaims, bool) {
	c := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return nil, false
	}
	return c, true
}

func expiracion(token string) (time.Time, bool) {
	c, ok := claims(token)
	if !ok {
		return time.Time{}, false
	}
	exp, err := c.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func idDesdeClaims(token string) (int64, bool) {
	c, ok := claims(token)
	if !ok {
		return 0, false
	}
	for _, k := range []string{"id", "userId", "user_id", "sub"} {
		switch v := c[k].(type) {
		case float64:
			if v > 0 {
				return int64(v), true
			}
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}
