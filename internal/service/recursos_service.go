package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"garittea/internal/dto"
	"garittea/internal/infra"
	"garittea/internal/model"
	"garittea/internal/query"
)

// ── Personas ─────────────────────────────────────────────────────────────────

type PersonaService interface {
	Listar(ctx context.Context) ([]model.Persona, error)
	Obtener(ctx context.Context, id int64) (*model.Persona, error)
	Crear(ctx context.Context, req dto.PersonaRequest) (*model.Persona, error)
	Actualizar(ctx context.Context, id int64, req dto.PersonaRequest) (*model.Persona, error)
	Eliminar(ctx context.Context, id int64) error
}

type personaService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewPersonaService(gw infra.Gateway, cache *query.Cache) PersonaService {
	return &personaService{gw: gw, cache: cache}
}

func (s *personaService) Listar(ctx context.Context) ([]model.Persona, error) {
	return query.Fetch(ctx, s.cache, query.NewKey(recursoPersonas, nil), func(ctx context.Context) ([]model.Persona, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, "/person/", nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeList[model.Persona](raw)
	})
}

func (s *personaService) Obtener(ctx context.Context, id int64) (*model.Persona, error) {
	key := query.NewKey(recursoPersonas, url.Values{"id": {strconv.FormatInt(id, 10)}})
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*model.Persona, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, idPath("/person/", id), nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Persona](raw)
	})
}

func (s *personaService) Crear(ctx context.Context, req dto.PersonaRequest) (*model.Persona, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Persona, error) {
		raw, err := s.gw.Request(ctx, http.MethodPost, "/person/", req, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Persona](raw)
	}, recursoPersonas)
}

func (s *personaService) Actualizar(ctx context.Context, id int64, req dto.PersonaRequest) (*model.Persona, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	// credits embed applicant/managing person, so their lists go stale too
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Persona, error) {
		raw, err := s.gw.Request(ctx, http.MethodPut, idPath("/person/", id), req, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Persona](raw)
	}, recursoPersonas, recursoCreditos)
}

func (s *personaService) Eliminar(ctx context.Context, id int64) error {
	_, err := query.Mutar(ctx, s.cache, func(ctx context.Context) ([]byte, error) {
		return s.gw.Request(ctx, http.MethodDelete, idPath("/person/", id), nil, nil)
	}, recursoPersonas, recursoCreditos)
	return err
}

// ── Facultades ───────────────────────────────────────────────────────────────

type FacultadService interface {
	Listar(ctx context.Context) ([]model.Facultad, error)
}

type facultadService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewFacultadService(gw infra.Gateway, cache *query.Cache) FacultadService {
	return &facultadService{gw: gw, cache: cache}
}

func (s *facultadService) Listar(ctx context.Context) ([]model.Facultad, error) {
	return query.Fetch(ctx, s.cache, query.NewKey(recursoFacultades, nil), func(ctx context.Context) ([]model.Facultad, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, "/faculty/", nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeList[model.Facultad](raw)
	})
}

// ── Usuarios ─────────────────────────────────────────────────────────────────

type UsuarioService interface {
	Listar(ctx context.Context) ([]model.Usuario, error)
	Obtener(ctx context.Context, id int64) (*model.Usuario, error)
	Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*model.Usuario, error)
	Actualizar(ctx context.Context, id int64, req dto.ActualizarUsuarioRequest) (*model.Usuario, error)
	Eliminar(ctx context.Context, id int64) error
}

type usuarioService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewUsuarioService(gw infra.Gateway, cache *query.Cache) UsuarioService {
	return &usuarioService{gw: gw, cache: cache}
}

func (s *usuarioService) Listar(ctx context.Context) ([]model.Usuario, error) {
	return query.Fetch(ctx, s.cache, query.NewKey(recursoUsuarios, nil), func(ctx context.Context) ([]model.Usuario, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, "/users", nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeList[model.Usuario](raw)
	})
}

func (s *usuarioService) Obtener(ctx context.Context, id int64) (*model.Usuario, error) {
	key := query.NewKey(recursoUsuarios, url.Values{"id": {strconv.FormatInt(id, 10)}})
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*model.Usuario, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, idPath("/users/", id), nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Usuario](raw)
	})
}

func (s *usuarioService) Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*model.Usuario, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Usuario, error) {
		raw, err := s.gw.Request(ctx, http.MethodPost, "/users", req, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Usuario](raw)
	}, recursoUsuarios)
}

func (s *usuarioService) Actualizar(ctx context.Context, id int64, req dto.ActualizarUsuarioRequest) (*model.Usuario, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	if req == (dto.ActualizarUsuarioRequest{}) {
		return nil, NewValidationError("usuario", "no hay cambios para guardar")
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Usuario, error) {
		raw, err := s.gw.Request(ctx, http.MethodPut, idPath("/users/", id), req, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Usuario](raw)
	}, recursoUsuarios)
}

func (s *usuarioService) Eliminar(ctx context.Context, id int64) error {
	_, err := query.Mutar(ctx, s.cache, func(ctx context.Context) ([]byte, error) {
		return s.gw.Request(ctx, http.MethodDelete, idPath("/users/", id), nil, nil)
	}, recursoUsuarios)
	return err
}

// ── Notas crédito ────────────────────────────────────────────────────────────

type NotaCreditoService interface {
	Listar(ctx context.Context, filtro dto.NotaCreditoFilter) ([]model.NotaCredito, error)
	Crear(ctx context.Context, req dto.CrearNotaCreditoRequest) (*model.NotaCredito, error)
}

type notaCreditoService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewNotaCreditoService(gw infra.Gateway, cache *query.Cache) NotaCreditoService {
	return &notaCreditoService{gw: gw, cache: cache}
}

func (s *notaCreditoService) Listar(ctx context.Context, filtro dto.NotaCreditoFilter) ([]model.NotaCredito, error) {
	params := url.Values{}
	if filtro.FacturaID != "" {
		params.Set("bill", filtro.FacturaID)
	}
	return query.Fetch(ctx, s.cache, query.NewKey(recursoNotasCredito, params), func(ctx context.Context) ([]model.NotaCredito, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, "/creditNotes", nil, params)
		if err != nil {
			return nil, err
		}
		return decodeList[model.NotaCredito](raw)
	})
}

// Crear POSTs /creditNotes. The backend moves the credit to the credit-noted
// state, hence the credits and dashboard invalidation.
func (s *notaCreditoService) Crear(ctx context.Context, req dto.CrearNotaCreditoRequest) (*model.NotaCredito, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	payload := dto.CrearNotaCreditoPayload{
		InitialBillID: req.InitialBillID,
		FinalBillID:   req.FinalBillID,
		Amount:        req.Amount.IntPart(),
		Reason:        req.Reason,
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.NotaCredito, error) {
		raw, err := s.gw.Request(ctx, http.MethodPost, "/creditNotes", payload, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.NotaCredito](raw)
	}, recursoNotasCredito, recursoCreditos, recursoDashboard)
}

// ── Dashboard ────────────────────────────────────────────────────────────────

type DashboardService interface {
	Resumen(ctx context.Context, filtro dto.ResumenFilter) (*model.ResumenDashboard, error)
}

type dashboardService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewDashboardService(gw infra.Gateway, cache *query.Cache) DashboardService {
	return &dashboardService{gw: gw, cache: cache}
}

// Resumen reads the aggregates computed by the backend.
func (s *dashboardService) Resumen(ctx context.Context, filtro dto.ResumenFilter) (*model.ResumenDashboard, error) {
	if err := Validar(filtro); err != nil {
		return nil, err
	}
	params := filtro.Values()
	return query.Fetch(ctx, s.cache, query.NewKey(recursoDashboard, params), func(ctx context.Context) (*model.ResumenDashboard, error) {
		raw, err := s.gw.Request(ctx, http.MethodGet, "/dashboard/summary", nil, params)
		if err != nil {
			return nil, err
		}
		r, err := decodeOne[model.ResumenDashboard](raw)
		if err != nil {
			return nil, err
		}
		if r == nil {
			r = &model.ResumenDashboard{}
		}
		return r, nil
	})
}
