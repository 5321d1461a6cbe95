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

type CreditoService interface {
	Listar(ctx context.Context, filtro dto.CreditoFilter) ([]model.Credito, error)
	Obtener(ctx context.Context, id int64) (*model.Credito, error)
	Crear(ctx context.Context, req dto.CrearCreditoRequest) (*model.Credito, error)
	Actualizar(ctx context.Context, id int64, payload dto.ActualizarCreditoPayload) (*model.Credito, error)
	Eliminar(ctx context.Context, id int64) error
}

// UsuarioResolver yields the id of the operator acting in the current session.
type UsuarioResolver interface {
	UsuarioID(ctx context.Context) (int64, error)
}

type creditoService struct {
	gw       infra.Gateway
	cache    *query.Cache
	usuarios UsuarioResolver
}

func NewCreditoService(gw infra.Gateway, cache *query.Cache, usuarios UsuarioResolver) CreditoService {
	return &creditoService{gw: gw, cache: cache, usuarios: usuarios}
}

// Listar reads GET /credits through the query cache, keyed by the active filters.
func (s *creditoService) Listar(ctx context.Context, filtro dto.CreditoFilter) ([]model.Credito, error) {
	params := filtro.Values()
	return query.Fetch(ctx, s.cache, query.NewKey(recursoCreditos, params), func(ctx context.Context) ([]model.Credito, error) {
		payload, err := s.gw.Request(ctx, http.MethodGet, "/credits", nil, params)
		if err != nil {
			return nil, err
		}
		return decodeList[model.Credito](payload)
	})
}

func (s *creditoService) Obtener(ctx context.Context, id int64) (*model.Credito, error) {
	key := query.NewKey(recursoCreditos, url.Values{"id": {strconv.FormatInt(id, 10)}})
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*model.Credito, error) {
		payload, err := s.gw.Request(ctx, http.MethodGet, idPath("/credits/", id), nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Credito](payload)
	})
}

// Crear validates the form, attaches the acting user and POSTs /credits.
// Nothing is sent when validation or user resolution fails.
func (s *creditoService) Crear(ctx context.Context, req dto.CrearCreditoRequest) (*model.Credito, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	userID, err := s.usuarios.UsuarioID(ctx)
	if err != nil {
		return nil, err
	}
	payload := dto.CrearCreditoPayload{
		ApplicantID:      req.ApplicantID,
		FacultyID:        req.FacultyID,
		ManagingPersonID: req.ManagingPersonID,
		DebtAmount:       req.DebtAmount.IntPart(),
		UserID:           userID,
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Credito, error) {
		raw, err := s.gw.Request(ctx, http.MethodPost, "/credits", payload, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Credito](raw)
	}, recursoCreditos, recursoDashboard)
}

// Actualizar PATCHes /credits/{id}. The lifecycle rules live in CicloCreditoService;
// this call sends the payload as given.
func (s *creditoService) Actualizar(ctx context.Context, id int64, payload dto.ActualizarCreditoPayload) (*model.Credito, error) {
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Credito, error) {
		raw, err := s.gw.Request(ctx, http.MethodPatch, idPath("/credits/", id), payload, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Credito](raw)
	}, recursoCreditos, recursoDashboard)
}

// Eliminar DELETEs /credits/{id}. A 400 ORDER_HAS_BILL comes back as *infra.HTTPError
// (see EsPedidoConFactura) and leaves the cached list as it was.
func (s *creditoService) Eliminar(ctx context.Context, id int64) error {
	_, err := query.Mutar(ctx, s.cache, func(ctx context.Context) ([]byte, error) {
		return s.gw.Request(ctx, http.MethodDelete, idPath("/credits/", id), nil, nil)
	}, recursoCreditos, recursoDashboard)
	return err
}
