package service

import (
	"context"
	"net/http"
	"net/url"

	"garittea/internal/dto"
	"garittea/internal/infra"
	"garittea/internal/model"
	"garittea/internal/query"
)

type FacturaService interface {
	Despachar(ctx context.Context, req dto.DespacharFacturaRequest) (*model.Factura, error)
	ActualizarEstado(ctx context.Context, idFactura string, req dto.ActualizarEstadoFacturaRequest) (*model.Factura, error)
	NotasAsociadas(ctx context.Context, ids []string) ([]model.FacturaNotas, error)
}

type facturaService struct {
	gw    infra.Gateway
	cache *query.Cache
}

func NewFacturaService(gw infra.Gateway, cache *query.Cache) FacturaService {
	return &facturaService{gw: gw, cache: cache}
}

// Despachar creates the bill against an order (POST /bills/dispatch). It does not
// touch the credit; only the bills cache is invalidated.
func (s *facturaService) Despachar(ctx context.Context, req dto.DespacharFacturaRequest) (*model.Factura, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Factura, error) {
		raw, err := s.gw.Request(ctx, http.MethodPost, "/bills/dispatch", req, nil)
		if err != nil {
			return nil, err
		}
		f, err := decodeOne[model.Factura](raw)
		if err != nil {
			return nil, err
		}
		if f == nil || f.ID == "" {
			f = &model.Factura{ID: req.IDBill, OrderID: req.OrderID, Fecha: req.BillDate}
		}
		return f, nil
	}, recursoFacturas)
}

// ActualizarEstado PATCHes /bills/{id}/state.
func (s *facturaService) ActualizarEstado(ctx context.Context, idFactura string, req dto.ActualizarEstadoFacturaRequest) (*model.Factura, error) {
	if err := Validar(req); err != nil {
		return nil, err
	}
	if idFactura == "" {
		return nil, NewValidationError("idbill", "idbill es un campo requerido")
	}
	return query.Mutar(ctx, s.cache, func(ctx context.Context) (*model.Factura, error) {
		raw, err := s.gw.Request(ctx, http.MethodPatch, "/bills/"+url.PathEscape(idFactura)+"/state", req, nil)
		if err != nil {
			return nil, err
		}
		return decodeOne[model.Factura](raw)
	}, recursoFacturas, recursoCreditos, recursoDashboard)
}

// NotasAsociadas asks which of the given bills have credit notes. Not cached:
// each upload is a new lookup.
func (s *facturaService) NotasAsociadas(ctx context.Context, ids []string) ([]model.FacturaNotas, error) {
	req := dto.NotasAsociadasRequest{Bills: ids}
	if err := Validar(req); err != nil {
		return nil, err
	}
	raw, err := s.gw.Request(ctx, http.MethodPost, "/bills/associatedNotes", req, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.FacturaNotas](raw)
}
