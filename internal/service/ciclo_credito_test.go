package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"garittea/internal/dto"
	"garittea/internal/infra"
	"garittea/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func estadoPtr(e model.EstadoCredito) *model.EstadoCredito { return &e }
func strPtr(s string) *string { return &s }

func montoPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func creditoEn(estado model.EstadoCredito) *model.Credito {
	return &model.Credito{ID: 10, State: estado, DebtAmount: decimal.NewFromInt(50000)}
}

func newCiclo(e *entorno) CicloCreditoService {
	creditos := NewCreditoService(e.gw, e.cache, usuarioFijo(7))
	facturas := NewFacturaService(e.gw, e.cache)
	return NewCicloCreditoService(creditos, facturas)
}

// ── Campos editables ─────────────────────────────────────────────────────────

func TestCamposEditables_PorEstado(t *testing.T) {
	g := CamposEditables(model.EstadoGenerado)
	assert.True(t, g.Estado)
	assert.True(t, g.Factura)
	assert.Equal(t, []model.EstadoCredito{model.EstadoGenerado, model.EstadoPendiente}, g.EstadosPermitidos)

	p := CamposEditables(model.EstadoPendiente)
	assert.True(t, p.Estado)
	assert.False(t, p.Factura)
	assert.Equal(t, []model.EstadoCredito{model.EstadoPendiente, model.EstadoPagado}, p.EstadosPermitidos)

	for _, e := range []model.EstadoCredito{model.EstadoPagado, model.EstadoNotaCredito, model.EstadoCredito(9)} {
		c := CamposEditables(e)
		assert.False(t, c.Estado, e.String())
		assert.False(t, c.Factura, e.String())
		assert.True(t, c.Monto, e.String())
		assert.True(t, c.Observaciones, e.String())
		assert.Empty(t, c.EstadosPermitidos, e.String())
	}
}

// ── Generado → Pendiente ─────────────────────────────────────────────────────

func TestEditar_GeneradoSinFacturaNoLlamaAlBackend(t *testing.T) {
	casos := map[string]dto.EditarCreditoRequest{
		"sin datos de factura": {Estado: estadoPtr(model.EstadoPendiente)},
		"solo numero":          {Estado: estadoPtr(model.EstadoPendiente), FacturaID: "F-100"},
		"solo fecha":           {Estado: estadoPtr(model.EstadoPendiente), FechaFactura: "2024-05-02"},
		"estado omitido":       {DebtAmount: montoPtr(60000)},
		"numero solo espacios": {FacturaID: "   ", FechaFactura: "2024-05-02"},
	}
	for nombre, req := range casos {
		t.Run(nombre, func(t *testing.T) {
			e := newEntorno(t)
			_, err := newCiclo(e).Editar(context.Background(), creditoEn(model.EstadoGenerado), req)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Empty(t, e.backend.calls())
		})
	}
}

func TestEditar_GeneradoDespachaYLuegoActualiza(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodPost, "/bills/dispatch", http.StatusCreated,
		map[string]any{"idbill": "F-100", "orderId": 10, "billdate": "2024-05-02"})
	e.backend.on(http.MethodPatch, "/credits/10", http.StatusOK,
		map[string]any{"id": 10, "state": 1, "debtAmount": 50000, "bill": map[string]any{"idbill": "F-100", "billdate": "2024-05-02"}})

	got, err := newCiclo(e).Editar(context.Background(), creditoEn(model.EstadoGenerado), dto.EditarCreditoRequest{
		Estado:       estadoPtr(model.EstadoPendiente),
		FacturaID:    "F-100",
		FechaFactura: "2024-05-02",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPendiente, got.State)

	calls := e.backend.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/bills/dispatch", calls[0].Path)
	assert.Equal(t, "/credits/10", calls[1].Path)

	despacho := e.backend.bodyOf(http.MethodPost, "/bills/dispatch", 0)
	assert.Equal(t, map[string]any{"idbill": "F-100", "orderId": float64(10), "billdate": "2024-05-02"}, despacho)

	patch := e.backend.bodyOf(http.MethodPatch, "/credits/10", 0)
	assert.Equal(t, float64(model.EstadoPendiente), patch["state"])
	assert.Equal(t, "F-100", patch["bill"])
}

func TestEditar_GeneradoMantenidoSinFacturaNoLlamaAlBackend(t *testing.T) {
	casos := map[string]dto.EditarCreditoRequest{
		"solo monto":         {Estado: estadoPtr(model.EstadoGenerado), DebtAmount: montoPtr(900)},
		"solo observaciones": {Estado: estadoPtr(model.EstadoGenerado), Observaciones: strPtr("revisar")},
		"sin fecha":          {Estado: estadoPtr(model.EstadoGenerado), FacturaID: "F-100", DebtAmount: montoPtr(900)},
	}
	for nombre, req := range casos {
		t.Run(nombre, func(t *testing.T) {
			e := newEntorno(t)
			_, err := newCiclo(e).Editar(context.Background(), &model.Credito{ID: 7, State: model.EstadoGenerado}, req)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, "billdate")
			assert.Empty(t, e.backend.calls())
		})
	}
}

func TestEditar_GeneradoMantenidoAdjuntaFacturaSinTransicion(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodPost, "/bills/dispatch", http.StatusCreated, map[string]any{"idbill": "F-100"})
	e.backend.on(http.MethodPatch, "/credits/10", http.StatusOK, nil)

	got, err := newCiclo(e).Editar(context.Background(), creditoEn(model.EstadoGenerado), dto.EditarCreditoRequest{
		Estado:       estadoPtr(model.EstadoGenerado),
		FacturaID:    "F-100",
		FechaFactura: "2024-05-02",
		DebtAmount:   montoPtr(75000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.backend.count(http.MethodPost, "/bills/dispatch"))

	patch := e.backend.bodyOf(http.MethodPatch, "/credits/10", 0)
	assert.Equal(t, map[string]any{"debtAmount": float64(75000), "bill": "F-100"}, patch)
	// empty PATCH response: the plan is projected locally
	assert.True(t, got.DebtAmount.Equal(decimal.NewFromInt(75000)))
	assert.Equal(t, model.EstadoGenerado, got.State)
	require.NotNil(t, got.Bill)
	assert.Equal(t, "F-100", got.Bill.ID)
}

func TestEditar_DespachoFallidoOmiteActualizacion(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodPost, "/bills/dispatch", http.StatusConflict, map[string]any{"message": "La factura ya existe"})

	_, err := newCiclo(e).Editar(context.Background(), creditoEn(model.EstadoGenerado), dto.EditarCreditoRequest{
		FacturaID:    "F-100",
		FechaFactura: "2024-05-02",
	})
	require.Error(t, err)
	assert.Equal(t, "La factura ya existe", MensajeUsuario(err))
	assert.Equal(t, 0, e.backend.count(http.MethodPatch, "/credits/10"))
}

func TestEditar_ActualizacionFallidaTrasDespachoConservaEstadoPrevio(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodGet, "/credits", http.StatusOK, []map[string]any{{"id": 10, "state": 4, "debtAmount": 50000}})
	e.backend.on(http.MethodPost, "/bills/dispatch", http.StatusCreated, map[string]any{"idbill": "F-100"})
	e.backend.on(http.MethodPatch, "/credits/10", http.StatusInternalServerError, map[string]any{"message": "fallo interno"})

	creditos := NewCreditoService(e.gw, e.cache, usuarioFijo(7))
	ciclo := NewCicloCreditoService(creditos, NewFacturaService(e.gw, e.cache))
	ctx := context.Background()

	lista, err := creditos.Listar(ctx, dto.CreditoFilter{})
	require.NoError(t, err)
	require.Len(t, lista, 1)

	original := lista[0]
	got, err := ciclo.Editar(ctx, &original, dto.EditarCreditoRequest{
		Estado:       estadoPtr(model.EstadoPendiente),
		FacturaID:    "F-100",
		FechaFactura: "2024-05-02",
	})
	assert.Nil(t, got)

	var parcial *ErrEdicionParcial
	require.ErrorAs(t, err, &parcial)
	assert.Equal(t, "F-100", parcial.Factura.IDBill)
	var httpErr *infra.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Contains(t, MensajeUsuario(err), "F-100")

	// the cached list was not invalidated and still shows Generado
	lista, err = creditos.Listar(ctx, dto.CreditoFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoGenerado, lista[0].State)
	assert.Equal(t, model.EstadoGenerado, original.State)
	assert.Equal(t, 1, e.backend.count(http.MethodGet, "/credits"))
}

// ── Pendiente → Pagado ───────────────────────────────────────────────────────

func TestEditar_PagadoSinFacturaNoLlamaAlBackend(t *testing.T) {
	sinFactura := creditoEn(model.EstadoPendiente)
	anulada := creditoEn(model.EstadoPendiente)
	anulada.Bill = &model.Factura{ID: "F-1", Estado: "anulada"}

	for nombre, c := range map[string]*model.Credito{"sin factura": sinFactura, "factura anulada": anulada} {
		t.Run(nombre, func(t *testing.T) {
			e := newEntorno(t)
			_, err := newCiclo(e).Editar(context.Background(), c, dto.EditarCreditoRequest{Estado: estadoPtr(model.EstadoPagado)})

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, "state")
			assert.Empty(t, e.backend.calls())
		})
	}
}

func TestEditar_PendienteConFacturaPasaAPagado(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodPatch, "/credits/10", http.StatusOK, map[string]any{"id": 10, "state": 3, "debtAmount": 50000})

	c := creditoEn(model.EstadoPendiente)
	c.Bill = &model.Factura{ID: "F-1", Fecha: "2024-05-02"}

	got, err := newCiclo(e).Editar(context.Background(), c, dto.EditarCreditoRequest{Estado: estadoPtr(model.EstadoPagado)})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPagado, got.State)
	assert.Equal(t, 0, e.backend.count(http.MethodPost, "/bills/dispatch"))
	assert.Equal(t, map[string]any{"state": float64(model.EstadoPagado)}, e.backend.bodyOf(http.MethodPatch, "/credits/10", 0))
}

func TestEditar_PendienteNoVuelveAGenerado(t *testing.T) {
	e := newEntorno(t)
	_, err := newCiclo(e).Editar(context.Background(), creditoEn(model.EstadoPendiente),
		dto.EditarCreditoRequest{Estado: estadoPtr(model.EstadoGenerado)})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, e.backend.calls())
}

// ── Estados bloqueados ───────────────────────────────────────────────────────

func TestEditar_EstadosBloqueadosNuncaEnvianEstado(t *testing.T) {
	for _, estado := range []model.EstadoCredito{model.EstadoPagado, model.EstadoNotaCredito} {
		t.Run(estado.String(), func(t *testing.T) {
			e := newEntorno(t)
			e.backend.on(http.MethodPatch, "/credits/10", http.StatusOK, nil)
			ciclo := newCiclo(e)

			// same state echoed back by the form plus real edits
			_, err := ciclo.Editar(context.Background(), creditoEn(estado), dto.EditarCreditoRequest{
				Estado:        estadoPtr(estado),
				DebtAmount:    montoPtr(40000),
				Observaciones: strPtr("  abono parcial "),
			})
			require.NoError(t, err)

			patch := e.backend.bodyOf(http.MethodPatch, "/credits/10", 0)
			assert.NotContains(t, patch, "state")
			assert.NotContains(t, patch, "bill")
			assert.Equal(t, float64(40000), patch["debtAmount"])
			assert.Equal(t, "abono parcial", patch["observaciones"])

			// an actual state change is refused before any call
			_, err = ciclo.Editar(context.Background(), creditoEn(estado), dto.EditarCreditoRequest{
				Estado: estadoPtr(model.EstadoPendiente),
			})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Len(t, e.backend.calls(), 1)
		})
	}
}

// ── Montos y cambios ─────────────────────────────────────────────────────────

func TestPlanear_MontoDebeSerEnteroPositivo(t *testing.T) {
	for _, monto := range []string{"0", "-5", "1200.5"} {
		d := decimal.RequireFromString(monto)
		_, err := Planear(creditoEn(model.EstadoPendiente), dto.EditarCreditoRequest{DebtAmount: &d})

		var ve *ValidationError
		require.ErrorAs(t, err, &ve, monto)
		assert.Contains(t, ve.Fields, "debtAmount", monto)
	}
}

func TestPlanear_SinCambios(t *testing.T) {
	c := creditoEn(model.EstadoPendiente)
	c.Observaciones = strPtr("ok")

	_, err := Planear(c, dto.EditarCreditoRequest{
		Estado:        estadoPtr(model.EstadoPendiente),
		DebtAmount:    montoPtr(50000),
		Observaciones: strPtr("ok"),
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "no hay cambios")
}

func TestPlanear_EstadoDesconocidoBloqueado(t *testing.T) {
	plan, err := Planear(creditoEn(model.EstadoCredito(9)), dto.EditarCreditoRequest{DebtAmount: montoPtr(1000)})
	require.NoError(t, err)
	assert.Nil(t, plan.Despacho)
	assert.Nil(t, plan.Actualizacion.State)
	require.NotNil(t, plan.Actualizacion.DebtAmount)
	assert.Equal(t, int64(1000), *plan.Actualizacion.DebtAmount)
}

func TestPlanear_CreditoInvalido(t *testing.T) {
	_, err := Planear(nil, dto.EditarCreditoRequest{})
	require.Error(t, err)
	_, err = Planear(&model.Credito{}, dto.EditarCreditoRequest{})
	require.Error(t, err)
}
