package service

import (
	"context"
	"net/http"
	"testing"

	"garittea/internal/dto"
	"garittea/internal/query"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonas_ActualizarInvalidaCreditos(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodGet, "/person/", http.StatusOK, []map[string]any{{"id": 1, "firstname": "Luis", "lastName": "Paz"}})
	e.backend.on(http.MethodPut, "/person/1", http.StatusOK, map[string]any{"id": 1, "firstname": "Luis", "lastname": "Paz"})
	svc := NewPersonaService(e.gw, e.cache)
	ctx := context.Background()

	personas, err := svc.Listar(ctx)
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Luis Paz", personas[0].NombreCompleto())

	_, err = svc.Listar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, e.backend.count(http.MethodGet, "/person/"))

	creditos := query.NewKey(recursoCreditos, nil)
	_, err = query.Fetch(ctx, e.cache, creditos, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	_, err = svc.Actualizar(ctx, 1, dto.PersonaRequest{
		Firstname: "Luis",
		Lastname:  "Paz",
		Cellphone: "3001234567",
		Email:     "luis@garittea.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "luis@garittea.test", e.backend.bodyOf(http.MethodPut, "/person/1", 0)["email"])
	assert.True(t, e.cache.Estado(creditos).Obsoleto)

	_, err = svc.Listar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, e.backend.count(http.MethodGet, "/person/"))
}

func TestPersonas_CrearInvalidoNoLlama(t *testing.T) {
	e := newEntorno(t)
	svc := NewPersonaService(e.gw, e.cache)

	_, err := svc.Crear(context.Background(), dto.PersonaRequest{Firstname: "L", Email: "no"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, e.backend.calls())
}

func TestNotasCredito_CrearEnviaMontoEntero(t *testing.T) {
	e := newEntorno(t)
	e.backend.on(http.MethodPost, "/creditNotes", http.StatusCreated, map[string]any{
		"id": 7, "initialBillId": "FE-1", "amount": 20000, "reason": "Ajuste de valor",
	})
	e.backend.on(http.MethodGet, "/creditNotes", http.StatusOK, map[string]any{"data": []map[string]any{{"id": 7, "initialBillId": "FE-1"}}})
	svc := NewNotaCreditoService(e.gw, e.cache)
	ctx := context.Background()

	nota, err := svc.Crear(ctx, dto.CrearNotaCreditoRequest{
		InitialBillID: "FE-1",
		Amount:        decimal.NewFromInt(20000),
		Reason:        "Ajuste de valor",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), nota.ID)

	body := e.backend.bodyOf(http.MethodPost, "/creditNotes", 0)
	assert.Equal(t, float64(20000), body["amount"])
	assert.NotContains(t, body, "finalBillId")

	notas, err := svc.Listar(ctx, dto.NotaCreditoFilter{FacturaID: "FE-1"})
	require.NoError(t, err)
	require.Len(t, notas, 1)
	calls := e.backend.calls()
	assert.Equal(t, "bill=FE-1", calls[len(calls)-1].Query)
}
