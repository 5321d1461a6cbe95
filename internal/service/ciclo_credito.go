package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"garittea/internal/dto"
	"garittea/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ── Credit lifecycle ─────────────────────────────────────────────────────────
//
//	original      allowed targets       extra input               calls
//	Generado      Generado, Pendiente   idbill + billdate         dispatch bill, then PATCH credit
//	                                    (always)                  (state=Pendiente unless Generado is kept)
//	Pendiente     Pendiente, Pagado     active bill for Pagado    PATCH credit
//	Pagado        (locked)              -                         PATCH amount/observaciones
//	NotaCredito   (locked)              -                         PATCH amount/observaciones
//
// States the client does not know are treated as locked.

// CamposEditables returns which edit-modal inputs are enabled for a credit
// whose current state is original.
func CamposEditables(original model.EstadoCredito) dto.CamposEditablesResponse {
	campos := dto.CamposEditablesResponse{
		EstadoOriginal: original,
		Monto:          true,
		Observaciones:  true,
	}
	switch original {
	case model.EstadoGenerado:
		campos.Estado = true
		campos.Factura = true
		campos.EstadosPermitidos = []model.EstadoCredito{model.EstadoGenerado, model.EstadoPendiente}
	case model.EstadoPendiente:
		campos.Estado = true
		campos.EstadosPermitidos = []model.EstadoCredito{model.EstadoPendiente, model.EstadoPagado}
	default:
		campos.EstadosPermitidos = []model.EstadoCredito{}
	}
	return campos
}

// PlanEdicion is the validated outcome of an edit: an optional bill dispatch
// followed by the credit update.
type PlanEdicion struct {
	Despacho      *dto.DespacharFacturaRequest
	Actualizacion dto.ActualizarCreditoPayload
}

// Planear applies every client-side rule to req. A returned error is always a
// *ValidationError and means no request may be sent.
func Planear(credito *model.Credito, req dto.EditarCreditoRequest) (*PlanEdicion, error) {
	if credito == nil || credito.ID <= 0 {
		return nil, NewValidationError("id", "crédito inválido")
	}
	if err := Validar(req); err != nil {
		return nil, err
	}

	original := credito.State
	campos := CamposEditables(original)
	destino := original
	switch {
	case req.Estado != nil:
		destino = *req.Estado
	case original == model.EstadoGenerado:
		// the Generado modal submits a dispatch unless the operator keeps the state explicitly
		destino = model.EstadoPendiente
	}

	plan := &PlanEdicion{}

	if destino != original {
		if !campos.Estado {
			return nil, NewValidationError("state",
				fmt.Sprintf("el estado de un crédito %s no se puede modificar", strings.ToLower(original.String())))
		}
		if !slices.Contains(campos.EstadosPermitidos, destino) {
			return nil, NewValidationError("state",
				fmt.Sprintf("un crédito %s no puede pasar a %s", strings.ToLower(original.String()), strings.ToLower(destino.String())))
		}
	}

	switch {
	case original == model.EstadoGenerado:
		// every Generado submission carries the bill; keeping Generado only skips the transition
		factura := strings.TrimSpace(req.FacturaID)
		fields := map[string]string{}
		if factura == "" {
			fields["idbill"] = "el número de factura es requerido para editar un crédito Generado"
		}
		if req.FechaFactura == "" {
			fields["billdate"] = "la fecha de factura es requerida para editar un crédito Generado"
		}
		if len(fields) > 0 {
			return nil, &ValidationError{Detail: "Error de validacion", Fields: fields}
		}
		plan.Despacho = &dto.DespacharFacturaRequest{IDBill: factura, OrderID: credito.ID, BillDate: req.FechaFactura}
		plan.Actualizacion.Bill = &factura
		if destino == model.EstadoPendiente {
			estado := model.EstadoPendiente
			plan.Actualizacion.State = &estado
		}

	case original == model.EstadoPendiente && destino == model.EstadoPagado:
		if !credito.TieneFactura() {
			return nil, NewValidationError("state", "se requiere una factura asociada para marcar el crédito como Pagado")
		}
		estado := model.EstadoPagado
		plan.Actualizacion.State = &estado
	}

	if req.DebtAmount != nil {
		if !model.EsEnteroPositivo(*req.DebtAmount) {
			return nil, NewValidationError("debtAmount", "debtAmount debe ser un número entero positivo")
		}
		if !req.DebtAmount.Equal(credito.DebtAmount) {
			monto := req.DebtAmount.IntPart()
			plan.Actualizacion.DebtAmount = &monto
		}
	}
	if req.Observaciones != nil {
		obs := strings.TrimSpace(*req.Observaciones)
		actual := ""
		if credito.Observaciones != nil {
			actual = *credito.Observaciones
		}
		if obs != actual {
			plan.Actualizacion.Observaciones = &obs
		}
	}

	if plan.Actualizacion == (dto.ActualizarCreditoPayload{}) {
		return nil, NewValidationError("credito", "no hay cambios para guardar")
	}
	return plan, nil
}

// CicloCreditoService executes edits planned by Planear.
type CicloCreditoService interface {
	Campos(credito *model.Credito) dto.CamposEditablesResponse
	Editar(ctx context.Context, credito *model.Credito, req dto.EditarCreditoRequest) (*model.Credito, error)
}

type cicloCreditoService struct {
	creditos CreditoService
	facturas FacturaService
}

func NewCicloCreditoService(creditos CreditoService, facturas FacturaService) CicloCreditoService {
	return &cicloCreditoService{creditos: creditos, facturas: facturas}
}

func (s *cicloCreditoService) Campos(credito *model.Credito) dto.CamposEditablesResponse {
	return CamposEditables(credito.State)
}

// Editar runs the edit as two phases.
//
// Phase 1, only for Generado credits: dispatch the bill. If it fails the
// credit update is not attempted.
// Phase 2: PATCH the credit. If it fails after a successful dispatch the result
// is *ErrEdicionParcial: the bill stays on the backend, the credit keeps its
// previous state, and nothing is compensated.
//
// The returned credit is the backend's view after the update; on any error the
// caller must keep showing the credit it passed in.
func (s *cicloCreditoService) Editar(ctx context.Context, credito *model.Credito, req dto.EditarCreditoRequest) (*model.Credito, error) {
	plan, err := Planear(credito, req)
	if err != nil {
		return nil, err
	}

	if plan.Despacho != nil {
		if _, err := s.facturas.Despachar(ctx, *plan.Despacho); err != nil {
			log.Warn().Int64("credito_id", credito.ID).Str("idbill", plan.Despacho.IDBill).Err(err).
				Msg("despacho de factura fallido, credito sin cambios")
			return nil, err
		}
	}

	actualizado, err := s.creditos.Actualizar(ctx, credito.ID, plan.Actualizacion)
	if err != nil {
		if plan.Despacho != nil {
			log.Error().Int64("credito_id", credito.ID).Str("idbill", plan.Despacho.IDBill).Err(err).
				Msg("factura despachada sin actualizar el credito")
			return nil, &ErrEdicionParcial{Factura: *plan.Despacho, Err: err}
		}
		return nil, err
	}
	if actualizado == nil || actualizado.ID == 0 {
		actualizado = aplicarPlan(credito, plan)
	}
	return actualizado, nil
}

// aplicarPlan projects a successful update onto a copy of the credit, for
// backends that answer PATCH without a body.
func aplicarPlan(credito *model.Credito, plan *PlanEdicion) *model.Credito {
	c := *credito
	u := plan.Actualizacion
	if u.State != nil {
		c.State = *u.State
	}
	if u.DebtAmount != nil {
		c.DebtAmount = decimal.NewFromInt(*u.DebtAmount)
	}
	if u.Observaciones != nil {
		obs := *u.Observaciones
		c.Observaciones = &obs
	}
	if plan.Despacho != nil {
		c.Bill = &model.Factura{ID: plan.Despacho.IDBill, OrderID: plan.Despacho.OrderID, Fecha: plan.Despacho.BillDate}
	}
	return &c
}
