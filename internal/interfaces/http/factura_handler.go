// Package http expone el API REST de facturación sobre Fiber. Los handlers
// son delgados: decodifican, delegan al caso de uso y mapean errores a
// códigos HTTP.
package http

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/factura-cr/internal/application/dto"
	"github.com/tu-usuario/factura-cr/internal/application/facturas"
	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/factura"
	atvkeys "github.com/tu-usuario/factura-cr/pkg/atv"
)

// FacturaHandler maneja las peticiones HTTP de facturación.
type FacturaHandler struct {
	uc *facturas.UseCase
}

// NewFacturaHandler construye el handler.
func NewFacturaHandler(uc *facturas.UseCase) *FacturaHandler {
	return &FacturaHandler{uc: uc}
}

// Emitir valida, emite y persiste un comprobante.
// POST /api/facturas/emitir
func (h *FacturaHandler) Emitir(c *fiber.Ctx) error {
	var p factura.Payload
	if err := decodeStrict(c.Body(), &p); err != nil {
		return badBody(c, err)
	}
	resp, err := h.uc.Emitir(c.Context(), &p)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Validar valida un payload o un comprobante ya emitido (clave/consecutivo).
// POST /api/facturas/validar
func (h *FacturaHandler) Validar(c *fiber.Ctx) error {
	var in dto.ValidarRequest
	if err := decodeStrict(c.Body(), &in); err != nil {
		return badBody(c, err)
	}
	resp, err := h.uc.Validar(c.Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.JSON(resp)
}

// Enviar envía un comprobante a ATV y lo marca como enviado.
// POST /api/facturas/enviar
func (h *FacturaHandler) Enviar(c *fiber.Ctx) error {
	var in dto.EnviarRequest
	if err := decodeStrict(c.Body(), &in); err != nil {
		return badBody(c, err)
	}
	resp, err := h.uc.Enviar(c.Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// Listar enumera comprobantes con filtro por estado y paginación.
// GET /api/facturas?status=all|pending|sent&includeContent=&limit=&offset=
func (h *FacturaHandler) Listar(c *fiber.Ctx) error {
	filtro := c.Query("status", "all")
	if filtro != "all" && filtro != "pending" && filtro != "sent" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "status debe ser all, pending o sent",
		})
	}
	resp, err := h.uc.Listar(
		c.Context(),
		filtro,
		c.QueryBool("includeContent", false),
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// Status reporta el estado del sistema (modo ATV, contador, almacén).
// GET /api/facturas/status
func (h *FacturaHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.uc.EstadoSistema(c.Context()))
}

// Consultar devuelve el documento almacenado y el estado ante ATV.
// GET /api/facturas/:consecutivo
func (h *FacturaHandler) Consultar(c *fiber.Ctx) error {
	cons, err := consecutivoParam(c)
	if err != nil {
		return errorResponse(c, err)
	}
	resp, err := h.uc.Consultar(c.Context(), cons, c.QueryBool("includeContent", true))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// PDF descarga la representación gráfica del comprobante.
// GET /api/facturas/:consecutivo/pdf
func (h *FacturaHandler) PDF(c *fiber.Ctx) error {
	cons, err := consecutivoParam(c)
	if err != nil {
		return errorResponse(c, err)
	}
	data, filename, err := h.uc.PDF(c.Context(), cons)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// Eliminar borra un comprobante del almacén (solo fuera de producción).
// DELETE /api/facturas/:consecutivo
func (h *FacturaHandler) Eliminar(c *fiber.Ctx) error {
	cons, err := consecutivoParam(c)
	if err != nil {
		return errorResponse(c, err)
	}
	resp, err := h.uc.Eliminar(c.Context(), cons)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// decodeStrict decodifica JSON rechazando campos desconocidos.
func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "INVALID_BODY",
		Message: "cuerpo inválido: " + err.Error(),
	})
}

func consecutivoParam(c *fiber.Ctx) (string, error) {
	cons := c.Params("consecutivo")
	if !atvkeys.ValidateConsecutivo(cons) {
		return "", domain.ErrInvalidInput
	}
	return cons, nil
}

// errorResponse mapea los errores del dominio a códigos HTTP.
func errorResponse(c *fiber.Ctx, err error) error {
	if ve, ok := facturas.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "la factura no supera la validación",
			Details: ve.Errores,
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrProductionGuard):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "operación deshabilitada en producción"})
	case errors.Is(err, domain.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
