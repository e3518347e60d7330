// Package facturas orquesta el ciclo de vida del comprobante electrónico:
// validación, asignación de consecutivo, emisión ante ATV, persistencia local,
// envío y consulta.
package facturas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tu-usuario/factura-cr/internal/application/dto"
	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/internal/domain/factura"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
	atvkeys "github.com/tu-usuario/factura-cr/pkg/atv"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

// ValidationError agrupa los errores de validación de un comprobante
// rechazado. El transporte lo mapea a 400 con el detalle campo a campo.
type ValidationError struct {
	Errores []factura.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("factura inválida: %d errores de validación", len(e.Errores))
}

// AsValidationError extrae un *ValidationError de la cadena de errores.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// UseCase compone validadores, generador de consecutivos, adaptador ATV,
// almacén y generador de PDF.
type UseCase struct {
	seq    Sequencer
	store  Storage
	gw     Gateway
	pdfGen PDFGenerator
	env    string
	log    *logger.Logger
}

// NewUseCase construye el caso de uso inyectando todas sus dependencias.
func NewUseCase(seq Sequencer, store Storage, gw Gateway, pdfGen PDFGenerator, env string, log *logger.Logger) *UseCase {
	return &UseCase{seq: seq, store: store, gw: gw, pdfGen: pdfGen, env: env, log: log}
}

// Emitir valida el payload, asigna consecutivo si no trae, emite ante ATV y
// persiste el JSON y el XML resultantes. El comprobante se rechaza completo
// ante cualquier error de validación.
func (uc *UseCase) Emitir(ctx context.Context, p *factura.Payload) (*dto.EmitirResponse, error) {
	f, errs := factura.ValidarEstructura(p)
	if len(errs) > 0 {
		return nil, &ValidationError{Errores: errs}
	}
	if errs := factura.ValidarReglas(f); len(errs) > 0 {
		return nil, &ValidationError{Errores: errs}
	}

	if f.FechaEmision == "" {
		f.FechaEmision = time.Now().UTC().Format(time.RFC3339)
	}

	var consInfo dto.ConsecutivoInfo
	if f.NumeroConsecutivo == "" {
		res, err := uc.seq.Generar(ctx)
		if err != nil {
			return nil, fmt.Errorf("emitir: asignar consecutivo: %w", err)
		}
		f.NumeroConsecutivo = res.Consecutivo
		consInfo = dto.ConsecutivoInfo{Valor: res.Consecutivo, Degradado: res.Degradado}
	} else {
		consInfo = dto.ConsecutivoInfo{Valor: f.NumeroConsecutivo}
	}

	em, err := uc.gw.EmitirComprobante(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("emitir: %w", err)
	}
	f.Clave = em.Clave

	var archivos []storage.SavedFile
	saved, err := uc.store.SaveJSON(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("emitir: persistir factura: %w", err)
	}
	archivos = append(archivos, saved)

	if em.XML != "" {
		savedXML, err := uc.store.SaveXML(ctx, f.NumeroConsecutivo, em.XML)
		if err != nil {
			return nil, fmt.Errorf("emitir: persistir xml: %w", err)
		}
		archivos = append(archivos, savedXML)
	}

	uc.log.Info().Str("consecutivo", f.NumeroConsecutivo).Str("clave", em.Clave).
		Bool("degradado", consInfo.Degradado).Msg("factura emitida")
	return &dto.EmitirResponse{
		Success:     true,
		Mensaje:     em.Mensaje,
		Factura:     f,
		Consecutivo: consInfo,
		Emision:     em,
		Archivos:    archivos,
	}, nil
}

// Validar valida un comprobante: por payload completo (estructura + reglas,
// sin emitir), o por clave o consecutivo de un comprobante ya emitido.
func (uc *UseCase) Validar(ctx context.Context, req dto.ValidarRequest) (*dto.ValidarResponse, error) {
	if req.Factura != nil {
		f, errs := factura.ValidarEstructura(req.Factura)
		if len(errs) == 0 {
			errs = factura.ValidarReglas(f)
		}
		resp := &dto.ValidarResponse{Success: len(errs) == 0, Errores: errs}
		if resp.Success {
			resp.Mensaje = "Factura válida"
		} else {
			resp.Mensaje = "Factura inválida"
		}
		return resp, nil
	}

	clave, err := uc.resolveClave(ctx, req.Clave, req.Consecutivo)
	if err != nil {
		return nil, fmt.Errorf("validar: %w", err)
	}
	v, err := uc.gw.ValidarComprobante(ctx, clave)
	if err != nil {
		return nil, fmt.Errorf("validar: %w", err)
	}
	return &dto.ValidarResponse{Success: true, Mensaje: v.Mensaje, Validacion: v}, nil
}

// Enviar envía un comprobante emitido a ATV y lo marca como enviado en el
// almacén. Un fallo del marcado local no revierte el envío: se registra y la
// respuesta lo omite.
func (uc *UseCase) Enviar(ctx context.Context, req dto.EnviarRequest) (*dto.EnviarResponse, error) {
	clave, err := uc.resolveClave(ctx, req.Clave, req.Consecutivo)
	if err != nil {
		return nil, fmt.Errorf("enviar: %w", err)
	}

	env, err := uc.gw.EnviarComprobante(ctx, clave)
	if err != nil {
		return nil, fmt.Errorf("enviar: %w", err)
	}

	cons := req.Consecutivo
	if cons == "" {
		cons = consecutivoDeClave(clave)
	}

	resp := &dto.EnviarResponse{Success: true, Mensaje: env.Mensaje, Envio: env}
	mark, err := uc.store.MarkAsSent(ctx, cons, map[string]any{
		"clave":             clave,
		"estado":            env.Estado,
		"numeroComprobante": env.NumeroComprobante,
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("consecutivo", cons).
			Msg("envío exitoso pero no se pudo marcar como enviada")
	} else {
		resp.Marcado = &mark
	}
	return resp, nil
}

// Consultar devuelve el documento almacenado y, si tiene clave, el estado del
// comprobante según ATV. Un error de ATV no oculta el documento local.
func (uc *UseCase) Consultar(ctx context.Context, consecutivo string, includeContent bool) (*dto.ConsultarResponse, error) {
	doc, err := uc.store.Get(ctx, consecutivo)
	if err != nil {
		return nil, fmt.Errorf("consultar: %w", err)
	}

	resp := &dto.ConsultarResponse{Documento: doc}
	if clave := claveDeContenido(doc.Contenido); clave != "" {
		consulta, err := uc.gw.ConsultarComprobante(ctx, clave)
		if err != nil {
			resp.ATVError = err.Error()
		} else {
			resp.Consulta = consulta
		}
	}
	if !includeContent {
		doc.Contenido = nil
	}
	return resp, nil
}

// Listar enumera los comprobantes con paginación en memoria (limit máximo 100).
func (uc *UseCase) Listar(ctx context.Context, filtro string, includeContent bool, limit, offset int) (*dto.ListarResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	items, err := uc.store.List(ctx, filtro, includeContent)
	if err != nil {
		return nil, fmt.Errorf("listar: %w", err)
	}

	total := len(items)
	if offset > total {
		offset = total
	}
	fin := offset + limit
	if fin > total {
		fin = total
	}

	return &dto.ListarResponse{
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Items:  items[offset:fin],
		Stats:  uc.store.Stats(ctx),
	}, nil
}

// Eliminar borra todos los archivos de un comprobante. Bloqueado en producción.
func (uc *UseCase) Eliminar(ctx context.Context, consecutivo string) (*dto.EliminarResponse, error) {
	if uc.env == "production" {
		return nil, fmt.Errorf("eliminar factura: %w", domain.ErrProductionGuard)
	}

	n, err := uc.store.Delete(ctx, consecutivo)
	if err != nil {
		return nil, fmt.Errorf("eliminar: %w", err)
	}
	return &dto.EliminarResponse{
		Success:  true,
		Mensaje:  fmt.Sprintf("Factura %s eliminada", consecutivo),
		Archivos: n,
	}, nil
}

// EstadoSistema reúne el estado del adaptador, el contador y el almacén.
func (uc *UseCase) EstadoSistema(ctx context.Context) *dto.EstadoSistemaResponse {
	st := uc.gw.Status()
	return &dto.EstadoSistemaResponse{
		Mode:        st.Mode,
		ATV:         st,
		Consecutivo: uc.seq.Stats(ctx),
		Storage:     uc.store.Stats(ctx),
	}
}

// PDF genera la representación gráfica de un comprobante almacenado. Devuelve
// los bytes del documento y el nombre de archivo sugerido.
func (uc *UseCase) PDF(ctx context.Context, consecutivo string) ([]byte, string, error) {
	doc, err := uc.store.Get(ctx, consecutivo)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: %w", err)
	}
	if doc.Contenido == nil {
		return nil, "", fmt.Errorf("pdf: factura %s sin contenido JSON: %w", consecutivo, domain.ErrNotFound)
	}

	var f entity.Factura
	if err := json.Unmarshal(doc.Contenido, &f); err != nil {
		return nil, "", fmt.Errorf("pdf: contenido corrupto: %w", err)
	}

	data, err := uc.pdfGen.GenerateFacturaPDF(ctx, &f, f.Clave)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: %w", err)
	}
	return data, fmt.Sprintf("FACTURA_%s.pdf", consecutivo), nil
}

// resolveClave obtiene la clave del comprobante: directa, o buscando el JSON
// almacenado del consecutivo.
func (uc *UseCase) resolveClave(ctx context.Context, clave, consecutivo string) (string, error) {
	if clave != "" {
		if !atvkeys.ValidateClave(clave) {
			return "", fmt.Errorf("clave inválida %q: %w", clave, domain.ErrInvalidInput)
		}
		return clave, nil
	}
	if consecutivo == "" {
		return "", fmt.Errorf("se requiere clave o consecutivo: %w", domain.ErrInvalidInput)
	}

	doc, err := uc.store.Get(ctx, consecutivo)
	if err != nil {
		return "", err
	}
	if c := claveDeContenido(doc.Contenido); c != "" {
		return c, nil
	}
	return "", fmt.Errorf("la factura %s no tiene clave asignada: %w", consecutivo, domain.ErrInvalidInput)
}

// claveDeContenido extrae el campo clave del JSON almacenado.
func claveDeContenido(contenido json.RawMessage) string {
	if contenido == nil {
		return ""
	}
	var parcial struct {
		Clave string `json:"clave"`
	}
	if err := json.Unmarshal(contenido, &parcial); err != nil {
		return ""
	}
	return parcial.Clave
}

// consecutivoDeClave recorta el consecutivo embebido en la clave numérica
// (posiciones 23 a 43: país 3 + fecha 8 + emisor 12).
func consecutivoDeClave(clave string) string {
	if len(clave) < 43 {
		return ""
	}
	return clave[23:43]
}
