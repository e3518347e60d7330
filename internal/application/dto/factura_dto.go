// Package dto define los cuerpos de petición y respuesta del API.
package dto

import (
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/internal/domain/factura"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/atv"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/consecutivo"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
)

// ErrorResponse cuerpo de error HTTP. Details lleva los errores de validación
// campo a campo cuando aplica.
type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Details []factura.FieldError `json:"details,omitempty"`
}

// ConsecutivoInfo cómo se obtuvo el consecutivo de la emisión.
type ConsecutivoInfo struct {
	Valor     string `json:"valor"`
	Degradado bool   `json:"degradado,omitempty"` // true: fallback por timestamp
}

// EmitirResponse respuesta de POST /api/facturas/emitir.
type EmitirResponse struct {
	Success     bool                `json:"success"`
	Mensaje     string              `json:"mensaje"`
	Factura     *entity.Factura     `json:"factura"`
	Consecutivo ConsecutivoInfo     `json:"consecutivo"`
	Emision     *atv.Emision        `json:"emision"`
	Archivos    []storage.SavedFile `json:"archivos"`
}

// ValidarRequest body para POST /api/facturas/validar: o una clave/consecutivo
// de un comprobante ya emitido, o un payload completo a validar sin emitir.
type ValidarRequest struct {
	Clave       string           `json:"clave,omitempty"`
	Consecutivo string           `json:"consecutivo,omitempty"`
	Factura     *factura.Payload `json:"factura,omitempty"`
}

// ValidarResponse respuesta de POST /api/facturas/validar.
type ValidarResponse struct {
	Success    bool                 `json:"success"`
	Mensaje    string               `json:"mensaje"`
	Errores    []factura.FieldError `json:"errores,omitempty"`
	Validacion *atv.Validacion      `json:"validacion,omitempty"`
}

// EnviarRequest body para POST /api/facturas/enviar.
type EnviarRequest struct {
	Clave       string `json:"clave,omitempty"`
	Consecutivo string `json:"consecutivo,omitempty"`
}

// EnviarResponse respuesta de POST /api/facturas/enviar.
type EnviarResponse struct {
	Success bool                `json:"success"`
	Mensaje string              `json:"mensaje"`
	Envio   *atv.Envio          `json:"envio"`
	Marcado *storage.MarkResult `json:"marcado,omitempty"`
}

// ConsultarResponse respuesta de GET /api/facturas/:consecutivo.
type ConsultarResponse struct {
	Documento *storage.Documento `json:"documento"`
	Consulta  *atv.Consulta      `json:"consulta,omitempty"`
	ATVError  string             `json:"atvError,omitempty"`
}

// ListarResponse respuesta de GET /api/facturas.
type ListarResponse struct {
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Items  []storage.ArchivoInfo `json:"items"`
	Stats  storage.StorageStats  `json:"stats"`
}

// EstadoSistemaResponse respuesta de GET /api/facturas/status.
type EstadoSistemaResponse struct {
	Mode        string               `json:"mode"`
	ATV         atv.AdapterStatus    `json:"atv"`
	Consecutivo consecutivo.Stats    `json:"consecutivo"`
	Storage     storage.StorageStats `json:"storage"`
}

// EliminarResponse respuesta de DELETE /api/facturas/:consecutivo.
type EliminarResponse struct {
	Success  bool   `json:"success"`
	Mensaje  string `json:"mensaje"`
	Archivos int    `json:"archivos"`
}
