// Package factura contiene los catálogos y las dos validaciones del
// comprobante: estructural (tipos, rangos, enums, patrones) y de reglas de
// negocio (coherencia aritmética entre líneas y resumen), según el esquema de
// factura electrónica de Hacienda v4.3.
package factura

// =============================================================================
// Tipos de comprobante (nota 4.3 - tipoDocumento)
// =============================================================================

const (
	TipoFacturaElectronica  = "01" // Factura electrónica
	TipoNotaDebito          = "02" // Nota de débito
	TipoNotaCredito         = "03" // Nota de crédito
	TipoTiquete             = "04" // Tiquete electrónico
	TipoConfirmacionAcepta  = "05"
	TipoConfirmacionParcial = "06"
	TipoConfirmacionRechazo = "07"
	TipoFacturaCompra       = "08" // Factura electrónica de compra
	TipoFacturaExportacion  = "09" // Factura electrónica de exportación
)

// TiposDocumentoValidos códigos de tipo de documento aceptados.
var TiposDocumentoValidos = map[string]bool{
	TipoFacturaElectronica: true, TipoNotaDebito: true, TipoNotaCredito: true,
	TipoTiquete: true, TipoConfirmacionAcepta: true, TipoConfirmacionParcial: true,
	TipoConfirmacionRechazo: true, TipoFacturaCompra: true, TipoFacturaExportacion: true,
}

// =============================================================================
// Tipos de identificación
// =============================================================================

const (
	IdentificacionFisica   = "01" // Cédula física
	IdentificacionJuridica = "02" // Cédula jurídica
	IdentificacionDIMEX    = "03"
	IdentificacionNITE     = "04"
)

// TiposIdentificacionValidos códigos de identificación aceptados.
var TiposIdentificacionValidos = map[string]bool{
	IdentificacionFisica: true, IdentificacionJuridica: true,
	IdentificacionDIMEX: true, IdentificacionNITE: true,
}

// =============================================================================
// Monedas
// =============================================================================

// MonedaLocal es la moneda por defecto cuando el payload no la indica.
const MonedaLocal = "CRC"

// MonedasValidas códigos de moneda aceptados.
var MonedasValidas = map[string]bool{"CRC": true, "USD": true, "EUR": true}

// =============================================================================
// Unidades de medida
// =============================================================================

// UnidadPorDefecto unidad de medida aplicada cuando la línea no la indica.
const UnidadPorDefecto = "Unid"

// UnidadesMedidaValidas unidades de medida aceptadas en líneas de detalle.
var UnidadesMedidaValidas = map[string]bool{
	"Unid": true, "Kg": true, "Lt": true, "Mt": true, "Hrs": true, "Otros": true,
}

// =============================================================================
// Impuestos
// =============================================================================

const (
	ImpuestoIVA          = "01" // IVA
	TarifaGeneral        = "08" // Tarifa general 13%
	TarifaGeneralPorcent = 13
)

// CodigosImpuestoValidos códigos de impuesto aceptados.
var CodigosImpuestoValidos = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true,
	"06": true, "07": true, "08": true, "99": true,
}

// CodigosTarifaValidos códigos de tarifa de impuesto aceptados.
var CodigosTarifaValidos = map[string]bool{
	"01": true, "02": true, "03": true, "04": true,
	"05": true, "06": true, "07": true, "08": true,
}

// =============================================================================
// Condición de venta
// =============================================================================

const (
	CondicionContado = "01"
	CondicionCredito = "02"
)

// CondicionesVentaValidas condiciones de venta aceptadas.
var CondicionesVentaValidas = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true, "99": true,
}
