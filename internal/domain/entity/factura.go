// Package entity define las entidades del comprobante electrónico con los
// nombres de campo del esquema de Hacienda (v4.3). Todos los montos usan
// decimal.Decimal; nunca float64.
package entity

import "github.com/shopspring/decimal"

// Estados del ciclo de vida local de una factura emitida.
const (
	EstadoPendiente = "pending" // emitida, en el área principal
	EstadoEnviada   = "sent"    // copiada al área sent/ con metadatos de envío
)

// Estados devueltos por el adaptador ATV en modo simulado.
const (
	EstadoSimuladoEmitido   = "SIMULATED_EMITIDO"
	EstadoSimuladoValidado  = "VALIDADO_SIMULADO"
	EstadoSimuladoEnviado   = "ENVIADO_SIMULADO"
	EstadoSimuladoProcesado = "PROCESADO_SIMULADO"
)

// Parte representa al emisor o receptor del comprobante.
type Parte struct {
	Nombre             string `json:"nombre"`
	Identificacion     string `json:"identificacion"`
	TipoIdentificacion string `json:"tipoIdentificacion"`
	CorreoElectronico  string `json:"correoElectronico,omitempty"`
	Telefono           string `json:"telefono,omitempty"`
	CodigoPais         string `json:"codigoPais,omitempty"`
	Provincia          string `json:"provincia,omitempty"`
	Canton             string `json:"canton,omitempty"`
	Distrito           string `json:"distrito,omitempty"`
	Direccion          string `json:"direccion,omitempty"`
}

// Impuesto es el sub-registro de impuesto de una línea de detalle.
type Impuesto struct {
	Codigo       string          `json:"codigo"`
	CodigoTarifa string          `json:"codigoTarifa"`
	Tarifa       decimal.Decimal `json:"tarifa"`
	Monto        decimal.Decimal `json:"monto"`
}

// LineaDetalle es una línea del detalle de servicio.
//
// Invariantes aritméticas (tolerancia 0.01, verificadas por factura.ValidarReglas):
//
//	montoTotal      = cantidad × precioUnitario
//	subtotal        = montoTotal − descuento
//	impuesto.monto  = subtotal × impuesto.tarifa / 100
//	montoTotalLinea = subtotal + impuesto.monto
type LineaDetalle struct {
	NumeroLinea         int             `json:"numeroLinea"`
	Codigo              string          `json:"codigo,omitempty"`
	Descripcion         string          `json:"descripcion"`
	Cantidad            decimal.Decimal `json:"cantidad"`
	UnidadMedida        string          `json:"unidadMedida"`
	PrecioUnitario      decimal.Decimal `json:"precioUnitario"`
	MontoTotal          decimal.Decimal `json:"montoTotal"`
	Descuento           decimal.Decimal `json:"descuento"`
	NaturalezaDescuento string          `json:"naturalezaDescuento,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Impuesto            Impuesto        `json:"impuesto"`
	MontoTotalLinea     decimal.Decimal `json:"montoTotalLinea"`
}

// ResumenFactura agrega los totales del comprobante.
type ResumenFactura struct {
	MontoTotalServiciosGravados decimal.Decimal `json:"montoTotalServiciosGravados"`
	MontoTotalServiciosExentos  decimal.Decimal `json:"montoTotalServiciosExentos"`
	MontoTotalMercanciaGravada  decimal.Decimal `json:"montoTotalMercanciaGravada"`
	MontoTotalMercanciaExenta   decimal.Decimal `json:"montoTotalMercanciaExenta"`
	TotalGravado                decimal.Decimal `json:"totalGravado"`
	TotalExento                 decimal.Decimal `json:"totalExento"`
	TotalVenta                  decimal.Decimal `json:"totalVenta"`
	TotalDescuentos             decimal.Decimal `json:"totalDescuentos"`
	TotalVentaNeta              decimal.Decimal `json:"totalVentaNeta"`
	TotalImpuesto               decimal.Decimal `json:"totalImpuesto"`
	TotalComprobante            decimal.Decimal `json:"totalComprobante"`
}

// Factura es el comprobante electrónico normalizado tras la validación
// estructural (defaults aplicados, tipos fuertes).
type Factura struct {
	TipoDocumento     string          `json:"tipoDocumento"`
	NumeroConsecutivo string          `json:"numeroConsecutivo,omitempty"`
	Clave             string          `json:"clave,omitempty"` // asignada al emitir ante ATV
	FechaEmision      string          `json:"fechaEmision,omitempty"` // ISO-8601
	CodigoMoneda      string          `json:"codigoMoneda"`
	TipoCambio        decimal.Decimal `json:"tipoCambio"`
	Emisor            Parte           `json:"emisor"`
	Receptor          Parte           `json:"receptor"`
	DetalleServicio   []LineaDetalle  `json:"detalleServicio"`
	ResumenFactura    ResumenFactura  `json:"resumenFactura"`
	CondicionVenta    string          `json:"condicionVenta"`
	PlazoCredito      int             `json:"plazoCredito,omitempty"`
	Observaciones     string          `json:"observaciones,omitempty"`
}
