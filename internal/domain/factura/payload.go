package factura

import "github.com/shopspring/decimal"

// Payload es el comprobante tal como llega del cliente, antes de validar:
// campos opcionales como punteros para distinguir "ausente" de "cero".
// El decode JSON se hace con DisallowUnknownFields en el transporte, de modo
// que los campos desconocidos se rechazan antes de llegar aquí.
type Payload struct {
	TipoDocumento     string           `json:"tipoDocumento"`
	NumeroConsecutivo string           `json:"numeroConsecutivo"`
	FechaEmision      string           `json:"fechaEmision"`
	CodigoMoneda      string           `json:"codigoMoneda"`
	TipoCambio        *decimal.Decimal `json:"tipoCambio"`
	Emisor            *PartePayload    `json:"emisor"`
	Receptor          *PartePayload    `json:"receptor"`
	DetalleServicio   []LineaPayload   `json:"detalleServicio"`
	ResumenFactura    *ResumenPayload  `json:"resumenFactura"`
	CondicionVenta    string           `json:"condicionVenta"`
	PlazoCredito      *int             `json:"plazoCredito"`
	Observaciones     string           `json:"observaciones"`
}

// PartePayload emisor o receptor sin validar.
type PartePayload struct {
	Nombre             string `json:"nombre"`
	Identificacion     string `json:"identificacion"`
	TipoIdentificacion string `json:"tipoIdentificacion"`
	CorreoElectronico  string `json:"correoElectronico"`
	Telefono           string `json:"telefono"`
	CodigoPais         string `json:"codigoPais"`
	Provincia          string `json:"provincia"`
	Canton             string `json:"canton"`
	Distrito           string `json:"distrito"`
	Direccion          string `json:"direccion"`
}

// LineaPayload línea de detalle sin validar.
type LineaPayload struct {
	NumeroLinea         *int             `json:"numeroLinea"`
	Codigo              string           `json:"codigo"`
	Descripcion         string           `json:"descripcion"`
	Cantidad            *decimal.Decimal `json:"cantidad"`
	UnidadMedida        string           `json:"unidadMedida"`
	PrecioUnitario      *decimal.Decimal `json:"precioUnitario"`
	MontoTotal          *decimal.Decimal `json:"montoTotal"`
	Descuento           *decimal.Decimal `json:"descuento"`
	NaturalezaDescuento string           `json:"naturalezaDescuento"`
	Subtotal            *decimal.Decimal `json:"subtotal"`
	Impuesto            *ImpuestoPayload `json:"impuesto"`
	MontoTotalLinea     *decimal.Decimal `json:"montoTotalLinea"`
}

// ImpuestoPayload sub-registro de impuesto sin validar.
type ImpuestoPayload struct {
	Codigo       string           `json:"codigo"`
	CodigoTarifa string           `json:"codigoTarifa"`
	Tarifa       *decimal.Decimal `json:"tarifa"`
	Monto        *decimal.Decimal `json:"monto"`
}

// ResumenPayload totales del comprobante sin validar.
type ResumenPayload struct {
	MontoTotalServiciosGravados *decimal.Decimal `json:"montoTotalServiciosGravados"`
	MontoTotalServiciosExentos  *decimal.Decimal `json:"montoTotalServiciosExentos"`
	MontoTotalMercanciaGravada  *decimal.Decimal `json:"montoTotalMercanciaGravada"`
	MontoTotalMercanciaExenta   *decimal.Decimal `json:"montoTotalMercanciaExenta"`
	TotalGravado                *decimal.Decimal `json:"totalGravado"`
	TotalExento                 *decimal.Decimal `json:"totalExento"`
	TotalVenta                  *decimal.Decimal `json:"totalVenta"`
	TotalDescuentos             *decimal.Decimal `json:"totalDescuentos"`
	TotalVentaNeta              *decimal.Decimal `json:"totalVentaNeta"`
	TotalImpuesto               *decimal.Decimal `json:"totalImpuesto"`
	TotalComprobante            *decimal.Decimal `json:"totalComprobante"`
}
