package factura

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/pkg/atv"
)

// FieldError es un error de validación a nivel de campo. Las respuestas HTTP
// siempre lo exponen como arreglo, aunque haya un solo error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func fieldErr(field, message string, value any) FieldError {
	return FieldError{Field: field, Message: message, Value: value}
}

var (
	identificacionRe = regexp.MustCompile(`^[0-9]{9,12}$`)
	correoRe         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const maxLineas = 1000

// ValidarEstructura valida el payload contra el esquema (campos requeridos,
// patrones, rangos, enums, precisión de 2 decimales) y aplica los valores por
// defecto. Función pura: acumula todos los errores en lugar de abortar en el
// primero. Si no hay errores devuelve la Factura normalizada.
func ValidarEstructura(p *Payload) (*entity.Factura, []FieldError) {
	var errs []FieldError
	if p == nil {
		return nil, []FieldError{fieldErr("", "el payload es requerido", nil)}
	}

	f := &entity.Factura{
		TipoDocumento:     defaultStr(p.TipoDocumento, TipoFacturaElectronica),
		NumeroConsecutivo: p.NumeroConsecutivo,
		FechaEmision:      p.FechaEmision,
		CodigoMoneda:      defaultStr(p.CodigoMoneda, MonedaLocal),
		CondicionVenta:    defaultStr(p.CondicionVenta, CondicionContado),
		Observaciones:     p.Observaciones,
	}

	if !TiposDocumentoValidos[f.TipoDocumento] {
		errs = append(errs, fieldErr("tipoDocumento", "tipo de documento inválido", p.TipoDocumento))
	}
	if p.NumeroConsecutivo != "" && !atv.ValidateConsecutivo(p.NumeroConsecutivo) {
		errs = append(errs, fieldErr("numeroConsecutivo", "el número consecutivo debe tener exactamente 20 dígitos", p.NumeroConsecutivo))
	}
	if p.FechaEmision != "" {
		if _, err := time.Parse(time.RFC3339, p.FechaEmision); err != nil {
			errs = append(errs, fieldErr("fechaEmision", "la fecha de emisión debe estar en formato ISO 8601", p.FechaEmision))
		}
	}
	if !MonedasValidas[f.CodigoMoneda] {
		errs = append(errs, fieldErr("codigoMoneda", "código de moneda debe ser: CRC, USD, EUR", p.CodigoMoneda))
	}

	f.TipoCambio = decimal.NewFromInt(1)
	if p.TipoCambio != nil {
		f.TipoCambio = *p.TipoCambio
		errs = append(errs, checkMonto("tipoCambio", *p.TipoCambio, decimal.NewFromFloat(0.01))...)
	}

	if !CondicionesVentaValidas[f.CondicionVenta] {
		errs = append(errs, fieldErr("condicionVenta", "condición de venta inválida", p.CondicionVenta))
	}
	if p.PlazoCredito != nil {
		f.PlazoCredito = *p.PlazoCredito
		if *p.PlazoCredito < 0 {
			errs = append(errs, fieldErr("plazoCredito", "el plazo de crédito debe ser mayor o igual a 0", *p.PlazoCredito))
		}
	}
	if len(p.Observaciones) > 1000 {
		errs = append(errs, fieldErr("observaciones", "las observaciones no pueden exceder 1000 caracteres", nil))
	}

	// Emisor y receptor
	if p.Emisor == nil {
		errs = append(errs, fieldErr("emisor", "el emisor es requerido", nil))
	} else {
		parte, pErrs := validarParte("emisor", p.Emisor, IdentificacionJuridica)
		f.Emisor = parte
		errs = append(errs, pErrs...)
	}
	if p.Receptor == nil {
		errs = append(errs, fieldErr("receptor", "el receptor es requerido", nil))
	} else {
		parte, pErrs := validarParte("receptor", p.Receptor, IdentificacionFisica)
		f.Receptor = parte
		errs = append(errs, pErrs...)
	}

	// Detalle de servicio
	switch {
	case p.DetalleServicio == nil:
		errs = append(errs, fieldErr("detalleServicio", "el detalle de servicio es requerido", nil))
	case len(p.DetalleServicio) == 0:
		errs = append(errs, fieldErr("detalleServicio", "debe incluir al menos un item en el detalle", nil))
	case len(p.DetalleServicio) > maxLineas:
		errs = append(errs, fieldErr("detalleServicio", fmt.Sprintf("no puede incluir más de %d items", maxLineas), len(p.DetalleServicio)))
	default:
		f.DetalleServicio = make([]entity.LineaDetalle, len(p.DetalleServicio))
		for i := range p.DetalleServicio {
			linea, lErrs := validarLinea(i, &p.DetalleServicio[i])
			f.DetalleServicio[i] = linea
			errs = append(errs, lErrs...)
		}
	}

	// Resumen
	if p.ResumenFactura == nil {
		errs = append(errs, fieldErr("resumenFactura", "el resumen de la factura es requerido", nil))
	} else {
		resumen, rErrs := validarResumen(p.ResumenFactura)
		f.ResumenFactura = resumen
		errs = append(errs, rErrs...)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return f, nil
}

func validarParte(prefix string, p *PartePayload, tipoDefault string) (entity.Parte, []FieldError) {
	var errs []FieldError

	parte := entity.Parte{
		Nombre:             p.Nombre,
		Identificacion:     p.Identificacion,
		TipoIdentificacion: defaultStr(p.TipoIdentificacion, tipoDefault),
		CorreoElectronico:  p.CorreoElectronico,
		Telefono:           p.Telefono,
		Provincia:          p.Provincia,
		Canton:             p.Canton,
		Distrito:           p.Distrito,
		Direccion:          p.Direccion,
	}
	if prefix == "emisor" {
		parte.CodigoPais = defaultStr(p.CodigoPais, "506")
	}

	if p.Nombre == "" {
		errs = append(errs, fieldErr(prefix+".nombre", "el nombre es requerido", nil))
	} else if len(p.Nombre) > 100 {
		errs = append(errs, fieldErr(prefix+".nombre", "el nombre no puede exceder 100 caracteres", nil))
	}
	if p.Identificacion == "" {
		errs = append(errs, fieldErr(prefix+".identificacion", "la identificación es requerida", nil))
	} else if !identificacionRe.MatchString(p.Identificacion) {
		errs = append(errs, fieldErr(prefix+".identificacion", "la identificación debe contener entre 9 y 12 dígitos", p.Identificacion))
	}
	if !TiposIdentificacionValidos[parte.TipoIdentificacion] {
		errs = append(errs, fieldErr(prefix+".tipoIdentificacion",
			"tipo de identificación debe ser: 01 (Física), 02 (Jurídica), 03 (DIMEX), 04 (NITE)", p.TipoIdentificacion))
	}
	if p.CorreoElectronico != "" && !correoRe.MatchString(p.CorreoElectronico) {
		errs = append(errs, fieldErr(prefix+".correoElectronico", "el correo electrónico debe tener un formato válido", p.CorreoElectronico))
	}
	if len(p.Telefono) > 20 {
		errs = append(errs, fieldErr(prefix+".telefono", "el teléfono no puede exceder 20 caracteres", nil))
	}
	for campo, valor := range map[string]string{"provincia": p.Provincia, "canton": p.Canton, "distrito": p.Distrito} {
		if len(valor) > 50 {
			errs = append(errs, fieldErr(prefix+"."+campo, "no puede exceder 50 caracteres", nil))
		}
	}
	if len(p.Direccion) > 200 {
		errs = append(errs, fieldErr(prefix+".direccion", "la dirección no puede exceder 200 caracteres", nil))
	}

	return parte, errs
}

func validarLinea(i int, p *LineaPayload) (entity.LineaDetalle, []FieldError) {
	var errs []FieldError
	prefix := fmt.Sprintf("detalleServicio[%d]", i)

	linea := entity.LineaDetalle{
		Codigo:              p.Codigo,
		Descripcion:         p.Descripcion,
		UnidadMedida:        defaultStr(p.UnidadMedida, UnidadPorDefecto),
		NaturalezaDescuento: p.NaturalezaDescuento,
	}

	if p.NumeroLinea == nil {
		errs = append(errs, fieldErr(prefix+".numeroLinea", "el número de línea es requerido", nil))
	} else {
		linea.NumeroLinea = *p.NumeroLinea
		if *p.NumeroLinea < 1 {
			errs = append(errs, fieldErr(prefix+".numeroLinea", "el número de línea debe ser mayor a 0", *p.NumeroLinea))
		}
	}

	if len(p.Codigo) > 20 {
		errs = append(errs, fieldErr(prefix+".codigo", "el código no puede exceder 20 caracteres", nil))
	}
	if p.Descripcion == "" {
		errs = append(errs, fieldErr(prefix+".descripcion", "la descripción es requerida", nil))
	} else if len(p.Descripcion) > 200 {
		errs = append(errs, fieldErr(prefix+".descripcion", "la descripción no puede exceder 200 caracteres", nil))
	}
	if !UnidadesMedidaValidas[linea.UnidadMedida] {
		errs = append(errs, fieldErr(prefix+".unidadMedida", "unidad de medida debe ser: Unid, Kg, Lt, Mt, Hrs, Otros", p.UnidadMedida))
	}
	if len(p.NaturalezaDescuento) > 80 {
		errs = append(errs, fieldErr(prefix+".naturalezaDescuento", "no puede exceder 80 caracteres", nil))
	}

	linea.Cantidad = requerirMonto(&errs, prefix+".cantidad", "la cantidad es requerida", p.Cantidad, decimal.NewFromFloat(0.01))
	linea.PrecioUnitario = requerirMonto(&errs, prefix+".precioUnitario", "el precio unitario es requerido", p.PrecioUnitario, decimal.Zero)
	linea.MontoTotal = requerirMonto(&errs, prefix+".montoTotal", "el monto total es requerido", p.MontoTotal, decimal.Zero)
	linea.Subtotal = requerirMonto(&errs, prefix+".subtotal", "el subtotal es requerido", p.Subtotal, decimal.Zero)
	linea.MontoTotalLinea = requerirMonto(&errs, prefix+".montoTotalLinea", "el monto total de línea es requerido", p.MontoTotalLinea, decimal.Zero)

	if p.Descuento != nil {
		linea.Descuento = *p.Descuento
		errs = append(errs, checkMonto(prefix+".descuento", *p.Descuento, decimal.Zero)...)
	}

	// Impuesto
	if p.Impuesto == nil {
		errs = append(errs, fieldErr(prefix+".impuesto", "el impuesto es requerido", nil))
	} else {
		imp := entity.Impuesto{
			Codigo:       defaultStr(p.Impuesto.Codigo, ImpuestoIVA),
			CodigoTarifa: defaultStr(p.Impuesto.CodigoTarifa, TarifaGeneral),
			Tarifa:       decimal.NewFromInt(TarifaGeneralPorcent),
		}
		if !CodigosImpuestoValidos[imp.Codigo] {
			errs = append(errs, fieldErr(prefix+".impuesto.codigo", "código de impuesto inválido", p.Impuesto.Codigo))
		}
		if !CodigosTarifaValidos[imp.CodigoTarifa] {
			errs = append(errs, fieldErr(prefix+".impuesto.codigoTarifa", "código de tarifa de impuesto inválido", p.Impuesto.CodigoTarifa))
		}
		if p.Impuesto.Tarifa != nil {
			imp.Tarifa = *p.Impuesto.Tarifa
			if imp.Tarifa.IsNegative() {
				errs = append(errs, fieldErr(prefix+".impuesto.tarifa", "la tarifa debe ser mayor o igual a 0", imp.Tarifa.String()))
			} else if imp.Tarifa.GreaterThan(decimal.NewFromInt(100)) {
				errs = append(errs, fieldErr(prefix+".impuesto.tarifa", "la tarifa no puede ser mayor a 100%", imp.Tarifa.String()))
			}
		}
		imp.Monto = requerirMonto(&errs, prefix+".impuesto.monto", "el monto del impuesto es requerido", p.Impuesto.Monto, decimal.Zero)
		linea.Impuesto = imp
	}

	return linea, errs
}

func validarResumen(p *ResumenPayload) (entity.ResumenFactura, []FieldError) {
	var errs []FieldError
	var r entity.ResumenFactura

	// Opcionales con default 0
	r.MontoTotalServiciosGravados = optMonto(&errs, "resumenFactura.montoTotalServiciosGravados", p.MontoTotalServiciosGravados)
	r.MontoTotalServiciosExentos = optMonto(&errs, "resumenFactura.montoTotalServiciosExentos", p.MontoTotalServiciosExentos)
	r.MontoTotalMercanciaGravada = optMonto(&errs, "resumenFactura.montoTotalMercanciaGravada", p.MontoTotalMercanciaGravada)
	r.MontoTotalMercanciaExenta = optMonto(&errs, "resumenFactura.montoTotalMercanciaExenta", p.MontoTotalMercanciaExenta)
	r.TotalExento = optMonto(&errs, "resumenFactura.totalExento", p.TotalExento)
	r.TotalDescuentos = optMonto(&errs, "resumenFactura.totalDescuentos", p.TotalDescuentos)

	// Requeridos
	r.TotalGravado = requerirMonto(&errs, "resumenFactura.totalGravado", "el total gravado es requerido", p.TotalGravado, decimal.Zero)
	r.TotalVenta = requerirMonto(&errs, "resumenFactura.totalVenta", "el total de venta es requerido", p.TotalVenta, decimal.Zero)
	r.TotalVentaNeta = requerirMonto(&errs, "resumenFactura.totalVentaNeta", "el total de venta neta es requerido", p.TotalVentaNeta, decimal.Zero)
	r.TotalImpuesto = requerirMonto(&errs, "resumenFactura.totalImpuesto", "el total de impuesto es requerido", p.TotalImpuesto, decimal.Zero)
	r.TotalComprobante = requerirMonto(&errs, "resumenFactura.totalComprobante", "el total del comprobante es requerido", p.TotalComprobante, decimal.Zero)

	return r, errs
}

// ── helpers ──────────────────────────────────────────────────────────────────

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// requerirMonto valida un monto requerido: presente, >= min y con máximo 2
// decimales. Devuelve el valor (o cero si está ausente). msgRequerido es el
// mensaje completo para el caso ausente ("la cantidad es requerida", etc.).
func requerirMonto(errs *[]FieldError, field, msgRequerido string, v *decimal.Decimal, min decimal.Decimal) decimal.Decimal {
	if v == nil {
		*errs = append(*errs, fieldErr(field, msgRequerido, nil))
		return decimal.Zero
	}
	*errs = append(*errs, checkMonto(field, *v, min)...)
	return *v
}

// optMonto valida un monto opcional (default 0): >= 0 y máximo 2 decimales.
func optMonto(errs *[]FieldError, field string, v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	*errs = append(*errs, checkMonto(field, *v, decimal.Zero)...)
	return *v
}

func checkMonto(field string, v, min decimal.Decimal) []FieldError {
	var errs []FieldError
	if v.LessThan(min) {
		errs = append(errs, fieldErr(field, fmt.Sprintf("debe ser mayor o igual a %s", min.String()), v.String()))
	}
	if v.Exponent() < -2 {
		errs = append(errs, fieldErr(field, "no puede tener más de 2 decimales", v.String()))
	}
	return errs
}
