package factura

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/factura-cr/internal/domain/entity"
)

// tolerancia absoluta para comparaciones monetarias (redondeo de punto flotante
// en clientes que calculan con float).
var tolerancia = decimal.NewFromFloat(0.01)

// ValidarReglas re-verifica las invariantes aritméticas de una factura ya
// estructuralmente válida: cálculos por línea, numeración contigua 1-based y
// coherencia del resumen con la suma de las líneas. Cualquier violación
// rechaza el comprobante completo; no hay aceptación parcial. Función pura:
// nunca asigna consecutivos ni toca almacenamiento.
func ValidarReglas(f *entity.Factura) []FieldError {
	var errs []FieldError
	if f == nil {
		return []FieldError{fieldErr("", "la factura es requerida", nil)}
	}

	var sumaVenta, sumaDescuentos, sumaImpuesto decimal.Decimal

	for i := range f.DetalleServicio {
		linea := &f.DetalleServicio[i]
		prefix := fmt.Sprintf("detalleServicio[%d]", i)

		// Numeración: igualdad entera exacta con la posición 1-based, sin tolerancia.
		if linea.NumeroLinea != i+1 {
			errs = append(errs, fieldErr(prefix+".numeroLinea",
				fmt.Sprintf("el número de línea debe ser %d, recibido: %d", i+1, linea.NumeroLinea),
				linea.NumeroLinea))
		}

		montoEsperado := linea.Cantidad.Mul(linea.PrecioUnitario).Round(2)
		errs = appendSiDifiere(errs, prefix+".montoTotal", "monto total", montoEsperado, linea.MontoTotal)

		subtotalEsperado := linea.MontoTotal.Sub(linea.Descuento).Round(2)
		errs = appendSiDifiere(errs, prefix+".subtotal", "subtotal", subtotalEsperado, linea.Subtotal)

		impuestoEsperado := linea.Subtotal.Mul(linea.Impuesto.Tarifa).Div(decimal.NewFromInt(100)).Round(2)
		errs = appendSiDifiere(errs, prefix+".impuesto.monto", "impuesto", impuestoEsperado, linea.Impuesto.Monto)

		totalLineaEsperado := linea.Subtotal.Add(linea.Impuesto.Monto).Round(2)
		errs = appendSiDifiere(errs, prefix+".montoTotalLinea", "total de línea", totalLineaEsperado, linea.MontoTotalLinea)

		sumaVenta = sumaVenta.Add(linea.MontoTotal)
		sumaDescuentos = sumaDescuentos.Add(linea.Descuento)
		sumaImpuesto = sumaImpuesto.Add(linea.Impuesto.Monto)
	}

	// Resumen contra la suma de las líneas.
	r := &f.ResumenFactura
	errs = appendSiDifiere(errs, "resumenFactura.totalVenta", "total de venta", sumaVenta.Round(2), r.TotalVenta)
	errs = appendSiDifiere(errs, "resumenFactura.totalDescuentos", "total de descuentos", sumaDescuentos.Round(2), r.TotalDescuentos)
	errs = appendSiDifiere(errs, "resumenFactura.totalImpuesto", "total de impuesto", sumaImpuesto.Round(2), r.TotalImpuesto)

	ventaNetaEsperada := r.TotalVenta.Sub(r.TotalDescuentos).Round(2)
	errs = appendSiDifiere(errs, "resumenFactura.totalVentaNeta", "total de venta neta", ventaNetaEsperada, r.TotalVentaNeta)

	totalComprobanteEsperado := r.TotalVentaNeta.Add(r.TotalImpuesto).Round(2)
	errs = appendSiDifiere(errs, "resumenFactura.totalComprobante", "total del comprobante", totalComprobanteEsperado, r.TotalComprobante)

	return errs
}

// appendSiDifiere agrega un error si |esperado − recibido| > 0.01.
func appendSiDifiere(errs []FieldError, field, nombre string, esperado, recibido decimal.Decimal) []FieldError {
	if esperado.Sub(recibido).Abs().GreaterThan(tolerancia) {
		return append(errs, fieldErr(field,
			fmt.Sprintf("%s incorrecto. Esperado: %s, recibido: %s", nombre, esperado.String(), recibido.String()),
			recibido.String()))
	}
	return errs
}
