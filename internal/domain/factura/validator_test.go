package factura_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/factura-cr/internal/domain/factura"
)

// buildPayload arma un payload válido de una línea: cantidad 2 × ₡10000,
// IVA 13%, sin descuento. Totales coherentes: 20000 / 2600 / 22600.
func buildPayload() *factura.Payload {
	return buildPayloadLinea(dec(2), dec(10000), dec(0), dec(13))
}

func buildPayloadLinea(cantidad, precio, descuento, tarifa decimal.Decimal) *factura.Payload {
	montoTotal := cantidad.Mul(precio).Round(2)
	subtotal := montoTotal.Sub(descuento).Round(2)
	impuesto := subtotal.Mul(tarifa).Div(dec(100)).Round(2)
	totalLinea := subtotal.Add(impuesto).Round(2)
	uno := 1

	return &factura.Payload{
		Emisor: &factura.PartePayload{
			Nombre:         "Comercial El Roble S.A.",
			Identificacion: "310123456789",
		},
		Receptor: &factura.PartePayload{
			Nombre:         "Juan Pérez",
			Identificacion: "109876543",
		},
		DetalleServicio: []factura.LineaPayload{{
			NumeroLinea:    &uno,
			Descripcion:    "Servicio profesional",
			Cantidad:       &cantidad,
			PrecioUnitario: &precio,
			MontoTotal:     &montoTotal,
			Descuento:      &descuento,
			Subtotal:       &subtotal,
			Impuesto: &factura.ImpuestoPayload{
				Tarifa: &tarifa,
				Monto:  &impuesto,
			},
			MontoTotalLinea: &totalLinea,
		}},
		ResumenFactura: &factura.ResumenPayload{
			TotalGravado:     &montoTotal,
			TotalVenta:       &montoTotal,
			TotalDescuentos:  &descuento,
			TotalVentaNeta:   &subtotal,
			TotalImpuesto:    &impuesto,
			TotalComprobante: &totalLinea,
		},
	}
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// ── Validación estructural ────────────────────────────────────────────────────

func TestValidarEstructura_PayloadValidoAplicaDefaults(t *testing.T) {
	f, errs := factura.ValidarEstructura(buildPayload())
	require.Empty(t, errs)
	require.NotNil(t, f)

	assert.Equal(t, "01", f.TipoDocumento, "tipo de documento por defecto: factura")
	assert.Equal(t, "CRC", f.CodigoMoneda, "moneda por defecto: colones")
	assert.True(t, f.TipoCambio.Equal(dec(1)), "tipo de cambio por defecto: 1")
	assert.Equal(t, "02", f.Emisor.TipoIdentificacion, "emisor por defecto: jurídica")
	assert.Equal(t, "01", f.Receptor.TipoIdentificacion, "receptor por defecto: física")
	assert.Equal(t, "506", f.Emisor.CodigoPais)
	assert.Equal(t, "Unid", f.DetalleServicio[0].UnidadMedida)
	assert.Equal(t, "01", f.DetalleServicio[0].Impuesto.Codigo)
	assert.Equal(t, "08", f.DetalleServicio[0].Impuesto.CodigoTarifa)
	assert.Equal(t, "01", f.CondicionVenta)
}

func TestValidarEstructura_PayloadNil(t *testing.T) {
	f, errs := factura.ValidarEstructura(nil)
	assert.Nil(t, f)
	assert.Len(t, errs, 1)
}

// TestValidarEstructura_AcumulaErrores verifica que la validación no aborta en
// el primer error: un payload con varios problemas reporta todos los campos.
func TestValidarEstructura_AcumulaErrores(t *testing.T) {
	p := buildPayload()
	p.CodigoMoneda = "GBP"
	p.Emisor.Identificacion = "12"     // muy corta
	p.Receptor.Nombre = ""             // requerido
	p.DetalleServicio[0].Descripcion = ""

	f, errs := factura.ValidarEstructura(p)
	assert.Nil(t, f)

	campos := make([]string, len(errs))
	for i, e := range errs {
		campos[i] = e.Field
	}
	assert.Contains(t, campos, "codigoMoneda")
	assert.Contains(t, campos, "emisor.identificacion")
	assert.Contains(t, campos, "receptor.nombre")
	assert.Contains(t, campos, "detalleServicio[0].descripcion")
}

func TestValidarEstructura_ConsecutivoInvalido(t *testing.T) {
	p := buildPayload()
	p.NumeroConsecutivo = "12345"

	_, errs := factura.ValidarEstructura(p)
	require.Len(t, errs, 1)
	assert.Equal(t, "numeroConsecutivo", errs[0].Field)
}

func TestValidarEstructura_FechaEmisionInvalida(t *testing.T) {
	p := buildPayload()
	p.FechaEmision = "15/03/2024"

	_, errs := factura.ValidarEstructura(p)
	require.Len(t, errs, 1)
	assert.Equal(t, "fechaEmision", errs[0].Field)
}

func TestValidarEstructura_MasDeDosDecimales(t *testing.T) {
	p := buildPayload()
	malo := decimal.RequireFromString("10.999")
	p.DetalleServicio[0].PrecioUnitario = &malo

	_, errs := factura.ValidarEstructura(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "detalleServicio[0].precioUnitario", errs[0].Field)
}

func TestValidarEstructura_CantidadMinima(t *testing.T) {
	p := buildPayload()
	cero := decimal.Zero
	p.DetalleServicio[0].Cantidad = &cero

	_, errs := factura.ValidarEstructura(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "detalleServicio[0].cantidad", errs[0].Field)
}

func TestValidarEstructura_DetalleVacio(t *testing.T) {
	p := buildPayload()
	p.DetalleServicio = []factura.LineaPayload{}

	_, errs := factura.ValidarEstructura(p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "detalleServicio", errs[0].Field)
}

// ── Reglas de negocio ─────────────────────────────────────────────────────────

// TestValidarReglas_EscenarioValido: cantidad=2, precioUnitario=10000,
// descuento=0, tarifa=13 → montoTotal=20000, subtotal=20000,
// impuesto.monto=2600, montoTotalLinea=22600. Sin violaciones.
func TestValidarReglas_EscenarioValido(t *testing.T) {
	f, errs := factura.ValidarEstructura(buildPayload())
	require.Empty(t, errs)

	assert.Empty(t, factura.ValidarReglas(f))
}

// TestValidarReglas_MontoTotalIncorrecto: el mismo escenario pero con
// montoTotal=15000 debe rechazarse nombrando el campo y el valor esperado 20000.
func TestValidarReglas_MontoTotalIncorrecto(t *testing.T) {
	p := buildPayload()
	malo := dec(15000)
	p.DetalleServicio[0].MontoTotal = &malo

	f, estructura := factura.ValidarEstructura(p)
	require.Empty(t, estructura)

	errs := factura.ValidarReglas(f)
	require.NotEmpty(t, errs)
	assert.Equal(t, "detalleServicio[0].montoTotal", errs[0].Field)
	assert.Contains(t, errs[0].Message, "20000")
}

// TestValidarReglas_NumeracionNoContigua: líneas numeradas 1 y 3 deben
// reportar violación de contigüidad en el índice 1.
func TestValidarReglas_NumeracionNoContigua(t *testing.T) {
	p := buildPayload()
	segunda := p.DetalleServicio[0]
	tres := 3
	segunda.NumeroLinea = &tres
	p.DetalleServicio = append(p.DetalleServicio, segunda)

	// Duplicar la línea duplica las sumas; ajustar el resumen para aislar el
	// error de numeración.
	doble := func(d *decimal.Decimal) *decimal.Decimal {
		v := d.Mul(dec(2))
		return &v
	}
	r := p.ResumenFactura
	r.TotalGravado = doble(r.TotalGravado)
	r.TotalVenta = doble(r.TotalVenta)
	r.TotalVentaNeta = doble(r.TotalVentaNeta)
	r.TotalImpuesto = doble(r.TotalImpuesto)
	r.TotalComprobante = doble(r.TotalComprobante)

	f, estructura := factura.ValidarEstructura(p)
	require.Empty(t, estructura)

	errs := factura.ValidarReglas(f)
	require.Len(t, errs, 1)
	assert.Equal(t, "detalleServicio[1].numeroLinea", errs[0].Field)
	assert.Contains(t, errs[0].Message, "debe ser 2")
}

func TestValidarReglas_ResumenIncoherente(t *testing.T) {
	p := buildPayload()
	malo := dec(99999)
	p.ResumenFactura.TotalComprobante = &malo

	f, estructura := factura.ValidarEstructura(p)
	require.Empty(t, estructura)

	errs := factura.ValidarReglas(f)
	require.NotEmpty(t, errs)
	assert.Equal(t, "resumenFactura.totalComprobante", errs[0].Field)
}

// TestValidarReglas_ToleranciaRedondeo: una diferencia de exactamente 0.01 se
// acepta (tolerancia inclusiva); 0.02 se rechaza.
func TestValidarReglas_ToleranciaRedondeo(t *testing.T) {
	casos := []struct {
		nombre string
		delta  decimal.Decimal
		valido bool
	}{
		{"diferencia 0.01 aceptada", dec(0.01), true},
		{"diferencia 0.02 rechazada", dec(0.02), false},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			p := buildPayload()
			ajustado := p.DetalleServicio[0].MontoTotalLinea.Add(c.delta)
			p.DetalleServicio[0].MontoTotalLinea = &ajustado

			f, estructura := factura.ValidarEstructura(p)
			require.Empty(t, estructura)

			errs := factura.ValidarReglas(f)
			if c.valido {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

// TestValidarReglas_SumaLineas verifica la invariante Σ montoTotal ==
// totalVenta y totalComprobante == totalVentaNeta + totalImpuesto con varias
// líneas y descuento.
func TestValidarReglas_SumaLineasConDescuento(t *testing.T) {
	p := buildPayload()
	descuento := dec(500)
	linea := p.DetalleServicio[0]

	montoTotal := linea.Cantidad.Mul(*linea.PrecioUnitario).Round(2)
	subtotal := montoTotal.Sub(descuento).Round(2)
	impuesto := subtotal.Mul(dec(13)).Div(dec(100)).Round(2)
	totalLinea := subtotal.Add(impuesto).Round(2)

	p.DetalleServicio[0].Descuento = &descuento
	p.DetalleServicio[0].Subtotal = &subtotal
	p.DetalleServicio[0].Impuesto.Monto = &impuesto
	p.DetalleServicio[0].MontoTotalLinea = &totalLinea

	p.ResumenFactura.TotalDescuentos = &descuento
	p.ResumenFactura.TotalVentaNeta = &subtotal
	p.ResumenFactura.TotalImpuesto = &impuesto
	p.ResumenFactura.TotalComprobante = &totalLinea

	f, estructura := factura.ValidarEstructura(p)
	require.Empty(t, estructura)
	assert.Empty(t, factura.ValidarReglas(f))
}
