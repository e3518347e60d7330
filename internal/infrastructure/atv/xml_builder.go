package atv

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/tu-usuario/factura-cr/internal/domain/entity"
)

// xmlns del esquema de factura electrónica v4.3 de Hacienda.
const facturaNS = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.3/facturaElectronica"

// BuildXML serializa el comprobante al XML del esquema v4.3. El documento no
// va firmado; la firma XAdES requiere la llave criptográfica del obligado y
// solo aplica en modo real.
func BuildXML(f *entity.Factura, clave string) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("FacturaElectronica")
	root.CreateAttr("xmlns", facturaNS)

	root.CreateElement("Clave").SetText(clave)
	root.CreateElement("NumeroConsecutivo").SetText(f.NumeroConsecutivo)
	root.CreateElement("FechaEmision").SetText(f.FechaEmision)

	agregarParte(root, "Emisor", &f.Emisor)
	agregarParte(root, "Receptor", &f.Receptor)

	root.CreateElement("CondicionVenta").SetText(f.CondicionVenta)

	detalle := root.CreateElement("DetalleServicio")
	for i := range f.DetalleServicio {
		agregarLinea(detalle, &f.DetalleServicio[i])
	}

	agregarResumen(root, f)

	doc.Indent(2)
	return doc.WriteToString()
}

func agregarParte(parent *etree.Element, nombre string, p *entity.Parte) {
	e := parent.CreateElement(nombre)
	e.CreateElement("Nombre").SetText(p.Nombre)

	ident := e.CreateElement("Identificacion")
	ident.CreateElement("Tipo").SetText(p.TipoIdentificacion)
	ident.CreateElement("Numero").SetText(p.Identificacion)

	if p.CorreoElectronico != "" {
		e.CreateElement("CorreoElectronico").SetText(p.CorreoElectronico)
	}
	if p.Provincia != "" || p.Canton != "" || p.Distrito != "" {
		ub := e.CreateElement("Ubicacion")
		ub.CreateElement("Provincia").SetText(p.Provincia)
		ub.CreateElement("Canton").SetText(p.Canton)
		ub.CreateElement("Distrito").SetText(p.Distrito)
		if p.Direccion != "" {
			ub.CreateElement("OtrasSenas").SetText(p.Direccion)
		}
	}
}

func agregarLinea(parent *etree.Element, l *entity.LineaDetalle) {
	e := parent.CreateElement("LineaDetalle")
	e.CreateElement("NumeroLinea").SetText(strconv.Itoa(l.NumeroLinea))
	if l.Codigo != "" {
		e.CreateElement("Codigo").SetText(l.Codigo)
	}
	e.CreateElement("Cantidad").SetText(l.Cantidad.String())
	e.CreateElement("UnidadMedida").SetText(l.UnidadMedida)
	e.CreateElement("Detalle").SetText(l.Descripcion)
	e.CreateElement("PrecioUnitario").SetText(l.PrecioUnitario.String())
	e.CreateElement("MontoTotal").SetText(l.MontoTotal.String())
	if !l.Descuento.IsZero() {
		d := e.CreateElement("Descuento")
		d.CreateElement("MontoDescuento").SetText(l.Descuento.String())
		if l.NaturalezaDescuento != "" {
			d.CreateElement("NaturalezaDescuento").SetText(l.NaturalezaDescuento)
		}
	}
	e.CreateElement("SubTotal").SetText(l.Subtotal.String())

	imp := e.CreateElement("Impuesto")
	imp.CreateElement("Codigo").SetText(l.Impuesto.Codigo)
	imp.CreateElement("CodigoTarifa").SetText(l.Impuesto.CodigoTarifa)
	imp.CreateElement("Tarifa").SetText(l.Impuesto.Tarifa.String())
	imp.CreateElement("Monto").SetText(l.Impuesto.Monto.String())

	e.CreateElement("MontoTotalLinea").SetText(l.MontoTotalLinea.String())
}

func agregarResumen(parent *etree.Element, f *entity.Factura) {
	r := &f.ResumenFactura
	e := parent.CreateElement("ResumenFactura")
	e.CreateElement("CodigoMoneda").SetText(f.CodigoMoneda)
	e.CreateElement("TipoCambio").SetText(f.TipoCambio.String())
	e.CreateElement("TotalGravado").SetText(r.TotalGravado.String())
	e.CreateElement("TotalExento").SetText(r.TotalExento.String())
	e.CreateElement("TotalVenta").SetText(r.TotalVenta.String())
	e.CreateElement("TotalDescuentos").SetText(r.TotalDescuentos.String())
	e.CreateElement("TotalVentaNeta").SetText(r.TotalVentaNeta.String())
	e.CreateElement("TotalImpuesto").SetText(r.TotalImpuesto.String())
	e.CreateElement("TotalComprobante").SetText(r.TotalComprobante.String())
}
