package storage

import (
	"fmt"
	"regexp"
	"time"
)

// Convenciones de nombre en el directorio de comprobantes:
//
//	FACTURA_<consecutivo>_<timestamp>.json  payload emitido
//	FACTURA_<consecutivo>.xml               XML del comprobante (se sobreescribe)
//	sent/                                   copias de lo ya enviado
//	sent/ENVIO_<consecutivo>_<timestamp>.json  metadatos del envío
const (
	timestampLayout = "2006-01-02_15-04-05"
	sentDir         = "sent"
)

var consecutivoEnNombre = regexp.MustCompile(`^(?:FACTURA|ENVIO)_([0-9]{20})`)

func jsonFilename(consecutivo string, ts time.Time) string {
	return fmt.Sprintf("FACTURA_%s_%s.json", consecutivo, ts.Format(timestampLayout))
}

func xmlFilename(consecutivo string) string {
	return fmt.Sprintf("FACTURA_%s.xml", consecutivo)
}

func envioFilename(consecutivo string, ts time.Time) string {
	return fmt.Sprintf("ENVIO_%s_%s.json", consecutivo, ts.Format(timestampLayout))
}

// ExtractConsecutivo obtiene el consecutivo de 20 dígitos de un nombre de
// archivo del almacén. Devuelve cadena vacía si el nombre no sigue la
// convención.
func ExtractConsecutivo(filename string) string {
	m := consecutivoEnNombre.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	return m[1]
}
