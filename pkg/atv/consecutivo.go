// Package atv contiene helpers puros del formato de comprobantes electrónicos
// de Hacienda (Costa Rica): número consecutivo de 20 dígitos y clave de 50
// caracteres. Sin estado ni I/O; la generación persistida vive en
// internal/infrastructure/consecutivo.
package atv

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// Prefijo por defecto del consecutivo: establecimiento 001, punto de venta 001,
// tipo de comprobante 01 (Factura electrónica).
const (
	Establecimiento = "001"
	PuntoVenta      = "001"
	TipoFactura     = "01"
)

var consecutivoRe = regexp.MustCompile(`^[0-9]{20}$`)

// Consecutivo es la descomposición de un número consecutivo de 20 dígitos:
// establecimiento(3) + punto de venta(3) + tipo(2) + secuencia(12).
type Consecutivo struct {
	Establecimiento string `json:"establecimiento"`
	PuntoVenta      string `json:"puntoVenta"`
	TipoComprobante string `json:"tipoComprobante"`
	Secuencia       string `json:"secuencia"`
}

// FormatConsecutivo arma el consecutivo de 20 dígitos a partir del contador.
func FormatConsecutivo(seq int64) string {
	return fmt.Sprintf("%s%s%s%012d", Establecimiento, PuntoVenta, TipoFactura, seq)
}

// TimestampConsecutivo genera un consecutivo degradado basado en timestamp,
// usado como fallback cuando el contador persistido no es accesible:
// 001 + 001 + 01 + últimos 10 dígitos de unix-millis + 2 dígitos aleatorios.
// La garantía de unicidad es menor que la del contador.
func TimestampConsecutivo(now time.Time, rnd *rand.Rand) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 10 {
		millis = millis[len(millis)-10:]
	}
	return fmt.Sprintf("%s%s%s%s%02d", Establecimiento, PuntoVenta, TipoFactura, millis, rnd.Intn(100))
}

// ValidateConsecutivo verifica el formato: exactamente 20 dígitos.
func ValidateConsecutivo(consecutivo string) bool {
	return consecutivoRe.MatchString(consecutivo)
}

// ParseConsecutivo descompone un consecutivo válido en sus segmentos.
func ParseConsecutivo(consecutivo string) (*Consecutivo, error) {
	if !ValidateConsecutivo(consecutivo) {
		return nil, fmt.Errorf("atv: consecutivo inválido: %q", consecutivo)
	}
	return &Consecutivo{
		Establecimiento: consecutivo[0:3],
		PuntoVenta:      consecutivo[3:6],
		TipoComprobante: consecutivo[6:8],
		Secuencia:       consecutivo[8:20],
	}, nil
}
