package atv

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Componentes fijos de la clave numérica de Hacienda.
const (
	CodigoPais      = "506" // Costa Rica
	SituacionNormal = "1"

	claveLen = 50
)

var claveRe = regexp.MustCompile(`^[0-9A-Za-z]{50}$`)

// GenerarClave construye la clave de 50 caracteres del comprobante:
//
//	país(3) + fecha YYYYMMDD(8) + emisor(12, cero a la izquierda) +
//	consecutivo(20) + situación(1) + código de seguridad(8)
//
// El código de seguridad es aleatorio y no criptográfico: dos llamadas con el
// mismo consecutivo producen claves distintas con alta probabilidad. rnd se
// inyecta para tests deterministas.
func GenerarClave(consecutivo, emisorID string, fecha time.Time, rnd *rand.Rand) string {
	if emisorID == "" {
		emisorID = "123456789"
	}
	emisor := fmt.Sprintf("%012s", emisorID)
	if len(emisor) > 12 {
		emisor = emisor[len(emisor)-12:]
	}

	codigoSeguridad := fmt.Sprintf("%08d", rnd.Intn(100000000))

	clave := CodigoPais + fecha.Format("20060102") + emisor + consecutivo + SituacionNormal + codigoSeguridad
	if len(clave) < claveLen {
		clave += strings.Repeat("0", claveLen-len(clave))
	}
	return clave[:claveLen]
}

// ValidateClave verifica el formato: exactamente 50 caracteres alfanuméricos.
func ValidateClave(clave string) bool {
	return claveRe.MatchString(clave)
}
