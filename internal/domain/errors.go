// Package domain define los errores centinela compartidos por todas las capas.
package domain

import "errors"

// Errores de dominio (sin dependencias externas). Las capas superiores los
// comparan con errors.Is y el transporte HTTP los traduce a códigos de estado.
var (
	ErrNotFound        = errors.New("factura no encontrada")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrNotInitialized  = errors.New("adaptador ATV no inicializado")
	ErrUnavailable     = errors.New("servicio ATV no disponible")
	ErrProductionGuard = errors.New("operación no permitida en producción")
)
