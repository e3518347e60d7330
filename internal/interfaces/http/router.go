package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/factura-cr/internal/application/facturas"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	FacturaUC *facturas.UseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	grupo := api.Group("/facturas")
	handler := NewFacturaHandler(deps.FacturaUC)

	grupo.Post("/emitir", handler.Emitir)
	grupo.Post("/validar", handler.Validar)
	grupo.Post("/enviar", handler.Enviar)
	grupo.Get("/", handler.Listar)

	// /status antes de /:consecutivo; Fiber resuelve por orden de registro.
	grupo.Get("/status", handler.Status)
	grupo.Get("/:consecutivo", handler.Consultar)
	grupo.Get("/:consecutivo/pdf", handler.PDF)
	grupo.Delete("/:consecutivo", handler.Eliminar)
}
