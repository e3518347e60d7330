package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/tu-usuario/factura-cr/internal/application/facturas"
	infraatv "github.com/tu-usuario/factura-cr/internal/infrastructure/atv"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/consecutivo"
	infrapdf "github.com/tu-usuario/factura-cr/internal/infrastructure/pdf"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
	httpRouter "github.com/tu-usuario/factura-cr/internal/interfaces/http"
	"github.com/tu-usuario/factura-cr/pkg/config"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	seq := consecutivo.New(cfg.ATV.ConsecutiveFile, cfg.App.Env, log)
	store := storage.New(cfg.ATV.InvoicesDir, log)

	gateway := infraatv.NewAdapter(cfg.ATV, log)
	if err := gateway.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("inicializar adaptador ATV")
	}
	log.Info().Str("mode", gateway.Mode().String()).Msg("modo de operación ATV")

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	facturaUC := facturas.NewUseCase(seq, store, gateway, pdfGenerator, cfg.App.Env, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
			"mode":    gateway.Mode().String(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		FacturaUC: facturaUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
