package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/factura-cr/internal/application/facturas"
	infraatv "github.com/tu-usuario/factura-cr/internal/infrastructure/atv"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/consecutivo"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/pdf"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
	apphttp "github.com/tu-usuario/factura-cr/internal/interfaces/http"
	"github.com/tu-usuario/factura-cr/pkg/config"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

// buildTestApp arma la aplicación Fiber completa sobre directorios temporales
// con el adaptador ATV en modo simulado.
func buildTestApp(t *testing.T, env string) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	log := logger.Nop()

	seq := consecutivo.New(filepath.Join(dir, "consecutivo.json"), env, log)
	store := storage.New(filepath.Join(dir, "invoices"), log)
	gw := infraatv.NewAdapter(config.ATVConfig{SimulateIfNoKeys: true}, log)
	require.NoError(t, gw.Init(context.Background()))

	uc := facturas.NewUseCase(seq, store, gw, pdf.NewMarotoPDFGenerator(), env, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{FacturaUC: uc})
	return app
}

const facturaJSON = `{
	"emisor": {"nombre": "Comercial El Roble S.A.", "identificacion": "310123456789"},
	"receptor": {"nombre": "Juan Pérez", "identificacion": "109876543"},
	"detalleServicio": [{
		"numeroLinea": 1,
		"descripcion": "Servicio profesional",
		"cantidad": 2,
		"precioUnitario": 10000,
		"montoTotal": 20000,
		"descuento": 0,
		"subtotal": 20000,
		"impuesto": {"tarifa": 13, "monto": 2600},
		"montoTotalLinea": 22600
	}],
	"resumenFactura": {
		"totalGravado": 20000,
		"totalVenta": 20000,
		"totalDescuentos": 0,
		"totalVentaNeta": 20000,
		"totalImpuesto": 2600,
		"totalComprobante": 22600
	}
}`

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if json.Unmarshal(data, &body) != nil {
		return nil
	}
	return body
}

func TestPostEmitir_Creado(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, body := postJSON(t, app, "/api/facturas/emitir", facturaJSON)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	factura := body["factura"].(map[string]any)
	assert.Equal(t, "00100101000000000001", factura["numeroConsecutivo"])
	assert.Len(t, factura["clave"], 50)
}

func TestPostEmitir_ValidacionConDetalles(t *testing.T) {
	app := buildTestApp(t, "development")
	malo := strings.Replace(facturaJSON, `"montoTotal": 20000`, `"montoTotal": 15000`, 1)

	resp, body := postJSON(t, app, "/api/facturas/emitir", malo)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])

	details := body["details"].([]any)
	require.NotEmpty(t, details)
	primero := details[0].(map[string]any)
	assert.Equal(t, "detalleServicio[0].montoTotal", primero["field"])
}

// TestPostEmitir_CampoDesconocido: el decoder estricto rechaza claves que no
// pertenecen al esquema.
func TestPostEmitir_CampoDesconocido(t *testing.T) {
	app := buildTestApp(t, "development")
	conExtra := strings.Replace(facturaJSON, `"emisor"`, `"campoInventado": 1, "emisor"`, 1)

	resp, body := postJSON(t, app, "/api/facturas/emitir", conExtra)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body["code"])
}

func TestPostValidar_PorPayload(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, body := postJSON(t, app, "/api/facturas/validar", `{"factura": `+facturaJSON+`}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestPostEnviar_FlujoCompleto(t *testing.T) {
	app := buildTestApp(t, "development")

	_, emitida := postJSON(t, app, "/api/facturas/emitir", facturaJSON)
	cons := emitida["factura"].(map[string]any)["numeroConsecutivo"].(string)

	resp, body := postJSON(t, app, "/api/facturas/enviar", `{"consecutivo": "`+cons+`"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	envio := body["envio"].(map[string]any)
	assert.Equal(t, "ENVIADO_SIMULADO", envio["estado"])
}

func TestGetFacturas_Listado(t *testing.T) {
	app := buildTestApp(t, "development")

	_, _ = postJSON(t, app, "/api/facturas/emitir", facturaJSON)

	resp, body := getJSON(t, app, "/api/facturas?status=pending&limit=10")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
}

func TestGetFacturas_FiltroInvalido(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, _ := getJSON(t, app, "/api/facturas?status=archived")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetStatus(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, body := getJSON(t, app, "/api/facturas/status")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "SIMULATED", body["mode"])
}

func TestGetFactura_NoExiste(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, body := getJSON(t, app, "/api/facturas/00100101000000000099")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestGetFactura_ConsecutivoMalformado(t *testing.T) {
	app := buildTestApp(t, "development")

	resp, _ := getJSON(t, app, "/api/facturas/abc123")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPDF_Descarga(t *testing.T) {
	app := buildTestApp(t, "development")

	_, emitida := postJSON(t, app, "/api/facturas/emitir", facturaJSON)
	cons := emitida["factura"].(map[string]any)["numeroConsecutivo"].(string)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/facturas/"+cons+"/pdf", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestDeleteFactura_Desarrollo(t *testing.T) {
	app := buildTestApp(t, "development")

	_, emitida := postJSON(t, app, "/api/facturas/emitir", facturaJSON)
	cons := emitida["factura"].(map[string]any)["numeroConsecutivo"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/api/facturas/"+cons, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDeleteFactura_BloqueadoEnProduccion(t *testing.T) {
	app := buildTestApp(t, "production")

	req := httptest.NewRequest(http.MethodDelete, "/api/facturas/00100101000000000001", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
