package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

const consecutivoPrueba = "00100101000000000042"

func nuevoAlmacen(t *testing.T) (*storage.InvoiceStorage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "invoices")
	return storage.New(dir, logger.Nop()), dir
}

func facturaPrueba() *entity.Factura {
	return &entity.Factura{
		NumeroConsecutivo: consecutivoPrueba,
		TipoDocumento:     "01",
		CodigoMoneda:      "CRC",
		Emisor:            entity.Parte{Nombre: "Comercial El Roble S.A.", Identificacion: "310123456789"},
		Receptor:          entity.Parte{Nombre: "Juan Pérez", Identificacion: "109876543"},
	}
}

func TestSaveJSON_EscribeArchivoConMetadata(t *testing.T) {
	s, dir := nuevoAlmacen(t)

	saved, err := s.SaveJSON(context.Background(), facturaPrueba())
	require.NoError(t, err)
	assert.Contains(t, saved.Filename, "FACTURA_"+consecutivoPrueba+"_")
	assert.Contains(t, saved.Filename, ".json")

	data, err := os.ReadFile(filepath.Join(dir, saved.Filename))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	meta, ok := doc["_metadata"].(map[string]any)
	require.True(t, ok, "el documento guardado debe llevar _metadata")
	assert.Equal(t, saved.Filename, meta["filename"])
	assert.Equal(t, "json", meta["format"])
	assert.Equal(t, consecutivoPrueba, doc["numeroConsecutivo"])
}

func TestSaveJSON_SinConsecutivo(t *testing.T) {
	s, _ := nuevoAlmacen(t)

	_, err := s.SaveJSON(context.Background(), &entity.Factura{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveXML_Sobreescribe(t *testing.T) {
	s, dir := nuevoAlmacen(t)
	ctx := context.Background()

	_, err := s.SaveXML(ctx, consecutivoPrueba, "<FacturaElectronica>v1</FacturaElectronica>")
	require.NoError(t, err)
	saved, err := s.SaveXML(ctx, consecutivoPrueba, "<FacturaElectronica>v2</FacturaElectronica>")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, saved.Filename))
	require.NoError(t, err)
	assert.Contains(t, string(data), "v2")
}

// TestMarkAsSent_CopiaSinMover: marcar como enviada copia al área sent/ y el
// original sigue existiendo con el mismo contenido.
func TestMarkAsSent_CopiaSinMover(t *testing.T) {
	s, dir := nuevoAlmacen(t)
	ctx := context.Background()

	saved, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)
	original, err := os.ReadFile(saved.Path)
	require.NoError(t, err)

	res, err := s.MarkAsSent(ctx, consecutivoPrueba, map[string]any{"clave": "506..."})
	require.NoError(t, err)
	assert.Contains(t, res.Copiados, saved.Filename)
	assert.Empty(t, res.Errores)

	// El original no se tocó.
	despues, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, original, despues)

	// La copia existe en sent/ junto al archivo ENVIO.
	copia, err := os.ReadFile(filepath.Join(dir, "sent", saved.Filename))
	require.NoError(t, err)
	assert.Equal(t, original, copia)
	envio, err := os.ReadFile(filepath.Join(dir, "sent", res.EnvioFile))
	require.NoError(t, err)
	assert.Contains(t, string(envio), consecutivoPrueba)
}

func TestMarkAsSent_SinArchivos(t *testing.T) {
	s, _ := nuevoAlmacen(t)

	_, err := s.MarkAsSent(context.Background(), consecutivoPrueba, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestMarkAsSent_Idempotente: marcar dos veces no falla y el documento sigue
// visible en ambas áreas.
func TestMarkAsSent_Idempotente(t *testing.T) {
	s, _ := nuevoAlmacen(t)
	ctx := context.Background()

	_, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)

	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)
	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)

	doc, err := s.Get(ctx, consecutivoPrueba)
	require.NoError(t, err)
	assert.True(t, doc.Enviada)
	// Los dos marcados pueden caer en el mismo segundo y compartir archivo ENVIO.
	assert.GreaterOrEqual(t, doc.EnviosCount, 1)
}

func TestGet_DocumentoCompleto(t *testing.T) {
	s, _ := nuevoAlmacen(t)
	ctx := context.Background()

	_, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)
	_, err = s.SaveXML(ctx, consecutivoPrueba, "<FacturaElectronica/>")
	require.NoError(t, err)
	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)

	doc, err := s.Get(ctx, consecutivoPrueba)
	require.NoError(t, err)
	assert.Equal(t, consecutivoPrueba, doc.Consecutivo)
	assert.True(t, doc.Enviada)
	require.NotNil(t, doc.Contenido)

	var contenido map[string]any
	require.NoError(t, json.Unmarshal(doc.Contenido, &contenido))
	assert.Equal(t, consecutivoPrueba, contenido["numeroConsecutivo"])

	// JSON y XML pendientes más las dos copias enviadas.
	assert.Len(t, doc.Archivos, 4)
}

func TestGet_NoExiste(t *testing.T) {
	s, _ := nuevoAlmacen(t)

	_, err := s.Get(context.Background(), consecutivoPrueba)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_Filtros(t *testing.T) {
	s, _ := nuevoAlmacen(t)
	ctx := context.Background()

	otra := facturaPrueba()
	otra.NumeroConsecutivo = "00100101000000000043"

	_, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)
	_, err = s.SaveJSON(ctx, otra)
	require.NoError(t, err)
	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)

	pendientes, err := s.List(ctx, "pending", false)
	require.NoError(t, err)
	assert.Len(t, pendientes, 2)

	enviadas, err := s.List(ctx, "sent", false)
	require.NoError(t, err)
	require.Len(t, enviadas, 1)
	assert.Equal(t, consecutivoPrueba, enviadas[0].Consecutivo)
	assert.True(t, enviadas[0].Enviada)

	todas, err := s.List(ctx, "all", true)
	require.NoError(t, err)
	assert.Len(t, todas, 3)
	for _, e := range todas {
		assert.NotNil(t, e.Contenido)
	}
}

func TestDelete_EliminaAmbasAreas(t *testing.T) {
	s, _ := nuevoAlmacen(t)
	ctx := context.Background()

	_, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)
	_, err = s.SaveXML(ctx, consecutivoPrueba, "<FacturaElectronica/>")
	require.NoError(t, err)
	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)

	// JSON + XML pendientes, 2 copias y el archivo ENVIO.
	n, err := s.Delete(ctx, consecutivoPrueba)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = s.Get(ctx, consecutivoPrueba)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_NoExiste(t *testing.T) {
	s, _ := nuevoAlmacen(t)

	_, err := s.Delete(context.Background(), consecutivoPrueba)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	s, _ := nuevoAlmacen(t)
	ctx := context.Background()

	_, err := s.SaveJSON(ctx, facturaPrueba())
	require.NoError(t, err)
	_, err = s.MarkAsSent(ctx, consecutivoPrueba, nil)
	require.NoError(t, err)

	stats := s.Stats(ctx)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 2, stats.SentCount) // copia + archivo ENVIO
	assert.Positive(t, stats.PendingBytes)
	assert.Positive(t, stats.SentBytes)
}

func TestExtractConsecutivo(t *testing.T) {
	assert.Equal(t, consecutivoPrueba,
		storage.ExtractConsecutivo("FACTURA_00100101000000000042_2026-01-15_10-30-00.json"))
	assert.Equal(t, consecutivoPrueba,
		storage.ExtractConsecutivo("FACTURA_00100101000000000042.xml"))
	assert.Equal(t, consecutivoPrueba,
		storage.ExtractConsecutivo("ENVIO_00100101000000000042_2026-01-15_10-30-00.json"))
	assert.Empty(t, storage.ExtractConsecutivo("notas.txt"))
	assert.Empty(t, storage.ExtractConsecutivo("FACTURA_123.json"))
}
