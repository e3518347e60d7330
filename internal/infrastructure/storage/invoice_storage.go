// Package storage persiste comprobantes como archivos en disco. Cada factura
// emitida produce un JSON (y opcionalmente un XML) en el directorio raíz; al
// enviarse a la autoridad tributaria los archivos se copian al subdirectorio
// sent/ sin eliminar el original, para conservar el historial completo.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

// SavedFile describe un archivo recién escrito.
type SavedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// ArchivoInfo es una entrada de listado.
type ArchivoInfo struct {
	Consecutivo string          `json:"consecutivo"`
	Filename    string          `json:"filename"`
	Size        int64           `json:"size"`
	ModTime     time.Time       `json:"modTime"`
	Enviada     bool            `json:"enviada"`
	Contenido   json.RawMessage `json:"contenido,omitempty"`
}

// Documento agrupa todo lo almacenado para un consecutivo.
type Documento struct {
	Consecutivo string          `json:"consecutivo"`
	Archivos    []ArchivoInfo   `json:"archivos"`
	Enviada     bool            `json:"enviada"`
	EnviosCount int             `json:"enviosCount"`
	Contenido   json.RawMessage `json:"contenido,omitempty"`
}

// MarkResult resume una operación de marcado como enviada.
type MarkResult struct {
	Consecutivo string   `json:"consecutivo"`
	Copiados    []string `json:"copiados"`
	Errores     []string `json:"errores,omitempty"`
	EnvioFile   string   `json:"envioFile"`
}

// StorageStats contadores del almacén.
type StorageStats struct {
	PendingCount int   `json:"pendingCount"`
	PendingBytes int64 `json:"pendingBytes"`
	SentCount    int   `json:"sentCount"`
	SentBytes    int64 `json:"sentBytes"`
}

// InvoiceStorage guarda y recupera comprobantes en un directorio local.
type InvoiceStorage struct {
	dir string
	log *logger.Logger
	now func() time.Time
}

func New(dir string, log *logger.Logger) *InvoiceStorage {
	return &InvoiceStorage{dir: dir, log: log, now: time.Now}
}

// SaveJSON persiste la factura emitida como FACTURA_<consecutivo>_<ts>.json,
// con un bloque _metadata (momento de guardado, nombre y ruta del archivo).
func (s *InvoiceStorage) SaveJSON(_ context.Context, f *entity.Factura) (SavedFile, error) {
	if f == nil || f.NumeroConsecutivo == "" {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", err)
	}

	ahora := s.now()
	filename := jsonFilename(f.NumeroConsecutivo, ahora)
	path := filepath.Join(s.dir, filename)

	raw, err := json.Marshal(f)
	if err != nil {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", err)
	}
	doc["_metadata"] = map[string]any{
		"savedAt":  ahora.UTC().Format(time.RFC3339),
		"filename": filename,
		"filePath": path,
		"format":   "json",
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SavedFile{}, fmt.Errorf("guardar factura: %w", err)
	}

	s.log.Info().Str("consecutivo", f.NumeroConsecutivo).Str("file", filename).
		Msg("factura guardada")
	return SavedFile{Filename: filename, Path: path, Size: int64(len(data))}, nil
}

// SaveXML persiste el XML del comprobante como FACTURA_<consecutivo>.xml.
// Se sobreescribe si ya existe: el XML se regenera completo en cada emisión.
func (s *InvoiceStorage) SaveXML(_ context.Context, consecutivo, contenido string) (SavedFile, error) {
	if consecutivo == "" {
		return SavedFile{}, fmt.Errorf("guardar xml: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("guardar xml: %w", err)
	}

	filename := xmlFilename(consecutivo)
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, []byte(contenido), 0o644); err != nil {
		return SavedFile{}, fmt.Errorf("guardar xml: %w", err)
	}
	return SavedFile{Filename: filename, Path: path, Size: int64(len(contenido))}, nil
}

// MarkAsSent copia los archivos pendientes del consecutivo al subdirectorio
// sent/ y registra un archivo ENVIO con los metadatos de la respuesta. Los
// originales no se mueven ni eliminan, así que la operación es idempotente.
// Los errores de copia por archivo se acumulan sin abortar el resto.
func (s *InvoiceStorage) MarkAsSent(_ context.Context, consecutivo string, envio map[string]any) (MarkResult, error) {
	archivos, err := s.archivosPendientes(consecutivo)
	if err != nil {
		return MarkResult{}, fmt.Errorf("marcar enviada: %w", err)
	}
	if len(archivos) == 0 {
		return MarkResult{}, fmt.Errorf("marcar enviada %s: %w", consecutivo, domain.ErrNotFound)
	}

	destino := filepath.Join(s.dir, sentDir)
	if err := os.MkdirAll(destino, 0o755); err != nil {
		return MarkResult{}, fmt.Errorf("marcar enviada: %w", err)
	}

	res := MarkResult{Consecutivo: consecutivo}
	for _, nombre := range archivos {
		data, err := os.ReadFile(filepath.Join(s.dir, nombre))
		if err != nil {
			res.Errores = append(res.Errores, fmt.Sprintf("%s: %v", nombre, err))
			continue
		}
		if err := os.WriteFile(filepath.Join(destino, nombre), data, 0o644); err != nil {
			res.Errores = append(res.Errores, fmt.Sprintf("%s: %v", nombre, err))
			continue
		}
		res.Copiados = append(res.Copiados, nombre)
	}

	ahora := s.now()
	meta := map[string]any{
		"consecutivo": consecutivo,
		"sentAt":      ahora.UTC().Format(time.RFC3339),
		"archivos":    res.Copiados,
	}
	for k, v := range envio {
		meta[k] = v
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return res, fmt.Errorf("marcar enviada: %w", err)
	}
	res.EnvioFile = envioFilename(consecutivo, ahora)
	if err := os.WriteFile(filepath.Join(destino, res.EnvioFile), data, 0o644); err != nil {
		return res, fmt.Errorf("marcar enviada: %w", err)
	}

	s.log.Info().Str("consecutivo", consecutivo).Int("archivos", len(res.Copiados)).
		Msg("factura marcada como enviada")
	return res, nil
}

// Get reúne los archivos pendientes y enviados de un consecutivo. Contenido
// trae el JSON más reciente del área pendiente (o del área enviada si el
// original ya no existe).
func (s *InvoiceStorage) Get(_ context.Context, consecutivo string) (*Documento, error) {
	pendientes, err := s.archivosPendientes(consecutivo)
	if err != nil {
		return nil, fmt.Errorf("consultar factura: %w", err)
	}
	enviados, envios := s.archivosEnviados(consecutivo)

	if len(pendientes) == 0 && len(enviados) == 0 {
		return nil, fmt.Errorf("consultar factura %s: %w", consecutivo, domain.ErrNotFound)
	}

	doc := &Documento{
		Consecutivo: consecutivo,
		Enviada:     len(enviados) > 0,
		EnviosCount: envios,
	}
	for _, nombre := range pendientes {
		doc.Archivos = append(doc.Archivos, s.infoDe(s.dir, nombre, false))
	}
	for _, nombre := range enviados {
		doc.Archivos = append(doc.Archivos, s.infoDe(filepath.Join(s.dir, sentDir), nombre, true))
	}

	if contenido := s.ultimoJSON(pendientes, s.dir); contenido != nil {
		doc.Contenido = contenido
	} else if contenido := s.ultimoJSON(enviados, filepath.Join(s.dir, sentDir)); contenido != nil {
		doc.Contenido = contenido
	}
	return doc, nil
}

// List enumera los comprobantes del almacén. filtro acepta "all", "pending" o
// "sent"; includeContent adjunta el JSON de cada entrada.
func (s *InvoiceStorage) List(_ context.Context, filtro string, includeContent bool) ([]ArchivoInfo, error) {
	var entradas []ArchivoInfo

	if filtro == "all" || filtro == "pending" || filtro == "" {
		nombres, err := s.listarJSON(s.dir)
		if err != nil {
			return nil, fmt.Errorf("listar facturas: %w", err)
		}
		for _, n := range nombres {
			info := s.infoDe(s.dir, n, false)
			if includeContent {
				info.Contenido = s.leerJSON(filepath.Join(s.dir, n))
			}
			entradas = append(entradas, info)
		}
	}

	if filtro == "all" || filtro == "sent" {
		dir := filepath.Join(s.dir, sentDir)
		nombres, err := s.listarJSON(dir)
		if err != nil {
			return nil, fmt.Errorf("listar facturas: %w", err)
		}
		for _, n := range nombres {
			if strings.HasPrefix(n, "ENVIO_") {
				continue
			}
			info := s.infoDe(dir, n, true)
			if includeContent {
				info.Contenido = s.leerJSON(filepath.Join(dir, n))
			}
			entradas = append(entradas, info)
		}
	}

	sort.Slice(entradas, func(i, j int) bool {
		return entradas[i].ModTime.After(entradas[j].ModTime)
	})
	return entradas, nil
}

// Delete elimina todos los archivos de un consecutivo, pendientes y enviados,
// incluidos los metadatos de envío. Devuelve cuántos archivos eliminó.
func (s *InvoiceStorage) Delete(_ context.Context, consecutivo string) (int, error) {
	pendientes, err := s.archivosPendientes(consecutivo)
	if err != nil {
		return 0, fmt.Errorf("eliminar factura: %w", err)
	}

	eliminados := 0
	for _, nombre := range pendientes {
		if err := os.Remove(filepath.Join(s.dir, nombre)); err == nil {
			eliminados++
		}
	}

	destino := filepath.Join(s.dir, sentDir)
	if nombres, err := os.ReadDir(destino); err == nil {
		for _, e := range nombres {
			if e.IsDir() || ExtractConsecutivo(e.Name()) != consecutivo {
				continue
			}
			if err := os.Remove(filepath.Join(destino, e.Name())); err == nil {
				eliminados++
			}
		}
	}

	if eliminados == 0 {
		return 0, fmt.Errorf("eliminar factura %s: %w", consecutivo, domain.ErrNotFound)
	}
	s.log.Info().Str("consecutivo", consecutivo).Int("archivos", eliminados).
		Msg("factura eliminada")
	return eliminados, nil
}

// Stats devuelve contadores y tamaños de ambas áreas del almacén.
func (s *InvoiceStorage) Stats(_ context.Context) StorageStats {
	var stats StorageStats
	if entradas, err := os.ReadDir(s.dir); err == nil {
		for _, e := range entradas {
			if e.IsDir() {
				continue
			}
			stats.PendingCount++
			if info, err := e.Info(); err == nil {
				stats.PendingBytes += info.Size()
			}
		}
	}
	if entradas, err := os.ReadDir(filepath.Join(s.dir, sentDir)); err == nil {
		for _, e := range entradas {
			if e.IsDir() {
				continue
			}
			stats.SentCount++
			if info, err := e.Info(); err == nil {
				stats.SentBytes += info.Size()
			}
		}
	}
	return stats
}

// archivosPendientes lista los archivos del área pendiente que pertenecen al
// consecutivo, ordenados por nombre (el timestamp en el nombre ordena
// cronológicamente).
func (s *InvoiceStorage) archivosPendientes(consecutivo string) ([]string, error) {
	entradas, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var nombres []string
	for _, e := range entradas {
		if e.IsDir() {
			continue
		}
		if ExtractConsecutivo(e.Name()) == consecutivo {
			nombres = append(nombres, e.Name())
		}
	}
	sort.Strings(nombres)
	return nombres, nil
}

func (s *InvoiceStorage) archivosEnviados(consecutivo string) (facturas []string, envios int) {
	entradas, err := os.ReadDir(filepath.Join(s.dir, sentDir))
	if err != nil {
		return nil, 0
	}
	for _, e := range entradas {
		if e.IsDir() || ExtractConsecutivo(e.Name()) != consecutivo {
			continue
		}
		if strings.HasPrefix(e.Name(), "ENVIO_") {
			envios++
			continue
		}
		facturas = append(facturas, e.Name())
	}
	sort.Strings(facturas)
	return facturas, envios
}

func (s *InvoiceStorage) listarJSON(dir string) ([]string, error) {
	entradas, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var nombres []string
	for _, e := range entradas {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if ExtractConsecutivo(e.Name()) == "" {
			continue
		}
		nombres = append(nombres, e.Name())
	}
	sort.Strings(nombres)
	return nombres, nil
}

func (s *InvoiceStorage) infoDe(dir, nombre string, enviada bool) ArchivoInfo {
	info := ArchivoInfo{
		Consecutivo: ExtractConsecutivo(nombre),
		Filename:    nombre,
		Enviada:     enviada,
	}
	if fi, err := os.Stat(filepath.Join(dir, nombre)); err == nil {
		info.Size = fi.Size()
		info.ModTime = fi.ModTime()
	}
	return info
}

// ultimoJSON lee el .json más reciente (último en orden lexicográfico) de la
// lista de nombres dada.
func (s *InvoiceStorage) ultimoJSON(nombres []string, dir string) json.RawMessage {
	for i := len(nombres) - 1; i >= 0; i-- {
		if !strings.HasSuffix(nombres[i], ".json") {
			continue
		}
		if data := s.leerJSON(filepath.Join(dir, nombres[i])); data != nil {
			return data
		}
	}
	return nil
}

func (s *InvoiceStorage) leerJSON(path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}
