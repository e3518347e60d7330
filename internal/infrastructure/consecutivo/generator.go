// Package consecutivo implementa el generador persistido de números
// consecutivos. El contador vive en un archivo JSON y cada asignación lo
// incrementa y lo vuelca a disco antes de devolver el número nuevo.
package consecutivo

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/pkg/atv"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

// Estado es el contenido del archivo de consecutivos.
type Estado struct {
	Current       int64   `json:"current"`
	LastUpdated   *string `json:"lastUpdated"`
	LastGenerated *string `json:"lastGenerated,omitempty"`
	Format        string  `json:"format"`
	Prefix        string  `json:"prefix"`
	ResetAt       *string `json:"resetAt,omitempty"`
}

func estadoInicial() Estado {
	return Estado{
		Current: 1,
		Format:  "YYYYMMDDHHMMSS",
		Prefix:  atv.Establecimiento + atv.PuntoVenta + atv.TipoFactura + "000000",
	}
}

// Resultado es el consecutivo asignado. Degradado indica que el contador
// persistido no fue accesible y el número proviene del fallback por timestamp
// (garantía de unicidad menor).
type Resultado struct {
	Consecutivo string
	Degradado   bool
}

// Stats expone el estado del contador sin incrementarlo.
type Stats struct {
	CurrentNumber   int64   `json:"currentNumber"`
	LastUpdated     *string `json:"lastUpdated"`
	LastGenerated   *string `json:"lastGenerated"`
	NextConsecutivo string  `json:"nextConsecutivo"`
	FileExists      bool    `json:"fileExists"`
	FilePath        string  `json:"filePath"`
}

// Generator asigna consecutivos únicos y monotónicos. Todas las asignaciones
// se serializan con un mutex: dos peticiones concurrentes nunca observan el
// mismo valor del contador.
type Generator struct {
	mu   sync.Mutex
	path string
	env  string // production bloquea Reset
	log  *logger.Logger
	rnd  *rand.Rand
	now  func() time.Time
}

// New construye el generador. path es el archivo JSON del contador; se crea
// con current=1 en el primer uso.
func New(path, env string, log *logger.Logger) *Generator {
	return &Generator{
		path: path,
		env:  env,
		log:  log,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

// Generar asigna el siguiente consecutivo: lee el contador, lo incrementa y lo
// persiste antes de devolver. Si el acceso al archivo falla, degrada a un
// consecutivo derivado de timestamp en lugar de fallar la petición; el archivo
// primario no se toca en ese camino.
func (g *Generator) Generar(_ context.Context) (Resultado, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	estado, err := g.leerOCrear()
	if err != nil {
		g.log.Warn().Err(err).Str("path", g.path).
			Msg("contador de consecutivos inaccesible, usando fallback por timestamp")
		return Resultado{Consecutivo: atv.TimestampConsecutivo(g.now(), g.rnd), Degradado: true}, nil
	}

	nuevo := atv.FormatConsecutivo(estado.Current)

	estado.Current++
	ahora := g.now().UTC().Format(time.RFC3339)
	estado.LastUpdated = &ahora
	estado.LastGenerated = &nuevo

	if err := g.escribir(estado); err != nil {
		g.log.Warn().Err(err).Str("path", g.path).
			Msg("no se pudo persistir el contador, usando fallback por timestamp")
		return Resultado{Consecutivo: atv.TimestampConsecutivo(g.now(), g.rnd), Degradado: true}, nil
	}

	return Resultado{Consecutivo: nuevo}, nil
}

// Reset reinicia el contador desde startNumber. Deshabilitado en producción.
func (g *Generator) Reset(_ context.Context, startNumber int64) (Estado, error) {
	if g.env == "production" {
		return Estado{}, fmt.Errorf("reset de consecutivo: %w", domain.ErrProductionGuard)
	}
	if startNumber < 1 {
		startNumber = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	estado := estadoInicial()
	estado.Current = startNumber
	ahora := g.now().UTC().Format(time.RFC3339)
	estado.LastUpdated = &ahora
	estado.ResetAt = &ahora

	if err := g.escribir(estado); err != nil {
		return Estado{}, fmt.Errorf("reset de consecutivo: %w", err)
	}

	g.log.Warn().Int64("start", startNumber).Msg("contador de consecutivos reiniciado")
	return estado, nil
}

// Stats devuelve el estado del contador sin modificarlo.
func (g *Generator) Stats(_ context.Context) Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, err := os.ReadFile(g.path)
	if err != nil {
		return Stats{
			CurrentNumber:   1,
			NextConsecutivo: atv.FormatConsecutivo(1),
			FilePath:        g.path,
		}
	}

	var estado Estado
	if err := json.Unmarshal(data, &estado); err != nil || estado.Current < 1 {
		estado = estadoInicial()
	}
	return Stats{
		CurrentNumber:   estado.Current,
		LastUpdated:     estado.LastUpdated,
		LastGenerated:   estado.LastGenerated,
		NextConsecutivo: atv.FormatConsecutivo(estado.Current),
		FileExists:      true,
		FilePath:        g.path,
	}
}

// leerOCrear carga el estado; si el archivo no existe lo inicializa con
// current=1 y lo persiste.
func (g *Generator) leerOCrear() (Estado, error) {
	data, err := os.ReadFile(g.path)
	if os.IsNotExist(err) {
		estado := estadoInicial()
		if wErr := g.escribir(estado); wErr != nil {
			return Estado{}, wErr
		}
		return estado, nil
	}
	if err != nil {
		return Estado{}, err
	}

	var estado Estado
	if err := json.Unmarshal(data, &estado); err != nil {
		return Estado{}, fmt.Errorf("contador corrupto: %w", err)
	}
	if estado.Current < 1 {
		estado.Current = 1
	}
	return estado, nil
}

func (g *Generator) escribir(estado Estado) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(estado, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(g.path, data, 0o644)
}
