// Package atv es el adaptador hacia la Administración Tributaria Virtual de
// Hacienda. Opera en dos modos fijados al inicializar: REAL (requiere llave
// criptográfica y certificado) o SIMULATED (respuestas generadas localmente,
// para desarrollo y pruebas sin credenciales).
package atv

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	atvkeys "github.com/tu-usuario/factura-cr/pkg/atv"
	"github.com/tu-usuario/factura-cr/pkg/config"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

// Mode es el modo de operación del adaptador. Se fija en Init y no cambia
// durante la vida del proceso.
type Mode int

const (
	ModeSimulated Mode = iota
	ModeReal
)

func (m Mode) String() string {
	if m == ModeReal {
		return config.ModeReal
	}
	return config.ModeSimulated
}

// Emision es el resultado de emitir un comprobante ante ATV.
type Emision struct {
	Estado            string `json:"estado"`
	Clave             string `json:"clave"`
	NumeroConsecutivo string `json:"numeroConsecutivo"`
	Fecha             string `json:"fecha"`
	TrackID           string `json:"trackId"`
	XML               string `json:"-"`
	Mensaje           string `json:"mensaje"`
	Simulado          bool   `json:"simulado"`
}

// Validacion es el resultado de validar un comprobante ya emitido.
type Validacion struct {
	Estado   string `json:"estado"`
	Clave    string `json:"clave"`
	Hash     string `json:"hash"`
	Fecha    string `json:"fecha"`
	Mensaje  string `json:"mensaje"`
	Simulado bool   `json:"simulado"`
}

// RespuestaHacienda es el acuse que devuelve ATV al recibir un comprobante.
type RespuestaHacienda struct {
	Codigo  string `json:"codigo"`
	Detalle string `json:"detalle"`
}

// Envio es el resultado de enviar un comprobante a ATV.
type Envio struct {
	Estado            string            `json:"estado"`
	Clave             string            `json:"clave"`
	NumeroComprobante string            `json:"numeroComprobante"`
	Fecha             string            `json:"fecha"`
	RespuestaHacienda RespuestaHacienda `json:"respuestaHacienda"`
	Mensaje           string            `json:"mensaje"`
	Simulado          bool              `json:"simulado"`
}

// Consulta es el estado de un comprobante según ATV.
type Consulta struct {
	Estado   string `json:"estado"`
	Clave    string `json:"clave"`
	Fecha    string `json:"fecha"`
	Mensaje  string `json:"mensaje"`
	Simulado bool   `json:"simulado"`
}

// AdapterStatus describe el estado operativo del adaptador.
type AdapterStatus struct {
	Mode        string `json:"mode"`
	Initialized bool   `json:"initialized"`
	Degradado   bool   `json:"degradado"`
}

// Adapter implementa la comunicación con ATV. Las operaciones exigen Init
// previo; en modo real sin integración disponible devuelven ErrUnavailable.
type Adapter struct {
	cfg config.ATVConfig
	log *logger.Logger

	mu          sync.Mutex
	mode        Mode
	initialized bool
	degradado   bool

	rnd *rand.Rand
	now func() time.Time
}

func NewAdapter(cfg config.ATVConfig, log *logger.Logger) *Adapter {
	return &Adapter{
		cfg: cfg,
		log: log,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Init detecta y fija el modo de operación. Si la configuración apunta a modo
// real pero las llaves no se pueden cargar, degrada a simulado con advertencia
// en lugar de fallar el arranque.
func (a *Adapter) Init(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.cfg.DetectMode() {
	case config.ModeReal:
		a.mode = ModeReal
		a.log.Info().Str("mode", a.mode.String()).Msg("adaptador ATV inicializado")
	default:
		a.mode = ModeSimulated
		if a.cfg.KeyPath != "" || a.cfg.CertPath != "" {
			// Llaves configuradas pero inaccesibles.
			a.degradado = true
			a.log.Warn().Str("keyPath", a.cfg.KeyPath).
				Msg("llaves ATV no disponibles, operando en modo simulado")
		} else {
			a.log.Info().Str("mode", a.mode.String()).Msg("adaptador ATV inicializado")
		}
	}

	a.initialized = true
	return nil
}

// Mode devuelve el modo fijado en Init.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Status devuelve el estado operativo para el endpoint de salud.
func (a *Adapter) Status() AdapterStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AdapterStatus{
		Mode:        a.mode.String(),
		Initialized: a.initialized,
		Degradado:   a.degradado,
	}
}

// EmitirComprobante genera la clave numérica y el XML del comprobante. En modo
// simulado la respuesta es local; en modo real la integración con el API de
// ATV todavía no está disponible.
func (a *Adapter) EmitirComprobante(ctx context.Context, f *entity.Factura) (*Emision, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	if a.Mode() == ModeReal {
		return nil, fmt.Errorf("emisión real ante ATV: %w", domain.ErrUnavailable)
	}

	fecha := a.now()
	if f.FechaEmision != "" {
		if t, err := time.Parse(time.RFC3339, f.FechaEmision); err == nil {
			fecha = t
		}
	}

	// rnd no es seguro para uso concurrente; mismo lock que el resto de ops.
	a.mu.Lock()
	clave := atvkeys.GenerarClave(f.NumeroConsecutivo, f.Emisor.Identificacion, fecha, a.rnd)
	a.mu.Unlock()
	xml, err := BuildXML(f, clave)
	if err != nil {
		return nil, fmt.Errorf("construir xml del comprobante: %w", err)
	}

	a.log.Info().Str("clave", clave).Str("consecutivo", f.NumeroConsecutivo).
		Msg("comprobante emitido (simulado)")
	return &Emision{
		Estado:            entity.EstadoSimuladoEmitido,
		Clave:             clave,
		NumeroConsecutivo: f.NumeroConsecutivo,
		Fecha:             a.now().UTC().Format(time.RFC3339),
		TrackID:           uuid.NewString(),
		XML:               xml,
		Mensaje:           "Comprobante emitido en modo simulado",
		Simulado:          true,
	}, nil
}

// ValidarComprobante valida una clave ante ATV. En modo simulado devuelve un
// hash aleatorio como comprobante de validación.
func (a *Adapter) ValidarComprobante(_ context.Context, clave string) (*Validacion, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	if !atvkeys.ValidateClave(clave) {
		return nil, fmt.Errorf("clave inválida %q: %w", clave, domain.ErrInvalidInput)
	}
	if a.Mode() == ModeReal {
		return nil, fmt.Errorf("validación real ante ATV: %w", domain.ErrUnavailable)
	}

	return &Validacion{
		Estado:   entity.EstadoSimuladoValidado,
		Clave:    clave,
		Hash:     a.randomHex(32),
		Fecha:    a.now().UTC().Format(time.RFC3339),
		Mensaje:  "Comprobante validado en modo simulado",
		Simulado: true,
	}, nil
}

// EnviarComprobante envía el comprobante a ATV. En modo simulado responde con
// un acuse aceptado (código 01) y un número de comprobante de 9 dígitos.
func (a *Adapter) EnviarComprobante(_ context.Context, clave string) (*Envio, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	if !atvkeys.ValidateClave(clave) {
		return nil, fmt.Errorf("clave inválida %q: %w", clave, domain.ErrInvalidInput)
	}
	if a.Mode() == ModeReal {
		return nil, fmt.Errorf("envío real ante ATV: %w", domain.ErrUnavailable)
	}

	a.mu.Lock()
	numero := fmt.Sprintf("%09d", a.rnd.Intn(1_000_000_000))
	a.mu.Unlock()

	a.log.Info().Str("clave", clave).Str("numeroComprobante", numero).
		Msg("comprobante enviado (simulado)")
	return &Envio{
		Estado:            entity.EstadoSimuladoEnviado,
		Clave:             clave,
		NumeroComprobante: numero,
		Fecha:             a.now().UTC().Format(time.RFC3339),
		RespuestaHacienda: RespuestaHacienda{
			Codigo:  "01",
			Detalle: "Comprobante aceptado",
		},
		Mensaje:  "Comprobante enviado en modo simulado",
		Simulado: true,
	}, nil
}

// ConsultarComprobante consulta el estado de un comprobante por clave.
func (a *Adapter) ConsultarComprobante(_ context.Context, clave string) (*Consulta, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	if !atvkeys.ValidateClave(clave) {
		return nil, fmt.Errorf("clave inválida %q: %w", clave, domain.ErrInvalidInput)
	}
	if a.Mode() == ModeReal {
		return nil, fmt.Errorf("consulta real ante ATV: %w", domain.ErrUnavailable)
	}

	return &Consulta{
		Estado:   entity.EstadoSimuladoProcesado,
		Clave:    clave,
		Fecha:    a.now().UTC().Format(time.RFC3339),
		Mensaje:  "Comprobante procesado en modo simulado",
		Simulado: true,
	}, nil
}

func (a *Adapter) ensureInitialized() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return fmt.Errorf("adaptador ATV: %w", domain.ErrNotInitialized)
	}
	return nil
}

func (a *Adapter) randomHex(n int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf := make([]byte, n)
	a.rnd.Read(buf)
	return hex.EncodeToString(buf)
}
