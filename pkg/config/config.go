// Package config centraliza la configuración de la aplicación (lectura vía
// Viper desde env y opcionalmente archivo .env). Detecta el modo de operación
// ATV (REAL o SIMULATED) según la disponibilidad de las llaves criptográficas.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Modos de operación frente a Hacienda.
const (
	ModeReal      = "REAL"
	ModeSimulated = "SIMULATED"
)

// Config agrupa la configuración de la aplicación.
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	ATV  ATVConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsProduction indica si el ambiente es productivo (bloquea reset y delete).
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ATVConfig configuración para la conexión con la Administración Tributaria
// Virtual (Hacienda, Costa Rica) y las rutas de persistencia local.
type ATVConfig struct {
	KeyPath  string // Llave criptográfica del obligado tributario
	CertPath string // Certificado emitido por Hacienda
	ClientID string
	Username string
	Pin      string

	SimulateIfNoKeys bool // Simular respuestas cuando no hay llaves configuradas

	InvoicesDir     string // Directorio de facturas emitidas (área pendiente + sent/)
	ConsecutiveFile string // Archivo JSON con el contador de consecutivos
}

// DetectMode determina el modo de operación: REAL solo cuando las llaves están
// configuradas y los archivos existen en disco; en cualquier otro caso SIMULATED.
func (c ATVConfig) DetectMode() string {
	hasRequiredKeys := c.KeyPath != "" && c.CertPath != "" && c.ClientID != ""

	if !hasRequiredKeys && c.SimulateIfNoKeys {
		return ModeSimulated
	}

	if hasRequiredKeys {
		if fileExists(c.KeyPath) && fileExists(c.CertPath) {
			return ModeReal
		}
	}

	return ModeSimulated
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// archivo .env). Las env vars tienen prioridad. Nombres esperados: APP_ENV,
// HTTP_PORT, ATV_KEY_PATH, INVOICES_DIR, CONSECUTIVE_FILE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración .env
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "factura-cr"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 3000),
		},
		ATV: ATVConfig{
			KeyPath:          getString(v, "ATV_KEY_PATH", ""),
			CertPath:         getString(v, "ATV_CERT_PATH", ""),
			ClientID:         getString(v, "ATV_CLIENT_ID", ""),
			Username:         getString(v, "ATV_USERNAME", ""),
			Pin:              getString(v, "ATV_PIN", ""),
			SimulateIfNoKeys: getBool(v, "SIMULATE_IF_NO_KEYS", true),
			InvoicesDir:      getString(v, "INVOICES_DIR", "./invoices"),
			ConsecutiveFile:  getString(v, "CONSECUTIVE_FILE", "./data/consecutivo.json"),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
