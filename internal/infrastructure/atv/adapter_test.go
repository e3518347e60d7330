package atv_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/factura-cr/internal/domain"
	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/atv"
	"github.com/tu-usuario/factura-cr/pkg/config"
	"github.com/tu-usuario/factura-cr/pkg/logger"
)

func adaptadorSimulado(t *testing.T) *atv.Adapter {
	t.Helper()
	a := atv.NewAdapter(config.ATVConfig{SimulateIfNoKeys: true}, logger.Nop())
	require.NoError(t, a.Init(context.Background()))
	return a
}

func facturaEmitible() *entity.Factura {
	return &entity.Factura{
		TipoDocumento:     "01",
		NumeroConsecutivo: "00100101000000000001",
		FechaEmision:      "2026-03-15T10:00:00Z",
		CodigoMoneda:      "CRC",
		Emisor:            entity.Parte{Nombre: "Comercial El Roble S.A.", Identificacion: "310123456789", TipoIdentificacion: "02"},
		Receptor:          entity.Parte{Nombre: "Juan Pérez", Identificacion: "109876543", TipoIdentificacion: "01"},
		CondicionVenta:    "01",
	}
}

func TestInit_SinLlavesQuedaSimulado(t *testing.T) {
	a := adaptadorSimulado(t)

	st := a.Status()
	assert.Equal(t, config.ModeSimulated, st.Mode)
	assert.True(t, st.Initialized)
	assert.False(t, st.Degradado)
}

// TestInit_LlavesInaccesiblesDegrada: llaves configuradas pero inexistentes en
// disco; el adaptador arranca igual, en simulado y marcado como degradado.
func TestInit_LlavesInaccesiblesDegrada(t *testing.T) {
	a := atv.NewAdapter(config.ATVConfig{
		KeyPath:  "/no/existe/llave.p12",
		CertPath: "/no/existe/cert.crt",
		ClientID: "api-stag",
	}, logger.Nop())
	require.NoError(t, a.Init(context.Background()))

	st := a.Status()
	assert.Equal(t, config.ModeSimulated, st.Mode)
	assert.True(t, st.Degradado)
}

func TestOperaciones_SinInit(t *testing.T) {
	a := atv.NewAdapter(config.ATVConfig{SimulateIfNoKeys: true}, logger.Nop())

	_, err := a.EmitirComprobante(context.Background(), facturaEmitible())
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestEmitirComprobante_Simulado(t *testing.T) {
	a := adaptadorSimulado(t)

	em, err := a.EmitirComprobante(context.Background(), facturaEmitible())
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoSimuladoEmitido, em.Estado)
	assert.True(t, em.Simulado)
	assert.Len(t, em.Clave, 50)
	assert.Equal(t, "506", em.Clave[:3])
	assert.Equal(t, "20260315", em.Clave[3:11], "la clave lleva la fecha de emisión")
	assert.Equal(t, "00100101000000000001", em.NumeroConsecutivo)
	assert.NotEmpty(t, em.TrackID)

	assert.Contains(t, em.XML, "<FacturaElectronica")
	assert.Contains(t, em.XML, "<Clave>"+em.Clave+"</Clave>")
	assert.Contains(t, em.XML, "<NumeroConsecutivo>00100101000000000001</NumeroConsecutivo>")
	assert.Contains(t, em.XML, "Comercial El Roble S.A.")
}

func TestValidarComprobante_Simulado(t *testing.T) {
	a := adaptadorSimulado(t)
	clave := strings.Repeat("5", 50)

	v, err := a.ValidarComprobante(context.Background(), clave)
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoSimuladoValidado, v.Estado)
	assert.Equal(t, clave, v.Clave)
	assert.Len(t, v.Hash, 64)
	assert.True(t, v.Simulado)
}

func TestValidarComprobante_ClaveInvalida(t *testing.T) {
	a := adaptadorSimulado(t)

	_, err := a.ValidarComprobante(context.Background(), "123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnviarComprobante_Simulado(t *testing.T) {
	a := adaptadorSimulado(t)
	clave := strings.Repeat("5", 50)

	env, err := a.EnviarComprobante(context.Background(), clave)
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoSimuladoEnviado, env.Estado)
	assert.Len(t, env.NumeroComprobante, 9)
	assert.Equal(t, "01", env.RespuestaHacienda.Codigo)
	assert.True(t, env.Simulado)
}

func TestConsultarComprobante_Simulado(t *testing.T) {
	a := adaptadorSimulado(t)
	clave := strings.Repeat("5", 50)

	c, err := a.ConsultarComprobante(context.Background(), clave)
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoSimuladoProcesado, c.Estado)
	assert.Equal(t, clave, c.Clave)
	assert.True(t, c.Simulado)
}
