package facturas

import (
	"context"

	"github.com/tu-usuario/factura-cr/internal/domain/entity"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/atv"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/consecutivo"
	"github.com/tu-usuario/factura-cr/internal/infrastructure/storage"
)

// Sequencer asigna números consecutivos únicos.
type Sequencer interface {
	Generar(ctx context.Context) (consecutivo.Resultado, error)
	Stats(ctx context.Context) consecutivo.Stats
}

// Storage persiste comprobantes emitidos.
type Storage interface {
	SaveJSON(ctx context.Context, f *entity.Factura) (storage.SavedFile, error)
	SaveXML(ctx context.Context, consecutivo, contenido string) (storage.SavedFile, error)
	MarkAsSent(ctx context.Context, consecutivo string, envio map[string]any) (storage.MarkResult, error)
	Get(ctx context.Context, consecutivo string) (*storage.Documento, error)
	List(ctx context.Context, filtro string, includeContent bool) ([]storage.ArchivoInfo, error)
	Delete(ctx context.Context, consecutivo string) (int, error)
	Stats(ctx context.Context) storage.StorageStats
}

// Gateway comunica con la Administración Tributaria Virtual.
type Gateway interface {
	EmitirComprobante(ctx context.Context, f *entity.Factura) (*atv.Emision, error)
	ValidarComprobante(ctx context.Context, clave string) (*atv.Validacion, error)
	EnviarComprobante(ctx context.Context, clave string) (*atv.Envio, error)
	ConsultarComprobante(ctx context.Context, clave string) (*atv.Consulta, error)
	Status() atv.AdapterStatus
}

// PDFGenerator genera la representación gráfica del comprobante.
type PDFGenerator interface {
	GenerateFacturaPDF(ctx context.Context, f *entity.Factura, clave string) ([]byte, error)
}
