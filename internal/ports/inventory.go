package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
)

// InventoryStore es la fuente de verdad del inventario: lotes, histórico de
// ventas, ticks de precio y las tres vistas materializadas. El engine lee
// features de aquí y escribe scores y pricing de vuelta.
//
// Las escrituras de un pase son todo-o-nada: UpsertSegmentScores y
// UpsertLotPricing corren en una transacción y un error deja la vista con
// los valores del pase anterior.
type InventoryStore interface {
	// ApplySchema crea las tablas si no existen. Idempotente.
	ApplySchema(ctx context.Context) error

	// RefreshViewMembership recalcula qué lotes pertenecen a la vista según
	// auction_at y status, expulsando los que salieron de la ventana y
	// admitiendo los que entraron. Devuelve el número de lotes en la vista.
	RefreshViewMembership(ctx context.Context, view domain.View, now time.Time) (int, error)

	// ListSegments devuelve las keys de segmento con actividad: al menos un
	// lote en alguna vista o una venta en los últimos windowDays días.
	ListSegments(ctx context.Context, now time.Time, windowDays int) ([]domain.SegmentKey, error)

	// CountSales cuenta ventas del segmento en los últimos sinceDays días.
	CountSales(ctx context.Context, key domain.SegmentKey, now time.Time, sinceDays int) (int, error)

	// CountActiveLots cuenta los lotes del segmento presentes en cualquiera
	// de las tres vistas.
	CountActiveLots(ctx context.Context, key domain.SegmentKey) (int, error)

	// ListViewLots devuelve los lotes actualmente en la vista, con su último
	// prebid observado.
	ListViewLots(ctx context.Context, view domain.View) ([]domain.LotSnapshot, error)

	// PriceTicks devuelve los ticks de un lote en las últimas sinceHours
	// horas, ordenados por timestamp.
	PriceTicks(ctx context.Context, lotID string, brokerID int, now time.Time, sinceHours int) ([]domain.PriceTick, error)

	// FindComparableSales devuelve las ventas que cumplen los filtros del
	// query (un tier ya resuelto a rangos concretos).
	FindComparableSales(ctx context.Context, q domain.CompQuery) ([]domain.SaleRecord, error)

	// UpsertSegmentScores reemplaza los scores de segmento y propaga el
	// hotness a los lotes de la vista, en una transacción.
	UpsertSegmentScores(ctx context.Context, view domain.View, scores []domain.SegmentScore, at time.Time) error

	// UpsertLotPricing escribe fair value, comp count y delta para los lotes
	// de la vista, en una transacción.
	UpsertLotPricing(ctx context.Context, view domain.View, pricing []domain.LotPricing, at time.Time) error

	// ViewCounts devuelve el número de lotes por vista, para el health y el
	// reporte periódico.
	ViewCounts(ctx context.Context) (map[domain.View]int, error)

	Close() error
}
