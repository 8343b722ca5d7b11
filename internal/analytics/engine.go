// Package analytics orquesta los pases analíticos sobre las vistas de
// inventario: features de segmento, hotness score y fair value por lote.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/alejandrodnm/lotwatch/internal/observability"
	"github.com/alejandrodnm/lotwatch/internal/ports"
)

// Config contiene la configuración del motor y del scheduler.
type Config struct {
	// TickInterval es el pulso base del scheduler. La vista live refresca en
	// cada tick; las demás cada SlowCadence ticks.
	TickInterval time.Duration
	SlowCadence  int

	// Ventanas de features.
	HistoryWindowDays   int // baseline anual de ventas (365)
	RecentWindowDays    int // ventana reciente (30)
	VelocityWindowHours int // ventana trailing de ticks (24)

	Weights domain.HotnessWeights

	// Workers del pool de lotes (0 = NumCPU×2).
	Workers int

	// CompsPerSecond limita las búsquedas de comps contra el store
	// (0 = sin límite).
	CompsPerSecond float64

	// TopSegments limita el readout de segmentos calientes.
	TopSegments int
}

// Defaults rellena los campos a cero con los valores de producción.
func (c Config) Defaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 15 * time.Second
	}
	if c.SlowCadence <= 0 {
		c.SlowCadence = 4
	}
	if c.HistoryWindowDays <= 0 {
		c.HistoryWindowDays = 365
	}
	if c.RecentWindowDays <= 0 {
		c.RecentWindowDays = 30
	}
	if c.VelocityWindowHours <= 0 {
		c.VelocityWindowHours = 24
	}
	if c.Weights == (domain.HotnessWeights{}) {
		c.Weights = domain.DefaultHotnessWeights()
	}
	if c.TopSegments <= 0 {
		c.TopSegments = 10
	}
	return c
}

// Engine ejecuta un refresh completo de una vista: pertenencia, pase de
// segmentos y pase de lotes. No tiene estado entre refreshes; el estado
// operacional vive en el Scheduler.
type Engine struct {
	cfg     Config
	store   ports.InventoryStore
	metrics *observability.Metrics
	limiter *rate.Limiter
	nowFn   func() time.Time
}

// NewEngine crea el motor con sus dependencias inyectadas. metrics puede ser
// nil (tests, modo --once).
func NewEngine(cfg Config, store ports.InventoryStore, metrics *observability.Metrics) *Engine {
	cfg = cfg.Defaults()
	var limiter *rate.Limiter
	if cfg.CompsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.CompsPerSecond), int(cfg.CompsPerSecond)+1)
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		metrics: metrics,
		limiter: limiter,
		nowFn:   time.Now,
	}
}

// RefreshResult resume un refresh de vista completado.
type RefreshResult struct {
	PassID      string
	View        domain.View
	ViewRows    int
	SegmentRows int
	LotRows     int
	Scores      []domain.SegmentScore
	Elapsed     time.Duration
}

// RefreshView ejecuta el refresh completo de una vista. Cualquier error
// aborta el refresh entero: las escrituras son transaccionales, así que la
// vista conserva los valores del pase anterior.
func (e *Engine) RefreshView(ctx context.Context, view domain.View) (RefreshResult, error) {
	passID := uuid.NewString()
	now := e.nowFn().UTC()
	start := now

	res := RefreshResult{PassID: passID, View: view}

	rows, err := e.store.RefreshViewMembership(ctx, view, now)
	if err != nil {
		return res, fmt.Errorf("analytics.RefreshView: membership %s: %w", view, err)
	}
	res.ViewRows = rows

	scores, err := e.segmentPass(ctx, view, now)
	if err != nil {
		return res, fmt.Errorf("analytics.RefreshView: segments %s: %w", view, err)
	}
	res.Scores = scores
	res.SegmentRows = len(scores)

	priced, err := e.lotPass(ctx, view, now)
	if err != nil {
		return res, fmt.Errorf("analytics.RefreshView: lots %s: %w", view, err)
	}
	res.LotRows = priced

	res.Elapsed = e.nowFn().UTC().Sub(start)
	slog.Info("view refreshed",
		"pass_id", passID,
		"view", view.String(),
		"lots", res.ViewRows,
		"segments", res.SegmentRows,
		"priced", res.LotRows,
		"elapsed", res.Elapsed,
	)

	if e.metrics != nil {
		e.metrics.ViewLots.WithLabelValues(view.String()).Set(float64(res.ViewRows))
		e.metrics.SegmentsScored.Set(float64(res.SegmentRows))
		e.metrics.LastSuccess.WithLabelValues(view.String()).Set(float64(e.nowFn().Unix()))
	}
	return res, nil
}

// RunOnce refresca las tres vistas secuencialmente (modo --once). Un fallo
// en una vista no impide refrescar las siguientes; devuelve el primer error.
func (e *Engine) RunOnce(ctx context.Context) ([]RefreshResult, error) {
	var (
		results  []RefreshResult
		firstErr error
	)
	for _, view := range domain.AllViews {
		res, err := e.RefreshView(ctx, view)
		if err != nil {
			slog.Error("view refresh failed", "view", view.String(), "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}

// segmentPass construye las features de segmento, las puntúa y escribe los
// scores de vuelta.
func (e *Engine) segmentPass(ctx context.Context, view domain.View, now time.Time) ([]domain.SegmentScore, error) {
	start := e.nowFn()

	features, err := e.buildSegmentFeatures(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, nil
	}

	scores := domain.ScoreSegments(features, e.cfg.Weights)
	if err := e.store.UpsertSegmentScores(ctx, view, scores, now); err != nil {
		return nil, err
	}

	e.observePass(view, domain.PassSegments, e.nowFn().Sub(start))
	return scores, nil
}

func (e *Engine) observePass(view domain.View, kind domain.PassKind, elapsed time.Duration) {
	slog.Debug("pass complete", "view", view.String(), "pass", string(kind), "elapsed", elapsed)
	if e.metrics != nil {
		e.metrics.PassDuration.WithLabelValues(view.String(), string(kind)).Observe(elapsed.Seconds())
	}
}
