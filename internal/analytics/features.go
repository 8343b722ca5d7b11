package analytics

// features.go — construcción de features de segmento.
//
// Las features se recalculan completas en cada pase, sin estado incremental:
// counts de ventas (30d/365d), lotes activos y la mediana de velocidad de
// puja entre los lotes del segmento. La velocidad por lote sale de la serie
// de ticks de la ventana trailing y se calcula en paralelo con un worker
// pool porque cada lote es una query independiente.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
)

// buildSegmentFeatures arma las features de todos los segmentos con
// actividad: lotes en cualquier vista o ventas dentro de la ventana anual.
func (e *Engine) buildSegmentFeatures(ctx context.Context, now time.Time) ([]domain.SegmentFeatures, error) {
	keys, err := e.store.ListSegments(ctx, now, e.cfg.HistoryWindowDays)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// Un solo listado de lotes activos da cnow y los inputs de velocidad.
	var active []domain.LotSnapshot
	for _, v := range domain.AllViews {
		lots, err := e.store.ListViewLots(ctx, v)
		if err != nil {
			return nil, err
		}
		active = append(active, lots...)
	}

	velocities := e.lotVelocities(ctx, active, now)

	cnow := make(map[domain.SegmentKey]int, len(keys))
	velBySeg := make(map[domain.SegmentKey][]domain.OptFloat)
	for _, lot := range active {
		key := lot.SegmentKey()
		cnow[key]++
		velBySeg[key] = append(velBySeg[key], velocities[lotKey{lot.LotID, lot.BrokerID}])
	}

	features := make([]domain.SegmentFeatures, 0, len(keys))
	for _, key := range keys {
		c30, err := e.store.CountSales(ctx, key, now, e.cfg.RecentWindowDays)
		if err != nil {
			return nil, err
		}
		c12, err := e.store.CountSales(ctx, key, now, e.cfg.HistoryWindowDays)
		if err != nil {
			return nil, err
		}
		features = append(features, domain.SegmentFeatures{
			Key:       key,
			C30:       c30,
			C12:       c12,
			CNow:      cnow[key],
			RateRatio: domain.RateRatio(c30, c12),
			VelMedian: domain.SegmentVelocityMedian(velBySeg[key]),
		})
	}
	return features, nil
}

type lotKey struct {
	lotID    string
	brokerID int
}

// lotVelocities calcula la velocidad de puja de cada lote en paralelo.
// Un lote cuyo fetch de ticks falle queda con velocidad ausente; la falta
// de un lote no tumba el pase entero.
func (e *Engine) lotVelocities(ctx context.Context, lots []domain.LotSnapshot, now time.Time) map[lotKey]domain.OptFloat {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type result struct {
		key lotKey
		vel domain.OptFloat
	}

	workCh := make(chan domain.LotSnapshot, len(lots))
	resultCh := make(chan result, len(lots))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lot := range workCh {
				key := lotKey{lot.LotID, lot.BrokerID}
				ticks, err := e.store.PriceTicks(ctx, lot.LotID, lot.BrokerID, now, e.cfg.VelocityWindowHours)
				if err != nil {
					slog.Debug("price ticks fetch failed", "lot_id", lot.LotID, "err", err)
					resultCh <- result{key: key, vel: domain.NoFloat()}
					continue
				}
				resultCh <- result{key: key, vel: domain.VelocityPerHour(ticks)}
			}
		}()
	}

	for _, lot := range lots {
		workCh <- lot
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	velocities := make(map[lotKey]domain.OptFloat, len(lots))
	for r := range resultCh {
		velocities[r.key] = r.vel
	}
	return velocities
}
