package analytics

// comps.go — pase de lotes: comps, fair value y price delta.
//
// Política de dos tiers con fallback fijo: si el tier A (estrecho) produce
// al menos un comp, gana; solo con A vacío se consulta el tier B (ancho).
// El rate limiter acota las queries contra el store para que el pase de la
// vista 24h (la más poblada) no monopolice el único writer de SQLite.

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
)

// lotPass calcula el pricing de todos los lotes de la vista y lo escribe de
// vuelta en una transacción. Devuelve el número de lotes actualizados.
func (e *Engine) lotPass(ctx context.Context, view domain.View, now time.Time) (int, error) {
	start := e.nowFn()

	lots, err := e.store.ListViewLots(ctx, view)
	if err != nil {
		return 0, err
	}
	if len(lots) == 0 {
		return 0, nil
	}

	pricing, err := e.priceLotsConcurrent(ctx, lots)
	if err != nil {
		return 0, err
	}
	if err := e.store.UpsertLotPricing(ctx, view, pricing, now); err != nil {
		return 0, err
	}

	e.observePass(view, domain.PassLots, e.nowFn().Sub(start))
	return len(pricing), nil
}

// priceLotsConcurrent calcula el pricing de cada lote en un worker pool.
// Si alguna búsqueda de comps falla, el pase entero se aborta y la vista
// conserva el pricing del pase anterior; escribir valores vacíos por un
// fallo transitorio del store sería indistinguible de "sin comps".
func (e *Engine) priceLotsConcurrent(ctx context.Context, lots []domain.LotSnapshot) ([]domain.LotPricing, error) {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type result struct {
		pricing domain.LotPricing
		err     error
	}

	workCh := make(chan domain.LotSnapshot, len(lots))
	resultCh := make(chan result, len(lots))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lot := range workCh {
				p, err := e.priceLot(ctx, lot)
				resultCh <- result{pricing: p, err: err}
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

	pricing := make([]domain.LotPricing, 0, len(lots))
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		pricing = append(pricing, r.pricing)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return pricing, nil
}

// priceLot resuelve el fair value de un lote: tier A primero, tier B como
// fallback, mediana discreta y delta contra el último prebid.
func (e *Engine) priceLot(ctx context.Context, lot domain.LotSnapshot) (domain.LotPricing, error) {
	pricing := domain.LotPricing{LotID: lot.LotID, BrokerID: lot.BrokerID}

	comps, err := e.findComps(ctx, lot, domain.TierA)
	if err != nil {
		return pricing, fmt.Errorf("analytics.priceLot: lot %s tier %s: %w", lot.LotID, domain.TierA.Name, err)
	}
	if len(comps) == 0 {
		comps, err = e.findComps(ctx, lot, domain.TierB)
		if err != nil {
			return pricing, fmt.Errorf("analytics.priceLot: lot %s tier %s: %w", lot.LotID, domain.TierB.Name, err)
		}
	}

	pricing.FairValue, pricing.CompCount = domain.FairValue(comps)
	pricing.PriceDeltaPct = domain.PriceDeltaPct(lot.LatestPrebid, pricing.FairValue)
	return pricing, nil
}

func (e *Engine) findComps(ctx context.Context, lot domain.LotSnapshot, tier domain.CompTier) ([]domain.SaleRecord, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if e.metrics != nil {
		e.metrics.CompQueries.Inc()
	}
	return e.store.FindComparableSales(ctx, domain.BuildCompQuery(lot, tier))
}
