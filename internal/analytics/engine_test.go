package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock store ---

// mockStore es un InventoryStore en memoria. FindComparableSales aplica el
// mismo predicado que el SQL real (CompQuery.Matches).
type mockStore struct {
	mu sync.Mutex

	lots  map[domain.View][]domain.LotSnapshot
	sales []domain.SaleRecord
	ticks map[string][]domain.PriceTick // lotID → serie

	scoresWritten  map[domain.View][]domain.SegmentScore
	pricingWritten map[domain.View][]domain.LotPricing
	compQueries    []domain.CompQuery

	refreshErr  map[domain.View]error
	pricingErr  error
	compsErr    error
	refreshGate chan struct{} // si no es nil, RefreshViewMembership bloquea hasta que se cierre
	refreshes   []domain.View
}

func newMockStore() *mockStore {
	return &mockStore{
		lots:           make(map[domain.View][]domain.LotSnapshot),
		ticks:          make(map[string][]domain.PriceTick),
		scoresWritten:  make(map[domain.View][]domain.SegmentScore),
		pricingWritten: make(map[domain.View][]domain.LotPricing),
		refreshErr:     make(map[domain.View]error),
	}
}

func (m *mockStore) ApplySchema(context.Context) error { return nil }

func (m *mockStore) RefreshViewMembership(_ context.Context, view domain.View, _ time.Time) (int, error) {
	if m.refreshGate != nil {
		<-m.refreshGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, view)
	if err := m.refreshErr[view]; err != nil {
		return 0, err
	}
	return len(m.lots[view]), nil
}

func (m *mockStore) ListSegments(_ context.Context, _ time.Time, _ int) ([]domain.SegmentKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[domain.SegmentKey]bool)
	var keys []domain.SegmentKey
	for _, lots := range m.lots {
		for _, l := range lots {
			if k := l.SegmentKey(); !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	for _, s := range m.sales {
		k := domain.SegmentKey{Make: s.MakeNorm, Model: s.ModelNorm, Year: s.Year}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) CountSales(_ context.Context, key domain.SegmentKey, now time.Time, sinceDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.AddDate(0, 0, -sinceDays)
	n := 0
	for _, s := range m.sales {
		if s.MakeNorm == key.Make && s.ModelNorm == key.Model && s.Year == key.Year && !s.SaleDate.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CountActiveLots(_ context.Context, key domain.SegmentKey) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, lots := range m.lots {
		for _, l := range lots {
			if l.SegmentKey() == key {
				n++
			}
		}
	}
	return n, nil
}

func (m *mockStore) ListViewLots(_ context.Context, view domain.View) ([]domain.LotSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lots[view], nil
}

func (m *mockStore) PriceTicks(_ context.Context, lotID string, _ int, now time.Time, sinceHours int) ([]domain.PriceTick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-time.Duration(sinceHours) * time.Hour)
	var out []domain.PriceTick
	for _, t := range m.ticks[lotID] {
		if !t.TS.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) FindComparableSales(_ context.Context, q domain.CompQuery) ([]domain.SaleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compQueries = append(m.compQueries, q)
	if m.compsErr != nil {
		return nil, m.compsErr
	}
	var out []domain.SaleRecord
	for _, s := range m.sales {
		if q.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertSegmentScores(_ context.Context, view domain.View, scores []domain.SegmentScore, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoresWritten[view] = scores
	return nil
}

func (m *mockStore) UpsertLotPricing(_ context.Context, view domain.View, pricing []domain.LotPricing, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pricingErr != nil {
		return m.pricingErr
	}
	m.pricingWritten[view] = pricing
	return nil
}

func (m *mockStore) ViewCounts(context.Context) (map[domain.View]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.View]int)
	for v, lots := range m.lots {
		counts[v] = len(lots)
	}
	return counts, nil
}

func (m *mockStore) Close() error { return nil }

// --- helpers ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(store *mockStore) *Engine {
	e := NewEngine(Config{Workers: 2}, store, nil)
	e.nowFn = func() time.Time { return testNow }
	return e
}

func camryLot(id string, prebid float64) domain.LotSnapshot {
	return domain.LotSnapshot{
		LotID:        id,
		BrokerID:     1,
		Year:         2018,
		MakeNorm:     "toyota",
		ModelNorm:    "camry",
		TitleNorm:    domain.String("SAL"),
		Odometer:     domain.Float(100000),
		AuctionAt:    testNow.Add(-time.Hour),
		Status:       "ACTIVE",
		LatestPrebid: domain.Float(prebid),
	}
}

func camrySale(id string, price float64, daysAgo int) domain.SaleRecord {
	return domain.SaleRecord{
		LotID: id, BrokerID: 1, Year: 2018,
		MakeNorm: "toyota", ModelNorm: "camry",
		TitleNorm: domain.String("SAL"),
		Odometer:  domain.Float(100000),
		SalePrice: domain.Float(price),
		SaleDate:  testNow.AddDate(0, 0, -daysAgo),
	}
}

// --- tests ---

func TestRefreshView_FullPass(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 10800)}
	store.sales = []domain.SaleRecord{
		camrySale("s1", 10000, 5),
		camrySale("s2", 12000, 10),
		camrySale("s3", 13000, 40),
		camrySale("s4", 20000, 100),
	}
	store.ticks["lot-1"] = []domain.PriceTick{
		{LotID: "lot-1", BrokerID: 1, TS: testNow.Add(-4 * time.Hour), Prebid: 10000},
		{LotID: "lot-1", BrokerID: 1, TS: testNow.Add(-1 * time.Hour), Prebid: 10800},
	}

	e := newTestEngine(store)
	res, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.NoError(t, err)

	assert.NotEmpty(t, res.PassID)
	assert.Equal(t, 1, res.ViewRows)
	assert.Equal(t, 1, res.SegmentRows)
	assert.Equal(t, 1, res.LotRows)

	// Segment pass: un solo segmento → todos los ranks 1.0 → score 100.
	scores := store.scoresWritten[domain.ViewLive]
	require.Len(t, scores, 1)
	assert.Equal(t, 100, scores[0].HotnessPct)
	assert.InDelta(t, (10800.0-10000.0)/3.0, scores[0].Components["vel_median"], 1e-9)

	// Lot pass: mediana discreta de 4 comps = 12000; delta de 10800 = -10%.
	pricing := store.pricingWritten[domain.ViewLive]
	require.Len(t, pricing, 1)
	require.True(t, pricing[0].FairValue.Valid)
	assert.Equal(t, 12000.0, pricing[0].FairValue.Value)
	assert.Equal(t, 4, pricing[0].CompCount)
	require.True(t, pricing[0].PriceDeltaPct.Valid)
	assert.InDelta(t, -10.0, pricing[0].PriceDeltaPct.Value, 1e-9)
}

func TestRefreshView_TierAWins(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}
	// Un solo comp estrecho y varios anchos: con A no vacío, B ni se consulta.
	store.sales = []domain.SaleRecord{
		camrySale("narrow", 9500, 5),
		{LotID: "wide1", BrokerID: 1, Year: 2016, MakeNorm: "toyota", ModelNorm: "camry",
			SalePrice: domain.Float(7000), SaleDate: testNow.AddDate(0, 0, -5)},
		{LotID: "wide2", BrokerID: 1, Year: 2020, MakeNorm: "toyota", ModelNorm: "camry",
			SalePrice: domain.Float(8000), SaleDate: testNow.AddDate(0, 0, -5)},
	}

	e := newTestEngine(store)
	_, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.NoError(t, err)

	pricing := store.pricingWritten[domain.ViewLive]
	require.Len(t, pricing, 1)
	assert.Equal(t, 9500.0, pricing[0].FairValue.Value)
	assert.Equal(t, 1, pricing[0].CompCount, "un comp del tier A gana sobre dos del B")
	assert.Len(t, store.compQueries, 1, "con el tier A no vacío, el B no se consulta")
}

func TestRefreshView_TierBFallback(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}
	store.sales = []domain.SaleRecord{
		{LotID: "wide", BrokerID: 1, Year: 2016, MakeNorm: "toyota", ModelNorm: "camry",
			SalePrice: domain.Float(7000), SaleDate: testNow.AddDate(0, 0, -5)},
	}

	e := newTestEngine(store)
	_, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.NoError(t, err)

	pricing := store.pricingWritten[domain.ViewLive]
	require.Len(t, pricing, 1)
	assert.Equal(t, 7000.0, pricing[0].FairValue.Value)
	assert.Len(t, store.compQueries, 2, "A vacío → fallback a B")
}

func TestRefreshView_NoComps(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}

	e := newTestEngine(store)
	_, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.NoError(t, err)

	pricing := store.pricingWritten[domain.ViewLive]
	require.Len(t, pricing, 1)
	assert.False(t, pricing[0].FairValue.Valid)
	assert.Equal(t, 0, pricing[0].CompCount)
	assert.False(t, pricing[0].PriceDeltaPct.Valid)
}

func TestRefreshView_CompQueryFailureAborts(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}
	store.sales = []domain.SaleRecord{camrySale("s1", 9500, 5)}
	store.compsErr = errors.New("database is locked")

	e := newTestEngine(store)
	_, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Empty(t, store.pricingWritten[domain.ViewLive],
		"un fallo del store no debe sobrescribir el pricing del pase anterior")
}

func TestRefreshView_WriteFailureAborts(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}
	store.sales = []domain.SaleRecord{camrySale("s1", 9500, 5)}
	store.pricingErr = errors.New("disk full")

	e := newTestEngine(store)
	_, err := e.RefreshView(context.Background(), domain.ViewLive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunOnce_AllViews(t *testing.T) {
	store := newMockStore()
	store.lots[domain.ViewLive] = []domain.LotSnapshot{camryLot("lot-1", 9000)}
	store.lots[domain.ViewNext24h] = []domain.LotSnapshot{camryLot("lot-2", 8000)}

	e := newTestEngine(store)
	results, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.ElementsMatch(t, []domain.View{domain.ViewLive, domain.ViewNext2h, domain.ViewNext24h},
		store.refreshes)
}
