package analytics

// scheduler.go — pulso del motor y aislamiento de fallos por vista.
//
// Un solo ticker base; la vista live refresca en cada tick y las vistas 2h y
// 24h cada SlowCadence ticks. Cada refresh corre en su propia goroutine con
// transición de estado bajo mutex: un tick que llega con la vista aún
// refrescando se salta (no se encola), y el fallo de una vista no frena a
// las demás.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/alejandrodnm/lotwatch/internal/observability"
	"github.com/alejandrodnm/lotwatch/internal/ports"
)

// viewState es el estado operacional de una vista. Protegido por el mutex
// del scheduler.
type viewState struct {
	running     bool
	lastSuccess time.Time
	lastErr     string
	segmentRows int
	lotRows     int
	viewRows    int
}

// Scheduler dispara los refreshes de vista con sus cadencias y mantiene el
// estado de salud por vista.
type Scheduler struct {
	cfg      Config
	engine   *Engine
	notifier ports.StatusNotifier
	metrics  *observability.Metrics

	mu     sync.Mutex
	states map[domain.View]*viewState
	wg     sync.WaitGroup
}

// NewScheduler crea el scheduler. notifier y metrics pueden ser nil.
func NewScheduler(cfg Config, engine *Engine, notifier ports.StatusNotifier, metrics *observability.Metrics) *Scheduler {
	cfg = cfg.Defaults()
	states := make(map[domain.View]*viewState, len(domain.AllViews))
	for _, v := range domain.AllViews {
		states[v] = &viewState{}
	}
	return &Scheduler{
		cfg:      cfg,
		engine:   engine,
		notifier: notifier,
		metrics:  metrics,
		states:   states,
	}
}

// Run ejecuta el loop de ticks hasta que el contexto se cancele. Espera a
// que los refreshes en vuelo terminen antes de devolver.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"tick_interval", s.cfg.TickInterval,
		"slow_cadence", s.cfg.SlowCadence,
	)

	// Primer tick inmediato: todas las vistas arrancan pobladas.
	s.tick(ctx, 0)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping, waiting for in-flight refreshes")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			n++
			s.tick(ctx, n)
		}
	}
}

// tick dispara los refreshes que tocan en este pulso.
func (s *Scheduler) tick(ctx context.Context, n int) {
	for _, view := range s.dueViews(n) {
		s.launch(ctx, view)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyStatus(ctx, s.Status()); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
}

// dueViews devuelve las vistas que tocan en el tick n: live siempre, las
// demás cada SlowCadence ticks (incluido el tick 0 inicial).
func (s *Scheduler) dueViews(n int) []domain.View {
	if n%s.cfg.SlowCadence == 0 {
		return domain.AllViews
	}
	return []domain.View{domain.ViewLive}
}

// launch transiciona la vista a running y dispara el refresh en su propia
// goroutine. Si la vista ya está refrescando, el tick se salta.
func (s *Scheduler) launch(ctx context.Context, view domain.View) {
	s.mu.Lock()
	st := s.states[view]
	if st.running {
		s.mu.Unlock()
		slog.Debug("refresh still running, skipping tick", "view", view.String())
		if s.metrics != nil {
			s.metrics.RefreshesSkipped.WithLabelValues(view.String()).Inc()
		}
		return
	}
	st.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.engine.RefreshView(ctx, view)
		s.finish(view, res, err)

		if err == nil && view == domain.ViewLive && s.notifier != nil {
			if nerr := s.notifier.NotifyHotSegments(ctx, res.Scores); nerr != nil {
				slog.Warn("notifier error", "err", nerr)
			}
		}
	}()
}

// finish registra el resultado del refresh y libera la vista.
func (s *Scheduler) finish(view domain.View, res RefreshResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.states[view]
	st.running = false
	if err != nil {
		st.lastErr = err.Error()
		slog.Error("view refresh failed", "view", view.String(), "err", err)
		if s.metrics != nil {
			s.metrics.RefreshesTotal.WithLabelValues(view.String(), "error").Inc()
		}
		return
	}

	st.lastErr = ""
	st.lastSuccess = time.Now()
	st.segmentRows = res.SegmentRows
	st.lotRows = res.LotRows
	st.viewRows = res.ViewRows
	if s.metrics != nil {
		s.metrics.RefreshesTotal.WithLabelValues(view.String(), "ok").Inc()
	}
}

// Status devuelve el snapshot del estado por vista para el health readout.
func (s *Scheduler) Status() []domain.ViewStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]domain.ViewStatus, 0, len(domain.AllViews))
	for _, v := range domain.AllViews {
		st := s.states[v]
		statuses = append(statuses, domain.ViewStatus{
			View:        v,
			Running:     st.running,
			LastSuccess: st.lastSuccess,
			LastError:   st.lastErr,
			SegmentRows: st.segmentRows,
			LotRows:     st.lotRows,
			ViewRows:    st.viewRows,
		})
	}
	return statuses
}
