package storage

// sqlite.go — inventario y vistas materializadas sobre SQLite.
//
// Estrategia:
//   - `lots`, `sales_history`, `price_ticks`: el inventario crudo que la
//     ingesta mantiene al día.
//   - `view_live` / `view_next_2h` / `view_next_24h`: una tabla por vista,
//     UNA fila por lote (UPSERT). El refresh de pertenencia expulsa lotes
//     fuera de ventana y admite los nuevos sin tocar los scores previos.
//   - `segment_scores`: el hotness global por segmento, con sus componentes
//     en JSON para diagnóstico.
//   - Las escrituras de un pase (scores o pricing) van en una transacción:
//     o se aplican todas o la vista conserva el pase anterior.
//   - Prune automático al arrancar: ticks > 7d, ventas > 400d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Inventario crudo de lotes, una fila por (lot, broker)
CREATE TABLE IF NOT EXISTS lots (
    lot_id         TEXT     NOT NULL,
    broker_id      INTEGER  NOT NULL,
    vin            TEXT,
    year           INTEGER  NOT NULL DEFAULT 0,
    make           TEXT,
    model          TEXT,
    make_norm      TEXT,
    model_norm     TEXT,
    trim           TEXT,
    title_norm     TEXT,
    damage_norm    TEXT,
    odometer_miles REAL,
    auction_at     DATETIME,
    status         TEXT     NOT NULL DEFAULT 'ACTIVE',
    refreshed_at   DATETIME NOT NULL,
    PRIMARY KEY (lot_id, broker_id)
);

-- Ventas cerradas, la base de los comps y del baseline anual
CREATE TABLE IF NOT EXISTS sales_history (
    lot_id         TEXT     NOT NULL,
    broker_id      INTEGER  NOT NULL,
    year           INTEGER  NOT NULL DEFAULT 0,
    make_norm      TEXT,
    model_norm     TEXT,
    title_norm     TEXT,
    odometer_miles REAL,
    sale_price     REAL,
    sale_date      DATETIME NOT NULL,
    PRIMARY KEY (lot_id, broker_id)
);

-- Serie temporal de prebids, la base de la velocidad
CREATE TABLE IF NOT EXISTS price_ticks (
    lot_id    TEXT     NOT NULL,
    broker_id INTEGER  NOT NULL,
    ts        DATETIME NOT NULL,
    prebid    REAL     NOT NULL,
    buy_now   REAL,
    PRIMARY KEY (lot_id, broker_id, ts)
);

-- Hotness global por segmento
CREATE TABLE IF NOT EXISTS segment_scores (
    make_norm   TEXT    NOT NULL,
    model_norm  TEXT    NOT NULL,
    year        INTEGER NOT NULL,
    hotness_pct INTEGER NOT NULL,
    components  TEXT,
    updated_at  DATETIME NOT NULL,
    PRIMARY KEY (make_norm, model_norm, year)
);

CREATE INDEX IF NOT EXISTS idx_lots_auction   ON lots(auction_at);
CREATE INDEX IF NOT EXISTS idx_sales_seg      ON sales_history(make_norm, model_norm, year, sale_date);
CREATE INDEX IF NOT EXISTS idx_sales_date     ON sales_history(sale_date);
CREATE INDEX IF NOT EXISTS idx_ticks_lot      ON price_ticks(lot_id, broker_id, ts);
`

// viewSchemaTmpl genera la tabla de una vista. Las tres comparten forma; las
// columnas *_updated_at distinguen el pase de segmentos del de pricing.
const viewSchemaTmpl = `
CREATE TABLE IF NOT EXISTS %s (
    lot_id             TEXT     NOT NULL,
    broker_id          INTEGER  NOT NULL,
    year               INTEGER  NOT NULL DEFAULT 0,
    make_norm          TEXT,
    model_norm         TEXT,
    title_norm         TEXT,
    odometer_miles     REAL,
    auction_at         DATETIME,
    status             TEXT,
    latest_prebid      REAL,
    latest_price_ts    DATETIME,
    hotness_pct        INTEGER,
    hotness_components TEXT,
    hotness_updated_at DATETIME,
    fair_value         REAL,
    comp_count         INTEGER  NOT NULL DEFAULT 0,
    price_delta_pct    REAL,
    pricing_updated_at DATETIME,
    refreshed_at       DATETIME NOT NULL,
    PRIMARY KEY (lot_id, broker_id)
);
CREATE INDEX IF NOT EXISTS idx_%s_seg ON %s(make_norm, model_norm, year);
`

const (
	retentionTicks = 7 * 24 * time.Hour   // más que la ventana de velocidad (24h)
	retentionSales = 400 * 24 * time.Hour // más que el baseline anual (365d)
)

// SQLiteInventory implementa ports.InventoryStore (pure Go, sin CGo).
type SQLiteInventory struct {
	db *sql.DB
}

// NewSQLiteInventory abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos fuera de retención.
func NewSQLiteInventory(path string) (*SQLiteInventory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteInventory: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteInventory{db: db}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.pruneOld(context.Background())
	return s, nil
}

// ApplySchema crea las tablas si no existen. Idempotente.
func (s *SQLiteInventory) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	for _, v := range domain.AllViews {
		t := viewTable(v)
		ddl := fmt.Sprintf(viewSchemaTmpl, t, t, t)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("storage.ApplySchema: view %s: %w", v, err)
		}
	}
	return nil
}

// viewTable devuelve el nombre de tabla de la vista. El nombre viene de un
// enum cerrado, nunca de input externo.
func viewTable(v domain.View) string {
	return "view_" + v.String()
}

// viewPredicate devuelve la condición SQL de pertenencia sobre las columnas
// de `lots`, con sus argumentos. Las fronteras son disjuntas: cada lote cae
// como máximo en una vista.
func viewPredicate(v domain.View, now time.Time) (string, []any) {
	switch v {
	case domain.ViewLive:
		return `auction_at IS NOT NULL AND auction_at <= ? AND status NOT IN ('SOLD', 'CLOSED')`,
			[]any{now}
	case domain.ViewNext2h:
		return `auction_at IS NOT NULL AND auction_at > ? AND auction_at <= ?`,
			[]any{now, now.Add(2 * time.Hour)}
	default:
		return `auction_at IS NOT NULL AND auction_at > ? AND auction_at <= ?`,
			[]any{now.Add(2 * time.Hour), now.Add(24 * time.Hour)}
	}
}

// RefreshViewMembership recalcula la pertenencia de la vista: expulsa los
// lotes que salieron de la ventana y admite (o actualiza) los que están
// dentro, con su último prebid observado. Los scores del pase anterior se
// conservan en las filas que sobreviven.
func (s *SQLiteInventory) RefreshViewMembership(ctx context.Context, view domain.View, now time.Time) (int, error) {
	table := viewTable(view)
	pred, args := viewPredicate(view, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.RefreshViewMembership: begin tx: %w", err)
	}
	defer tx.Rollback()

	// 1. Expulsar lo que ya no pertenece
	delSQL := fmt.Sprintf(
		`DELETE FROM %s WHERE (lot_id, broker_id) NOT IN (SELECT lot_id, broker_id FROM lots WHERE %s)`,
		table, pred)
	if _, err := tx.ExecContext(ctx, delSQL, args...); err != nil {
		return 0, fmt.Errorf("storage.RefreshViewMembership: evict %s: %w", view, err)
	}

	// 2. Admitir y refrescar lo que sí, con el último tick por lote.
	//    El UPSERT solo toca columnas de inventario; hotness y pricing
	//    quedan como los dejó el último pase.
	upSQL := fmt.Sprintf(`
		INSERT INTO %s (lot_id, broker_id, year, make_norm, model_norm, title_norm,
		                odometer_miles, auction_at, status, latest_prebid, latest_price_ts, refreshed_at)
		SELECT l.lot_id, l.broker_id, l.year, l.make_norm, l.model_norm, l.title_norm,
		       l.odometer_miles, l.auction_at, l.status, p.prebid, p.max_ts, ?
		FROM lots l
		LEFT JOIN (
			SELECT lot_id, broker_id, prebid, MAX(ts) AS max_ts
			FROM price_ticks GROUP BY lot_id, broker_id
		) p ON p.lot_id = l.lot_id AND p.broker_id = l.broker_id
		WHERE %s
		ON CONFLICT (lot_id, broker_id) DO UPDATE SET
			year            = excluded.year,
			make_norm       = excluded.make_norm,
			model_norm      = excluded.model_norm,
			title_norm      = excluded.title_norm,
			odometer_miles  = excluded.odometer_miles,
			auction_at      = excluded.auction_at,
			status          = excluded.status,
			latest_prebid   = excluded.latest_prebid,
			latest_price_ts = excluded.latest_price_ts,
			refreshed_at    = excluded.refreshed_at`,
		table, pred)
	upArgs := append([]any{now}, args...)
	if _, err := tx.ExecContext(ctx, upSQL, upArgs...); err != nil {
		return 0, fmt.Errorf("storage.RefreshViewMembership: admit %s: %w", view, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage.RefreshViewMembership: count %s: %w", view, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.RefreshViewMembership: commit: %w", err)
	}
	return count, nil
}

// ListSegments devuelve los segmentos con actividad: al menos un lote en
// alguna vista o una venta dentro de la ventana.
func (s *SQLiteInventory) ListSegments(ctx context.Context, now time.Time, windowDays int) ([]domain.SegmentKey, error) {
	cutoff := now.AddDate(0, 0, -windowDays)
	q := `
		SELECT DISTINCT make_norm, model_norm, year FROM (
			SELECT make_norm, model_norm, year FROM view_live
			UNION SELECT make_norm, model_norm, year FROM view_next_2h
			UNION SELECT make_norm, model_norm, year FROM view_next_24h
			UNION SELECT make_norm, model_norm, year FROM sales_history WHERE sale_date >= ?
		)
		WHERE make_norm IS NOT NULL AND model_norm IS NOT NULL AND year > 0
		ORDER BY make_norm, model_norm, year`
	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSegments: %w", err)
	}
	defer rows.Close()

	var keys []domain.SegmentKey
	for rows.Next() {
		var k domain.SegmentKey
		if err := rows.Scan(&k.Make, &k.Model, &k.Year); err != nil {
			return nil, fmt.Errorf("storage.ListSegments: scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CountSales cuenta ventas del segmento en los últimos sinceDays días.
func (s *SQLiteInventory) CountSales(ctx context.Context, key domain.SegmentKey, now time.Time, sinceDays int) (int, error) {
	cutoff := now.AddDate(0, 0, -sinceDays)
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales_history
		 WHERE make_norm = ? AND model_norm = ? AND year = ? AND sale_date >= ?`,
		key.Make, key.Model, key.Year, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.CountSales: %w", err)
	}
	return n, nil
}

// CountActiveLots cuenta los lotes del segmento presentes en cualquier vista.
// Las vistas son disjuntas, así que la suma no duplica.
func (s *SQLiteInventory) CountActiveLots(ctx context.Context, key domain.SegmentKey) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM view_live     WHERE make_norm = ? AND model_norm = ? AND year = ?) +
			(SELECT COUNT(*) FROM view_next_2h  WHERE make_norm = ? AND model_norm = ? AND year = ?) +
			(SELECT COUNT(*) FROM view_next_24h WHERE make_norm = ? AND model_norm = ? AND year = ?)`,
		key.Make, key.Model, key.Year,
		key.Make, key.Model, key.Year,
		key.Make, key.Model, key.Year,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.CountActiveLots: %w", err)
	}
	return n, nil
}

// ListViewLots devuelve los lotes actualmente en la vista.
func (s *SQLiteInventory) ListViewLots(ctx context.Context, view domain.View) ([]domain.LotSnapshot, error) {
	q := fmt.Sprintf(`
		SELECT lot_id, broker_id, year, make_norm, model_norm, title_norm,
		       odometer_miles, auction_at, status, latest_prebid, latest_price_ts, refreshed_at
		FROM %s ORDER BY auction_at, lot_id`, viewTable(view))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("storage.ListViewLots: %s: %w", view, err)
	}
	defer rows.Close()

	var lots []domain.LotSnapshot
	for rows.Next() {
		var (
			lot       domain.LotSnapshot
			makeNorm  sql.NullString
			modelNorm sql.NullString
			title     sql.NullString
			odo       sql.NullFloat64
			auctionAt sql.NullTime
			status    sql.NullString
			prebid    sql.NullFloat64
			priceTS   sql.NullTime
		)
		if err := rows.Scan(&lot.LotID, &lot.BrokerID, &lot.Year, &makeNorm, &modelNorm, &title,
			&odo, &auctionAt, &status, &prebid, &priceTS, &lot.RefreshedAt); err != nil {
			return nil, fmt.Errorf("storage.ListViewLots: scan: %w", err)
		}
		lot.MakeNorm = makeNorm.String
		lot.ModelNorm = modelNorm.String
		lot.TitleNorm = optString(title)
		lot.Odometer = optFloat(odo)
		if auctionAt.Valid {
			lot.AuctionAt = auctionAt.Time
		}
		if status.Valid {
			lot.Status = status.String
		}
		lot.LatestPrebid = optFloat(prebid)
		if priceTS.Valid {
			lot.LatestPriceTS = priceTS.Time
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// PriceTicks devuelve los ticks de un lote de las últimas sinceHours horas,
// en orden cronológico.
func (s *SQLiteInventory) PriceTicks(ctx context.Context, lotID string, brokerID int, now time.Time, sinceHours int) ([]domain.PriceTick, error) {
	cutoff := now.Add(-time.Duration(sinceHours) * time.Hour)
	rows, err := s.db.QueryContext(ctx,
		`SELECT lot_id, broker_id, ts, prebid, buy_now FROM price_ticks
		 WHERE lot_id = ? AND broker_id = ? AND ts >= ? ORDER BY ts`,
		lotID, brokerID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("storage.PriceTicks: %w", err)
	}
	defer rows.Close()

	var ticks []domain.PriceTick
	for rows.Next() {
		var (
			t      domain.PriceTick
			buyNow sql.NullFloat64
		)
		if err := rows.Scan(&t.LotID, &t.BrokerID, &t.TS, &t.Prebid, &buyNow); err != nil {
			return nil, fmt.Errorf("storage.PriceTicks: scan: %w", err)
		}
		t.BuyNow = optFloat(buyNow)
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// FindComparableSales devuelve las ventas que cumplen los filtros del query.
// Los filtros opcionales (odómetro, título) dejan pasar las ventas con el
// campo desconocido: un NULL no es un mismatch.
func (s *SQLiteInventory) FindComparableSales(ctx context.Context, q domain.CompQuery) ([]domain.SaleRecord, error) {
	if q.MakeNorm == "" || q.ModelNorm == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT lot_id, broker_id, year, make_norm, model_norm, title_norm,
		       odometer_miles, sale_price, sale_date
		FROM sales_history
		WHERE make_norm = ? AND model_norm = ? AND year BETWEEN ? AND ?
		  AND sale_price IS NOT NULL`)
	args := []any{q.MakeNorm, q.ModelNorm, q.YearMin, q.YearMax}

	if q.OdoMin.Valid && q.OdoMax.Valid {
		sb.WriteString(` AND (odometer_miles IS NULL OR odometer_miles BETWEEN ? AND ?)`)
		args = append(args, q.OdoMin.Value, q.OdoMax.Value)
	}
	if q.Title.Valid {
		sb.WriteString(` AND (title_norm IS NULL OR title_norm = ?)`)
		args = append(args, q.Title.Value)
	}
	sb.WriteString(` ORDER BY sale_date DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("storage.FindComparableSales: %w", err)
	}
	defer rows.Close()

	var sales []domain.SaleRecord
	for rows.Next() {
		var (
			sale      domain.SaleRecord
			makeNorm  sql.NullString
			modelNorm sql.NullString
			title     sql.NullString
			odo       sql.NullFloat64
			price     sql.NullFloat64
		)
		if err := rows.Scan(&sale.LotID, &sale.BrokerID, &sale.Year, &makeNorm, &modelNorm,
			&title, &odo, &price, &sale.SaleDate); err != nil {
			return nil, fmt.Errorf("storage.FindComparableSales: scan: %w", err)
		}
		sale.MakeNorm = makeNorm.String
		sale.ModelNorm = modelNorm.String
		sale.TitleNorm = optString(title)
		sale.Odometer = optFloat(odo)
		sale.SalePrice = optFloat(price)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// UpsertSegmentScores escribe los scores globales y propaga el hotness a las
// filas de la vista, todo-o-nada.
func (s *SQLiteInventory) UpsertSegmentScores(ctx context.Context, view domain.View, scores []domain.SegmentScore, at time.Time) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.UpsertSegmentScores: begin tx: %w", err)
	}
	defer tx.Rollback()

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segment_scores (make_norm, model_norm, year, hotness_pct, components, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (make_norm, model_norm, year) DO UPDATE SET
			hotness_pct = excluded.hotness_pct,
			components  = excluded.components,
			updated_at  = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("storage.UpsertSegmentScores: prepare: %w", err)
	}
	defer segStmt.Close()

	viewStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		UPDATE %s SET hotness_pct = ?, hotness_components = ?, hotness_updated_at = ?
		WHERE make_norm = ? AND model_norm = ? AND year = ?`, viewTable(view)))
	if err != nil {
		return fmt.Errorf("storage.UpsertSegmentScores: prepare view: %w", err)
	}
	defer viewStmt.Close()

	for _, sc := range scores {
		comps, err := json.Marshal(sc.Components)
		if err != nil {
			return fmt.Errorf("storage.UpsertSegmentScores: marshal components %s: %w", sc.Key, err)
		}
		if _, err := segStmt.ExecContext(ctx,
			sc.Key.Make, sc.Key.Model, sc.Key.Year, sc.HotnessPct, string(comps), at,
		); err != nil {
			return fmt.Errorf("storage.UpsertSegmentScores: upsert %s: %w", sc.Key, err)
		}
		if _, err := viewStmt.ExecContext(ctx,
			sc.HotnessPct, string(comps), at,
			sc.Key.Make, sc.Key.Model, sc.Key.Year,
		); err != nil {
			return fmt.Errorf("storage.UpsertSegmentScores: propagate %s: %w", sc.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.UpsertSegmentScores: commit: %w", err)
	}
	return nil
}

// UpsertLotPricing escribe fair value, comp count y delta para los lotes de
// la vista, todo-o-nada.
func (s *SQLiteInventory) UpsertLotPricing(ctx context.Context, view domain.View, pricing []domain.LotPricing, at time.Time) error {
	if len(pricing) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.UpsertLotPricing: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		UPDATE %s SET fair_value = ?, comp_count = ?, price_delta_pct = ?, pricing_updated_at = ?
		WHERE lot_id = ? AND broker_id = ?`, viewTable(view)))
	if err != nil {
		return fmt.Errorf("storage.UpsertLotPricing: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range pricing {
		if _, err := stmt.ExecContext(ctx,
			p.FairValue.Ptr(), p.CompCount, p.PriceDeltaPct.Ptr(), at,
			p.LotID, p.BrokerID,
		); err != nil {
			return fmt.Errorf("storage.UpsertLotPricing: lot %s: %w", p.LotID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.UpsertLotPricing: commit: %w", err)
	}
	return nil
}

// ViewCounts devuelve el número de lotes por vista.
func (s *SQLiteInventory) ViewCounts(ctx context.Context) (map[domain.View]int, error) {
	counts := make(map[domain.View]int, len(domain.AllViews))
	for _, v := range domain.AllViews {
		var n int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, viewTable(v))
		if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return nil, fmt.Errorf("storage.ViewCounts: %s: %w", v, err)
		}
		counts[v] = n
	}
	return counts, nil
}

// Close cierra la conexión.
func (s *SQLiteInventory) Close() error {
	return s.db.Close()
}

// --- ingesta ---
//
// Los métodos de escritura de inventario no forman parte del port: los usa
// la ingesta (y los tests) directamente sobre el tipo concreto.

// IngestLot normaliza un lote crudo del feed y lo registra en el inventario.
func (s *SQLiteInventory) IngestLot(ctx context.Context, raw domain.RawLot, now time.Time) error {
	return s.UpsertLot(ctx, raw.Normalize(now))
}

// UpsertLot inserta o actualiza un lote ya normalizado.
func (s *SQLiteInventory) UpsertLot(ctx context.Context, lot domain.LotSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lots (lot_id, broker_id, vin, year, make, model, make_norm, model_norm,
		                  trim, title_norm, damage_norm, odometer_miles, auction_at, status, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (lot_id, broker_id) DO UPDATE SET
			vin            = excluded.vin,
			year           = excluded.year,
			make           = excluded.make,
			model          = excluded.model,
			make_norm      = excluded.make_norm,
			model_norm     = excluded.model_norm,
			trim           = excluded.trim,
			title_norm     = excluded.title_norm,
			damage_norm    = excluded.damage_norm,
			odometer_miles = excluded.odometer_miles,
			auction_at     = excluded.auction_at,
			status         = excluded.status,
			refreshed_at   = excluded.refreshed_at`,
		lot.LotID, lot.BrokerID, nullStr(lot.VIN), lot.Year, nullStr(lot.Make), nullStr(lot.Model),
		nullStr(lot.MakeNorm), nullStr(lot.ModelNorm), nullStr(lot.Trim), lot.TitleNorm.Ptr(),
		lot.DamageNorm.Ptr(), lot.Odometer.Ptr(), nullTime(lot.AuctionAt), lot.Status, lot.RefreshedAt)
	if err != nil {
		return fmt.Errorf("storage.UpsertLot: %s: %w", lot.LotID, err)
	}
	return nil
}

// RecordSale registra una venta cerrada.
func (s *SQLiteInventory) RecordSale(ctx context.Context, sale domain.SaleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_history (lot_id, broker_id, year, make_norm, model_norm,
		                           title_norm, odometer_miles, sale_price, sale_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (lot_id, broker_id) DO UPDATE SET
			sale_price = excluded.sale_price,
			sale_date  = excluded.sale_date`,
		sale.LotID, sale.BrokerID, sale.Year, nullStr(sale.MakeNorm), nullStr(sale.ModelNorm),
		sale.TitleNorm.Ptr(), sale.Odometer.Ptr(), sale.SalePrice.Ptr(), sale.SaleDate)
	if err != nil {
		return fmt.Errorf("storage.RecordSale: %s: %w", sale.LotID, err)
	}
	return nil
}

// RecordPriceTick registra una observación de prebid. Re-observar el mismo
// instante es un no-op.
func (s *SQLiteInventory) RecordPriceTick(ctx context.Context, tick domain.PriceTick) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_ticks (lot_id, broker_id, ts, prebid, buy_now)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (lot_id, broker_id, ts) DO NOTHING`,
		tick.LotID, tick.BrokerID, tick.TS, tick.Prebid, tick.BuyNow.Ptr())
	if err != nil {
		return fmt.Errorf("storage.RecordPriceTick: %s: %w", tick.LotID, err)
	}
	return nil
}

// pruneOld limpia ticks y ventas fuera de retención. Best-effort.
func (s *SQLiteInventory) pruneOld(ctx context.Context) {
	s.db.ExecContext(ctx, `DELETE FROM price_ticks WHERE ts < ?`, time.Now().UTC().Add(-retentionTicks))
	s.db.ExecContext(ctx, `DELETE FROM sales_history WHERE sale_date < ?`, time.Now().UTC().Add(-retentionSales))
}

// --- helpers de scan ---

func optFloat(v sql.NullFloat64) domain.OptFloat {
	if !v.Valid {
		return domain.NoFloat()
	}
	return domain.Float(v.Float64)
}

func optString(v sql.NullString) domain.OptString {
	if !v.Valid {
		return domain.NoString()
	}
	return domain.String(v.String)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
