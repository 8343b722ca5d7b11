package domain

import "time"

// View es una de las tres vistas de inventario, cada una refrescada con su
// propia cadencia por el scheduler. Las vistas son disjuntas: un lote
// pertenece como máximo a una, y la frontera depende solo de auction_at.
type View int

const (
	// ViewLive: la subasta ya empezó.
	ViewLive View = iota
	// ViewNext2h: empieza dentro de (0h, 2h].
	ViewNext2h
	// ViewNext24h: empieza dentro de (2h, 24h].
	ViewNext24h
)

// AllViews lista las vistas en orden de cadencia (la más caliente primero).
var AllViews = []View{ViewLive, ViewNext2h, ViewNext24h}

// String devuelve el nombre estable de la vista (usado en logs, métricas y
// nombres de tabla).
func (v View) String() string {
	switch v {
	case ViewLive:
		return "live"
	case ViewNext2h:
		return "next_2h"
	case ViewNext24h:
		return "next_24h"
	default:
		return "unknown"
	}
}

// ViewOf determina a qué vista pertenece un lote según su hora de subasta.
// Es una función pura y determinista: re-ejecutar el test de pertenencia con
// los mismos argumentos da siempre el mismo resultado, sin efectos.
// ok=false significa que el lote no pertenece a ninguna vista (empieza más
// allá de 24h, o auction_at es cero).
//
// Un lote live cerrado (SOLD/CLOSED) lo expulsa el refresh de la vista por
// status; eso es responsabilidad del store, no de esta función.
func ViewOf(auctionAt, now time.Time) (View, bool) {
	if auctionAt.IsZero() {
		return 0, false
	}
	switch {
	case !auctionAt.After(now):
		return ViewLive, true
	case !auctionAt.After(now.Add(2 * time.Hour)):
		return ViewNext2h, true
	case !auctionAt.After(now.Add(24 * time.Hour)):
		return ViewNext24h, true
	default:
		return 0, false
	}
}
