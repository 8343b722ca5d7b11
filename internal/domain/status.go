package domain

import "time"

// PassKind distingue los dos pases analíticos de un refresh de vista.
type PassKind string

const (
	// PassSegments: features → velocity → hotness score.
	PassSegments PassKind = "segments"
	// PassLots: comps → fair value → price delta.
	PassLots PassKind = "lots"
)

// ViewStatus es el estado operacional de una vista para el health readout.
type ViewStatus struct {
	View        View
	Running     bool
	LastSuccess time.Time // cero si nunca completó
	LastError   string    // "" si el último refresh fue bien
	SegmentRows int       // segmentos escritos en el último refresh exitoso
	LotRows     int       // lotes actualizados en el último refresh exitoso
	ViewRows    int       // filas actuales de la vista
}
