package domain

import (
	"strings"
	"time"
)

// normalize.go — normalización de campos del broker en la frontera de ingesta.
//
// Los brokers reportan título, daño y odómetro en formatos dispares; todo se
// normaliza una sola vez al entrar (RawLot.Normalize) para que el matching de
// segmentos y comps trabaje siempre sobre categorías canónicas.

const milesPerKm = 1.60934

// titleMap mapea el título crudo del broker a su categoría normalizada.
var titleMap = map[string]string{
	"SALVAGE":                    "SAL",
	"SALVAGE TITLE":              "SAL",
	"REBUILT":                    "REB",
	"CLEAN":                      "CLEAN",
	"CERTIFICATE OF DESTRUCTION": "COD",
	"PARTS ONLY":                 "PARTS",
}

// damageMap mapea el tipo de daño crudo a su categoría.
var damageMap = map[string]string{
	"FRONT END":            "Front End",
	"REAR END":             "Rear End",
	"SIDE":                 "Side",
	"ALL OVER":             "All Over",
	"TOP/ROOF":             "Roof",
	"HAIL":                 "Hail",
	"FLOOD":                "Flood",
	"BIOHAZARD/CHEMICAL":   "Biohazard",
	"MECHANICAL":           "Mechanical",
	"BURN - ENGINE":        "Burn",
	"BURN - INTERIOR":      "Burn",
	"MINOR DENT/SCRATCHES": "Minor Damage",
	"NORMAL WEAR":          "Normal Wear",
	"ROLLOVER":             "Rollover",
	"VANDALISM":            "Vandalism",
	"UNDERCARRIAGE":        "Undercarriage",
	"STRIPPED":             "Stripped",
}

// NormalizeTitle devuelve la categoría de título normalizada. Ausente con
// input vacío; un título desconocido pasa tal cual (mejor conservarlo que
// perderlo).
func NormalizeTitle(raw string) OptString {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoString()
	}
	if norm, ok := titleMap[strings.ToUpper(raw)]; ok {
		return String(norm)
	}
	return String(raw)
}

// NormalizeDamage devuelve la categoría de daño normalizada.
func NormalizeDamage(raw string) OptString {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoString()
	}
	if norm, ok := damageMap[strings.ToUpper(raw)]; ok {
		return String(norm)
	}
	return String(raw)
}

// NormalizeOdometer convierte el odómetro crudo a millas según la unidad
// reportada ("MI"/"MILES" o "KM"/"KILOMETERS"). Ausente con unidad
// desconocida o valor negativo.
func NormalizeOdometer(value float64, unit string) OptFloat {
	if value < 0 {
		return NoFloat()
	}
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "", "MI", "MILES":
		return Float(value)
	case "KM", "KILOMETERS":
		return Float(value / milesPerKm)
	default:
		return NoFloat()
	}
}

// NormKey normaliza make/model para keys de segmento y matching de comps:
// lowercase y espacios colapsados.
func NormKey(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// RawLot es un lote tal como llega del feed del broker, sin normalizar.
type RawLot struct {
	LotID    string
	BrokerID int

	VIN   string
	Year  int
	Make  string
	Model string
	Trim  string

	Title  string
	Damage string

	// Odometer negativo significa no reportado.
	Odometer     float64
	OdometerUnit string

	AuctionAt time.Time
	Status    string
}

// Normalize construye el snapshot canónico del lote: make/model en forma de
// key, título y daño categorizados, odómetro en millas.
func (r RawLot) Normalize(now time.Time) LotSnapshot {
	return LotSnapshot{
		LotID:       r.LotID,
		BrokerID:    r.BrokerID,
		VIN:         strings.TrimSpace(r.VIN),
		Year:        r.Year,
		Make:        strings.TrimSpace(r.Make),
		Model:       strings.TrimSpace(r.Model),
		MakeNorm:    NormKey(r.Make),
		ModelNorm:   NormKey(r.Model),
		Trim:        strings.TrimSpace(r.Trim),
		TitleNorm:   NormalizeTitle(r.Title),
		DamageNorm:  NormalizeDamage(r.Damage),
		Odometer:    NormalizeOdometer(r.Odometer, r.OdometerUnit),
		AuctionAt:   r.AuctionAt,
		Status:      r.Status,
		RefreshedAt: now,
	}
}
