package domain

// comps.go — matching de ventas comparables y fair value.
//
// Política de dos tiers con fallback fijo: el tier A (estrecho) gana siempre
// que produzca ≥1 comp, aunque el tier B (ancho) tenga una muestra mayor.
// La preferencia viene del diseño original y se mantiene tal cual — es una
// política tunable, no una verdad de negocio (¿un solo comp estrecho es
// mejor que diez anchos? discutible).

// CompTier define los filtros de similitud de un tier de búsqueda.
type CompTier struct {
	Name string

	// YearWindow es la ventana de año: |sale.year − lot.year| ≤ YearWindow.
	YearWindow int

	// OdoLow/OdoHigh son los multiplicadores de la ventana de odómetro
	// relativa al lote. El filtro se omite si el odómetro del lote es
	// desconocido (y las ventas sin odómetro pasan siempre).
	OdoLow, OdoHigh float64

	// MatchTitle exige igualdad de categoría de título cuando ambos lados
	// la conocen. Con título desconocido en cualquiera de los lados, el
	// filtro no aplica.
	MatchTitle bool
}

// TierA es el tier estrecho: ±1 año, odómetro ×0.8–1.2, título igual.
var TierA = CompTier{Name: "A", YearWindow: 1, OdoLow: 0.8, OdoHigh: 1.2, MatchTitle: true}

// TierB es el tier ancho de fallback: ±2 años, odómetro ×0.6–1.4, sin título.
var TierB = CompTier{Name: "B", YearWindow: 2, OdoLow: 0.6, OdoHigh: 1.4, MatchTitle: false}

// CompQuery son los parámetros concretos de una búsqueda de comps contra el
// histórico de ventas. Los campos opcionales ausentes significan "filtro
// omitido", nunca "igual a cero".
type CompQuery struct {
	MakeNorm  string
	ModelNorm string
	YearMin   int
	YearMax   int

	// OdoMin/OdoMax en millas; ausentes cuando el lote no reporta odómetro.
	OdoMin OptFloat
	OdoMax OptFloat

	// Title ausente = sin filtro de título.
	Title OptString
}

// BuildCompQuery materializa los filtros de un tier para un lote dado.
// Siempre exige make+model exacto (normalizado) y sale_price presente —
// eso lo aplica el store.
func BuildCompQuery(lot LotSnapshot, tier CompTier) CompQuery {
	q := CompQuery{
		MakeNorm:  lot.MakeNorm,
		ModelNorm: lot.ModelNorm,
		YearMin:   lot.Year - tier.YearWindow,
		YearMax:   lot.Year + tier.YearWindow,
	}
	if lot.Odometer.Valid {
		q.OdoMin = Float(lot.Odometer.Value * tier.OdoLow)
		q.OdoMax = Float(lot.Odometer.Value * tier.OdoHigh)
	}
	if tier.MatchTitle && lot.TitleNorm.Valid {
		q.Title = lot.TitleNorm
	}
	return q
}

// Matches aplica el predicado de un CompQuery sobre una venta en memoria.
// Es el mismo predicado que ejecuta el store en SQL; existe para poder
// testear la semántica de "filtro omitido cuando falta" sin base de datos.
func (q CompQuery) Matches(sale SaleRecord) bool {
	if sale.MakeNorm != q.MakeNorm || sale.ModelNorm != q.ModelNorm {
		return false
	}
	if !sale.SalePrice.Valid {
		return false
	}
	if sale.Year < q.YearMin || sale.Year > q.YearMax {
		return false
	}
	// Odómetro: solo filtra cuando ambos lados lo conocen.
	if q.OdoMin.Valid && sale.Odometer.Valid {
		if sale.Odometer.Value < q.OdoMin.Value || sale.Odometer.Value > q.OdoMax.Value {
			return false
		}
	}
	// Título: igual — ventas sin título pasan aunque el lote lo tenga.
	if q.Title.Valid && sale.TitleNorm.Valid && sale.TitleNorm.Value != q.Title.Value {
		return false
	}
	return true
}

// FairValue deriva el fair value de un set de comps: mediana discreta del
// precio de venta. Devuelve también el número de comps usados.
func FairValue(comps []SaleRecord) (OptFloat, int) {
	prices := make([]float64, 0, len(comps))
	for _, c := range comps {
		if c.SalePrice.Valid {
			prices = append(prices, c.SalePrice.Value)
		}
	}
	if len(prices) == 0 {
		return NoFloat(), 0
	}
	return MedianDisc(prices), len(prices)
}

// PriceDeltaPct calcula la desviación porcentual de la puja actual respecto
// al fair value: 100 × (prebid − fv) / fv. Ausente cuando el fair value está
// ausente o no es positivo, o cuando no hay puja conocida.
func PriceDeltaPct(prebid, fairValue OptFloat) OptFloat {
	if !prebid.Valid || !fairValue.Valid || fairValue.Value <= 0 {
		return NoFloat()
	}
	return Float(100 * (prebid.Value - fairValue.Value) / fairValue.Value)
}
