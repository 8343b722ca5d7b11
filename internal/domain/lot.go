package domain

import "time"

// LotSnapshot es un lote dentro de una de las tres vistas de inventario.
// La pertenencia a la vista la determina únicamente auction_at vs now
// (ver view.go); el snapshot se reconstruye en cada refresh.
type LotSnapshot struct {
	LotID    string
	BrokerID int

	// Descriptores del vehículo.
	VIN       string
	Year      int
	Make      string
	Model     string
	MakeNorm  string // normalizado para matching de segmentos y comps
	ModelNorm string
	Trim      string

	// TitleNorm es la categoría de título normalizada (CLEAN, SAL, REB...).
	// Ausente si el broker no la reportó.
	TitleNorm OptString

	// DamageNorm es la categoría de daño primario normalizada. Solo
	// informativa; ningún filtro de comps la usa.
	DamageNorm OptString

	// Odometer en millas. Ausente si el broker no lo reportó — los filtros
	// de odómetro en comps se omiten cuando falta en cualquiera de los lados.
	Odometer OptFloat

	AuctionAt time.Time
	Status    string

	// LatestPrebid es la última puja conocida (del último price tick).
	LatestPrebid  OptFloat
	LatestPriceTS time.Time
	RefreshedAt   time.Time
}

// SegmentKey devuelve el segmento al que pertenece el lote.
func (l LotSnapshot) SegmentKey() SegmentKey {
	return SegmentKey{Make: l.MakeNorm, Model: l.ModelNorm, Year: l.Year}
}

// SaleRecord es una venta histórica (append-only, propiedad de la ingesta).
// El core solo la lee como input del comp matching.
type SaleRecord struct {
	LotID     string
	BrokerID  int
	Year      int
	MakeNorm  string
	ModelNorm string
	TitleNorm OptString
	Odometer  OptFloat // millas
	SalePrice OptFloat
	SaleDate  time.Time
}

// PriceTick es un punto de la serie temporal de precios de un lote.
type PriceTick struct {
	LotID    string
	BrokerID int
	TS       time.Time
	Prebid   float64
	BuyNow   OptFloat
}

// LotPricing es el resultado del Fair Value Estimator para un lote.
type LotPricing struct {
	LotID    string
	BrokerID int

	// FairValue es la mediana del precio de venta de los comps. Ausente
	// cuando ni el tier A ni el tier B produjeron comps.
	FairValue OptFloat

	// CompCount es el número de comps usados (0 cuando FairValue ausente).
	CompCount int

	// PriceDeltaPct = 100 × (prebid − fair_value) / fair_value.
	// Definido solo cuando FairValue está presente y > 0 y hay prebid.
	// Positivo = la puja está por encima del valor implícito en los comps.
	PriceDeltaPct OptFloat
}
