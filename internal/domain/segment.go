package domain

import "fmt"

// SegmentKey identifica un cohorte de demanda: (make_norm, model_norm, year).
// Es la unidad de agregación del hotness score.
type SegmentKey struct {
	Make  string // normalizado (lowercase, sin espacios sobrantes)
	Model string // normalizado
	Year  int
}

// String devuelve la representación legible del segmento.
func (k SegmentKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Make, k.Model, k.Year)
}

// SegmentFeatures son las features crudas de un segmento en un pase de scoring.
// Se recalculan completas en cada pase; no hay identidad persistida más allá
// de la key.
type SegmentFeatures struct {
	Key SegmentKey

	// C30 es el número de ventas del segmento en los últimos 30 días.
	C30 int
	// C12 es el número de ventas en los últimos 365 días.
	C12 int
	// CNow es el número de lotes actualmente listados.
	CNow int

	// RateRatio compara la tasa diaria reciente contra la base anual:
	// (c30/30) / (c12/365). Ausente cuando c12 == 0 — un segmento nuevo no
	// tiene base anual y tratarlo como 0 suprimiría (o dispararía) la señal.
	RateRatio OptFloat

	// VelMedian es la mediana de la velocidad de puja ($/h) entre los lotes
	// del segmento. Ausente si ningún lote tiene velocidad definida.
	VelMedian OptFloat
}

// RateRatio calcula el ratio de aceleración de ventas de un segmento.
// Ausente cuando no hay base anual (c12 == 0): nunca se coacciona a cero.
func RateRatio(c30, c12 int) OptFloat {
	if c12 <= 0 {
		return NoFloat()
	}
	return Float((float64(c30) / 30.0) / (float64(c12) / 365.0))
}

// SegmentScore es el resultado del Hotness Scorer para un segmento.
type SegmentScore struct {
	Key SegmentKey

	// HotnessPct es el score compuesto, entero en [0, 100].
	HotnessPct int

	// Components es el desglose diagnóstico: features crudas y percentiles.
	// Las features ausentes no aparecen en el mapa.
	Components map[string]float64
}
