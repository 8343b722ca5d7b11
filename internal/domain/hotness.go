package domain

import (
	"math"
	"sort"
)

// hotness.go — percentiles y score compuesto de demanda por segmento.
//
// El rank percentil es de tipo distribución acumulada (CUME_DIST): la fracción
// de valores definidos ≤ el mío. Los empates comparten rank. Esto diverge de
// un rank ingenuo index/count, que rompe los empates por orden de llegada:
//   - el máximo siempre tiene rank 1.0
//   - el mínimo tiene rank = fracción de empatados en el mínimo (no 0)
// Las features ausentes reciben el rank neutro 0.5 en vez de excluir el
// segmento, para que la falta de datos no empuje el compuesto a ningún extremo.

// neutralRank es el percentil asignado a una feature ausente.
const neutralRank = 0.5

// HotnessWeights son los pesos del score compuesto. Constantes de diseño
// expuestas como configuración: el ratio domina, la actividad actual segunda,
// la velocidad desempata.
type HotnessWeights struct {
	Ratio    float64 `yaml:"ratio"`
	Activity float64 `yaml:"activity"`
	Velocity float64 `yaml:"velocity"`
}

// DefaultHotnessWeights devuelve los pesos de producción: 0.5 / 0.4 / 0.1.
func DefaultHotnessWeights() HotnessWeights {
	return HotnessWeights{Ratio: 0.5, Activity: 0.4, Velocity: 0.1}
}

// PercentileRanks calcula el rank acumulado de cada valor dentro del set.
// El denominador son solo los valores definidos; los ausentes reciben 0.5.
func PercentileRanks(values []OptFloat) []float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			defined = append(defined, v.Value)
		}
	}
	sort.Float64s(defined)

	ranks := make([]float64, len(values))
	for i, v := range values {
		if !v.Valid || len(defined) == 0 {
			ranks[i] = neutralRank
			continue
		}
		// count de definidos ≤ v (inclusivo): los empates comparten rank.
		le := sort.SearchFloat64s(defined, v.Value)
		for le < len(defined) && defined[le] == v.Value {
			le++
		}
		ranks[i] = float64(le) / float64(len(defined))
	}
	return ranks
}

// ScoreSegments convierte features en scores: percentil por feature y
// compuesto ponderado, redondeado a entero en [0, 100]. Incluye el desglose
// diagnóstico con valores crudos y ranks.
func ScoreSegments(features []SegmentFeatures, w HotnessWeights) []SegmentScore {
	ratios := make([]OptFloat, len(features))
	activity := make([]OptFloat, len(features))
	velocity := make([]OptFloat, len(features))
	for i, f := range features {
		ratios[i] = f.RateRatio
		activity[i] = Float(float64(f.CNow))
		velocity[i] = f.VelMedian
	}

	pctRatio := PercentileRanks(ratios)
	pctActivity := PercentileRanks(activity)
	pctVelocity := PercentileRanks(velocity)

	scores := make([]SegmentScore, len(features))
	for i, f := range features {
		composite := w.Ratio*pctRatio[i] + w.Activity*pctActivity[i] + w.Velocity*pctVelocity[i]
		pct := int(math.Round(100 * composite))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}

		components := map[string]float64{
			"c30":          float64(f.C30),
			"c12":          float64(f.C12),
			"cnow":         float64(f.CNow),
			"pct_ratio":    pctRatio[i],
			"pct_activity": pctActivity[i],
			"pct_velocity": pctVelocity[i],
		}
		if f.RateRatio.Valid {
			components["rate_ratio"] = f.RateRatio.Value
		}
		if f.VelMedian.Valid {
			components["vel_median"] = f.VelMedian.Value
		}

		scores[i] = SegmentScore{
			Key:        f.Key,
			HotnessPct: pct,
			Components: components,
		}
	}
	return scores
}

// MedianCont es la mediana interpolada (PERCENTILE_CONT): con n par promedia
// los dos centrales. Usada para vel_median.
func MedianCont(values []float64) OptFloat {
	n := len(values)
	if n == 0 {
		return NoFloat()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return Float(sorted[n/2])
	}
	return Float((sorted[n/2-1] + sorted[n/2]) / 2)
}

// MedianDisc es la mediana discreta (PERCENTILE_DISC): devuelve siempre un
// valor observado — con n par, el central inferior. Usada para fair value,
// donde queremos un precio de venta real y no un promedio sintético.
func MedianDisc(values []float64) OptFloat {
	n := len(values)
	if n == 0 {
		return NoFloat()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	return Float(sorted[(n-1)/2])
}
