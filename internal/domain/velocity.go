package domain

// velocity.go — velocidad de puja ($/hora) sobre la serie de price ticks.

// VelocityPerHour calcula la velocidad de puja de un lote a partir de sus
// ticks en la ventana trailing:
//
//	vel = (max(prebid) − min(prebid)) / horas entre el primer y último tick
//
// Ausente con menos de 2 ticks, o cuando el tiempo transcurrido entre el tick
// mínimo y máximo es cero (guard de división; un burst de ticks con el mismo
// timestamp no define velocidad).
func VelocityPerHour(ticks []PriceTick) OptFloat {
	if len(ticks) < 2 {
		return NoFloat()
	}

	minPrebid, maxPrebid := ticks[0].Prebid, ticks[0].Prebid
	minTS, maxTS := ticks[0].TS, ticks[0].TS
	for _, t := range ticks[1:] {
		if t.Prebid < minPrebid {
			minPrebid = t.Prebid
		}
		if t.Prebid > maxPrebid {
			maxPrebid = t.Prebid
		}
		if t.TS.Before(minTS) {
			minTS = t.TS
		}
		if t.TS.After(maxTS) {
			maxTS = t.TS
		}
	}

	hours := maxTS.Sub(minTS).Hours()
	if hours <= 0 {
		return NoFloat()
	}
	return Float((maxPrebid - minPrebid) / hours)
}

// SegmentVelocityMedian agrega velocidades por-lote en la mediana del
// segmento. Solo cuentan las velocidades definidas; si ninguna lo está,
// la mediana del segmento queda ausente (rank neutro en el scoring).
func SegmentVelocityMedian(velocities []OptFloat) OptFloat {
	defined := make([]float64, 0, len(velocities))
	for _, v := range velocities {
		if v.Valid {
			defined = append(defined, v.Value)
		}
	}
	return MedianCont(defined)
}
