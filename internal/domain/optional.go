package domain

// optional.go — valores opcionales con semántica explícita.
//
// Odómetro, título, fair value, velocidad... pueden estar ausentes. Usar 0 o ""
// como centinela produce falsos matches en los filtros de comps (un odómetro
// desconocido NO es un odómetro de 0 millas). Por eso cada valor opcional lleva
// su propio flag de validez y los filtros definen qué hacer cuando falta.

// OptFloat es un float64 opcional.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float crea un OptFloat definido.
func Float(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// NoFloat es el OptFloat ausente.
func NoFloat() OptFloat {
	return OptFloat{}
}

// Ptr devuelve un puntero al valor, o nil si está ausente.
// Útil para bindear parámetros SQL nullable.
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// OptString es un string opcional (distinto de "" que sería un centinela).
type OptString struct {
	Value string
	Valid bool
}

// String crea un OptString definido.
func String(v string) OptString {
	return OptString{Value: v, Valid: true}
}

// NoString es el OptString ausente.
func NoString() OptString {
	return OptString{}
}

// Ptr devuelve un puntero al valor, o nil si está ausente.
func (o OptString) Ptr() *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
