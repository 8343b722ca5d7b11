package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, String("SAL"), NormalizeTitle("Salvage"))
	assert.Equal(t, String("SAL"), NormalizeTitle("SALVAGE TITLE"))
	assert.Equal(t, String("COD"), NormalizeTitle("certificate of destruction"))
	assert.Equal(t, String("CLEAN"), NormalizeTitle("CLEAN"))

	// Desconocido pasa tal cual; vacío queda ausente.
	assert.Equal(t, String("EXPORT ONLY"), NormalizeTitle("EXPORT ONLY"))
	assert.False(t, NormalizeTitle("  ").Valid)
}

func TestNormalizeDamage(t *testing.T) {
	assert.Equal(t, String("Front End"), NormalizeDamage("front end"))
	assert.Equal(t, String("Burn"), NormalizeDamage("BURN - ENGINE"))
	assert.Equal(t, String("Burn"), NormalizeDamage("BURN - INTERIOR"))
	assert.False(t, NormalizeDamage("").Valid)
}

func TestNormalizeOdometer(t *testing.T) {
	mi := NormalizeOdometer(100000, "MI")
	require.True(t, mi.Valid)
	assert.Equal(t, 100000.0, mi.Value)

	km := NormalizeOdometer(160934, "KM")
	require.True(t, km.Valid)
	assert.InDelta(t, 100000.0, km.Value, 0.01)

	assert.True(t, NormalizeOdometer(50000, "").Valid, "sin unidad se asumen millas")
	assert.False(t, NormalizeOdometer(-1, "MI").Valid)
	assert.False(t, NormalizeOdometer(1000, "FURLONGS").Valid)
}

func TestRawLotNormalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lot := RawLot{
		LotID:        "lot-1",
		BrokerID:     1,
		VIN:          " 4T1B11HK5JU000001 ",
		Year:         2018,
		Make:         "  TOYOTA ",
		Model:        "Camry",
		Trim:         "LE",
		Title:        "Salvage Title",
		Damage:       "front end",
		Odometer:     160934,
		OdometerUnit: "KM",
		AuctionAt:    now.Add(2 * time.Hour),
		Status:       "ACTIVE",
	}.Normalize(now)

	assert.Equal(t, "4T1B11HK5JU000001", lot.VIN)
	assert.Equal(t, "toyota", lot.MakeNorm)
	assert.Equal(t, "camry", lot.ModelNorm)
	assert.Equal(t, String("SAL"), lot.TitleNorm)
	assert.Equal(t, String("Front End"), lot.DamageNorm)
	require.True(t, lot.Odometer.Valid)
	assert.InDelta(t, 100000.0, lot.Odometer.Value, 0.01)
	assert.Equal(t, SegmentKey{Make: "toyota", Model: "camry", Year: 2018}, lot.SegmentKey())
	assert.Equal(t, now, lot.RefreshedAt)

	// Odómetro no reportado.
	assert.False(t, RawLot{Odometer: -1}.Normalize(now).Odometer.Valid)
}

func TestNormKey(t *testing.T) {
	assert.Equal(t, "f 150", NormKey("  F   150 "))
	assert.Equal(t, "toyota", NormKey("TOYOTA"))
}
