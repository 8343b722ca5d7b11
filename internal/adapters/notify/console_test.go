package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStatus_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	statuses := []domain.ViewStatus{
		{View: domain.ViewLive, ViewRows: 42, SegmentRows: 7, LastSuccess: time.Now()},
		{View: domain.ViewNext2h, ViewRows: 10, SegmentRows: 7, LastError: "storage: disk I/O error"},
	}
	require.NoError(t, c.NotifyStatus(context.Background(), statuses))

	out := buf.String()
	assert.Contains(t, out, "live: 42 lots")
	assert.Contains(t, out, "next_2h: 10 lots")
	assert.Contains(t, out, "ERR")
	assert.Contains(t, out, "disk I/O error", "el error de una vista se reporta, no se traga")
}

func TestNotifyStatus_Table(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	statuses := []domain.ViewStatus{
		{View: domain.ViewLive, ViewRows: 3, Running: true},
	}
	require.NoError(t, c.NotifyStatus(context.Background(), statuses))

	out := buf.String()
	assert.Contains(t, out, "live")
	assert.Contains(t, out, "running")
}

func TestNotifyHotSegments_SortedAndCapped(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)
	c.topN = 2

	scores := []domain.SegmentScore{
		{Key: domain.SegmentKey{Make: "honda", Model: "civic", Year: 2015}, HotnessPct: 40, Components: map[string]float64{"c30": 1, "c12": 10, "cnow": 1}},
		{Key: domain.SegmentKey{Make: "toyota", Model: "camry", Year: 2018}, HotnessPct: 95, Components: map[string]float64{"c30": 6, "c12": 24, "cnow": 3, "rate_ratio": 3.04}},
		{Key: domain.SegmentKey{Make: "ford", Model: "focus", Year: 2012}, HotnessPct: 12, Components: map[string]float64{"c30": 0, "c12": 5, "cnow": 1}},
	}
	require.NoError(t, c.NotifyHotSegments(context.Background(), scores))

	out := buf.String()
	assert.Contains(t, out, "toyota/camry/2018")
	assert.Contains(t, out, "honda/civic/2015")
	assert.NotContains(t, out, "ford/focus/2012", "solo los top N")
	assert.Contains(t, out, "3.04")
}

func TestNotifyHotSegments_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)
	require.NoError(t, c.NotifyHotSegments(context.Background(), nil))
	assert.Contains(t, buf.String(), "no segments scored")
}
