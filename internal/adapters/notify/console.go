package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/lotwatch/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.StatusNotifier.
type Console struct {
	out   io.Writer
	table bool
	topN  int
	nowFn func() time.Time
}

// NewConsole crea un notificador que escribe a stdout. Con table=true imprime
// tablas formateadas; si no, una línea compacta por tick.
func NewConsole(table bool, topN int) *Console {
	return &Console{out: os.Stdout, table: table, topN: topN, nowFn: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, topN: 10, nowFn: time.Now}
}

// NotifyStatus imprime el estado por vista en el modo configurado.
func (c *Console) NotifyStatus(_ context.Context, statuses []domain.ViewStatus) error {
	if c.table {
		c.printStatusTable(statuses)
	} else {
		c.printStatusCompact(statuses)
	}
	return nil
}

// printStatusCompact imprime lo esencial en una línea.
func (c *Console) printStatusCompact(statuses []domain.ViewStatus) {
	now := c.nowFn().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]", now)
	for _, st := range statuses {
		state := "idle"
		switch {
		case st.Running:
			state = "RUN"
		case st.LastError != "":
			state = "ERR"
		}
		fmt.Fprintf(&sb, " | %s: %d lots seg:%d [%s]", st.View, st.ViewRows, st.SegmentRows, state)
	}
	fmt.Fprintln(c.out, sb.String())

	for _, st := range statuses {
		if st.LastError != "" {
			fmt.Fprintf(c.out, "  !! %s: %s\n", st.View, st.LastError)
		}
	}
}

// printStatusTable imprime la tabla completa de estado.
func (c *Console) printStatusTable(statuses []domain.ViewStatus) {
	now := c.nowFn().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] estado por vista\n", now)

	table := tablewriter.NewWriter(c.out)
	table.Header("View", "Lots", "Segments", "Priced", "Last OK", "State")

	for _, st := range statuses {
		state := "idle"
		switch {
		case st.Running:
			state = "running"
		case st.LastError != "":
			state = "error: " + truncate(st.LastError, 40)
		}
		lastOK := "-"
		if !st.LastSuccess.IsZero() {
			lastOK = st.LastSuccess.Format("15:04:05")
		}
		table.Append(
			st.View.String(),
			fmt.Sprintf("%d", st.ViewRows),
			fmt.Sprintf("%d", st.SegmentRows),
			fmt.Sprintf("%d", st.LotRows),
			lastOK,
			state,
		)
	}
	table.Render()
}

// NotifyHotSegments imprime los segmentos más calientes del último pase,
// ordenados por hotness descendente.
func (c *Console) NotifyHotSegments(_ context.Context, scores []domain.SegmentScore) error {
	if len(scores) == 0 {
		fmt.Fprintf(c.out, "[%s] no segments scored\n", c.nowFn().Format("15:04:05"))
		return nil
	}

	sorted := make([]domain.SegmentScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].HotnessPct != sorted[j].HotnessPct {
			return sorted[i].HotnessPct > sorted[j].HotnessPct
		}
		return sorted[i].Key.String() < sorted[j].Key.String()
	})
	if len(sorted) > c.topN {
		sorted = sorted[:c.topN]
	}

	if !c.table {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] hot:", c.nowFn().Format("15:04:05"))
		for i, s := range sorted {
			if i >= 4 {
				break
			}
			fmt.Fprintf(&sb, " %s=%d", s.Key, s.HotnessPct)
		}
		fmt.Fprintln(c.out, sb.String())
		return nil
	}

	fmt.Fprintf(c.out, "\n=== TOP %d SEGMENTS ===\n", len(sorted))
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Segment", "Hot", "c30", "c12", "cnow", "ratio", "vel $/h")

	for i, s := range sorted {
		table.Append(
			fmt.Sprintf("%d", i+1),
			s.Key.String(),
			fmt.Sprintf("%d", s.HotnessPct),
			compInt(s.Components, "c30"),
			compInt(s.Components, "c12"),
			compInt(s.Components, "cnow"),
			compFloat(s.Components, "rate_ratio"),
			compFloat(s.Components, "vel_median"),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Hot = percentil compuesto 0-100 | ratio = (c30/30)/(c12/365)")
	return nil
}

// --- helpers ---

func compInt(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}

func compFloat(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
