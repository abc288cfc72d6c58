package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// statsLine summarizes a run on a single line, e.g.
// "3 → 4 nodes · 5 → 4 initializers · fresh".
func statsLine(s pipeline.Stats, cached bool) string {
	var parts []string
	if cached {
		parts = append(parts,
			fmt.Sprintf("%d nodes", s.NodesAfter),
			fmt.Sprintf("%d initializers", s.InitializersAfter))
	} else {
		parts = append(parts,
			fmt.Sprintf("%d %s %d nodes", s.NodesBefore, iconArrow, s.NodesAfter),
			fmt.Sprintf("%d %s %d initializers", s.InitializersBefore, iconArrow, s.InitializersAfter))
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}

	var b strings.Builder
	b.WriteString("  ")
	for _, part := range parts {
		b.WriteString(StyleDim.Render(part))
		b.WriteString(StyleDim.Render(" · "))
	}
	b.WriteString(status)
	return b.String()
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
}

// passTable renders one row per executed pass.
func passTable(stats []pipeline.PassStat) string {
	t := newTable("Pass", "Lowered", "Transposed", "Constants", "Initializers", "Time")
	for _, s := range stats {
		r := s.Result
		t.Row(
			s.Name,
			fmt.Sprint(r.GemmsLowered),
			fmt.Sprint(r.WeightsTransposed+r.TransposesInserted),
			fmt.Sprint(r.ConstantsRemoved),
			fmt.Sprint(r.InitializersRemoved),
			s.Duration.Round(time.Microsecond).String(),
		)
	}
	return t.Render()
}

// opTable renders operator counts, most frequent first, ties by name.
func opTable(g *ir.Graph) string {
	counts := make(map[string]int)
	for _, n := range g.Nodes() {
		counts[opKey(n)]++
	}
	ops := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})

	t := newTable("Operator", "Count")
	for _, op := range ops {
		t.Row(op, fmt.Sprint(counts[op]))
	}
	return t.Render()
}

// nodeTable renders every node in graph order.
func nodeTable(g *ir.Graph) string {
	t := newTable("#", "Op", "Name", "Inputs", "Outputs")
	for i, n := range g.Nodes() {
		t.Row(
			fmt.Sprint(i),
			opKey(n),
			n.Name,
			strings.Join(n.Inputs, ", "),
			strings.Join(n.Outputs, ", "),
		)
	}
	return t.Render()
}

func opKey(n *ir.Node) string {
	if n.Domain == "" || n.Domain == "ai.onnx" {
		return n.OpType
	}
	return n.Domain + "." + n.OpType
}
