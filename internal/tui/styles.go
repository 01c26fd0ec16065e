package tui

import (
	"fmt"
	"strings"

	"noisemask/internal/stats"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7F8C8D")).
			Width(12)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(0, 1)
)

// Row is one labelled line of a summary box.
type Row struct {
	Label string
	Value string
}

// RenderSummary draws the params of a run, plus any extra rows, in a box.
func RenderSummary(title string, p stats.Params, extra ...Row) string {
	rows := []Row{
		{"Mean", fmt.Sprintf("%.2f Hz", p.MeanHz)},
		{"Std dev", fmt.Sprintf("%.2f Hz", p.StdDevHz)},
		{"Volume", fmt.Sprintf("%.2f dB", p.VolumeDB)},
	}
	rows = append(rows, extra...)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render(r.Label))
		sb.WriteString(highlightStyle.Render(r.Value))
	}
	return boxStyle.Render(sb.String())
}
