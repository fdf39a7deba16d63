// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/preview"
	"github.com/Veraticus/bounce-back/internal/summary"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ResultRows is how many predictions the result table shows.
const ResultRows = 10

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#3b82f6")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TierColors are the badge backgrounds per tier.
	TierColors = map[model.Tier]lipgloss.Color{
		model.TierPlatinum: lipgloss.Color("#2563eb"),
		model.TierGold:     lipgloss.Color("#ca8a04"),
		model.TierSilver:   lipgloss.Color("#9ca3af"),
		model.TierBronze:   lipgloss.Color("#dc2626"),
		model.TierCopper:   lipgloss.Color("#1f2937"),
	}
	// FallbackTierColor is used for labels outside the tier set.
	FallbackTierColor = lipgloss.Color("#6b7280")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SubtitleStyle is used for secondary headings.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// BadgeStyle is the base of the tier badges.
	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fafafa")).
			Bold(true).
			Padding(0, 1)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor).
				Padding(0, 1)

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ChartIcon   = "📊"
	UploadIcon  = "📤"
	PersonIcon  = "👤"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the chart icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ChartIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// TierColor returns the badge color for a tier label.
func TierColor(label string) lipgloss.Color {
	if tier, ok := model.ParseTier(label); ok {
		return TierColors[tier]
	}
	return FallbackTierColor
}

// Badge renders a tier label as a colored badge. Unknown labels keep their
// text on the fallback color.
func Badge(label string) string {
	text := strings.TrimSpace(label)
	if tier, ok := model.ParseTier(text); ok {
		text = tier.String()
	}
	if text == "" {
		text = "?"
	}
	return BadgeStyle.Background(TierColor(label)).Render(text)
}

func newTable(headers []string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

// RenderPreview renders a file preview. Cells missing from short lines are
// left blank and listed below the table.
func RenderPreview(p *preview.Preview) string {
	if p == nil || len(p.Headers) == 0 {
		return SubtleStyle.Render("Nothing to preview")
	}

	t := newTable(p.Headers)
	var notes []string
	for n, row := range p.Rows {
		cells := make([]string, len(p.Headers))
		for i, h := range p.Headers {
			cells[i] = row.Get(h)
		}
		t.Row(cells...)

		if missing := row.Missing(p.Headers); len(missing) > 0 {
			notes = append(notes, fmt.Sprintf("Row %d is missing %s", n+1, strings.Join(missing, ", ")))
		}
	}

	out := t.Render()
	if len(p.Rows) == 0 {
		notes = append(notes, "No data rows")
	}
	for _, note := range notes {
		out += "\n" + SubtleStyle.Render(note)
	}
	return out
}

// RenderPredictions renders the first limit records with the Label column as
// a badge. The badge shows the tier resolved under policy, so it agrees with
// the local tally; records with no resolvable tier keep their label text. A
// non-positive limit renders every record.
func RenderPredictions(records []model.Record, limit int, policy summary.Policy) string {
	if len(records) == 0 {
		return SubtleStyle.Render("No predictions")
	}

	headers := model.Columns(records)
	shown := records
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	t := newTable(headers)
	for _, r := range shown {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = r.Text(h)
			if h == model.FieldLabel {
				cells[i] = rowBadge(r, cells[i], policy)
			}
		}
		t.Row(cells...)
	}

	out := t.Render()
	if len(shown) < len(records) {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("Showing %d of %d predictions", len(shown), len(records)))
	}
	return out
}

// RenderSummary renders the per-tier counts followed by the total.
func RenderSummary(s model.Summary) string {
	t := newTable([]string{"Tier", "Customers"})
	for _, tier := range model.Tiers() {
		t.Row(Badge(tier.String()), fmt.Sprintf("%d", s.Count(tier)))
	}
	t.Row(BoldStyle.Render("Total"), BoldStyle.Render(fmt.Sprintf("%d", s.Total)))
	return t.Render()
}

// FormatScore renders a score with four decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}

func rowBadge(r model.Record, label string, policy summary.Policy) string {
	if tier := summary.TierOf(r, policy); tier.Known() {
		return Badge(tier.String())
	}
	return Badge(label)
}

// RenderCustomer renders the customer card and the records returned with it.
func RenderCustomer(c *model.CustomerPrediction, policy summary.Policy) string {
	if c == nil {
		return SubtleStyle.Render("No customer")
	}

	tier := c.Tier()
	card := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s %s", BoldStyle.Render("Customer ID:"), c.CustomerID),
		fmt.Sprintf("%s %s", BoldStyle.Render("Score:"), FormatScore(c.Score)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Tier:"), Badge(tier.String())),
	)

	out := RenderBox(PersonIcon+" Customer Prediction", card)
	if len(c.Data) > 0 {
		out += "\n" + RenderPredictions(c.Data, 0, policy)
	}
	return out
}
