package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/toman/internal/models"
)

// Palette names colors by the role they play on screen
type Palette struct {
	Name string

	Base      lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	Heading   lipgloss.Color
	Highlight lipgloss.Color

	OK     lipgloss.Color
	Warn   lipgloss.Color
	Danger lipgloss.Color
	Info   lipgloss.Color

	Border lipgloss.Color
	Focus  lipgloss.Color
}

// Night is the default palette, after Tokyo Night
var Night = Palette{
	Name:      "Tokyo Night",
	Base:      lipgloss.Color("#1a1b26"),
	Text:      lipgloss.Color("#c0caf5"),
	Muted:     lipgloss.Color("#565f89"),
	Accent:    lipgloss.Color("#7aa2f7"),
	Heading:   lipgloss.Color("#bb9af7"),
	Highlight: lipgloss.Color("#33467c"),
	OK:        lipgloss.Color("#9ece6a"),
	Warn:      lipgloss.Color("#e0af68"),
	Danger:    lipgloss.Color("#f7768e"),
	Info:      lipgloss.Color("#7dcfff"),
	Border:    lipgloss.Color("#3b4261"),
	Focus:     lipgloss.Color("#7aa2f7"),
}

// Current holds the active palette
var Current = Night

// MaxWidth caps the content width. The board needs room for four columns.
const MaxWidth = 120

// ContentWidth clamps terminalWidth to MaxWidth
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content on terminals wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
}

// Styles are built once per view from the current palette
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Popup        lipgloss.Style
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style

	StatusOK    lipgloss.Style
	StatusError lipgloss.Style

	Column       lipgloss.Style
	ColumnFocus  lipgloss.Style
	ColumnAccept lipgloss.Style
	ColumnReject lipgloss.Style
	ColumnTitle  lipgloss.Style

	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardGrabbed  lipgloss.Style
}

// NewStyles derives every style from Current
func NewStyles() *Styles {
	p := Current
	text := lipgloss.NewStyle().Foreground(p.Text)
	boxed := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1)
	picked := lipgloss.NewStyle().Foreground(p.Accent).Background(p.Highlight).Bold(true)

	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		TitleMuted: lipgloss.NewStyle().Foreground(p.Muted),

		ListItem:     text.Padding(0, 2),
		ListSelected: picked.Padding(0, 2),

		Popup:        boxed,
		Input:        boxed.Foreground(p.Text),
		InputFocused: boxed.Foreground(p.Text).BorderForeground(p.Focus),

		Help:    lipgloss.NewStyle().Foreground(p.Muted).Padding(1, 2),
		HelpKey: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),

		StatusOK:    lipgloss.NewStyle().Foreground(p.OK).Padding(0, 1),
		StatusError: lipgloss.NewStyle().Foreground(p.Danger).Padding(0, 1),

		// accept and reject use a double border so they read without color
		Column:       boxed,
		ColumnFocus:  boxed.BorderForeground(p.Focus),
		ColumnAccept: boxed.BorderForeground(p.OK).BorderStyle(lipgloss.DoubleBorder()),
		ColumnReject: boxed.BorderForeground(p.Danger).BorderStyle(lipgloss.DoubleBorder()),
		ColumnTitle:  lipgloss.NewStyle().Foreground(p.Heading).Bold(true),

		Card:         text,
		CardSelected: picked,
		CardGrabbed:  lipgloss.NewStyle().Foreground(p.Base).Background(p.Warn).Bold(true),
	}
}

// PriorityColor maps a task priority to a palette color
func PriorityColor(pr models.Priority) lipgloss.Color {
	switch pr {
	case models.PriorityCritical:
		return Current.Danger
	case models.PriorityHigh:
		return Current.Warn
	case models.PriorityMedium:
		return Current.Info
	}
	return Current.Muted
}

// BucketColor maps a project status bucket to a palette color
func BucketColor(b models.StatusBucket) lipgloss.Color {
	switch b {
	case models.BucketCompleted:
		return Current.OK
	case models.BucketInProgress:
		return Current.Warn
	}
	return Current.Info
}
