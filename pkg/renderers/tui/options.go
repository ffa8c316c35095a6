package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/render"
)

// Theme styles the text view. A Plain theme prints without escape codes or
// borders.
type Theme struct {
	Plain    bool
	Title    lipgloss.Style
	Header   lipgloss.Style
	Bar      lipgloss.Style
	Label    lipgloss.Style
	Required lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style
	Active   lipgloss.Style
	Box      lipgloss.Style
}

// DefaultTheme uses the rounded box and accent colours of the terminal UI.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		Header:   lipgloss.NewStyle().Bold(true),
		Bar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		Label:    lipgloss.NewStyle().Bold(true),
		Required: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
	}
}

// PlainTheme disables styling.
func PlainTheme() Theme {
	return Theme{Plain: true}
}

func (t Theme) paint(style lipgloss.Style, text string) string {
	if t.Plain {
		return text
	}
	return style.Render(text)
}

type config struct {
	driver     PromptDriver
	out        io.Writer
	theme      Theme
	width      int
	logger     zerolog.Logger
	renderOpts render.RenderOptions
}

// Option configures the renderer and sessions.
type Option func(*config)

// WithPromptDriver overrides the survey prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutput sets where sessions print pages and messages.
func WithOutput(out io.Writer) Option {
	return func(c *config) {
		if out != nil {
			c.out = out
		}
	}
}

// WithTheme applies a theme.
func WithTheme(theme Theme) Option {
	return func(c *config) {
		c.theme = theme
	}
}

// WithProgressWidth sets the progress bar width in cells.
func WithProgressWidth(width int) Option {
	return func(c *config) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRenderOptions sets the options sessions render pages with.
func WithRenderOptions(opts render.RenderOptions) Option {
	return func(c *config) {
		c.renderOpts = opts
	}
}
