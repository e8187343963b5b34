package theme

import "github.com/charmbracelet/lipgloss"

func init() {
	// midnight registers first and is the default.
	RegisterTheme("midnight", palette{
		primary:     lipgloss.AdaptiveColor{Light: "#1f4e99", Dark: "#3b6fd1"},
		accent:      lipgloss.AdaptiveColor{Light: "#0b7285", Dark: "#66d9e8"},
		errColor:    lipgloss.AdaptiveColor{Light: "#c92a2a", Dark: "#ff6b6b"},
		warning:     lipgloss.AdaptiveColor{Light: "#d9480f", Dark: "#ffa94d"},
		success:     lipgloss.AdaptiveColor{Light: "#2b8a3e", Dark: "#69db7c"},
		text:        lipgloss.AdaptiveColor{Light: "#1a1b26", Dark: "#dfe3ee"},
		textMuted:   lipgloss.AdaptiveColor{Light: "#5c6370", Dark: "#7a8194"},
		background:  lipgloss.AdaptiveColor{Light: "#f8f9fa", Dark: "#141821"},
		background2: lipgloss.AdaptiveColor{Light: "#e9ecef", Dark: "#1f2430"},
		border:      lipgloss.AdaptiveColor{Light: "#adb5bd", Dark: "#3a4150"},
	})
	RegisterTheme("daylight", palette{
		primary:     lipgloss.AdaptiveColor{Light: "#e8590c", Dark: "#ff922b"},
		accent:      lipgloss.AdaptiveColor{Light: "#5f3dc4", Dark: "#b197fc"},
		errColor:    lipgloss.AdaptiveColor{Light: "#e03131", Dark: "#ff8787"},
		warning:     lipgloss.AdaptiveColor{Light: "#f08c00", Dark: "#ffd43b"},
		success:     lipgloss.AdaptiveColor{Light: "#2f9e44", Dark: "#8ce99a"},
		text:        lipgloss.AdaptiveColor{Light: "#212529", Dark: "#f1f3f5"},
		textMuted:   lipgloss.AdaptiveColor{Light: "#868e96", Dark: "#909296"},
		background:  lipgloss.AdaptiveColor{Light: "#fffdf7", Dark: "#25262b"},
		background2: lipgloss.AdaptiveColor{Light: "#fff4e6", Dark: "#2c2e33"},
		border:      lipgloss.AdaptiveColor{Light: "#ced4da", Dark: "#495057"},
	})
	RegisterTheme("mono", palette{
		primary:     lipgloss.AdaptiveColor{Light: "240", Dark: "245"},
		accent:      lipgloss.AdaptiveColor{Light: "0", Dark: "15"},
		errColor:    lipgloss.AdaptiveColor{Light: "1", Dark: "9"},
		warning:     lipgloss.AdaptiveColor{Light: "3", Dark: "11"},
		success:     lipgloss.AdaptiveColor{Light: "2", Dark: "10"},
		text:        lipgloss.AdaptiveColor{Light: "0", Dark: "15"},
		textMuted:   lipgloss.AdaptiveColor{Light: "244", Dark: "244"},
		background:  lipgloss.AdaptiveColor{Light: "", Dark: ""},
		background2: lipgloss.AdaptiveColor{Light: "254", Dark: "236"},
		border:      lipgloss.AdaptiveColor{Light: "250", Dark: "240"},
	})
}

type palette struct {
	primary, accent            lipgloss.AdaptiveColor
	errColor, warning, success lipgloss.AdaptiveColor
	text, textMuted            lipgloss.AdaptiveColor
	background, background2    lipgloss.AdaptiveColor
	border                     lipgloss.AdaptiveColor
}

func (p palette) Primary() lipgloss.AdaptiveColor             { return p.primary }
func (p palette) Accent() lipgloss.AdaptiveColor              { return p.accent }
func (p palette) Error() lipgloss.AdaptiveColor               { return p.errColor }
func (p palette) Warning() lipgloss.AdaptiveColor             { return p.warning }
func (p palette) Success() lipgloss.AdaptiveColor             { return p.success }
func (p palette) Text() lipgloss.AdaptiveColor                { return p.text }
func (p palette) TextMuted() lipgloss.AdaptiveColor           { return p.textMuted }
func (p palette) Background() lipgloss.AdaptiveColor          { return p.background }
func (p palette) BackgroundSecondary() lipgloss.AdaptiveColor { return p.background2 }
func (p palette) BorderNormal() lipgloss.AdaptiveColor        { return p.border }
