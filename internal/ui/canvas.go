package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
)

// Canvas composes lipgloss-rendered blocks into a cell buffer so dialogs and
// toasts can be drawn on top of the main frame.
type Canvas struct {
	screen *cellbuf.Screen
	writer *cellbuf.ScreenWriter
	width  int
	height int
}

func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	screen := cellbuf.NewScreen(io.Discard, width, height, &cellbuf.ScreenOptions{
		ShowCursor: false,
		AltScreen:  false,
	})
	return &Canvas{
		screen: screen,
		writer: cellbuf.NewScreenWriter(screen),
		width:  width,
		height: height,
	}
}

// Fill paints the entire canvas with bg.
func (c *Canvas) Fill(bg lipgloss.TerminalColor) {
	if c == nil {
		return
	}
	fill := lipgloss.NewStyle().
		Background(bg).
		Width(c.width).
		Height(c.height).
		Render("")
	c.DrawStringAt(0, 0, fill)
}

// DrawStringAt writes block starting at x,y. Each line starts at column x.
func (c *Canvas) DrawStringAt(x, y int, block string) {
	if c == nil || block == "" {
		return
	}
	c.drawBlockAt(x, y, splitLines(block))
}

// CenterOverlay draws overlay centered in the rows between the margins, so
// the header and footer stay visible.
func (c *Canvas) CenterOverlay(overlay string, topMargin, bottomMargin int) {
	lines := splitLines(overlay)
	if len(lines) == 0 || c == nil {
		return
	}
	w := min(maxLineWidth(lines), c.width)
	x, y := centeredOffsets(c.width, c.height, w, len(lines), topMargin, bottomMargin)
	c.drawBlockAt(x, y, lines)
}

// BottomRightOverlay anchors overlay to the bottom-right corner, keeping
// bottomMargin rows free below it.
func (c *Canvas) BottomRightOverlay(overlay string, padding, bottomMargin int) {
	lines := splitLines(overlay)
	if len(lines) == 0 || c == nil {
		return
	}
	padding = max(padding, 0)
	bottomMargin = max(bottomMargin, 0)

	y := max(c.height-bottomMargin-len(lines)-padding, 0)
	x := max(c.width-maxLineWidth(lines)-padding, 0)
	c.drawBlockAt(x, y, lines)
}

func (c *Canvas) drawBlockAt(x, y int, lines []string) {
	x = max(x, 0)
	y = max(y, 0)
	for i, line := range lines {
		row := y + i
		if row >= c.height {
			break
		}
		if line == "" {
			continue
		}
		c.writer.PrintCropAt(x, row, line, "")
	}
}

// Render returns the composed frame as a newline-delimited string for
// Bubble Tea. The canvas must not be drawn on afterwards.
func (c *Canvas) Render() string {
	if c == nil || c.screen == nil {
		return ""
	}
	raw := cellbuf.Render(c.screen)
	_ = c.screen.Close()
	return strings.ReplaceAll(raw, "\r\n", "\n")
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func maxLineWidth(lines []string) int {
	width := 0
	for _, line := range lines {
		width = max(width, ansi.StringWidth(line))
	}
	return width
}

func centeredOffsets(containerWidth, containerHeight, contentWidth, contentHeight, topMargin, bottomMargin int) (int, int) {
	topMargin = max(topMargin, 0)
	bottomMargin = max(bottomMargin, 0)

	usableHeight := max(containerHeight-topMargin-bottomMargin, contentHeight)
	y := topMargin + (usableHeight-contentHeight)/2
	y = min(y, containerHeight-bottomMargin-contentHeight)
	y = max(y, topMargin, 0)

	x := max((containerWidth-contentWidth)/2, 0)
	return x, y
}

// truncate shortens s to width cells, ANSI sequences included.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
