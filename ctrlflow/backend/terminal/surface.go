package terminal

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/terminal/render"
)

const (
	minTermWidth  = 40
	minTermHeight = 8
)

var fillStyle = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)

// surface paints into the full terminal screen.
type surface struct {
	backend *Backend
}

func (s *surface) PrePresentNotify() {
	// tcell presents on Show, there is no compositor to notify.
}

func (s *surface) Paint() error {
	t := s.backend
	if t.screen == nil {
		return fmt.Errorf("terminal screen is gone")
	}

	t.frames++
	t.render()
	t.screen.Show()
	return nil
}

func (s *surface) RequestRepaint() {
	s.backend.loop.RequestRedraw()
}

func (t *Backend) render() {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	for y := 0; y < termHeight; y++ {
		for x := 0; x < termWidth; x++ {
			t.screen.SetContent(x, y, ' ', nil, fillStyle)
		}
	}

	titleStyle := fillStyle.Foreground(tcell.ColorYellow).Bold(true)
	t.drawText(1, 0, termWidth-2, " "+t.config.Title+" ", titleStyle)
	t.drawText(1, 1, termWidth-2, fmt.Sprintf("frame %d", t.frames), fillStyle)

	t.drawLogs(1, 3, termWidth-2, termHeight-5)

	help := " 1=Wait 2=WaitUntil 3=Poll R=toggle redraw ESC=exit "
	t.drawText(0, termHeight-1, termWidth, help, fillStyle.Reverse(true))
}

func (t *Backend) drawLogs(startX, startY, width, height int) {
	if width <= 0 || height <= 0 || t.logBuffer == nil {
		return
	}

	debugStyle := fillStyle.Foreground(tcell.ColorGray)
	warnStyle := fillStyle.Foreground(tcell.ColorYellow)
	errStyle := fillStyle.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.Recent(height) {
		style := fillStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(startX, startY+i, width, render.FormatLogEntry(entry), style)
	}
}

// drawText writes s on row y, truncated to width cells.
func (t *Backend) drawText(x, y, width int, s string, style tcell.Style) {
	runes := []rune(s)
	if len(runes) > width {
		if width > 3 {
			runes = append(runes[:width-3], '.', '.', '.')
		} else if width > 0 {
			runes = runes[:width]
		} else {
			return
		}
	}
	for i, r := range runes {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
