package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/monlayout/internal/layout"
)

// rect is a display footprint in pixels.
type rect struct {
	X, Y, W, H int
}

// footprint returns the area d covers at pos. Left and right rotations
// swap the mode's width and height.
func footprint(d layout.DisplayConfig, pos layout.Position) rect {
	w, h := d.Resolution.Width, d.Resolution.Height
	if d.Rotation == layout.RotationLeft || d.Rotation == layout.RotationRight {
		w, h = h, w
	}
	return rect{X: pos.X, Y: pos.Y, W: w, H: h}
}

// bounds returns the smallest rect containing every footprint.
func bounds(rects []rect) rect {
	if len(rects) == 0 {
		return rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].W, rects[0].Y+rects[0].H
	for _, r := range rects[1:] {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.X+r.W)
		maxY = max(maxY, r.Y+r.H)
	}
	return rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// renderArrangement draws the displays at positions, scaled to fit a
// width×height character canvas. The selected display gets a heavy frame.
func renderArrangement(displays []layout.DisplayConfig, positions []layout.Position, selected, width, height int) []string {
	if len(displays) == 0 || width < 5 || height < 3 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	rects := make([]rect, len(displays))
	for i, d := range displays {
		rects[i] = footprint(d, positions[i])
	}
	world := bounds(rects)

	// Terminal cells are roughly twice as tall as they are wide.
	innerW, innerH := width-2, height-2
	scaleX := float64(world.W) / float64(innerW)
	scaleY := float64(world.H) / float64(innerH) / 2
	scale := max(scaleX, scaleY)
	if scale <= 0 {
		scale = 1
	}

	// The selected display is drawn last so its frame stays on top.
	order := make([]int, 0, len(displays))
	for i := range displays {
		if i != selected {
			order = append(order, i)
		}
	}
	if selected >= 0 && selected < len(displays) {
		order = append(order, selected)
	}

	for _, i := range order {
		r := rects[i]
		x1 := 1 + int(float64(r.X-world.X)/scale)
		y1 := 1 + int(float64(r.Y-world.Y)/scale/2)
		x2 := 1 + int(float64(r.X-world.X+r.W)/scale) - 1
		y2 := 1 + int(float64(r.Y-world.Y+r.H)/scale/2) - 1
		label := displays[i].Name
		if !displays[i].Connected {
			label += " (off)"
		}
		drawDisplay(canvas, x1, y1, x2, y2, label, i == selected)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

type frame struct {
	h, v, tl, tr, bl, br rune
}

var (
	lightFrame = frame{h: '─', v: '│', tl: '┌', tr: '┐', bl: '└', br: '┘'}
	heavyFrame = frame{h: '━', v: '┃', tl: '┏', tr: '┓', bl: '┗', br: '┛'}
)

func drawDisplay(canvas [][]rune, x1, y1, x2, y2 int, label string, selected bool) {
	canvasH := len(canvas)
	canvasW := len(canvas[0])

	// Clamp to canvas bounds
	x1 = max(x1, 1)
	y1 = max(y1, 1)
	x2 = min(x2, canvasW-2)
	y2 = min(y2, canvasH-2)

	// Need at least 2x2 for a frame
	if x2 <= x1 || y2 <= y1 {
		return
	}

	f := lightFrame
	if selected {
		f = heavyFrame
	}

	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			canvas[y][x] = ' '
		}
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = f.h
		canvas[y2][x] = f.h
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = f.v
		canvas[y][x2] = f.v
	}
	canvas[y1][x1] = f.tl
	canvas[y1][x2] = f.tr
	canvas[y2][x1] = f.bl
	canvas[y2][x2] = f.br

	// Label in the center, truncated to the frame interior
	room := x2 - x1 - 1
	if room < 1 {
		return
	}
	runes := []rune(label)
	if len(runes) > room {
		runes = runes[:room]
	}
	centerY := (y1 + y2) / 2
	if centerY == y1 {
		return
	}
	startX := x1 + 1 + (room-len(runes))/2
	for i, r := range runes {
		canvas[centerY][startX+i] = r
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	lines := make([]string, max(height, 0))
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}

// describeDisplay renders one line of the side panel.
func describeDisplay(d layout.DisplayConfig, pos layout.Position) string {
	state := "connected"
	if !d.Connected {
		state = "disconnected"
	}
	return fmt.Sprintf("%-10s %-9s @ %-12s %-8s %s", d.Name, d.Resolution, pos, d.Rotation, state)
}
