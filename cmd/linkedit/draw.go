package main

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/drag"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleNode       = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleNodeSel    = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleLink       = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleBranch     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleHandle     = tcell.StyleDefault.Foreground(tcell.ColorOrange).Bold(true)
	styleDragging   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 162, 200)) // Lilac
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Samples per curve when plotting into cells.
const plotSamples = 64

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()
	canvasH := h - 2 // leave room for status and help bars

	// Links first so nodes cover their ends
	for _, l := range ed.engine.Diagram().Links() {
		ed.drawLink(l, w, canvasH)
	}
	if q, ok := ed.ctrl.TempCurve(); ok {
		ed.plotCurve(q, w, canvasH, styleDragging)
	}
	for _, n := range ed.engine.Diagram().Nodes() {
		ed.drawNode(n, w, canvasH)
	}

	ed.drawStatusBar(w, h)
}

func (ed *Editor) drawLink(l *diagram.Link, w, h int) {
	q, ok := ed.engine.Curve(l)
	if !ok {
		return
	}
	style := styleLink
	if l.IsBranch() {
		style = styleBranch
	}
	if a, ok := ed.ctrl.Active(); ok && a.ID == l.ID {
		style = styleDragging
	}
	ed.plotCurve(q, w, h, style)

	if l.IsBranch() {
		ed.setCell(q.P0, w, h, '◆', style)
	}
	ed.setCell(q.P1, w, h, 'o', styleHandle)
}

// plotCurve marks every cell the curve passes through and puts an arrowhead
// at its end.
func (ed *Editor) plotCurve(q geom.QuadBez, w, h int, style tcell.Style) {
	for i := 0; i <= plotSamples; i++ {
		ed.setCell(q.Eval(float64(i)/plotSamples), w, h, '·', style)
	}
	ed.setCell(q.P2, w, h, arrowRune(q.Tangent(1)), style)
}

// arrowRune picks the arrow closest to direction v, in screen-cell space.
func arrowRune(v geom.Vec) rune {
	a := math.Atan2(v.Y/cellH, v.X/cellW)
	switch oct := int(math.Round(a/(math.Pi/4))) & 7; oct {
	case 0:
		return '→'
	case 1:
		return '↘'
	case 2:
		return '↓'
	case 3:
		return '↙'
	case 4:
		return '←'
	case 5:
		return '↖'
	case 6:
		return '↑'
	default:
		return '↗'
	}
}

func (ed *Editor) setCell(p geom.Point, w, h int, r rune, style tcell.Style) {
	x, y := ed.toCell(p)
	if x < 0 || x >= w || y < 0 || y >= h {
		return
	}
	ed.screen.SetContent(x, y, r, nil, style)
}

// drawNode draws the node's bounding box in cells, with corners that hint at
// its shape, and its label centred inside.
func (ed *Editor) drawNode(n *diagram.Node, w, h int) {
	b := diagram.Bounds(n, ed.engine.Measurer())
	x0, y0 := ed.toCell(geom.Pt(b.X, b.Y))
	x1, y1 := ed.toCell(geom.Pt(b.X+b.W, b.Y+b.H))
	if x1-x0 < 2 {
		x1 = x0 + 2
	}
	if y1-y0 < 2 {
		y1 = y0 + 2
	}

	style := styleNode
	if ed.ctrl.State() == drag.NodeDragging {
		if np, ok := ed.engine.NodeAt(ed.toWorld(ed.lastMouseX, ed.lastMouseY)); ok && np.ID == n.ID {
			style = styleDragging
		}
	}
	if n.ID == ed.linkFrom {
		style = styleNodeSel
	}

	tl, tr, bl, br := '┌', '┐', '└', '┘'
	switch n.Shape {
	case diagram.ShapeRounded:
		tl, tr, bl, br = '╭', '╮', '╰', '╯'
	case diagram.ShapeCircle:
		tl, tr, bl, br = '(', ')', '(', ')'
	case diagram.ShapeDiamond:
		tl, tr, bl, br = '/', '\\', '\\', '/'
	}

	put := func(x, y int, r rune) {
		if x >= 0 && x < w && y >= 0 && y < h {
			ed.screen.SetContent(x, y, r, nil, style)
		}
	}
	for x := x0 + 1; x < x1; x++ {
		put(x, y0, '─')
		put(x, y1, '─')
		for y := y0 + 1; y < y1; y++ {
			put(x, y, ' ')
		}
	}
	for y := y0 + 1; y < y1; y++ {
		put(x0, y, '│')
		put(x1, y, '│')
	}
	put(x0, y0, tl)
	put(x1, y0, tr)
	put(x0, y1, bl)
	put(x1, y1, br)

	label := truncate(n.Label, x1-x0-1)
	lx := x0 + (x1-x0+1-len([]rune(label)))/2
	ly := (y0 + y1) / 2
	for i, r := range []rune(label) {
		put(lx+i, ly, r)
	}
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	// File info
	fileInfo := "[New]"
	if ed.filename != "" {
		if len(ed.filename) > 30 {
			fileInfo = filepath.Base(ed.filename)
		} else {
			fileInfo = ed.filename
		}
	}
	if ed.modified {
		fileInfo += " *"
	}
	ed.drawString(1, y, fileInfo, styleStatus)

	// Mode
	modeStr := ed.modeString()
	ed.drawString(w/2-len(modeStr)/2, y, modeStr, styleStatus)

	// Message
	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		}
		if flashInverted(time.Now().UnixMilli() - ed.messageFlashStart) {
			style = style.Reverse(true)
		}
		ed.drawString(w-len([]rune(ed.message))-2, y, ed.message, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(), styleHelp)
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		ed.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func (ed *Editor) modeString() string {
	switch {
	case ed.ctrl.State() != drag.Idle:
		return strings.ToUpper(ed.ctrl.State().String())
	case ed.linkMode:
		return "LINK"
	case ed.branchMode:
		return "BRANCH"
	}
	return ""
}

func (ed *Editor) helpString() string {
	if ed.linkMode {
		return "Click:Pick node  Esc:Done"
	}
	return "r/o/c/d:Add node  l:Link  b:Branch  Shift+Drag:Branch  x:Delete  v:Validate  Ctrl+Z/Y:Undo/Redo  Ctrl+S:Save  q:Quit"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen < 0 {
		maxLen = 0
	}
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// flashInverted reports whether a message shown elapsed ms ago is in an
// inverted phase. Messages blink twice over their first half second.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}
