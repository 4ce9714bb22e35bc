package main

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/config"
	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/drag"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// World units covered by one terminal cell.
const (
	cellW = 10.0
	cellH = 20.0
)

const defaultFilename = "diagram.json"

// MessageType for status messages
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgError
	MsgSuccess
)

// Editor holds all editor state
type Editor struct {
	screen   tcell.Screen
	cfg      *config.Config
	log      *zap.Logger
	engine   *topology.Engine
	ctrl     *drag.Controller
	hist     *history
	filename string
	modified bool
	prevMod  bool // modified before the last checkpoint

	message           string
	messageType       MessageType
	messageFlashStart int64
	flashPending      bool

	// Canvas offset in cells
	offX, offY int

	// Mouse state
	leftDown   bool
	lastMouseX int
	lastMouseY int

	branchMode bool   // every press starts a branch drag
	linkMode   bool   // next two node clicks create a link
	linkFrom   string // source picked in link mode
	needsDraw  bool
}

func newEditor(cfg *config.Config, log *zap.Logger) *Editor {
	ed := &Editor{
		cfg:       cfg,
		log:       log,
		hist:      newHistory(maxUndoLevels),
		needsDraw: true,
	}
	ed.setDiagram(diagram.New())
	return ed
}

// setDiagram rebuilds the engine and controller over d.
func (ed *Editor) setDiagram(d *diagram.Diagram) {
	ed.engine = topology.New(d, topology.Options{
		Params:      ed.cfg.Curve,
		OffsetLimit: ed.cfg.Branch.OffsetLimit,
		Measurer:    diagram.MeasureFunc(ed.measure),
		Logger:      ed.log,
	})
	ed.engine.OnRemove(func(id string) {
		ed.log.Debug("link removed", zap.String("link", id))
	})
	ed.ctrl = drag.New(ed.engine, drag.Options{
		Deadband:     ed.cfg.Drag.Deadband,
		HitTolerance: ed.cfg.Drag.HitTolerance,
		History:      ed,
		Renderer:     ed,
		Logger:       ed.log,
	})
	ed.syncViewport()
	ed.linkFrom = ""
}

// measure sizes rectangles to fit their labels.
func (ed *Editor) measure(id string) (w, h float64, ok bool) {
	n, found := ed.engine.Diagram().Node(id)
	if !found {
		return 0, 0, false
	}
	w = float64(utf8.RuneCountInString(n.Label)+4) * cellW
	return math.Max(w, diagram.DefaultRectWidth), 0, true
}

func (ed *Editor) syncViewport() {
	ed.ctrl.SetViewport(drag.Viewport{
		Zoom: 1,
		PanX: -float64(ed.offX) * cellW,
		PanY: -float64(ed.offY) * cellH,
	})
}

// Record implements drag.History.
func (ed *Editor) Record(label string) {
	ed.hist.push(ed.engine.Diagram().Clone())
	ed.prevMod, ed.modified = ed.modified, true
	ed.log.Debug("checkpoint", zap.String("label", label))
}

// Discard implements drag.History.
func (ed *Editor) Discard() {
	ed.hist.drop()
	ed.modified = ed.prevMod
}

// RequestRender implements drag.Renderer.
func (ed *Editor) RequestRender() {
	ed.needsDraw = true
}

// cellPoint is the screen point at the centre of a cell.
func cellPoint(x, y int) geom.Point {
	return geom.Pt((float64(x)+0.5)*cellW, (float64(y)+0.5)*cellH)
}

// toWorld converts a cell to world coordinates.
func (ed *Editor) toWorld(x, y int) geom.Point {
	return ed.ctrl.Viewport().ToWorld(cellPoint(x, y))
}

// toCell converts a world point to the cell containing it.
func (ed *Editor) toCell(p geom.Point) (int, int) {
	return int(math.Floor(p.X/cellW)) - ed.offX, int(math.Floor(p.Y/cellH)) - ed.offY
}

func (ed *Editor) run() {
	for {
		if ed.needsDraw {
			ed.draw()
			ed.screen.Show()
			ed.needsDraw = false
		}

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
			ed.needsDraw = true
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
			ed.needsDraw = true
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			ed.flashPending = false
			ed.needsDraw = true
		}
		if ed.message != "" && time.Now().UnixMilli()-ed.messageFlashStart < 500 {
			ed.scheduleFlash()
		}
		ed.ctrl.Frame()
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return true
	case tcell.KeyEscape:
		switch {
		case ed.ctrl.State() != drag.Idle:
			ed.ctrl.Cancel()
			ed.showMessage("Cancelled", MsgInfo)
		case ed.linkMode:
			ed.linkMode, ed.linkFrom = false, ""
			ed.showMessage("Link mode off", MsgInfo)
		}
		return false
	case tcell.KeyCtrlS:
		ed.save()
		return false
	case tcell.KeyCtrlZ:
		ed.undo()
		return false
	case tcell.KeyCtrlY:
		ed.redo()
		return false
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.deleteAtPointer()
		return false
	case tcell.KeyLeft:
		ed.pan(-4, 0)
		return false
	case tcell.KeyRight:
		ed.pan(4, 0)
		return false
	case tcell.KeyUp:
		ed.pan(0, -2)
		return false
	case tcell.KeyDown:
		ed.pan(0, 2)
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'r':
		ed.addNode(diagram.ShapeRectangle)
	case 'o':
		ed.addNode(diagram.ShapeRounded)
	case 'c':
		ed.addNode(diagram.ShapeCircle)
	case 'd':
		ed.addNode(diagram.ShapeDiamond)
	case 'l':
		ed.linkMode, ed.linkFrom = !ed.linkMode, ""
		if ed.linkMode {
			ed.showMessage("Link mode: click source, then target", MsgInfo)
		} else {
			ed.showMessage("Link mode off", MsgInfo)
		}
	case 'b':
		ed.branchMode = !ed.branchMode
		if ed.branchMode {
			ed.showMessage("Branch mode: drag from a link to a node", MsgInfo)
		} else {
			ed.showMessage("Branch mode off", MsgInfo)
		}
	case 'x':
		ed.deleteAtPointer()
	case 'v':
		ed.validate()
	}
	return false
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	ed.lastMouseX, ed.lastMouseY = x, y
	pressed := ev.Buttons()&tcell.Button1 != 0
	p := cellPoint(x, y)

	switch {
	case pressed && !ed.leftDown:
		ed.leftDown = true
		if ed.linkMode {
			ed.pickLinkEnd(x, y)
			return
		}
		var mods drag.Modifiers
		if ed.branchMode || ev.Modifiers()&tcell.ModShift != 0 {
			mods |= drag.ModBranch
		}
		ed.syncViewport()
		ed.ctrl.PointerDown(p, mods)
	case pressed:
		ed.ctrl.PointerMove(p)
	case ed.leftDown:
		ed.leftDown = false
		if l, ok := ed.ctrl.PointerUp(p); ok {
			ed.showMessage("Updated "+l.ID, MsgSuccess)
		}
	}
}

func (ed *Editor) pickLinkEnd(x, y int) {
	n, ok := ed.engine.NodeAt(ed.toWorld(x, y))
	if !ok {
		return
	}
	if ed.linkFrom == "" {
		ed.linkFrom = n.ID
		ed.showMessage("Link from "+n.ID, MsgInfo)
		return
	}

	ed.Record("create link")
	l, err := ed.engine.CreateLink(ed.linkFrom, n.ID)
	if err != nil {
		ed.Discard()
		ed.showMessage(err.Error(), MsgError)
	} else {
		ed.showMessage(fmt.Sprintf("Linked %s -> %s", l.SourceID, l.TargetID), MsgSuccess)
	}
	ed.linkFrom = ""
}

func (ed *Editor) addNode(shape diagram.Shape) {
	d := ed.engine.Diagram()
	id := ""
	for i := len(d.Nodes()) + 1; ; i++ {
		id = fmt.Sprintf("n%d", i)
		if _, taken := d.Node(id); !taken {
			break
		}
	}

	ed.Record("add node")
	w := ed.toWorld(ed.lastMouseX, ed.lastMouseY)
	d.AddNode(&diagram.Node{ID: id, X: w.X, Y: w.Y, Shape: shape, Size: diagram.DefaultSize, Label: id})
	ed.showMessage("Added "+id, MsgSuccess)
}

func (ed *Editor) deleteAtPointer() {
	w := ed.toWorld(ed.lastMouseX, ed.lastMouseY)
	if n, ok := ed.engine.NodeAt(w); ok {
		ed.Record("delete node")
		report, err := ed.engine.DeleteNode(n.ID)
		if err != nil {
			ed.Discard()
			ed.showMessage(err.Error(), MsgError)
			return
		}
		ed.showMessage(fmt.Sprintf("Deleted %s and %d links", n.ID, len(report.Dangling)), MsgSuccess)
		return
	}
	if l, _, ok := ed.engine.LinkAt(w, ed.cfg.Drag.HitTolerance, geom.SamplesLive); ok {
		ed.Record("delete link")
		_ = ed.engine.DeleteLink(l.ID)
		ed.showMessage("Deleted "+l.ID, MsgSuccess)
	}
}

func (ed *Editor) validate() {
	report := ed.engine.Validate()
	if report.OK() {
		ed.showMessage("Diagram is valid", MsgSuccess)
		return
	}
	if len(report.Dangling) > 0 {
		ed.Record("cleanup")
		ed.engine.Cleanup()
	}
	ed.showMessage(fmt.Sprintf("Removed %d dangling, %d static branches",
		len(report.Dangling), len(report.Static)), MsgInfo)
}

func (ed *Editor) pan(dx, dy int) {
	ed.offX += dx
	ed.offY += dy
	ed.syncViewport()
}

func (ed *Editor) undo() {
	ed.ctrl.Cancel()
	d, ok := ed.hist.undo(ed.engine.Diagram())
	if !ok {
		ed.showMessage("Nothing to undo", MsgInfo)
		return
	}
	ed.setDiagram(d)
	ed.modified = true
	ed.showMessage("Undo", MsgInfo)
}

func (ed *Editor) redo() {
	ed.ctrl.Cancel()
	d, ok := ed.hist.redo(ed.engine.Diagram())
	if !ok {
		ed.showMessage("Nothing to redo", MsgInfo)
		return
	}
	ed.setDiagram(d)
	ed.modified = true
	ed.showMessage("Redo", MsgInfo)
}

// scheduleFlash wakes the event loop so the status message can blink.
func (ed *Editor) scheduleFlash() {
	if ed.flashPending {
		return
	}
	ed.flashPending = true
	time.AfterFunc(125*time.Millisecond, func() {
		_ = ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart = time.Now().UnixMilli()
	ed.needsDraw = true
}

// File operations

func (ed *Editor) loadFile(path string) error {
	d, err := diagram.ReadFile(path)
	if err != nil {
		return err
	}
	ed.setDiagram(d)
	ed.hist.clear()
	ed.modified = false
	if report := ed.engine.Validate(); !report.OK() {
		ed.showMessage(fmt.Sprintf("%d dangling links, %d static branches (v to clean up)",
			len(report.Dangling), len(report.Static)), MsgError)
	}
	return nil
}

func (ed *Editor) save() {
	if ed.filename == "" {
		ed.filename = defaultFilename
	}
	if err := ed.saveFile(ed.filename); err != nil {
		ed.showMessage(err.Error(), MsgError)
		return
	}
	ed.showMessage("Saved "+ed.filename, MsgSuccess)
}

func (ed *Editor) saveFile(path string) error {
	if path == "" {
		return errors.New("no file name")
	}
	if err := diagram.WriteFile(path, ed.engine.Diagram()); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	ed.modified = false
	return nil
}
