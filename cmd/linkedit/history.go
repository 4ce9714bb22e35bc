package main

import "github.com/ha1tch/linkgraph/pkg/diagram"

const maxUndoLevels = 50

// history keeps whole-diagram snapshots for undo and redo.
type history struct {
	limit     int
	undoStack []*diagram.Diagram
	redoStack []*diagram.Diagram
	dropped   []*diagram.Diagram // redo stack cleared by the last push
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// push saves d as the state before a new action and clears redo.
func (h *history) push(d *diagram.Diagram) {
	h.undoStack = append(h.undoStack, d)
	if len(h.undoStack) > h.limit {
		h.undoStack = h.undoStack[1:]
	}
	h.dropped = h.redoStack
	h.redoStack = nil
}

// drop forgets the last push, for actions that turned out to change nothing.
func (h *history) drop() {
	if len(h.undoStack) == 0 {
		return
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack, h.dropped = h.dropped, nil
}

// undo returns the previous state, saving current for redo.
func (h *history) undo(current *diagram.Diagram) (*diagram.Diagram, bool) {
	if len(h.undoStack) == 0 {
		return nil, false
	}
	d := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current.Clone())
	h.dropped = nil
	return d, true
}

// redo returns the next state, saving current for undo.
func (h *history) redo(current *diagram.Diagram) (*diagram.Diagram, bool) {
	if len(h.redoStack) == 0 {
		return nil, false
	}
	d := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current.Clone())
	h.dropped = nil
	return d, true
}

func (h *history) clear() {
	h.undoStack, h.redoStack, h.dropped = nil, nil, nil
}

func (h *history) canUndo() bool { return len(h.undoStack) > 0 }
func (h *history) canRedo() bool { return len(h.redoStack) > 0 }
