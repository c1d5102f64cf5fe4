package macro

import (
	"log/slog"

	"github.com/edwingeng/deque"

	"github.com/ardnew/tpt/lang/symbols"
)

// Shadow is the stack of identifier states hidden by macro parameters.
// Each call pushes one frame; returning from the call pops it.
type Shadow struct {
	frames deque.Deque
}

// NewShadow returns an empty Shadow stack.
func NewShadow() *Shadow {
	return &Shadow{frames: deque.NewDeque()}
}

// Depth returns the number of frames currently pushed.
func (s *Shadow) Depth() int { return s.frames.Len() }

// Frame is the saved state of one call's parameters.
type Frame struct {
	shadow *Shadow
	table  *symbols.Table
	saved  []symbols.Binding
}

// Bind saves the current state of every name in params, then assigns args
// to them in order. Parameters without an argument are bound to "".
func (s *Shadow) Bind(t *symbols.Table, params, args []string) (*Frame, error) {
	if len(args) > len(params) {
		return nil, ErrTooManyArgs.With(
			slog.Int("want", len(params)),
			slog.Int("got", len(args)),
		)
	}

	f := &Frame{shadow: s, table: t, saved: make([]symbols.Binding, 0, len(params))}

	for _, p := range params {
		f.saved = append(f.saved, t.Snapshot(p))
	}

	s.frames.PushBack(f)

	for i, p := range params {
		var v string
		if i < len(args) {
			v = args[i]
		}

		if err := t.Set(p, v, nil); err != nil {
			f.Restore()

			return nil, err
		}
	}

	return f, nil
}

// Restore pops frames down to and including f and puts every saved
// identifier back the way it was, absent names included.
func (f *Frame) Restore() {
	s := f.shadow

	for s.frames.Len() > 0 {
		top, _ := s.frames.PopBack().(*Frame)
		top.restore()

		if top == f {
			return
		}
	}
}

func (f *Frame) restore() {
	// Restore in reverse so a parameter named twice ends up at its first
	// saved state.
	for i := len(f.saved) - 1; i >= 0; i-- {
		f.table.Restore(f.saved[i])
	}
}
