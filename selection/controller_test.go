package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ByLCY/folio/layout"
)

type fakeRange struct {
	text      string
	collapsed bool
	bounds    layout.Rect
	inside    bool
}

func (r *fakeRange) String() string      { return r.text }
func (r *fakeRange) Collapsed() bool     { return r.collapsed }
func (r *fakeRange) Bounds() layout.Rect { return r.bounds }
func (r *fakeRange) Clone() Range {
	cp := *r
	return &cp
}

// fakeSelection 模拟平台选区：current 可被测试随时替换。
type fakeSelection struct {
	current *fakeRange
	cleared int
}

func (s *fakeSelection) Current() Range {
	if s.current == nil {
		return nil
	}
	return s.current
}
func (s *fakeSelection) InContainer(r Range) bool { return r.(*fakeRange).inside }
func (s *fakeSelection) Clear()                   { s.current = nil; s.cleared++ }

type recorder struct {
	commits []Span
	changes []string
}

func (r *recorder) attach(c *Controller) {
	c.OnCommit(func(s Span) { r.commits = append(r.commits, s) })
	c.OnChange(func(text string, _ Range) { r.changes = append(r.changes, text) })
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func mouse(x, y float64) Pointer { return Pointer{Kind: Mouse, Pos: layout.Point{X: x, Y: y}} }
func touch(x, y float64) Pointer { return Pointer{Kind: Touch, Pos: layout.Point{X: x, Y: y}} }

func newNative(t *testing.T) (*Controller, *fakeSelection, *ManualScheduler, *recorder) {
	t.Helper()
	sel := &fakeSelection{}
	sched := NewManualScheduler(epoch)
	c := NewController(NewNativeMode(sel), sched, DefaultConfig())
	rec := &recorder{}
	rec.attach(c)
	return c, sel, sched, rec
}

func TestNativeCommitAfterReadDelay(t *testing.T) {
	c, sel, sched, rec := newNative(t)
	c.Press(mouse(10, 10))
	c.Move(mouse(60, 10))
	if c.State() != Dragging {
		t.Fatalf("expected dragging, got %s", c.State())
	}
	c.Release(mouse(60, 10))
	// 平台在松开之后才写入选区
	sel.current = &fakeRange{text: "  quick brown ", bounds: layout.Rect{X: 10, Y: 10, Width: 50, Height: 20}, inside: true}
	sched.Advance(49 * time.Millisecond)
	if len(rec.commits) != 0 {
		t.Fatalf("must not read before the delay")
	}
	sched.Advance(time.Millisecond)
	if len(rec.commits) != 1 || rec.commits[0].Text != "quick brown" {
		t.Fatalf("unexpected commits: %+v", rec.commits)
	}
	if c.State() != Committed {
		t.Fatalf("expected committed, got %s", c.State())
	}
	span, _ := c.Span()
	if span.Range == nil || span.Anchor.Width != 50 {
		t.Fatalf("span should carry the cloned range and anchor: %+v", span)
	}
}

func TestNativeCloneSurvivesPlatformMutation(t *testing.T) {
	c, sel, sched, rec := newNative(t)
	sel.current = &fakeRange{text: "fox", inside: true}
	c.Press(mouse(0, 0))
	c.Release(mouse(0, 0))
	sched.Advance(50 * time.Millisecond)
	sel.current.text = "mutated"
	if got := rec.commits[0].Range.String(); got != "fox" {
		t.Fatalf("captured range must be independent, got %q", got)
	}
}

func TestNativeTouchUsesLongerDelay(t *testing.T) {
	c, sel, sched, rec := newNative(t)
	sel.current = &fakeRange{text: "fox", inside: true}
	c.Press(touch(0, 0))
	c.Release(touch(0, 0))
	sched.Advance(100 * time.Millisecond)
	if len(rec.commits) != 0 {
		t.Fatalf("touch read happened too early")
	}
	sched.Advance(100 * time.Millisecond)
	if len(rec.commits) != 1 {
		t.Fatalf("expected commit after touch delay")
	}
}

func TestNativeRejections(t *testing.T) {
	cases := map[string]*fakeRange{
		"none":      nil,
		"collapsed": {text: "x", collapsed: true, inside: true},
		"blank":     {text: " \n\t ", inside: true},
		"outside":   {text: "fox", inside: false},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			c, sel, sched, rec := newNative(t)
			sel.current = r
			c.Press(mouse(0, 0))
			c.Release(mouse(0, 0))
			sched.Advance(time.Second)
			if len(rec.commits) != 0 {
				t.Fatalf("selection should be rejected")
			}
			if c.State() != Idle {
				t.Fatalf("expected idle after rejection, got %s", c.State())
			}
			if len(rec.changes) == 0 || rec.changes[len(rec.changes)-1] != "" {
				t.Fatalf("observer should see the reset: %v", rec.changes)
			}
			mode := c.Mode().(*NativeMode)
			if _, err := mode.Read(); !errors.Is(err, ErrSelectionRejected) {
				t.Fatalf("expected ErrSelectionRejected, got %v", err)
			}
		})
	}
}

func TestNewGestureCancelsPendingRead(t *testing.T) {
	c, sel, sched, rec := newNative(t)
	sel.current = &fakeRange{text: "fox", inside: true}
	c.Press(mouse(0, 0))
	c.Release(mouse(0, 0))
	sched.Advance(20 * time.Millisecond)
	c.Press(mouse(5, 5))
	if sched.Pending() != 0 {
		t.Fatalf("previous timer must be cancelled")
	}
	sched.Advance(time.Second)
	if len(rec.commits) != 0 {
		t.Fatalf("cancelled read must not commit")
	}
	if c.State() != Pressing {
		t.Fatalf("expected pressing, got %s", c.State())
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	c, sel, sched, rec := newNative(t)
	sel.current = &fakeRange{text: "fox", inside: true}
	c.Press(mouse(0, 0))
	c.Release(mouse(0, 0))
	sched.Advance(time.Second)
	c.Reset()
	if c.State() != Idle {
		t.Fatalf("expected idle")
	}
	if _, ok := c.Span(); ok {
		t.Fatalf("span must be cleared")
	}
	if rec.changes[len(rec.changes)-1] != "" {
		t.Fatalf("observer should receive the reset")
	}
}

func TestLoopSchedulerStopPreventsCallback(t *testing.T) {
	s := NewLoopScheduler(4)
	fired := false
	timer := s.AfterFunc(time.Hour, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("first stop should report cancellation")
	}
	if timer.Stop() {
		t.Fatalf("second stop should report false")
	}
	if fired {
		t.Fatalf("callback must not run")
	}
}

func TestLoopSchedulerDropsWorkAfterRunReturns(t *testing.T) {
	s := NewLoopScheduler(1)
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	s.Dispatch(func() { ran <- struct{}{}; cancel() })
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run should return context.Canceled, got %v", err)
	}
	if len(ran) != 1 {
		t.Fatalf("work queued before cancellation should run")
	}

	done := make(chan struct{})
	go func() {
		// buffer of 1: later sends must not block
		for i := 0; i < 4; i++ {
			s.Dispatch(func() {})
		}
		s.AfterFunc(0, func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked after Run returned")
	}
}

func TestDismissWhileIdleIsSilent(t *testing.T) {
	c, _, _, rec := newNative(t)
	c.Dismiss()
	if len(rec.changes) != 0 {
		t.Fatalf("dismiss on idle must not notify: %v", rec.changes)
	}
}
