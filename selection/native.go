package selection

import (
	"strings"

	"github.com/ByLCY/folio/layout"
)

// Range 是平台原生选区的抽象，坐标为视口坐标。
type Range interface {
	String() string
	Collapsed() bool
	Bounds() layout.Rect
	// Clone 返回独立副本，平台后续修改选区不会影响它。
	Clone() Range
}

// NativeSelection 是平台当前选区的提供者。
type NativeSelection interface {
	// Current 返回当前选区，没有选区时返回 nil。
	Current() Range
	// InContainer 判断选区是否完全位于标注容器内。
	InContainer(r Range) bool
	// Clear 清除平台选区。
	Clear()
}

// NativeMode 在松开后延迟读取平台选区，让平台先完成自身的选区更新。
type NativeMode struct {
	Selection NativeSelection
}

// NewNativeMode 创建原生选区策略。
func NewNativeMode(sel NativeSelection) *NativeMode {
	return &NativeMode{Selection: sel}
}

func (n *NativeMode) press(c *Controller, p Pointer) bool     { return true }
func (n *NativeMode) beginDrag(c *Controller, p Pointer) bool { return true }
func (n *NativeMode) drag(c *Controller, p Pointer)           {}
func (n *NativeMode) reset()                                  {}

func (n *NativeMode) release(c *Controller, p Pointer) {
	delay := c.cfg.MouseReadDelay
	if p.Kind == Touch {
		delay = c.cfg.TouchReadDelay
	}
	c.schedule(delay, func() {
		span, err := n.Read()
		if err != nil {
			c.toIdle()
			return
		}
		c.commit(span)
	})
}

// Read 立即克隆当前选区并校验，失败时返回 ErrSelectionRejected。
func (n *NativeMode) Read() (Span, error) {
	if n.Selection == nil {
		return Span{}, ErrSelectionRejected
	}
	current := n.Selection.Current()
	if current == nil {
		return Span{}, ErrSelectionRejected
	}
	r := current.Clone()
	if r == nil || r.Collapsed() {
		return Span{}, ErrSelectionRejected
	}
	text := strings.TrimSpace(r.String())
	if text == "" {
		return Span{}, ErrSelectionRejected
	}
	if !n.Selection.InContainer(r) {
		return Span{}, ErrSelectionRejected
	}
	bounds := r.Bounds()
	return Span{
		Text:      text,
		Anchor:    bounds,
		Bounds:    bounds,
		Range:     r,
		StartWord: -1,
		EndWord:   -1,
	}, nil
}
