package selection

import (
	"strings"
	"time"

	"github.com/ByLCY/folio/layout"
)

// GridMode 在自排版的词网格上做命中测试，不依赖平台选区。
//
// 鼠标：超过移动阈值即进入拖选。触摸：超过阈值视为滚动并取消，
// 除非这次按下是双击的第二下（DoubleTapWindow 内），此时允许拖选。
// 没有移动的松开会在 TapDelay 之后提交单个词。
type GridMode struct {
	words *layout.Result

	start, end int
	armed      bool
	lastTap    time.Time
}

// NewGridMode 使用当前布局结果创建网格策略。
func NewGridMode(res *layout.Result) *GridMode {
	return &GridMode{words: res, start: -1, end: -1}
}

// SetLayout 在重新布局后替换词网格，旧的词下标随之失效。
func (g *GridMode) SetLayout(res *layout.Result) {
	g.words = res
	g.start, g.end = -1, -1
}

// Layout 返回当前词网格。
func (g *GridMode) Layout() *layout.Result { return g.words }

func (g *GridMode) hit(c *Controller, p Pointer) int {
	slop := 0.0
	if p.Kind == Touch {
		slop = c.cfg.TouchSlop
	}
	return g.words.WordAt(p.Pos, slop)
}

func (g *GridMode) press(c *Controller, p Pointer) bool {
	idx := g.hit(c, p)
	if idx < 0 {
		return false
	}
	g.start, g.end = idx, idx
	now := c.sched.Now()
	g.armed = p.Kind == Touch && !g.lastTap.IsZero() && now.Sub(g.lastTap) <= c.cfg.DoubleTapWindow
	return true
}

func (g *GridMode) beginDrag(c *Controller, p Pointer) bool {
	return p.Kind == Mouse || g.armed
}

func (g *GridMode) drag(c *Controller, p Pointer) {
	idx := g.hit(c, p)
	if idx < 0 || idx == g.end {
		return
	}
	g.end = idx
	c.notify(g.text(g.start, g.end), nil)
}

func (g *GridMode) release(c *Controller, p Pointer) {
	lo, hi := min(g.start, g.end), max(g.start, g.end)
	if !c.moved {
		g.lastTap = c.sched.Now()
		c.schedule(c.cfg.TapDelay, func() {
			c.commit(g.span(lo, lo))
		})
		return
	}
	c.commit(g.span(lo, hi))
}

// reset 清除当前词区间，保留上次单击时间以识别双击。
func (g *GridMode) reset() {
	g.start, g.end = -1, -1
	g.armed = false
}

func (g *GridMode) text(lo, hi int) string {
	words := g.words.Slice(lo, hi)
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func (g *GridMode) span(lo, hi int) Span {
	words := g.words.Slice(lo, hi)
	s := Span{Text: g.text(lo, hi), StartWord: lo, EndWord: hi}
	for _, w := range words {
		s.Bounds = s.Bounds.Union(w.Rect())
	}
	if len(words) > 0 {
		s.Anchor = words[len(words)-1].Rect()
	}
	return s
}
