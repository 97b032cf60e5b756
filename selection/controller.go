// Package selection 把指针/触摸事件转换为一次确定的文本选区。
//
// 控制器是一个状态机：Idle → Pressing → Dragging → Committed → Idle。
// 选区来源由 Mode 决定：NativeMode 读取平台原生选区，GridMode 在词网格上做命中测试。
// 两个防抖（原生选区读取延迟、网格单击延迟）都通过 Scheduler 安排，可随时取消。
package selection

import (
	"errors"
	"math"
	"time"

	"github.com/ByLCY/folio/layout"
)

// ErrSelectionRejected 表示选区为空、已折叠或不在标注容器内。调用方静默忽略即可。
var ErrSelectionRejected = errors.New("selection: 选区无效")

// State 是手势状态。
type State int

const (
	Idle State = iota
	Pressing
	Dragging
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressing:
		return "pressing"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// PointerKind 区分鼠标与触摸，两者的延迟与拖动语义不同。
type PointerKind int

const (
	Mouse PointerKind = iota
	Touch
)

// Pointer 是一次指针事件，坐标与布局容器同一坐标系（px）。
type Pointer struct {
	Kind PointerKind
	Pos  layout.Point
}

// Span 是一次提交的选区，只在提交到菜单动作或关闭之间存在。
type Span struct {
	Text string `json:"text"`
	// Anchor 是选区末端的矩形，菜单据此定位。
	Anchor layout.Rect `json:"anchor"`
	// Bounds 是整个选区的包围盒。
	Bounds layout.Rect `json:"bounds"`
	// Range 是原生模式下克隆的平台选区，网格模式为 nil。
	Range Range `json:"-"`
	// StartWord/EndWord 是网格模式下的词下标（闭区间），原生模式为 -1。
	StartWord int `json:"startWord"`
	EndWord   int `json:"endWord"`
}

// Config 控制防抖时长与移动阈值。
type Config struct {
	MouseReadDelay  time.Duration
	TouchReadDelay  time.Duration
	TapDelay        time.Duration
	DoubleTapWindow time.Duration
	MoveThreshold   float64
	TouchSlop       float64
}

// DefaultConfig 返回经验值：鼠标 50ms、触摸 200ms 读取延迟，100ms 单击判定，8px 移动阈值。
func DefaultConfig() Config {
	return Config{
		MouseReadDelay:  50 * time.Millisecond,
		TouchReadDelay:  200 * time.Millisecond,
		TapDelay:        100 * time.Millisecond,
		DoubleTapWindow: 500 * time.Millisecond,
		MoveThreshold:   8,
		TouchSlop:       5,
	}
}

// Mode 是选区来源策略。
type Mode interface {
	// press 返回 false 表示这次按下不开始手势（例如没有命中任何词）。
	press(c *Controller, p Pointer) bool
	// beginDrag 在首次超过移动阈值时调用，返回 false 表示按滚动处理并取消手势。
	beginDrag(c *Controller, p Pointer) bool
	drag(c *Controller, p Pointer)
	release(c *Controller, p Pointer)
	reset()
}

// Controller 持有手势状态与唯一的待执行定时器。
type Controller struct {
	cfg   Config
	sched Scheduler
	mode  Mode

	state    State
	pending  Timer
	origin   layout.Point
	kind     PointerKind
	moved    bool
	released bool
	span     *Span

	onCommit func(Span)
	onChange func(text string, r Range)
}

// NewController 使用给定策略与调度器创建控制器。
func NewController(mode Mode, sched Scheduler, cfg Config) *Controller {
	return &Controller{cfg: cfg, sched: sched, mode: mode}
}

// OnCommit 注册提交回调。
func (c *Controller) OnCommit(f func(Span)) { c.onCommit = f }

// OnChange 注册选区变化观察者：提交时携带文本与原生选区，回到 Idle 时为 ("", nil)。
func (c *Controller) OnChange(f func(text string, r Range)) { c.onChange = f }

func (c *Controller) State() State   { return c.state }
func (c *Controller) Mode() Mode     { return c.mode }
func (c *Controller) Config() Config { return c.cfg }

// Span 返回已提交的选区。
func (c *Controller) Span() (Span, bool) {
	if c.state != Committed || c.span == nil {
		return Span{}, false
	}
	return *c.span, true
}

// Press 开始新手势，并取消上一手势遗留的定时器。
func (c *Controller) Press(p Pointer) {
	c.cancelPending()
	if c.state != Idle {
		c.toIdle()
	}
	if !c.mode.press(c, p) {
		return
	}
	c.state = Pressing
	c.origin = p.Pos
	c.kind = p.Kind
	c.moved = false
	c.released = false
}

// Move 处理按下后的移动。
func (c *Controller) Move(p Pointer) {
	if c.released || (c.state != Pressing && c.state != Dragging) {
		return
	}
	if !c.moved {
		if distance(p.Pos, c.origin) <= c.cfg.MoveThreshold {
			return
		}
		c.moved = true
		if !c.mode.beginDrag(c, p) {
			c.toIdle()
			return
		}
		c.state = Dragging
	}
	c.mode.drag(c, p)
}

// Release 结束手势；是否提交由策略决定，可能是延迟提交。
func (c *Controller) Release(p Pointer) {
	if c.released || (c.state != Pressing && c.state != Dragging) {
		return
	}
	c.released = true
	c.mode.release(c, p)
}

// Reset 回到 Idle 并取消待执行的定时器。菜单动作完成或外部点击时调用。
func (c *Controller) Reset() {
	c.cancelPending()
	c.toIdle()
}

// Dismiss 关闭当前选区（菜单被关闭而没有执行动作）。
func (c *Controller) Dismiss() {
	if c.state == Idle && c.pending == nil {
		return
	}
	c.Reset()
}

// Moved 报告当前手势是否超过过移动阈值。
func (c *Controller) Moved() bool { return c.moved }

// Kind 返回当前手势的指针类型。
func (c *Controller) Kind() PointerKind { return c.kind }

func (c *Controller) schedule(d time.Duration, f func()) {
	c.cancelPending()
	var t Timer
	t = c.sched.AfterFunc(d, func() {
		if c.pending == t {
			c.pending = nil
		}
		f()
	})
	c.pending = t
}

func (c *Controller) cancelPending() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) commit(span Span) {
	c.state = Committed
	c.span = &span
	c.notify(span.Text, span.Range)
	if c.onCommit != nil {
		c.onCommit(span)
	}
}

func (c *Controller) toIdle() {
	was := c.state
	c.state = Idle
	c.span = nil
	c.moved = false
	c.released = false
	c.mode.reset()
	if was != Idle {
		c.notify("", nil)
	}
}

func (c *Controller) notify(text string, r Range) {
	if c.onChange != nil {
		c.onChange(text, r)
	}
}

func distance(a, b layout.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
