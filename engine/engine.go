// Package engine 把选区控制器、菜单定位与高亮匹配串成一个标注引擎。
//
// 引擎是单线程的：所有方法都应在同一个事件循环中调用，延迟任务通过
// selection.Scheduler 回到同一个循环执行。持久化与解释由外部协作者完成。
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/ByLCY/folio/highlight"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/menu"
	"github.com/ByLCY/folio/selection"
)

var (
	ErrNoSelection        = errors.New("engine: 当前没有选区")
	ErrExplainUnavailable = errors.New("engine: 未配置解释服务")
)

// Mode 选择选区来源。
type Mode int

const (
	ModeNative Mode = iota
	ModeGrid
)

func (m Mode) String() string {
	if m == ModeGrid {
		return "grid"
	}
	return "native"
}

// ParseMode 解析 "native" 或 "grid"。
func ParseMode(s string) (Mode, error) {
	switch s {
	case "native", "":
		return ModeNative, nil
	case "grid":
		return ModeGrid, nil
	default:
		return ModeNative, fmt.Errorf("engine: 未知的选区模式 %q", s)
	}
}

// Store 是高亮持久化的外部协作者，负责分配 id 与创建时间。
type Store interface {
	AddHighlight(d highlight.Draft) error
	RemoveHighlight(id string) error
}

// Explainer 接收选中文本与上下文，具体调用由外部完成。
type Explainer interface {
	Explain(selected, context string) error
}

// SelectionObserver 在选区变化时收到文本与原生选区，回到空闲时为 ("", nil)。
type SelectionObserver func(text string, r selection.Range)

// Sinks 汇总引擎的外部出口。Explainer 与 OnSelectionChange 可为空。
type Sinks struct {
	Store             Store
	Explainer         Explainer
	OnSelectionChange SelectionObserver
}

// Config 是引擎配置。
type Config struct {
	Mode      Mode
	Scope     string
	Layout    layout.Options
	Selection selection.Config
	Menu      menu.Positioner
	MenuSize  layout.Size
	// ResizeDebounce 是容器尺寸变化后重新布局前的等待时间。
	ResizeDebounce time.Duration
	// ContextRadius 是解释时选区前后各取的字符数。
	ContextRadius   int
	RelaxWhitespace bool
}

// DefaultConfig 返回原生选区模式的默认配置。网格模式需要提供测量后端。
func DefaultConfig(m layout.TextMeasurer) Config {
	return Config{
		Mode:           ModeNative,
		Layout:         layout.DefaultOptions(m),
		Selection:      selection.DefaultConfig(),
		Menu:           menu.DefaultPositioner(),
		MenuSize:       layout.Size{Width: 300, Height: 60},
		ResizeDebounce: 100 * time.Millisecond,
		ContextRadius:  100,
	}
}

// Target 表示指针按下时命中的区域。
type Target int

const (
	TargetContainer Target = iota
	TargetMenu
	TargetOutside
)

// PointerEvent 是路由到引擎的指针事件。网格模式下坐标相对于标注容器。
type PointerEvent struct {
	selection.Pointer
	Target Target
}

// MenuState 描述浮动菜单的当前状态。
type MenuState struct {
	Visible        bool              `json:"visible"`
	Position       menu.Position     `json:"position"`
	Span           selection.Span    `json:"span"`
	Colors         []highlight.Color `json:"colors"`
	ExplainEnabled bool              `json:"explainEnabled"`
}

// View 是一次渲染的全部输出。网格模式下 Markup、Segments 与 Ranges 都以扁平词文本为基准，否则以原文为基准。
type View struct {
	Markup   string                 `json:"markup"`
	Segments []highlight.Segment    `json:"segments"`
	Ranges   []highlight.MatchRange `json:"ranges"`
	Words    []layout.WordBox       `json:"words,omitempty"`
	Overlays []highlight.Overlay    `json:"overlays,omitempty"`
	Height   float64                `json:"height,omitempty"`
}

// Engine 是标注引擎。
type Engine struct {
	cfg    Config
	sinks  Sinks
	sched  selection.Scheduler
	native selection.NativeSelection

	ctrl    *selection.Controller
	grid    *selection.GridMode
	layout  *layout.Engine
	matcher highlight.Matcher

	content string
	all     []highlight.Highlight
	scoped  highlight.Scoped

	width    float64
	viewport layout.Size
	scroll   layout.Point
	origin   layout.Point

	menu        MenuState
	resizeTimer selection.Timer
	lastErr     error
}

// New 创建引擎。原生模式需要 native 选区提供者，网格模式需要 Config.Layout.Measurer。
func New(cfg Config, sinks Sinks, sched selection.Scheduler, native selection.NativeSelection) (*Engine, error) {
	if sinks.Store == nil {
		return nil, fmt.Errorf("engine: 缺少高亮存储 Store")
	}
	if sched == nil {
		return nil, fmt.Errorf("engine: 缺少调度器 Scheduler")
	}
	if cfg.ResizeDebounce <= 0 {
		cfg.ResizeDebounce = 100 * time.Millisecond
	}
	if cfg.ContextRadius <= 0 {
		cfg.ContextRadius = 100
	}
	if cfg.Menu == (menu.Positioner{}) {
		cfg.Menu = menu.DefaultPositioner()
	}
	if cfg.Selection == (selection.Config{}) {
		cfg.Selection = selection.DefaultConfig()
	}

	e := &Engine{
		cfg:     cfg,
		sinks:   sinks,
		sched:   sched,
		native:  native,
		matcher: highlight.Matcher{RelaxWhitespace: cfg.RelaxWhitespace},
		scoped:  highlight.ForScope(nil, cfg.Scope),
	}

	var mode selection.Mode
	switch cfg.Mode {
	case ModeNative:
		if native == nil {
			return nil, fmt.Errorf("engine: 原生模式缺少 NativeSelection")
		}
		mode = selection.NewNativeMode(native)
	case ModeGrid:
		if cfg.Layout.Measurer == nil {
			return nil, fmt.Errorf("engine: 网格模式缺少测量后端 TextMeasurer")
		}
		e.layout = layout.NewEngine(cfg.Layout)
		e.grid = selection.NewGridMode(nil)
		mode = e.grid
	default:
		return nil, fmt.Errorf("engine: 未知的选区模式 %d", cfg.Mode)
	}

	e.ctrl = selection.NewController(mode, sched, cfg.Selection)
	e.ctrl.OnCommit(e.showMenu)
	e.ctrl.OnChange(func(text string, r selection.Range) {
		if e.sinks.OnSelectionChange != nil {
			e.sinks.OnSelectionChange(text, r)
		}
	})
	return e, nil
}

// Controller 返回内部的选区控制器。
func (e *Engine) Controller() *selection.Controller { return e.ctrl }

// Config 返回生效的配置。
func (e *Engine) Config() Config { return e.cfg }

// Err 返回最近一次延迟重排的错误。
func (e *Engine) Err() error { return e.lastErr }

// SetContent 替换正文。网格模式下立即按当前宽度重新布局，当前选区作废。
func (e *Engine) SetContent(content string) error {
	e.content = content
	e.discardSelection()
	if e.cfg.Mode == ModeGrid {
		return e.relayout()
	}
	return nil
}

// Content 返回当前正文。
func (e *Engine) Content() string { return e.content }

// SetHighlights 替换外部高亮列表，只保留当前作用域内的有效高亮。
func (e *Engine) SetHighlights(all []highlight.Highlight) {
	e.all = append([]highlight.Highlight(nil), all...)
	e.scoped = highlight.ForScope(e.all, e.cfg.Scope)
}

// SetScope 切换作用域（例如切换章节），当前选区作废。
func (e *Engine) SetScope(scope string) {
	e.cfg.Scope = scope
	e.scoped = highlight.ForScope(e.all, scope)
	e.discardSelection()
}

// Scoped 返回当前作用域内的高亮集合。
func (e *Engine) Scoped() highlight.Scoped { return e.scoped }

// SetViewport 更新视口尺寸、滚动偏移以及标注容器在视口中的位置。
func (e *Engine) SetViewport(viewport layout.Size, scroll, containerOrigin layout.Point) {
	e.viewport = viewport
	e.scroll = scroll
	e.origin = containerOrigin
}

// Resize 记录新的容器宽度。网格模式下在 ResizeDebounce 之后重新布局，期间的多次调用只生效最后一次。
func (e *Engine) Resize(width float64) {
	e.width = width
	if e.cfg.Mode != ModeGrid {
		return
	}
	if e.resizeTimer != nil {
		e.resizeTimer.Stop()
	}
	e.resizeTimer = e.sched.AfterFunc(e.cfg.ResizeDebounce, func() {
		e.resizeTimer = nil
		e.lastErr = e.relayout()
	})
}

// ResizeNow 立即按新宽度重新布局，并取消尚未执行的防抖重排。用于首次布局与批处理。
func (e *Engine) ResizeNow(width float64) error {
	if e.resizeTimer != nil {
		e.resizeTimer.Stop()
		e.resizeTimer = nil
	}
	e.width = width
	if e.cfg.Mode != ModeGrid {
		return nil
	}
	return e.relayout()
}

func (e *Engine) relayout() error {
	res, changed, err := e.layout.Update(e.content, e.width)
	if err != nil {
		return fmt.Errorf("重新布局失败: %w", err)
	}
	if changed {
		e.grid.SetLayout(res)
		e.discardSelection()
	}
	return nil
}

// Layout 返回网格模式的当前布局，原生模式为 nil。
func (e *Engine) Layout() *layout.Result {
	if e.layout == nil {
		return nil
	}
	return e.layout.Result()
}

// PointerDown 路由按下事件：菜单内忽略；菜单与容器之外关闭菜单但保留平台选区；容器内开始新手势。
func (e *Engine) PointerDown(ev PointerEvent) {
	switch ev.Target {
	case TargetMenu:
		return
	case TargetOutside:
		e.hideMenu()
		e.ctrl.Dismiss()
	default:
		e.hideMenu()
		e.ctrl.Press(ev.Pointer)
	}
}

func (e *Engine) PointerMove(ev PointerEvent) {
	if ev.Target == TargetMenu {
		return
	}
	e.ctrl.Move(ev.Pointer)
}

func (e *Engine) PointerUp(ev PointerEvent) {
	if ev.Target == TargetMenu {
		return
	}
	e.ctrl.Release(ev.Pointer)
}

// Menu 返回菜单状态。
func (e *Engine) Menu() MenuState {
	m := e.menu
	m.Colors = append([]highlight.Color(nil), highlight.Colors...)
	m.ExplainEnabled = e.sinks.Explainer != nil
	return m
}

func (e *Engine) showMenu(span selection.Span) {
	anchor := span.Anchor
	if e.cfg.Mode == ModeGrid {
		anchor = anchor.Offset(e.origin.X, e.origin.Y)
	}
	e.menu = MenuState{
		Visible:  true,
		Position: e.cfg.Menu.Position(anchor, e.viewport, e.scroll, e.cfg.MenuSize),
		Span:     span,
	}
}

func (e *Engine) hideMenu() {
	e.menu = MenuState{}
}

func (e *Engine) discardSelection() {
	e.hideMenu()
	e.ctrl.Reset()
}

// Apply 用给定颜色把当前选区保存为高亮：交给 Store，随后关闭菜单并清除平台选区。
func (e *Engine) Apply(color highlight.Color) error {
	span, ok := e.ctrl.Span()
	if !ok {
		return ErrNoSelection
	}
	draft := highlight.Draft{Text: span.Text, Color: color, Scope: e.cfg.Scope}
	if err := draft.Validate(); err != nil {
		return err
	}
	if err := e.sinks.Store.AddHighlight(draft); err != nil {
		return fmt.Errorf("保存高亮失败: %w", err)
	}
	e.hideMenu()
	if e.native != nil && e.cfg.Mode == ModeNative {
		e.native.Clear()
	}
	e.ctrl.Reset()
	return nil
}

// Explain 把选中文本及其上下文交给 Explainer，随后关闭菜单。
func (e *Engine) Explain() error {
	if e.sinks.Explainer == nil {
		return ErrExplainUnavailable
	}
	span, ok := e.ctrl.Span()
	if !ok {
		return ErrNoSelection
	}
	if err := e.sinks.Explainer.Explain(span.Text, e.ContextFor(span.Text)); err != nil {
		return fmt.Errorf("请求解释失败: %w", err)
	}
	e.hideMenu()
	e.ctrl.Reset()
	return nil
}

// ContextFor 返回 selected 在扁平正文中的上下文。
func (e *Engine) ContextFor(selected string) string {
	flat := FlattenText(e.content)
	if res := e.Layout(); res != nil {
		flat = res.Text()
	}
	return ExplainContext(flat, selected, e.cfg.ContextRadius)
}

// Remove 通过 Store 删除高亮。
func (e *Engine) Remove(id string) error {
	if err := e.sinks.Store.RemoveHighlight(id); err != nil {
		return fmt.Errorf("删除高亮失败: %w", err)
	}
	return nil
}

// HighlightAt 返回网格模式下覆盖容器坐标 p 的高亮。
func (e *Engine) HighlightAt(p layout.Point) (highlight.Highlight, bool) {
	res := e.Layout()
	if res == nil {
		return highlight.Highlight{}, false
	}
	overlays, _ := e.matcher.Overlays(res.Words, e.scoped)
	id, ok := highlight.HighlightAt(overlays, p)
	if !ok {
		return highlight.Highlight{}, false
	}
	return e.scoped.ByID(id)
}

// Render 对当前正文与作用域内高亮做一次完整的重新匹配。相同输入得到相同输出。
// 网格模式下标记与分段基于扁平词文本，与选区文本及覆盖层使用同一套偏移。
func (e *Engine) Render() View {
	text := e.content
	res := e.Layout()
	if res != nil {
		text = res.Text()
	}
	rendered := e.matcher.Markup(text, e.scoped, nil)
	v := View{
		Markup:   rendered.Text,
		Segments: e.matcher.Segments(text, e.scoped),
		Ranges:   rendered.Ranges,
	}
	if res != nil {
		v.Words = res.Words
		v.Height = res.Height
		v.Overlays, _ = e.matcher.Overlays(res.Words, e.scoped)
	}
	return v
}
