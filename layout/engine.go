package layout

import "github.com/zeebo/blake3"

// Engine 缓存最近一次布局结果。内容摘要或容器宽度变化时整体重排，不做增量布局。
type Engine struct {
	opts   Options
	digest [32]byte
	width  float64
	result *Result
	passes int
}

// NewEngine 使用给定配置创建布局引擎。
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Update 在内容或宽度变化时重新布局，返回当前结果以及是否发生了重排。
func (e *Engine) Update(content string, containerWidth float64) (*Result, bool, error) {
	digest := blake3.Sum256([]byte(content))
	if e.result != nil && digest == e.digest && containerWidth == e.width {
		return e.result, false, nil
	}
	res, err := Layout(content, containerWidth, e.opts)
	if err != nil {
		return nil, false, err
	}
	e.digest = digest
	e.width = containerWidth
	e.result = res
	e.passes++
	return res, true, nil
}

// Result 返回最近一次布局结果，尚未布局时为 nil。
func (e *Engine) Result() *Result { return e.result }

// Passes 返回实际执行过的布局次数。
func (e *Engine) Passes() int { return e.passes }

// Invalidate 丢弃缓存，下次 Update 必定重排（例如字体加载完成后）。
func (e *Engine) Invalidate() {
	e.result = nil
}
