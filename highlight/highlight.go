// Package highlight 定义高亮数据模型，并负责在重新渲染的正文上重新匹配高亮文本。
package highlight

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	ErrEmptyText    = errors.New("highlight: 高亮文本为空")
	ErrUnknownColor = errors.New("highlight: 未知的高亮颜色")
	ErrEmptyScope   = errors.New("highlight: 缺少作用域")
)

// Color 是固定枚举的高亮颜色。
type Color string

const (
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Red    Color = "red"
)

// Colors 按菜单展示顺序列出全部颜色。
var Colors = []Color{Yellow, Green, Blue, Red}

var palette = map[Color]string{
	Yellow: "#fbbf24",
	Green:  "#10b981",
	Blue:   "#3b82f6",
	Red:    "#ef4444",
}

// OverlayAlpha 是覆盖层填充的不透明度。
const OverlayAlpha = 0.6

// ParseColor 解析颜色名（大小写不敏感）。
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := palette[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	return c, nil
}

// Valid 判断 c 是否属于枚举。
func (c Color) Valid() bool {
	_, ok := palette[c]
	return ok
}

// Swatch 返回菜单按钮使用的实色。
func (c Color) Swatch() colorful.Color {
	hex, ok := palette[c]
	if !ok {
		hex = palette[Yellow]
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 0}
	}
	return col
}

// Over 返回以 OverlayAlpha 叠加在 background 上的颜色，用于不支持透明度的输出。
func (c Color) Over(background colorful.Color) colorful.Color {
	return background.BlendRgb(c.Swatch(), OverlayAlpha).Clamped()
}

// Draft 是尚未分配 id 与时间戳的高亮，由引擎生成后交给外部存储。
type Draft struct {
	Text  string   `json:"text"`
	Color Color    `json:"color"`
	Scope string   `json:"scope"`
	Note  string   `json:"note,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Validate 检查文本非空、颜色合法、作用域存在。
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return ErrEmptyText
	}
	if !d.Color.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownColor, string(d.Color))
	}
	if d.Scope == "" {
		return ErrEmptyScope
	}
	return nil
}

// Highlight 是持久化的高亮：只保存字面文本与作用域，不保存偏移。
type Highlight struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Color     Color     `json:"color"`
	Scope     string    `json:"scope"`
	Note      string    `json:"note,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft 返回去掉 id 与时间戳后的内容。
func (h Highlight) Draft() Draft {
	return Draft{Text: h.Text, Color: h.Color, Scope: h.Scope, Note: h.Note, Tags: h.Tags}
}

// Validate 与 Draft.Validate 相同。
func (h Highlight) Validate() error { return h.Draft().Validate() }

// Scoped 是只属于单个作用域的高亮集合。只能通过 ForScope 构造，
// 匹配与渲染接口只接受 Scoped，从结构上杜绝跨作用域渲染。
type Scoped struct {
	scope string
	items []Highlight
}

// ForScope 过滤出属于 scope 且有效的高亮，保持输入顺序。
func ForScope(all []Highlight, scope string) Scoped {
	s := Scoped{scope: scope}
	if scope == "" {
		return s
	}
	for _, h := range all {
		if h.Scope != scope || h.Validate() != nil {
			continue
		}
		s.items = append(s.items, h)
	}
	return s
}

func (s Scoped) Scope() string { return s.scope }
func (s Scoped) Len() int      { return len(s.items) }

// Items 返回副本，调用方修改不会影响集合。
func (s Scoped) Items() []Highlight {
	out := make([]Highlight, len(s.items))
	copy(out, s.items)
	return out
}

// ByID 按 id 查找高亮。
func (s Scoped) ByID(id string) (Highlight, bool) {
	for _, h := range s.items {
		if h.ID == id {
			return h, true
		}
	}
	return Highlight{}, false
}
