package highlight

import (
	"fmt"
	"html"
	"strings"
)

// MarkerFunc 把一段命中的原文包裹成带颜色、带 id 的标记。
type MarkerFunc func(h Highlight, matched string) string

// HTMLMarker 输出 <mark class="highlight-<color>" data-highlight-id="<id>">。
func HTMLMarker(h Highlight, matched string) string {
	return fmt.Sprintf(`<mark class="highlight-%s" data-highlight-id="%s">%s</mark>`,
		h.Color, html.EscapeString(h.ID), matched)
}

// Rendered 是注入标记后的正文以及本次被接受的区间。
type Rendered struct {
	Text   string       `json:"text"`
	Ranges []MatchRange `json:"ranges"`
}

// Markup 按起点降序把接受的区间替换为标记，未命中部分与原文逐字节一致。
// 找不到文本的高亮本次不渲染，也不会被删除。
func (m Matcher) Markup(content string, set Scoped, marker MarkerFunc) Rendered {
	if marker == nil {
		marker = HTMLMarker
	}
	ranges := m.Match(content, set)
	out := content
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		out = out[:r.Start] + marker(r.Highlight, out[r.Start:r.End]) + out[r.End:]
	}
	return Rendered{Text: out, Ranges: ranges}
}

// Segment 是正文的一段，Highlight 为空表示普通文本。
type Segment struct {
	Text      string     `json:"text"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// Segments 把正文切成普通段与高亮段，拼接所有 Text 即得原文。
func (m Matcher) Segments(content string, set Scoped) []Segment {
	ranges := m.Match(content, set)
	segments := make([]Segment, 0, 2*len(ranges)+1)
	pos := 0
	for _, r := range ranges {
		if r.Start > pos {
			segments = append(segments, Segment{Text: content[pos:r.Start]})
		}
		h := r.Highlight
		segments = append(segments, Segment{Text: content[r.Start:r.End], Highlight: &h})
		pos = r.End
	}
	if pos < len(content) {
		segments = append(segments, Segment{Text: content[pos:]})
	}
	return segments
}

// Join 还原 Segments 对应的原文。
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
