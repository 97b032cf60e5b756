package highlight

import (
	"sort"
	"strings"

	"github.com/ByLCY/folio/layout"
)

// Overlay 是词网格模式下一条高亮在某一行上的矩形。跨行的高亮会拆成多个 Overlay。
type Overlay struct {
	Rect        layout.Rect `json:"rect"`
	Color       Color       `json:"color"`
	HighlightID string      `json:"highlightId"`
	LineIndex   int         `json:"lineIndex"`
}

// Flatten 以单个空格拼接词文本，并返回每个词在扁平文本中的起始偏移。
func Flatten(words []layout.WordBox) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(words))
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		starts[i] = b.Len()
		b.WriteString(w.Text)
	}
	return b.String(), starts
}

// Overlays 在扁平词文本上执行与 Markup 相同的匹配与去重，再把每个接受区间
// 映射到与之相交的词，按 LineIndex 分组后每行输出一个矩形。
func (m Matcher) Overlays(words []layout.WordBox, set Scoped) ([]Overlay, []MatchRange) {
	if len(words) == 0 || set.Len() == 0 {
		return nil, nil
	}
	flat, starts := Flatten(words)
	ranges := m.Match(flat, set)
	var overlays []Overlay
	for _, r := range ranges {
		first := sort.Search(len(words), func(i int) bool {
			return starts[i]+len(words[i].Text) > r.Start
		})
		var line []layout.WordBox
		flush := func() {
			if len(line) == 0 {
				return
			}
			head, tail := line[0], line[len(line)-1]
			overlays = append(overlays, Overlay{
				Rect: layout.Rect{
					X:      head.X,
					Y:      head.Y,
					Width:  tail.X + tail.Width - head.X,
					Height: head.Height,
				},
				Color:       r.Highlight.Color,
				HighlightID: r.Highlight.ID,
				LineIndex:   head.LineIndex,
			})
			line = line[:0]
		}
		for i := first; i < len(words) && starts[i] < r.End; i++ {
			if len(line) > 0 && line[0].LineIndex != words[i].LineIndex {
				flush()
			}
			line = append(line, words[i])
		}
		flush()
	}
	return overlays, ranges
}

// HighlightAt 返回覆盖命中点的高亮 id。
func HighlightAt(overlays []Overlay, p layout.Point) (string, bool) {
	for _, o := range overlays {
		if o.Rect.Contains(p, 0) {
			return o.HighlightID, true
		}
	}
	return "", false
}
