package highlight

import (
	"testing"

	"github.com/ByLCY/folio/layout"
)

// gridWords 构造两行词：第 0 行 "The quick brown"，第 1 行 "fox jumps"。
func gridWords() []layout.WordBox {
	mk := func(i int, text string, x, y float64, line int) layout.WordBox {
		return layout.WordBox{Text: text, Index: i, X: x, Y: y, Width: float64(len(text)) * 10, Height: 20, LineIndex: line}
	}
	return []layout.WordBox{
		mk(0, "The", 0, 0, 0),
		mk(1, "quick", 35, 0, 0),
		mk(2, "brown", 90, 0, 0),
		mk(3, "fox", 0, 20, 1),
		mk(4, "jumps", 35, 20, 1),
	}
}

func TestOverlaysSplitAcrossWrap(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "brown fox", Blue, "s")}, "s")
	overlays, ranges := Matcher{}.Overlays(gridWords(), set)
	if len(ranges) != 1 {
		t.Fatalf("期望 1 个区间，实际 %d", len(ranges))
	}
	if len(overlays) != 2 {
		t.Fatalf("每行应有一个矩形，实际 %+v", overlays)
	}
	if overlays[0].LineIndex != 0 || overlays[0].Rect.X != 90 || overlays[0].Rect.Width != 50 {
		t.Fatalf("第一个矩形不符: %+v", overlays[0])
	}
	if overlays[1].LineIndex != 1 || overlays[1].Rect.X != 0 || overlays[1].Rect.Width != 30 || overlays[1].Rect.Y != 20 {
		t.Fatalf("第二个矩形不符: %+v", overlays[1])
	}
	for _, o := range overlays {
		if o.HighlightID != "h" || o.Color != Blue {
			t.Fatalf("覆盖层缺少所属高亮: %+v", o)
		}
	}
}

func TestOverlaysSingleLineSpan(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "quick brown", Green, "s")}, "s")
	overlays, _ := Matcher{}.Overlays(gridWords(), set)
	if len(overlays) != 1 {
		t.Fatalf("期望单个矩形，实际 %+v", overlays)
	}
	if r := overlays[0].Rect; r.X != 35 || r.Width != 105 {
		t.Fatalf("矩形应覆盖 quick..brown: %+v", r)
	}
}

func TestOverlaysPartialWordCoversWholeWord(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "ump", Red, "s")}, "s")
	overlays, _ := Matcher{}.Overlays(gridWords(), set)
	if len(overlays) != 1 || overlays[0].Rect.X != 35 || overlays[0].Rect.Width != 50 {
		t.Fatalf("部分命中应覆盖所在的整个词: %+v", overlays)
	}
}

func TestOverlaysRespectScope(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "fox", Red, "other")}, "s")
	if overlays, _ := (Matcher{}).Overlays(gridWords(), set); len(overlays) != 0 {
		t.Fatalf("作用域外的高亮不应渲染: %+v", overlays)
	}
}

func TestHighlightAt(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "brown fox", Blue, "s")}, "s")
	overlays, _ := Matcher{}.Overlays(gridWords(), set)
	if id, ok := HighlightAt(overlays, layout.Point{X: 10, Y: 30}); !ok || id != "h" {
		t.Fatalf("期望命中折行后的片段，实际 %q %v", id, ok)
	}
	if _, ok := HighlightAt(overlays, layout.Point{X: 10, Y: 5}); ok {
		t.Fatalf("普通词不应命中高亮")
	}
}

func TestFlatten(t *testing.T) {
	flat, starts := Flatten(gridWords())
	if flat != "The quick brown fox jumps" {
		t.Fatalf("扁平文本不符: %q", flat)
	}
	if starts[3] != 16 {
		t.Fatalf("fox 的偏移不符: %d", starts[3])
	}
}
