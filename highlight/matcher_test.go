package highlight

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func hl(id, text string, color Color, scope string) Highlight {
	return Highlight{ID: id, Text: text, Color: color, Scope: scope}
}

func TestMarkupWrapsExactSubstring(t *testing.T) {
	set := ForScope([]Highlight{hl("h1", "quick brown", Green, "ch1")}, "ch1")
	got := Matcher{}.Markup("The quick brown fox", set, nil)
	want := `The <mark class="highlight-green" data-highlight-id="h1">quick brown</mark> fox`
	if got.Text != want {
		t.Fatalf("标记结果不符:\n got=%s\nwant=%s", got.Text, want)
	}
	if len(got.Ranges) != 1 || got.Ranges[0].Start != 4 || got.Ranges[0].End != 15 {
		t.Fatalf("区间不符: %+v", got.Ranges)
	}
}

func TestOverlapFirstMatchWins(t *testing.T) {
	set := ForScope([]Highlight{
		hl("short", "quick", Yellow, "ch1"),
		hl("long", "quick brown", Green, "ch1"),
	}, "ch1")
	ranges := Matcher{}.Match("The quick brown fox", set)
	if len(ranges) != 1 {
		t.Fatalf("期望接受 1 个区间，实际 %+v", ranges)
	}
	if ranges[0].Highlight.ID != "long" {
		t.Fatalf("应保留更长的高亮，实际 %s", ranges[0].Highlight.ID)
	}
}

func TestOverlapLaterStartDropped(t *testing.T) {
	set := ForScope([]Highlight{
		hl("a", "quick brown", Yellow, "s"),
		hl("b", "brown fox", Blue, "s"),
		hl("c", "lazy", Red, "s"),
	}, "s")
	ranges := Matcher{}.Match("the quick brown fox jumps over the lazy dog", set)
	ids := []string{}
	for _, r := range ranges {
		ids = append(ids, r.Highlight.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Fatalf("接受的 id 不符: %v", ids)
	}
}

func TestAllOccurrencesCaseInsensitive(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "Fox", Red, "s")}, "s")
	ranges := Matcher{}.Match("fox FOX Fox foxes", set)
	if len(ranges) != 4 {
		t.Fatalf("期望 4 处命中，实际 %d", len(ranges))
	}
}

func TestRegexMetacharactersEscaped(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "a.b (c)*", Blue, "s")}, "s")
	ranges := Matcher{}.Match("axb cc a.b (c)* end", set)
	if len(ranges) != 1 || ranges[0].Start != 7 {
		t.Fatalf("元字符应按字面匹配: %+v", ranges)
	}
}

func TestRelaxWhitespace(t *testing.T) {
	set := ForScope([]Highlight{hl("h", "quick brown", Green, "s")}, "s")
	content := "The quick\n   brown fox"
	if got := (Matcher{}).Match(content, set); len(got) != 0 {
		t.Fatalf("严格匹配不应跨越换行: %+v", got)
	}
	got := Matcher{RelaxWhitespace: true}.Match(content, set)
	if len(got) != 1 || content[got[0].Start:got[0].End] != "quick\n   brown" {
		t.Fatalf("宽松匹配应跨越连续空白: %+v", got)
	}
}

func TestMissingTextRendersNothing(t *testing.T) {
	set := ForScope([]Highlight{hl("gone", "deleted sentence", Yellow, "s")}, "s")
	content := "The content was edited."
	got := Matcher{}.Markup(content, set, nil)
	if got.Text != content || len(got.Ranges) != 0 {
		t.Fatalf("找不到的高亮不应改变正文: %+v", got)
	}
	if set.Len() != 1 {
		t.Fatalf("找不到的高亮不应从集合中删除")
	}
}

func TestScopingNeverLeaks(t *testing.T) {
	all := []Highlight{
		hl("a1", "fox", Red, "A"),
		hl("b1", "dog", Blue, "B"),
	}
	got := Matcher{}.Markup("the fox and the dog", ForScope(all, "B"), nil)
	if strings.Contains(got.Text, `data-highlight-id="a1"`) {
		t.Fatalf("作用域 A 的高亮泄漏到作用域 B: %s", got.Text)
	}
	if !strings.Contains(got.Text, `data-highlight-id="b1"`) {
		t.Fatalf("缺少作用域 B 的高亮: %s", got.Text)
	}
	if ForScope(all, "").Len() != 0 {
		t.Fatalf("空作用域不应选中任何高亮")
	}
}

func TestForScopeDropsInvalid(t *testing.T) {
	all := []Highlight{
		hl("ok", "fox", Red, "A"),
		hl("blank", "   ", Red, "A"),
		hl("purple", "fox", Color("purple"), "A"),
	}
	set := ForScope(all, "A")
	if set.Len() != 1 {
		t.Fatalf("应只保留有效高亮，实际 %d", set.Len())
	}
	if _, ok := set.ByID("ok"); !ok {
		t.Fatalf("缺少有效高亮")
	}
}

func TestIdempotent(t *testing.T) {
	set := ForScope([]Highlight{
		hl("1", "brown", Yellow, "s"),
		hl("2", "the", Green, "s"),
		hl("3", "o", Blue, "s"),
	}, "s")
	content := "The quick brown fox jumps over the lazy dog. The end."
	m := Matcher{RelaxWhitespace: true}
	a := m.Markup(content, set, nil)
	b := m.Markup(content, set, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("重复渲染结果应一致")
	}
}

func TestSegmentsPreserveText(t *testing.T) {
	set := ForScope([]Highlight{hl("1", "brown", Yellow, "s"), hl("2", "dog", Red, "s")}, "s")
	content := "The quick brown fox jumps over the lazy dog"
	segs := Matcher{}.Segments(content, set)
	if Join(segs) != content {
		t.Fatalf("分段应拼回原文")
	}
	marked := 0
	for _, s := range segs {
		if s.Highlight != nil {
			marked++
		}
	}
	if marked != 2 {
		t.Fatalf("期望 2 个高亮分段，实际 %d", marked)
	}
}

// TestPropertiesRandomized 对随机正文与随机子串验证：不重叠、往返可匹配、未命中部分不被改写。
func TestPropertiesRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := []string{"alpha", "beta", "gamma", "delta", "Alpha", "eps", "zeta", "beta-gamma", "(x)"}
	for iter := 0; iter < 200; iter++ {
		words := make([]string, 5+rng.Intn(30))
		for i := range words {
			words[i] = vocab[rng.Intn(len(vocab))]
		}
		content := strings.Join(words, " ")

		var hs []Highlight
		for k := 0; k < 1+rng.Intn(5); k++ {
			i := rng.Intn(len(words))
			j := i + rng.Intn(3)
			if j >= len(words) {
				j = len(words) - 1
			}
			text := strings.Join(words[i:j+1], " ")
			hs = append(hs, hl(string(rune('a'+k)), text, Colors[k%len(Colors)], "s"))
		}
		set := ForScope(hs, "s")
		m := Matcher{}

		ranges := m.Match(content, set)
		for i := range ranges {
			for j := i + 1; j < len(ranges); j++ {
				if ranges[i].Overlaps(ranges[j]) {
					t.Fatalf("区间重叠: %+v %+v", ranges[i], ranges[j])
				}
			}
		}

		// 单独匹配每条高亮时一定至少命中一次
		for _, h := range hs {
			found := false
			for _, r := range m.Match(content, ForScope([]Highlight{h}, "s")) {
				if strings.EqualFold(content[r.Start:r.End], h.Text) {
					found = true
				}
			}
			if !found {
				t.Fatalf("%q 在 %q 中往返失败", h.Text, content)
			}
		}

		marked := m.Markup(content, set, func(h Highlight, s string) string { return "\x00" + s + "\x01" })
		stripped := strings.NewReplacer("\x00", "", "\x01", "").Replace(marked.Text)
		if stripped != content {
			t.Fatalf("标记破坏了原文:\n%q\n%q", stripped, content)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Green ")
	if err != nil || c != Green {
		t.Fatalf("颜色解析不符: %v %v", c, err)
	}
	if _, err := ParseColor("purple"); !errors.Is(err, ErrUnknownColor) {
		t.Fatalf("期望 ErrUnknownColor，实际 %v", err)
	}
	if hex := Green.Swatch().Hex(); hex != "#10b981" {
		t.Fatalf("色板不符: %s", hex)
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{Text: " ", Color: Red, Scope: "s"}).Validate(); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("期望 ErrEmptyText，实际 %v", err)
	}
	if err := (Draft{Text: "x", Color: Red}).Validate(); !errors.Is(err, ErrEmptyScope) {
		t.Fatalf("期望 ErrEmptyScope，实际 %v", err)
	}
	if err := (Draft{Text: "x", Color: Red, Scope: "s"}).Validate(); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}
