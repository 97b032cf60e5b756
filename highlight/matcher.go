package highlight

import (
	"regexp"
	"sort"
	"strings"
)

// MatchRange 是某条高亮在当前正文中的一次出现（字节偏移，左闭右开），每次渲染重新计算。
type MatchRange struct {
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Highlight Highlight `json:"highlight"`

	order int
}

// Overlaps 判断两个区间是否有公共字符。
func (r MatchRange) Overlaps(o MatchRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Matcher 在正文中查找高亮文本的全部出现。匹配不区分大小写；
// RelaxWhitespace 打开时，高亮内部的任意空白可以匹配一个或多个空白字符。
type Matcher struct {
	RelaxWhitespace bool
}

// Pattern 返回 text 对应的正则，text 为空时返回 nil。
func (m Matcher) Pattern(text string) *regexp.Regexp {
	var expr string
	if m.RelaxWhitespace {
		fields := strings.Fields(text)
		if len(fields) == 0 {
			return nil
		}
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		expr = strings.Join(fields, `\s+`)
	} else {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		expr = regexp.QuoteMeta(text)
	}
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		// QuoteMeta 的输出总能编译
		return nil
	}
	return re
}

// Find 收集集合内每条高亮的全部出现，按起点升序排列；起点相同时较长者在前，再按集合顺序。
// 结果可能互相重叠，需经 Resolve 处理后才能渲染。
func (m Matcher) Find(content string, set Scoped) []MatchRange {
	if content == "" || set.Len() == 0 {
		return nil
	}
	var ranges []MatchRange
	for i, h := range set.items {
		re := m.Pattern(h.Text)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(content, -1) {
			if loc[0] == loc[1] {
				continue
			}
			ranges = append(ranges, MatchRange{Start: loc[0], End: loc[1], Highlight: h, order: i})
		}
	}
	sortRanges(ranges)
	return ranges
}

// Resolve 按起点升序做先到先得：与任何已接受区间重叠的区间被丢弃。
func Resolve(ranges []MatchRange) []MatchRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]MatchRange, len(ranges))
	copy(sorted, ranges)
	sortRanges(sorted)

	accepted := make([]MatchRange, 0, len(sorted))
	end := 0
	for _, r := range sorted {
		if r.Start < end {
			continue
		}
		accepted = append(accepted, r)
		end = r.End
	}
	return accepted
}

// Match 等价于 Resolve(Find(content, set))。
func (m Matcher) Match(content string, set Scoped) []MatchRange {
	return Resolve(m.Find(content, set))
}

// Locate 返回 text 在 content 中第一次出现的位置，未找到时 ok 为 false。
func (m Matcher) Locate(content, text string) (start, end int, ok bool) {
	re := m.Pattern(text)
	if re == nil {
		return 0, 0, false
	}
	loc := re.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

func sortRanges(ranges []MatchRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		a, b := ranges[i], ranges[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if la, lb := a.End-a.Start, b.End-b.Start; la != lb {
			return la > lb
		}
		return a.order < b.order
	})
}
