package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/folio/highlight"
)

// FlattenText 把正文的所有空白折叠为单个空格，与网格模式的扁平词文本一致。
func FlattenText(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// ExplainContext 在扁平正文中定位 selected 的第一次出现（空白宽松、大小写不敏感），
// 返回其前后各 radius 个字符的上下文。找不到时返回正文开头 2*radius 个字符。
func ExplainContext(flat, selected string, radius int) string {
	if radius < 0 {
		radius = 0
	}
	runes := []rune(flat)
	start, end, ok := highlight.Matcher{RelaxWhitespace: true}.Locate(flat, selected)
	if !ok {
		return strings.TrimSpace(string(runes[:min(len(runes), 2*radius)]))
	}
	rs := utf8.RuneCountInString(flat[:start])
	re := rs + utf8.RuneCountInString(flat[start:end])
	lo := max(0, rs-radius)
	hi := min(len(runes), re+radius)
	return strings.TrimSpace(string(runes[lo:hi]))
}
