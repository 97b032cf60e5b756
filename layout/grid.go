package layout

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Layout 将正文拆成段落与词，逐词测量并按容器宽度折行。
// containerWidth <= 0 视为不限宽。超宽的词仍放在行首，不做断字。
func Layout(content string, containerWidth float64, opts Options) (*Result, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 TextMeasurer")
	}
	font := opts.Font
	if font.Size.IsZero() {
		font.Size = Px(16)
	}
	lineHeight := font.LineHeight.Resolve(font.Size)
	limit := containerWidth
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	spaceWidth, err := opts.Measurer.MeasureText(" ", font)
	if err != nil {
		return nil, fmt.Errorf("测量空格宽度失败: %w", err)
	}
	spaceWidth = math.Max(spaceWidth, opts.MinSpaceWidth)

	res := &Result{
		Width:      containerWidth,
		LineHeight: lineHeight,
		SpaceWidth: spaceWidth,
		Font:       font,
	}

	x, y := 0.0, 0.0
	lineIndex := 0
	for pi, paragraph := range splitParagraphs(content) {
		if pi > 0 {
			x = 0
			y += lineHeight + lineHeight*opts.ParagraphGap
			lineIndex++
		}
		for _, word := range strings.Fields(paragraph) {
			width, err := opts.Measurer.MeasureText(word, font)
			if err != nil {
				return nil, fmt.Errorf("测量词 %q 失败: %w", word, err)
			}
			if x+width > limit && x > 0 {
				x = 0
				y += lineHeight
				lineIndex++
			}
			if x == 0 && width > limit {
				res.Overflows++
			}
			res.Words = append(res.Words, WordBox{
				Text:      word,
				Index:     len(res.Words),
				X:         x,
				Y:         y,
				Width:     width,
				Height:    lineHeight,
				LineIndex: lineIndex,
				Paragraph: pi,
			})
			x += width + spaceWidth
		}
	}
	if len(res.Words) > 0 {
		res.Height = y + lineHeight
		res.Lines = lineIndex + 1
	}
	return res, nil
}

// splitParagraphs 按空行切分段落，丢弃只含空白的段落。
func splitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	parts := paragraphBreak.Split(content, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
