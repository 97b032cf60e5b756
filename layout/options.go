package layout

// Font 描述测量与绘制所需的字体信息。
type Font struct {
	Family     string         `json:"family"`
	Src        string         `json:"src,omitempty"` // 文件路径或 system:<name>
	Style      string         `json:"style,omitempty"`
	Size       Length         `json:"size"`
	LineHeight LineHeightSpec `json:"lineHeight"`
}

// Options 配置布局阶段所需的依赖，例如测量后端。
type Options struct {
	Measurer TextMeasurer
	Font     Font
	// ParagraphGap 是段落之间额外插入的间距，以行高的倍数表示。
	ParagraphGap float64
	// MinSpaceWidth 是空格宽度下限（px），防止某些字体测出 0 宽空格。
	MinSpaceWidth float64
}

// DefaultOptions 返回与阅读器默认样式一致的配置（16px，1.6 倍行高）。
func DefaultOptions(m TextMeasurer) Options {
	return Options{
		Measurer: m,
		Font: Font{
			Family:     "Body",
			Size:       Px(16),
			LineHeight: LineHeightSpec{Kind: LineHeightFactor, Factor: 1.6},
		},
		ParagraphGap:  0.8,
		MinSpaceWidth: 4,
	}
}

// TextMeasurer 负责测量给定字体下一段文本的渲染宽度（px）。
type TextMeasurer interface {
	MeasureText(text string, font Font) (float64, error)
}

// MeasureFunc 让普通函数满足 TextMeasurer。
type MeasureFunc func(text string, font Font) (float64, error)

func (f MeasureFunc) MeasureText(text string, font Font) (float64, error) { return f(text, font) }
