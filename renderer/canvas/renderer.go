package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/highlight"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
)

// Renderer measures and draws word grids via github.com/tdewolff/canvas.
// 对外的所有尺寸均为 px，与 canvas 交互时换算为 mm（坐标）与 pt（字号）。
type Renderer struct {
	baseDir   string
	fontBlobs map[string][]byte
	textColor color.Color

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.TextMeasurer = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// Fonts 注入的字体数据，可通过 builtin:<name> 引用。
	Fonts map[string][]byte
	// TextColor 为十六进制颜色，默认 #1e1e1e。
	TextColor string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
		textColor:    canvas.Hex("#1e1e1e"),
	}
	if opts.TextColor != "" {
		r.textColor = canvas.Hex(opts.TextColor)
	}
	for name, data := range opts.Fonts {
		if name != "" && len(data) > 0 {
			r.fontBlobs[name] = data
		}
	}
	return r
}

// MeasureText 实现 layout.TextMeasurer，返回 px 宽度。
func (r *Renderer) MeasureText(text string, font layout.Font) (float64, error) {
	face, err := r.fontFace(font, r.textColor)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text) * layout.MmToPx, nil
}

// Render renders the page into a PDF byte slice.
func (r *Renderer) Render(page renderer.Page) ([]byte, error) {
	res := page.Layout
	if res == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(res.Words) == 0 {
		return nil, fmt.Errorf("缺少可渲染的词")
	}

	pad := max(page.Padding, 0)
	contentWidth := res.Width
	for _, w := range res.Words {
		contentWidth = max(contentWidth, w.X+w.Width)
	}
	width := toMm(contentWidth + 2*pad)
	height := toMm(res.Height + 2*pad)

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(page.Title, "", "", "", "folio")

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	r.drawOverlays(ctx, page.Overlays, pad)
	if err := r.drawWords(ctx, res, pad); err != nil {
		return nil, err
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawOverlays 在文字下方绘制高亮矩形，颜色按 OverlayAlpha 与白色纸面混合。
func (r *Renderer) drawOverlays(ctx *canvas.Context, overlays []highlight.Overlay, pad float64) {
	paper := colorful.Color{R: 1, G: 1, B: 1}
	for _, o := range overlays {
		fill := o.Color.Over(paper)
		ctx.SetFillColor(canvas.RGBA(fill.R, fill.G, fill.B, 1))
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.DrawPath(toMm(o.Rect.X+pad), toMm(o.Rect.Y+pad), canvas.Rectangle(toMm(o.Rect.Width), toMm(o.Rect.Height)))
	}
}

func (r *Renderer) drawWords(ctx *canvas.Context, res *layout.Result, pad float64) error {
	face, err := r.fontFace(res.Font, r.textColor)
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	for _, w := range res.Words {
		// 基线：行顶部加上半行距，再加字体上升部（均为 mm）
		top := toMm(w.Y + pad)
		leading := max(toMm(w.Height)-metrics.LineHeight, 0) / 2
		baseline := top + leading + metrics.Ascent
		ctx.DrawText(toMm(w.X+pad), baseline, canvas.NewTextLine(face, w.Text, canvas.Left))
	}
	return nil
}

func (r *Renderer) fontFace(font layout.Font, col color.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	size := font.Size
	if size.IsZero() {
		size = layout.Px(16)
	}
	return family.Face(size.Pt(), col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, fmt.Errorf("%w（回退字体同样不可用: %v）", err, fbErr)
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.Font, style canvas.FontStyle) error {
	src := font.Src
	if src == "" {
		return fmt.Errorf("字体 %s 缺少 src", font.Family)
	}
	if name, ok := fonts.SystemName(src); ok {
		if err := family.LoadSystemFont(name, style); err != nil {
			return fmt.Errorf("加载系统字体 %s 失败: %w", name, err)
		}
		return nil
	}
	if strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(src, "builtin:")
		blob, ok := r.fontBlobs[name]
		if !ok {
			return fmt.Errorf("找不到内置字体资源 builtin:%s", name)
		}
		return family.LoadFont(blob, 0, style)
	}
	data, err := fonts.Load(src, r.baseDir)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// fallback 依次尝试 fonts.Fallbacks 中的系统字体，调用方需持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	var lastErr error
	for _, name := range fonts.Fallbacks {
		family := canvas.NewFontFamily("folio-fallback")
		if err := family.LoadSystemFont(name, canvas.FontRegular); err != nil {
			lastErr = err
			continue
		}
		r.fallbackFamily = family
		return family, nil
	}
	return nil, fmt.Errorf("没有可用的回退字体: %w", lastErr)
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.Font) string {
	return fmt.Sprintf("%s|%s|%s", font.Family, font.Src, font.Style)
}

// toMm 将像素(px)转换为毫米(mm)。
func toMm(px float64) float64 { return px * layout.PxToMm }
