package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/engine"
	"github.com/ByLCY/folio/highlight"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
	"github.com/ByLCY/folio/selection"
	"github.com/ByLCY/folio/store"
)

const defaultPrompt = "请结合上下文解释「${selected}」。\n\n上下文：${context}\n"

// CLI 定义 folio 的命令行接口。
var CLI struct {
	DB string `name:"db" env:"FOLIO_DB" default:"folio.db" help:"高亮数据库路径" type:"path"`

	Markup  MarkupCmd  `cmd:"" help:"把作用域内的高亮标记到正文中并输出 HTML"`
	Render  RenderCmd  `cmd:"" help:"按词网格排版正文并输出带高亮的 PDF"`
	Explain ExplainCmd `cmd:"" help:"为选中文本生成带上下文的解释提示词"`
	Store   StoreGroup `cmd:"" help:"管理高亮数据库"`
}

// Source 是读取正文与高亮的公共参数。
type Source struct {
	Content string `arg:"" help:"正文文件" type:"existingfile"`
	Scope   string `short:"s" required:"" help:"作用域（章节 key）"`
	Sheet   string `help:"从高亮表 (.folio) 读取高亮，而不是数据库" type:"existingfile"`
	Relax   bool   `help:"高亮内部的空白可以匹配任意空白"`
}

func (s Source) load() (string, []highlight.Highlight, error) {
	content, err := os.ReadFile(s.Content)
	if err != nil {
		return "", nil, fmt.Errorf("无法读取正文 %s: %w", s.Content, err)
	}
	if s.Sheet != "" {
		f, err := os.Open(s.Sheet)
		if err != nil {
			return "", nil, fmt.Errorf("无法打开高亮表 %s: %w", s.Sheet, err)
		}
		defer f.Close()
		hs, err := dsl.Load(f)
		if err != nil {
			return "", nil, err
		}
		return string(content), hs, nil
	}
	st, err := store.Open(CLI.DB)
	if err != nil {
		return "", nil, err
	}
	defer st.Close()
	hs, err := st.List(context.Background(), s.Scope)
	if err != nil {
		return "", nil, err
	}
	return string(content), hs, nil
}

// MarkupCmd 输出注入了 <mark> 的正文。
type MarkupCmd struct {
	Source `embed:""`
	JSON bool   `help:"输出分段 JSON 而不是 HTML"`
	Out  string `short:"o" default:"-" help:"输出路径，- 表示标准输出"`
}

func (c *MarkupCmd) Run() error {
	content, hs, err := c.load()
	if err != nil {
		return err
	}
	m := highlight.Matcher{RelaxWhitespace: c.Relax}
	set := highlight.ForScope(hs, c.Scope)
	return writeOutput(c.Out, func(w io.Writer) error {
		if c.JSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(m.Segments(content, set))
		}
		_, err := io.WriteString(w, m.Markup(content, set, highlight.HTMLMarker).Text)
		return err
	})
}

// RenderCmd 用 canvas 测量排版并输出 PDF。
type RenderCmd struct {
	Source `embed:""`
	Out        string  `short:"o" default:"output/page.pdf" help:"PDF 输出路径"`
	Debug      string  `help:"布局调试 JSON 输出路径"`
	Width      float64 `default:"600" help:"容器宽度（px）"`
	Padding    float64 `default:"32" help:"页面留白（px）"`
	Font       string  `env:"FOLIO_FONT" default:"system:DejaVu Sans" help:"字体来源：文件路径或 system:<name>"`
	FontSize   string  `default:"16px" help:"字号，例如 16px、12pt"`
	LineHeight string  `default:"1.6" help:"行高，倍数或长度"`
	Title      string  `help:"PDF 标题"`
}

func (c *RenderCmd) Run() error {
	content, hs, err := c.load()
	if err != nil {
		return err
	}

	r := canvasrenderer.NewRenderer(filepath.Dir(c.Content))
	cfg := engine.DefaultConfig(r)
	cfg.Mode = engine.ModeGrid
	cfg.Scope = c.Scope
	cfg.RelaxWhitespace = c.Relax
	cfg.Layout.Font = layout.Font{
		Family:     "Body",
		Src:        c.Font,
		Size:       layout.ParseRawLengthStr(c.FontSize),
		LineHeight: layout.ParseLineHeight(c.LineHeight),
	}

	e, err := engine.New(cfg, engine.Sinks{Store: discardStore{}}, selection.NewLoopScheduler(0), nil)
	if err != nil {
		return err
	}
	if err := e.ResizeNow(c.Width); err != nil {
		return err
	}
	if err := e.SetContent(content); err != nil {
		return err
	}
	e.SetHighlights(hs)
	view := e.Render()

	if c.Debug != "" {
		if err := layout.WriteDebugJSON(e.Layout(), c.Debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	var out renderer.Renderer = r
	pdfBytes, err := out.Render(renderer.Page{
		Title:    c.Title,
		Layout:   e.Layout(),
		Overlays: view.Overlays,
		Padding:  c.Padding,
	})
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Out), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(c.Out, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	fmt.Printf("已生成 PDF：%s（%d 个词，%d 行，%d 处高亮）\n", c.Out, len(view.Words), e.Layout().Lines, len(view.Overlays))
	return nil
}

// ExplainCmd 提取选中文本的上下文，并用模板生成提示词。
type ExplainCmd struct {
	Content  string `arg:"" help:"正文文件" type:"existingfile"`
	Selected string `arg:"" help:"选中的文本"`
	Scope    string `short:"s" help:"作用域（章节 key），可在模板中通过 ${scope} 引用"`
	Radius   int    `default:"100" help:"上下文半径（字符）"`
	Template string `env:"FOLIO_EXPLAIN_TEMPLATE" help:"提示词模板，支持 ${selected} ${context} ${scope}"`
}

func (c *ExplainCmd) Run() error {
	content, err := os.ReadFile(c.Content)
	if err != nil {
		return fmt.Errorf("无法读取正文 %s: %w", c.Content, err)
	}
	text := c.Template
	if text == "" {
		text = defaultPrompt
	}
	tmpl, err := binding.Compile(text)
	if err != nil {
		return fmt.Errorf("解析提示词模板失败: %w", err)
	}
	var ex engine.Explainer = &promptExplainer{tmpl: tmpl, scope: c.Scope, w: os.Stdout}
	around := engine.ExplainContext(engine.FlattenText(string(content)), c.Selected, c.Radius)
	return ex.Explain(c.Selected, around)
}

// promptExplainer 把解释请求渲染为提示词写出，由调用方交给实际的解释服务。
type promptExplainer struct {
	tmpl  *binding.Template
	scope string
	w     io.Writer
}

func (p *promptExplainer) Explain(selected, around string) error {
	prompt, err := p.tmpl.Execute(map[string]any{
		"selected": selected,
		"context":  around,
		"scope":    p.scope,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.w, prompt)
	return err
}

// discardStore 用于只读渲染：批处理中不会产生新的高亮。
type discardStore struct{}

func (discardStore) AddHighlight(highlight.Draft) error { return nil }
func (discardStore) RemoveHighlight(string) error       { return nil }

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("读取 .env 失败: %v", err)
	}
	ctx := kong.Parse(&CLI,
		kong.Name("folio"),
		kong.Description("文本标注引擎：高亮匹配、词网格排版与 PDF 输出"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err := ctx.Run(); err != nil {
		log.Fatalf("folio %s 失败: %v", ctx.Command(), err)
	}
}
