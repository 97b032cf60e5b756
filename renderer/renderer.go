package renderer

import (
	"github.com/ByLCY/folio/highlight"
	"github.com/ByLCY/folio/layout"
)

// Page 是一页待输出的内容：词网格布局以及叠加在其下方的高亮矩形。坐标单位为 px。
type Page struct {
	Title    string
	Layout   *layout.Result
	Overlays []highlight.Overlay
	// Padding 是四周留白（px）。
	Padding float64
}

// Renderer 将页面输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(page Page) ([]byte, error)
}
