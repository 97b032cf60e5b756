// Package menu 根据选区几何计算浮动操作菜单的位置。
package menu

import (
	"strings"

	"github.com/ByLCY/folio/layout"
)

// Placement 记录定位过程中触发了哪些避让分支。
type Placement uint8

const (
	FlippedLeft Placement = 1 << iota
	Centered
	FlippedUp
	FallbackBelow
	Clamped
)

func (p Placement) Has(flag Placement) bool { return p&flag != 0 }

func (p Placement) String() string {
	if p == 0 {
		return "below-right"
	}
	var parts []string
	for _, f := range []struct {
		flag Placement
		name string
	}{
		{FlippedLeft, "flipped-left"},
		{Centered, "centered"},
		{FlippedUp, "flipped-up"},
		{FallbackBelow, "fallback-below"},
		{Clamped, "clamped"},
	} {
		if p.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Position 是菜单左上角的文档坐标（已加上滚动偏移）。
type Position struct {
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	Placement Placement `json:"placement"`
}

// Positioner 保存间距参数。零值不可用，请使用 DefaultPositioner。
type Positioner struct {
	GapX   float64
	GapY   float64
	Margin float64
	// FallbackOffset 是上翻越界后回落到锚点下方时额外增加的距离。
	FallbackOffset float64
}

// DefaultPositioner 返回水平间距 10、垂直间距 5、边距 10 的定位器。
func DefaultPositioner() Positioner {
	return Positioner{GapX: 10, GapY: 5, Margin: 10, FallbackOffset: 10}
}

// Position 计算菜单位置。anchor 为视口坐标下的选区末端矩形，scroll 为当前滚动偏移。
//
// 默认放在锚点右下方；右侧放不下时翻到锚点左侧，仍越过左边距则以锚点为中心并夹紧；
// 下方放不下时翻到锚点上方，上翻后越过顶部边距则回落到锚点下方并加上 FallbackOffset。
// 最后统一夹紧，保证 Margin ≤ left−scroll.X ≤ viewport.Width−menu.Width−Margin（菜单放得下时）
// 以及 top ≥ scroll.Y+Margin。
func (p Positioner) Position(anchor layout.Rect, viewport layout.Size, scroll layout.Point, menu layout.Size) Position {
	var placement Placement
	m := p.Margin

	left := anchor.Right() + p.GapX
	if left+menu.Width > viewport.Width {
		placement |= FlippedLeft
		left = anchor.X - p.GapX - menu.Width
		if left < m {
			placement |= Centered
			left = clamp(anchor.X+anchor.Width/2-menu.Width/2, m, viewport.Width-menu.Width-m)
		}
	}

	top := anchor.Bottom() + p.GapY
	if top+menu.Height > viewport.Height {
		placement |= FlippedUp
		top = anchor.Y - p.GapY - menu.Height
		if top < m {
			placement |= FallbackBelow
			top = anchor.Bottom() + p.GapY + p.FallbackOffset
		}
	}

	pos := Position{Left: left + scroll.X, Top: top + scroll.Y}

	minLeft := scroll.X + m
	maxLeft := scroll.X + viewport.Width - menu.Width - m
	if maxLeft < minLeft {
		// 视口比菜单还窄，只保证左边距
		maxLeft = minLeft
	}
	if l := clamp(pos.Left, minLeft, maxLeft); l != pos.Left {
		pos.Left = l
		placement |= Clamped
	}
	if minTop := scroll.Y + m; pos.Top < minTop {
		pos.Top = minTop
		placement |= Clamped
	}
	pos.Placement = placement
	return pos
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
