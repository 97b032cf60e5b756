package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by font metrics. Layout itself works in CSS px.

// Unit 表示长度值书写时使用的单位。
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitPX               // CSS pixels (1/96 in)
	UnitPT               // points (1/72 in)
	UnitMM               // millimeters
	UnitIN               // inches
)

// Conversion constants, all relative to one CSS pixel.
const (
	PxToPt = 0.75
	PxToMm = 25.4 / 96.0
	MmToPx = 96.0 / 25.4
	PtToPx = 1.0 / PxToPt
)

// String returns the short suffix for a Unit value.
func (u Unit) String() string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Px returns l in CSS pixels. Unit-less values are taken as px already.
func (l Length) Px() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * PtToPx
	case UnitMM:
		return l.Value * MmToPx
	case UnitIN:
		return l.Value * 96
	default:
		return l.Value
	}
}

// Pt returns l in points.
func (l Length) Pt() float64 { return l.Px() * PxToPt }

// Mm returns l in millimeters.
func (l Length) Mm() float64 { return l.Px() * PxToMm }

func (l Length) IsZero() bool { return l.Value == 0 }

// Px builds a pixel length.
func Px(v float64) Length { return Length{Value: v, Unit: UnitPX} }

// ParseRawLengthStr parses "16px", "12pt", "4.2mm", "0.5in" or a bare number (px).
func ParseRawLengthStr(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}
	}
	unit := UnitPX
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"in", UnitIN}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec is either a factor of the font size (1.6x) or an absolute length (24px).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.6", "1.6x" or an absolute length like "24px".
func ParseLineHeight(value string) LineHeightSpec {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return LineHeightSpec{}
	}
	if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: ParseRawLengthStr(v)}
}

// Resolve computes the absolute line height in px for the given font size.
func (s LineHeightSpec) Resolve(fontSize Length) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		if px := s.Len.Px(); px > 0 {
			return px
		}
	case LineHeightFactor:
		if s.Factor > 0 {
			return fontSize.Px() * s.Factor
		}
	}
	// 未指定时按 1.6 倍行高
	return fontSize.Px() * 1.6
}
