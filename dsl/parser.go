// Package dsl 解析与生成高亮表（.folio 文件）：按作用域分组的高亮列表，
// 用作 CLI 的输入夹具以及存储的导出格式。
//
//	scope "ch1" {
//	  highlight green "quick brown" {
//	    id: "h1"
//	    note: "第一次出现"
//	    tags: ["motif", "animal"]
//	    created: "2026-01-02T15:04:05Z"
//	  }
//	  highlight yellow "fox"
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sheetParser = participle.MustBuild[Sheet](
		participle.Lexer(sheetLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Sheet is the root AST node for a highlight sheet.
type Sheet struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Scopes []*ScopeBlock  `parser:"Newline* ( @@ Newline* )*"`
}

// ScopeBlock groups the highlights of one scope key.
type ScopeBlock struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Key     StringLiteral  `parser:"'scope' @String"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Entry is a single `highlight <color> "<text>"` statement with an optional field block.
type Entry struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Color  string         `parser:"'highlight' @Ident"`
	Text   StringLiteral  `parser:"@String"`
	Fields []*Field       `parser:"( '{' Newline* ( @@ ( ';' | Newline )* )* '}' )?"`
}

// Field uses colon syntax (key: value).
type Field struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value is either a string or a list of strings.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	List   *ListValue     `parser:"| @@"`
}

// ListValue captures `[ "a", "b" ]`.
type ListValue struct {
	Items []*ListItem `parser:"'[' Newline* ( @@ ( ',' Newline* @@ )* )? Newline* ']'"`
}

type ListItem struct {
	Value StringLiteral `parser:"@String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Strings 返回值的字符串形式：单个字符串返回一个元素的切片。
func (v *Value) Strings() []string {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return []string{string(*v.String)}
	case v.List != nil:
		out := make([]string, len(v.List.Items))
		for i, item := range v.List.Items {
			out[i] = string(item.Value)
		}
		return out
	default:
		return nil
	}
}

// Parse parses a highlight sheet from an io.Reader.
func Parse(r io.Reader) (*Sheet, error) {
	return sheetParser.Parse("", r)
}

// ParseString parses a highlight sheet from a string.
func ParseString(input string) (*Sheet, error) {
	return sheetParser.ParseString("", input)
}
