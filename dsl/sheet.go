package dsl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ByLCY/folio/highlight"
)

// Highlights 把语法树转换为高亮列表，保持文件中的顺序。
func (s *Sheet) Highlights() ([]highlight.Highlight, error) {
	if s == nil {
		return nil, nil
	}
	var out []highlight.Highlight
	for _, scope := range s.Scopes {
		for _, entry := range scope.Entries {
			h, err := entry.highlight(string(scope.Key))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Pos, err)
			}
			out = append(out, h)
		}
	}
	return out, nil
}

func (e *Entry) highlight(scope string) (highlight.Highlight, error) {
	color, err := highlight.ParseColor(e.Color)
	if err != nil {
		return highlight.Highlight{}, err
	}
	h := highlight.Highlight{Text: string(e.Text), Color: color, Scope: scope}
	for _, f := range e.Fields {
		values := f.Value.Strings()
		single := ""
		if len(values) > 0 {
			single = values[0]
		}
		switch f.Key {
		case "id":
			h.ID = single
		case "note":
			h.Note = single
		case "tags":
			h.Tags = values
		case "created":
			ts, err := time.Parse(time.RFC3339, single)
			if err != nil {
				return highlight.Highlight{}, fmt.Errorf("解析 created 失败: %w", err)
			}
			h.CreatedAt = ts
		default:
			return highlight.Highlight{}, fmt.Errorf("未知字段 %q", f.Key)
		}
	}
	if err := h.Validate(); err != nil {
		return highlight.Highlight{}, err
	}
	return h, nil
}

// Load 解析高亮表并返回高亮列表。
func Load(r io.Reader) ([]highlight.Highlight, error) {
	sheet, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析高亮表失败: %w", err)
	}
	return sheet.Highlights()
}

// Write 按作用域首次出现的顺序输出高亮表，输出可被 Parse 读回。
func Write(w io.Writer, highlights []highlight.Highlight) error {
	var order []string
	groups := map[string][]highlight.Highlight{}
	for _, h := range highlights {
		if _, ok := groups[h.Scope]; !ok {
			order = append(order, h.Scope)
		}
		groups[h.Scope] = append(groups[h.Scope], h)
	}

	bw := bufio.NewWriter(w)
	for i, scope := range order {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "scope %s {\n", strconv.Quote(scope))
		for _, h := range groups[scope] {
			writeEntry(bw, h)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, h highlight.Highlight) {
	fmt.Fprintf(w, "  highlight %s %s", h.Color, strconv.Quote(h.Text))
	var fields []string
	if h.ID != "" {
		fields = append(fields, "id: "+strconv.Quote(h.ID))
	}
	if h.Note != "" {
		fields = append(fields, "note: "+strconv.Quote(h.Note))
	}
	if len(h.Tags) > 0 {
		quoted := make([]string, len(h.Tags))
		for i, t := range h.Tags {
			quoted[i] = strconv.Quote(t)
		}
		fields = append(fields, "tags: ["+strings.Join(quoted, ", ")+"]")
	}
	if !h.CreatedAt.IsZero() {
		fields = append(fields, "created: "+strconv.Quote(h.CreatedAt.UTC().Format(time.RFC3339)))
	}
	if len(fields) == 0 {
		w.WriteString("\n")
		return
	}
	w.WriteString(" {\n")
	for _, f := range fields {
		fmt.Fprintf(w, "    %s\n", f)
	}
	w.WriteString("  }\n")
}
