// Package binding 渲染带 ${path} 占位符的文本模板，用于拼装解释请求的提示词。
package binding

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// ErrMissingValue 表示占位符路径在数据中不存在。
var ErrMissingValue = errors.New("binding: 占位符没有对应的值")

// Template 是预先解析过占位符的模板。
type Template struct {
	text  string
	paths []string
}

// Compile 解析模板中的占位符，空路径视为错误。
func Compile(text string) (*Template, error) {
	t := &Template{text: text}
	for _, m := range exprPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(m[1])
		if path == "" {
			return nil, fmt.Errorf("模板包含空占位符 %q", m[0])
		}
		t.paths = append(t.paths, path)
	}
	return t, nil
}

// Placeholders 按出现顺序返回占位符路径。
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.paths...)
}

// Execute 用 data 填充模板，任一路径缺失即返回 ErrMissingValue。
func (t *Template) Execute(data any) (string, error) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(t.text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		val, ok := resolvePath(data, path)
		if !ok {
			missing = append(missing, path)
			return match
		}
		return fmt.Sprint(val)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
	}
	return out, nil
}

// Interpolate 宽松替换：路径不存在时保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := resolvePath(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// resolvePath 支持 a.b[0].c 形式的路径，数据为 map[string]any / map[string]string / []any / []string。
func resolvePath(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = descendSlice(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []int, bool) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil, true
	}
	name, rest := segment[:i], segment[i:]
	var indexes []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendSlice(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
