// Package fonts 解析字体来源字符串：文件路径，或 system:<name> 形式的系统字体名。
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SystemPrefix 标记系统字体来源，例如 "system:DejaVu Sans"。
const SystemPrefix = "system:"

// Fallbacks 是找不到指定字体时依次尝试的系统字体。
var Fallbacks = []string{"DejaVu Sans", "Liberation Sans", "Noto Sans", "Arial", "Helvetica"}

// SystemName 返回 system: 来源中的字体名。
func SystemName(src string) (string, bool) {
	if !strings.HasPrefix(src, SystemPrefix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(src, SystemPrefix))
	return name, name != ""
}

// Load 读取文件来源的字体数据，相对路径基于 baseDir 解析。
func Load(src, baseDir string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("字体来源为空")
	}
	if _, ok := SystemName(src); ok {
		return nil, fmt.Errorf("系统字体 %s 不能按文件读取", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许使用相对字体路径：%s", src)
		}
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}
