package domain

import (
	"fmt"
	"strings"
)

// Policy 是目录结构策略（不可变；按值传递）。
//
// 约束：ByMonth 仅在 ByYear 时有意义，ByDay 仅在 ByMonth 时有意义。
// 上层负责校验，但核心流程必须容忍任意组合：见 Effective。
type Policy struct {
	ByYear    bool `json:"by_year"`
	ByMonth   bool `json:"by_month"`
	ByDay     bool `json:"by_day"`
	Recursive bool `json:"recursive"`

	// ZeroPad 为 true 时月/日目录补零（"03"），否则为 "3"。
	ZeroPad bool `json:"zero_pad"`
}

// Effective 返回降级后的策略：缺少上层的层级直接失效。
// 例如 ByDay=true, ByMonth=false 只按年分目录。
func (p Policy) Effective() Policy {
	out := p
	if !out.ByYear {
		out.ByMonth = false
	}
	if !out.ByMonth {
		out.ByDay = false
	}
	return out
}

// Structured 表示是否需要任何目录层级（否则平铺复制到 target 根目录）。
func (p Policy) Structured() bool { return p.Effective().ByYear }

// DeleteMode 决定复制完成后删除哪些原文件。
type DeleteMode string

const (
	// DeleteNone 不删除原文件。
	DeleteNone DeleteMode = "none"
	// DeleteCopied 只删除本次 run 中复制成功的原文件（单独 --delete 时的取值）。
	DeleteCopied DeleteMode = "copied"
	// DeleteAll 删除全部候选原文件，包括因目标已存在而跳过的文件。
	// 这与旧版工具的行为一致：重复运行时可能删除从未被本次复制的源文件。
	DeleteAll DeleteMode = "all"
)

// ParseDeleteMode 解析配置/CLI 中的删除模式；空串视为 none。
func ParseDeleteMode(s string) (DeleteMode, error) {
	switch DeleteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteNone:
		return DeleteNone, nil
	case DeleteCopied:
		return DeleteCopied, nil
	case DeleteAll:
		return DeleteAll, nil
	default:
		return "", fmt.Errorf("delete 只能是 none、copied 或 all，实际是 %q", s)
	}
}

// Request 是一次 Sort Run 的输入（source, target, policy 三元组 + 删除模式）。
type Request struct {
	Source string
	Target string
	Policy Policy
	Delete DeleteMode
}
