package domain

import "time"

// Candidate 描述一次收集得到的图片文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute（相对所用文件系统）
// - 收集阶段只做 stat，不读文件内容
// - Candidate 在一次 run 内只读
type Candidate struct {
	AbsPath   string
	RelPath   string
	Name      string // 原始文件名（含扩展名，保留大小写）
	Ext       string // 小写，例如 ".jpg"
	Size      int64
	CreatedAt time.Time
}

// CopyPlan 规划一次复制（只描述 src/dst；目录已由 planner 创建）。
type CopyPlan struct {
	SrcAbs string
	DstDir string
	DstAbs string
}
