package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	FileStatusCopied = "copied"
	FileStatusExists = "exists"
	FileStatusFailed = "failed"
)

const (
	DeleteStatusNone    = ""
	DeleteStatusDeleted = "deleted"
	DeleteStatusFailed  = "failed"
)

const (
	ErrCodeCollectFailed     = "collect_failed"
	ErrCodeMkdirFailed       = "mkdir_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeCopyFailed        = "copy_failed"
	ErrCodeDeleteFailed      = "delete_failed"
	ErrCodeLockBusy          = "lock_busy"
	ErrCodeLockFailed        = "lock_failed"
	ErrCodeReportFailed      = "report_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Target string `json:"target"`

	Policy Policy     `json:"policy"`
	Delete DeleteMode `json:"delete"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []FileResult  `json:"items"`

	// Errors 是不属于任何单个文件的错误（收集失败、锁冲突等）。
	Errors []RunError `json:"errors"`
}

type ReportSummary struct {
	Candidates   int `json:"candidates"`
	Copied       int `json:"copied"`
	Exists       int `json:"exists"`
	Failed       int `json:"failed"`
	Deleted      int `json:"deleted"`
	DeleteFailed int `json:"delete_failed"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`

	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	DeleteStatus string `json:"delete_status"`
	DeleteMsg    string `json:"delete_msg"`
}

type RunError struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 src 字典序
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Items == nil {
		r.Items = []FileResult{}
	}
	if r.Errors == nil {
		r.Errors = []RunError{}
	}

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Src < r.Items[j].Src })

	s := ReportSummary{Candidates: len(r.Items)}
	for _, it := range r.Items {
		switch it.Status {
		case FileStatusCopied:
			s.Copied++
		case FileStatusExists:
			s.Exists++
		case FileStatusFailed:
			s.Failed++
		}
		switch it.DeleteStatus {
		case DeleteStatusDeleted:
			s.Deleted++
		case DeleteStatusFailed:
			s.DeleteFailed++
		}
	}
	r.Summary = s
}

// HasFailures 表示是否存在任何失败（文件级或 run 级）。CLI 用它决定退出码。
func (r RunReport) HasFailures() bool {
	return r.Summary.Failed > 0 || r.Summary.DeleteFailed > 0 || len(r.Errors) > 0
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
