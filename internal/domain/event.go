package domain

// EventKind 是单条进度事件的类型。
type EventKind string

const (
	EventAlreadyExists EventKind = "already_exists"
	EventError         EventKind = "error"
	EventSuccess       EventKind = "success"
	EventCompleted     EventKind = "completed"
)

// Event 是核心流程对外发出的离散事件。
//
// - AlreadyExists：Path 为目标路径
// - Error：Detail 为可读的错误描述（Path 尽量给出相关文件）
// - Success：Path 为源路径
// - Completed：无负载；一次 run 恰好一次，且总是最后一个事件
type Event struct {
	Kind   EventKind `json:"kind"`
	Path   string    `json:"path,omitempty"`
	Detail string    `json:"detail,omitempty"`
}
