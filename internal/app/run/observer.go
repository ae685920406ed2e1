package run

import (
	"github.com/John-Robertt/imgsort/internal/domain"
)

// Observer 把“逐文件结果 + 结束信号”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件按处理顺序逐个发出；OnCompleted 每次 run 恰好一次，且总是最后一个。
// - 使用 Start 时回调发生在后台 worker goroutine 上，实现必须能跨 goroutine 使用。
type Observer interface {
	// OnAlreadyExists 在目标文件已存在而跳过时调用，path 为目标路径。
	OnAlreadyExists(path string)
	// OnError 在单个文件或整个 run 出错时调用，detail 为可读描述。
	OnError(detail string)
	// OnSuccess 在复制成功时调用，path 为源路径。
	OnSuccess(path string)
	// OnCompleted 在 run 结束时调用（无论成功、跳过或出错多少）。
	OnCompleted()
}

// Funcs 把可选回调适配成 Observer；未设置的回调直接忽略。
type Funcs struct {
	AlreadyExists func(path string)
	Error         func(detail string)
	Success       func(path string)
	Completed     func()
}

func (f Funcs) OnAlreadyExists(path string) {
	if f.AlreadyExists != nil {
		f.AlreadyExists(path)
	}
}

func (f Funcs) OnError(detail string) {
	if f.Error != nil {
		f.Error(detail)
	}
}

func (f Funcs) OnSuccess(path string) {
	if f.Success != nil {
		f.Success(path)
	}
}

func (f Funcs) OnCompleted() {
	if f.Completed != nil {
		f.Completed()
	}
}

// Multi 按顺序把事件分发给多个 Observer（nil 会被跳过）。
func Multi(obs ...Observer) Observer {
	out := make(multi, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multi []Observer

func (m multi) OnAlreadyExists(path string) {
	for _, o := range m {
		o.OnAlreadyExists(path)
	}
}

func (m multi) OnError(detail string) {
	for _, o := range m {
		o.OnError(detail)
	}
}

func (m multi) OnSuccess(path string) {
	for _, o := range m {
		o.OnSuccess(path)
	}
}

func (m multi) OnCompleted() {
	for _, o := range m {
		o.OnCompleted()
	}
}

// Channel 返回一个把事件转发到 channel 的 Observer。
//
// channel 在 Completed 之后立即关闭，因此 `for ev := range ch` 会在 run 结束时退出。
// size 是缓冲大小；消费方跟不上时 worker 会阻塞等待（不丢事件）。
func Channel(size int) (Observer, <-chan domain.Event) {
	if size < 0 {
		size = 0
	}
	ch := make(chan domain.Event, size)
	return chanObserver(ch), ch
}

type chanObserver chan domain.Event

func (c chanObserver) OnAlreadyExists(path string) {
	c <- domain.Event{Kind: domain.EventAlreadyExists, Path: path}
}

func (c chanObserver) OnError(detail string) {
	c <- domain.Event{Kind: domain.EventError, Detail: detail}
}

func (c chanObserver) OnSuccess(path string) {
	c <- domain.Event{Kind: domain.EventSuccess, Path: path}
}

func (c chanObserver) OnCompleted() {
	c <- domain.Event{Kind: domain.EventCompleted}
	close(c)
}
