package run

import (
	"context"

	"github.com/spf13/afero"

	"github.com/John-Robertt/imgsort/internal/domain"
)

// Job 是在后台 worker 上运行的一次 Sort Run。
// Wait 的返回即这次 run 的最终结果（Completed 之后才会就绪）。
type Job struct {
	done   chan struct{}
	report domain.RunReport
}

// Start 在单个后台 goroutine 上执行 Execute，立即返回。
// obs 的回调发生在该 goroutine 上。
func Start(ctx context.Context, fsys afero.Fs, req domain.Request, obs Observer) *Job {
	j := &Job{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.report = Execute(ctx, fsys, req, obs)
	}()
	return j
}

// Done 在 run 结束（OnCompleted 已返回）后关闭。
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait 阻塞直到 run 结束，并返回报告。可重复调用。
func (j *Job) Wait() domain.RunReport {
	<-j.done
	return j.report
}
