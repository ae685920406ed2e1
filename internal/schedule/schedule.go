package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// 标准 5 段表达式，外加 @every / @daily 这类描述符。
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate 校验 cron 表达式。
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("cron 表达式不能为空")
	}
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("cron 表达式无效：%w", err)
	}
	return nil
}

var timeNow = time.Now

type Options struct {
	// RunNow 为 true 时启动后立即执行一次，不等第一个触发点。
	RunNow bool
}

// Watch 按 expr 周期性调用 fn，直到 ctx 结束。
//
// 上一次 fn 仍在执行时，新的触发点直接跳过（不排队），因此同一时刻最多一个 run。
// ctx 结束后等待正在执行的 fn 返回再退出。
func Watch(ctx context.Context, expr string, opts Options, fn func(context.Context), log *zerolog.Logger) error {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("cron 表达式无效：%w", err)
	}

	cl := cronLogger{log: log}
	job := cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() { fn(ctx) }))

	c := cron.New(cron.WithParser(parser), cron.WithLogger(cl))
	c.Schedule(sched, job)
	c.Start()
	log.Info().Str("cron", expr).Time("next", sched.Next(timeNow())).Msg("定时整理已启动")

	var wg sync.WaitGroup
	if opts.RunNow {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	wg.Wait()
	log.Info().Msg("定时整理已停止")
	return nil
}

// cronLogger 把 cron 内部日志转给 zerolog（Info 降为 debug，避免每个 tick 刷屏）。
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
