package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/imgsort/internal/app/run"
	"github.com/John-Robertt/imgsort/internal/config"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是一个“简洁版”的交互终端进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间没有事件时定期输出一行计数，降低等待焦虑（不显示百分比）
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	done   int
	ok     int
	exists int
	fail   int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

// start 打印生效配置并启动 keepalive ticker；应在 run 开始前调用。
func (p *progressUI) start(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	fmt.Fprintf(p.w, "[%s] imgsort run\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  source: %s\n", eff.Source)
	fmt.Fprintf(p.w, "  target: %s\n", eff.Target)
	fmt.Fprintf(p.w, "  recursive: %s\n", onOff(eff.Policy.Recursive))
	fmt.Fprintf(p.w, "  layout: %s\n", layout(eff))
	fmt.Fprintf(p.w, "  delete: %s\n", eff.Delete)
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = now
	if !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnAlreadyExists(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.exists++
	fmt.Fprintf(p.w, "[%d] SKIP %s (已存在)\n", p.done, path)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnError(detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail++
	fmt.Fprintf(p.w, "FAIL %s\n", truncate(detail, 200))
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSuccess(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.ok++
	fmt.Fprintf(p.w, "[%d] OK %s\n", p.done, path)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 先停 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
	fmt.Fprintf(p.w, "\n完成: ok=%d exists=%d fail=%d elapsed=%s\n",
		p.ok, p.exists, p.fail, formatElapsed(time.Since(p.startedAt)),
	)
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stopCh := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d ok=%d exists=%d fail=%d elapsed=%s\n",
						p.done, p.ok, p.exists, p.fail, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func layout(eff config.EffectiveConfig) string {
	p := eff.Policy.Effective()
	switch {
	case p.ByDay:
		if p.ZeroPad {
			return "YYYY/MM/DD"
		}
		return "YYYY/M/D"
	case p.ByMonth:
		if p.ZeroPad {
			return "YYYY/MM"
		}
		return "YYYY/M"
	case p.ByYear:
		return "YYYY"
	default:
		return "flat"
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
