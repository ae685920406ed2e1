package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/imgsort/internal/app/run"
	"github.com/John-Robertt/imgsort/internal/config"
	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/logging"
	"github.com/John-Robertt/imgsort/internal/report"
)

func newRunCommand(c *cli) *cobra.Command {
	var f sortFlags

	cmd := &cobra.Command{
		Use:   "run [source] [target]",
		Short: "执行一次整理",
		Long: `把 source 下的 .jpg/.png 复制到 target，可按创建日期分 年/月/日 目录。

目标文件已存在时跳过（绝不覆盖）。未给出 source/target 时从配置文件读取。
stdout 不是终端时只输出一个 RunReport JSON。`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(f.cliArgs(c, cmd, args))
			if err != nil {
				c.emitReport(reportForConfigError(args, err))
				return exitCodeError{code: 1}
			}

			log, closeLog, err := c.newLogger(eff)
			if err != nil {
				c.emitReport(reportForConfigError(args, err))
				return exitCodeError{code: 1}
			}
			defer closeLog.Close()

			rr := c.sortOnce(log.WithContext(cmd.Context()), eff)
			c.emitReport(rr)
			if rr.HasFailures() {
				return exitCodeError{code: 1}
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) newLogger(eff config.EffectiveConfig) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level: eff.LogLevel,
		File:  eff.LogFile,
		JSON:  !isTerminal(c.stderr),
		Out:   c.stderr,
	})
}

// sortOnce 在后台 worker 上执行一次 run，等待结束后写报告。
func (c *cli) sortOnce(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	log := zerolog.Ctx(ctx)

	var obs run.Observer
	progressW, interactive := c.pickProgressWriter()
	if interactive {
		ui := newProgressUI(progressW)
		ui.start(eff)
		obs = ui
	}

	rr := run.Start(ctx, c.fsys, eff.Request(), obs).Wait()

	if eff.Report {
		dir := eff.ReportDir
		if dir == "" {
			dir = report.DefaultDir(eff.Target)
		}
		paths, err := report.New(c.fsys, dir).Save(rr)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("写入报告失败")
			rr.Errors = append(rr.Errors, domain.RunError{ErrorCode: domain.ErrCodeReportFailed, ErrorMsg: err.Error()})
		} else if interactive {
			fmt.Fprintf(progressW, "report: %s\n", paths.HTML)
		}
	}
	return rr
}

// emitReport 遵守 stdout 契约：非 TTY 时 stdout 只有 RunReport JSON（watch 下为每行一个）。
func (c *cli) emitReport(rr domain.RunReport) {
	if isTerminal(c.stdout) {
		fmt.Fprintln(c.stdout, renderSummary(rr))
		if failures := renderFailures(rr); failures != "" {
			fmt.Fprintln(c.stderr, failures)
		}
		return
	}

	enc := json.NewEncoder(c.stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(c.stderr, "完成：copied=%d exists=%d failed=%d deleted=%d errors=%d\n",
		rr.Summary.Copied, rr.Summary.Exists, rr.Summary.Failed, rr.Summary.Deleted, len(rr.Errors),
	)
}

func reportForConfigError(args []string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		StartedAt:  now,
		FinishedAt: now,
		Errors: []domain.RunError{{
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	if rr.Errors[0].ErrorCode == "" {
		rr.Errors[0].ErrorCode = config.ErrCodeInvalid
	}
	if len(args) > 0 {
		rr.Source = args[0]
	}
	if len(args) > 1 {
		rr.Target = args[1]
	}
	rr.Finalize()
	return rr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *cli) pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTerminal(c.stderr) {
		return c.stderr, true
	}
	// 仅重定向 stderr 时 stdout 仍是终端：退化输出到 stdout。
	if isTerminal(c.stdout) {
		return c.stdout, true
	}
	return nil, false
}
