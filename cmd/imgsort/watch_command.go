package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/imgsort/internal/config"
	"github.com/John-Robertt/imgsort/internal/schedule"
)

func newWatchCommand(c *cli) *cobra.Command {
	var (
		f      sortFlags
		cron   string
		runNow bool
	)

	cmd := &cobra.Command{
		Use:   "watch [source] [target]",
		Short: "按 cron 表达式定时整理",
		Long: `按 cron 表达式重复执行 run（参数与 run 相同）。

上一次整理尚未结束时跳过本次触发。收到 SIGINT/SIGTERM 后等待当前整理结束再退出。
stdout 不是终端时每次整理输出一行 RunReport JSON。`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca := f.cliArgs(c, cmd, args)
			ca.Cron = cron
			eff, err := c.loadConfig(ca)
			if err == nil {
				if e := schedule.Validate(eff.Cron); e != nil {
					err = &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigFile, Err: e}
				}
			}
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = log.WithContext(ctx)

			// 每次触发都用一个与取消无关的 ctx：run 一旦开始就完整执行。
			runCtx := context.WithoutCancel(ctx)
			err = schedule.Watch(ctx, eff.Cron, schedule.Options{RunNow: runNow}, func(context.Context) {
				c.emitReport(c.sortOnce(runCtx, eff))
			}, &log)
			if err != nil {
				log.Error().Err(err).Msg("定时整理失败")
				return exitCodeError{code: 1}
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&cron, "cron", "", `cron 表达式，例如 "0 3 * * *" 或 "@every 30m"（也可在配置文件中设置）`)
	cmd.Flags().BoolVar(&runNow, "run-now", false, "启动后立即执行一次")
	return cmd
}
