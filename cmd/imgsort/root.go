package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/imgsort/internal/config"
)

// cli 持有各子命令共享的输出流与全局参数。
type cli struct {
	stdout io.Writer
	stderr io.Writer
	fsys   afero.Fs

	configPath string
	logLevel   string
	logFile    string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, fsys: afero.NewOsFs()}

	rootCmd := &cobra.Command{
		Use:           "imgsort",
		Short:         "按创建日期整理 .jpg/.png 图片",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "配置文件路径（默认探测 ./imgsort.toml、./imgsort.yaml）")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "日志级别：debug|info|warn|error|off")
	rootCmd.PersistentFlags().StringVar(&c.logFile, "log-file", "", "额外写入的日志文件")

	rootCmd.AddCommand(newRunCommand(c))
	rootCmd.AddCommand(newWatchCommand(c))
	rootCmd.AddCommand(newReportCommand(c))
	rootCmd.AddCommand(newVersionCommand(c))

	return rootCmd
}

func newVersionCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.stdout, "imgsort %s\n", version)
			return nil
		},
	}
}

// sortFlags 是 run/watch 共用的整理参数。
type sortFlags struct {
	recursive bool
	byYear    bool
	byMonth   bool
	byDay     bool
	zeroPad   bool
	delete    string
	report    bool
	reportDir string
}

func (f *sortFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVarP(&f.recursive, "recursive", "r", false, "递归扫描子目录")
	fs.BoolVar(&f.byYear, "by-year", false, "按年分目录")
	fs.BoolVar(&f.byMonth, "by-month", false, "按月分目录（需要 --by-year）")
	fs.BoolVar(&f.byDay, "by-day", false, "按日分目录（需要 --by-month）")
	fs.BoolVar(&f.zeroPad, "zero-pad", false, "月/日目录补零（03 而不是 3）")
	fs.StringVar(&f.delete, "delete", "", "复制后删除原文件：none|copied|all（单独 --delete 等于 copied）")
	fs.Lookup("delete").NoOptDefVal = "copied"
	fs.BoolVar(&f.report, "report", true, "写入 JSON/HTML 报告")
	fs.StringVar(&f.reportDir, "report-dir", "", "报告目录（默认 <target>/.imgsort/reports）")
}

// cliArgs 保留“是否显式指定”，使 --recursive=false 能覆盖配置文件。
func (f *sortFlags) cliArgs(c *cli, cmd *cobra.Command, args []string) config.CLIArgs {
	fs := cmd.Flags()
	ca := config.CLIArgs{
		ConfigPath:   c.configPath,
		Recursive:    f.recursive,
		RecursiveSet: fs.Changed("recursive"),
		ByYear:       f.byYear,
		ByYearSet:    fs.Changed("by-year"),
		ByMonth:      f.byMonth,
		ByMonthSet:   fs.Changed("by-month"),
		ByDay:        f.byDay,
		ByDaySet:     fs.Changed("by-day"),
		ZeroPad:      f.zeroPad,
		ZeroPadSet:   fs.Changed("zero-pad"),
		Delete:       f.delete,
		DeleteSet:    fs.Changed("delete"),
		Report:       f.report,
		ReportSet:    fs.Changed("report"),
		ReportDir:    f.reportDir,
		LogLevel:     c.logLevel,
		LogFile:      c.logFile,
	}
	if len(args) > 0 {
		ca.Source = args[0]
	}
	if len(args) > 1 {
		ca.Target = args[1]
	}
	return ca
}

func (c *cli) loadConfig(ca config.CLIArgs) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, &config.Error{Code: config.ErrCodeInvalid, Err: fmt.Errorf("读取当前目录失败：%w", err)}
	}
	return config.LoadEffective(cwd, ca)
}
