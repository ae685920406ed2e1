package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/imgsort/internal/report"
)

func newReportCommand(c *cli) *cobra.Command {
	var (
		dir    string
		target string
	)

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "查看之前保存的整理报告",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" && target == "" {
				return fmt.Errorf("需要 --dir 或 --target")
			}
			if dir == "" {
				dir = report.DefaultDir(target)
			}

			rr, err := report.New(c.fsys, dir).Load(args[0])
			if err != nil {
				fmt.Fprintf(c.stderr, "读取报告失败：%v\n", err)
				return exitCodeError{code: 1}
			}

			if isTerminal(c.stdout) {
				fmt.Fprintln(c.stdout, renderSummary(rr))
				fmt.Fprintln(c.stdout, renderItems(rr))
				return nil
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(rr)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "报告目录")
	cmd.Flags().StringVar(&target, "target", "", "整理时的 target（报告位于 <target>/.imgsort/reports）")
	return cmd
}
