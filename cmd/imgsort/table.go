package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/imgsort/internal/domain"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary 输出一次 run 的计数表。
func renderSummary(rr domain.RunReport) string {
	s := rr.Summary
	headers := []string{"候选", "已复制", "已存在", "失败", "已删除", "删除失败", "运行错误"}
	row := []string{
		strconv.Itoa(s.Candidates),
		strconv.Itoa(s.Copied),
		strconv.Itoa(s.Exists),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Deleted),
		strconv.Itoa(s.DeleteFailed),
		strconv.Itoa(len(rr.Errors)),
	}
	aligns := make([]columnAlignment, len(headers))
	for i := range aligns {
		aligns[i] = alignRight
	}
	return renderTable(headers, [][]string{row}, aligns)
}

// renderFailures 只列出失败项；没有失败时返回空串。
func renderFailures(rr domain.RunReport) string {
	rows := make([][]string, 0)
	for _, e := range rr.Errors {
		rows = append(rows, []string{"-", e.ErrorCode, truncate(e.ErrorMsg, 160)})
	}
	for _, it := range rr.Items {
		if it.Status == domain.FileStatusFailed {
			rows = append(rows, []string{it.Src, it.ErrorCode, truncate(it.ErrorMsg, 160)})
		}
		if it.DeleteStatus == domain.DeleteStatusFailed {
			rows = append(rows, []string{it.Src, domain.ErrCodeDeleteFailed, truncate(it.DeleteMsg, 160)})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable([]string{"文件", "错误码", "说明"}, rows, nil)
}

// renderItems 列出全部文件结果（report 命令使用）。
func renderItems(rr domain.RunReport) string {
	rows := make([][]string, 0, len(rr.Items))
	for _, it := range rr.Items {
		rows = append(rows, []string{it.Src, it.Dst, it.Status, it.DeleteStatus})
	}
	return renderTable([]string{"源", "目标", "状态", "删除"}, rows, nil)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
