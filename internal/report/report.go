package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/infra/fsx"
)

//go:embed skeleton.html
var skeleton []byte

// DefaultDir 是 target 下的默认报告目录。
func DefaultDir(target string) string {
	return filepath.Join(target, ".imgsort", "reports")
}

// Store 负责把 RunReport 落盘为 <dir>/<run-id>.json 与 <dir>/<run-id>.html。
type Store struct {
	Fs  afero.Fs
	Dir string
}

func New(fsys afero.Fs, dir string) Store {
	return Store{Fs: fsys, Dir: filepath.Clean(strings.TrimSpace(dir))}
}

// Paths 是一次保存写出的文件。
type Paths struct {
	JSON string
	HTML string
}

var runIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

var ErrInvalidRunID = errors.New("report: run_id 非法")

func checkRunID(id string) error {
	if !runIDRe.MatchString(id) {
		return fmt.Errorf("%w：%q", ErrInvalidRunID, id)
	}
	return nil
}

// Save 写出 JSON 与 HTML（都是原子替换）。
func (s Store) Save(rr domain.RunReport) (Paths, error) {
	if err := checkRunID(rr.RunID); err != nil {
		return Paths{}, err
	}

	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return Paths{}, err
	}
	b = append(b, '\n')
	if err := fsx.WriteFileAtomicReplace(s.Fs, s.Dir, rr.RunID+".json", b); err != nil {
		return Paths{}, fmt.Errorf("写入报告 JSON 失败：%w", err)
	}

	page, err := RenderHTML(rr)
	if err != nil {
		return Paths{}, err
	}
	if err := fsx.WriteFileAtomicReplace(s.Fs, s.Dir, rr.RunID+".html", page); err != nil {
		return Paths{}, fmt.Errorf("写入报告 HTML 失败：%w", err)
	}

	return Paths{
		JSON: filepath.Join(s.Dir, rr.RunID+".json"),
		HTML: filepath.Join(s.Dir, rr.RunID+".html"),
	}, nil
}

// Load 读取之前保存的 JSON 报告。
func (s Store) Load(runID string) (domain.RunReport, error) {
	if err := checkRunID(runID); err != nil {
		return domain.RunReport{}, err
	}
	b, err := afero.ReadFile(s.Fs, filepath.Join(s.Dir, runID+".json"))
	if err != nil {
		return domain.RunReport{}, err
	}
	var rr domain.RunReport
	if err := json.Unmarshal(b, &rr); err != nil {
		return domain.RunReport{}, fmt.Errorf("解析报告失败：%w", err)
	}
	return rr, nil
}

// RenderHTML 把报告填进内嵌的 HTML 骨架。
// 所有文本都经由 SetText 写入，因此文件名里的特殊字符会被正确转义。
func RenderHTML(rr domain.RunReport) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(skeleton))
	if err != nil {
		return nil, fmt.Errorf("解析报告模板失败：%w", err)
	}

	doc.Find("#run-id").SetText(rr.RunID)
	doc.Find("#source").SetText(rr.Source)
	doc.Find("#target").SetText(rr.Target)
	doc.Find("#started").SetText(formatTime(rr.StartedAt))
	doc.Find("#finished").SetText(formatTime(rr.FinishedAt))
	doc.Find("#delete").SetText(string(rr.Delete))

	sum := doc.Find("#summary")
	sum.Find("td.candidates").SetText(strconv.Itoa(rr.Summary.Candidates))
	sum.Find("td.copied").SetText(strconv.Itoa(rr.Summary.Copied))
	sum.Find("td.exists").SetText(strconv.Itoa(rr.Summary.Exists))
	sum.Find("td.failed").SetText(strconv.Itoa(rr.Summary.Failed))
	sum.Find("td.deleted").SetText(strconv.Itoa(rr.Summary.Deleted))
	sum.Find("td.delete-failed").SetText(strconv.Itoa(rr.Summary.DeleteFailed))

	errTpl := doc.Find("#errors li.error-template").First()
	errList := doc.Find("#errors")
	for _, e := range rr.Errors {
		li := errTpl.Clone().RemoveClass("error-template").AddClass(e.ErrorCode)
		li.SetText(fmt.Sprintf("[%s] %s", e.ErrorCode, e.ErrorMsg))
		errList.AppendSelection(li)
	}
	errTpl.Remove()

	rowTpl := doc.Find("#items tr.item-template").First()
	body := doc.Find("#items tbody")
	for _, it := range rr.Items {
		row := rowTpl.Clone().RemoveClass("item-template").AddClass(it.Status)
		row.Find("td.src").SetText(it.Src)
		row.Find("td.dst").SetText(it.Dst)
		row.Find("td.status").SetText(it.Status)
		if it.ErrorCode != "" {
			row.Find("td.error").SetText(fmt.Sprintf("[%s] %s", it.ErrorCode, it.ErrorMsg))
		}
		del := it.DeleteStatus
		if it.DeleteMsg != "" {
			del += "：" + it.DeleteMsg
		}
		row.Find("td.delete").SetText(del)
		body.AppendSelection(row)
	}
	rowTpl.Remove()

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("渲染报告失败：%w", err)
	}
	return []byte(out), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
