package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Source:     "/abs/src",
		Target:     "/abs/dst",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []FileResult{
			{Src: "b.jpg", Status: FileStatusExists, DeleteStatus: DeleteStatusDeleted},
			{Src: "c.png", Status: FileStatusFailed, ErrorCode: ErrCodeCopyFailed},
			{Src: "a.jpg", Status: FileStatusCopied, DeleteStatus: DeleteStatusFailed},
		},
	}

	r.Finalize()

	if r.Items[0].Src != "a.jpg" || r.Items[1].Src != "b.jpg" || r.Items[2].Src != "c.png" {
		t.Fatalf("items 排序不符合契约：%v", []string{r.Items[0].Src, r.Items[1].Src, r.Items[2].Src})
	}
	want := ReportSummary{Candidates: 3, Copied: 1, Exists: 1, Failed: 1, Deleted: 1, DeleteFailed: 1}
	if r.Summary != want {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}
	if !r.HasFailures() {
		t.Fatalf("期望 HasFailures=true")
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestRunReport_Finalize_EmptyRunMarshalsArrays(t *testing.T) {
	var r RunReport
	r.Finalize()

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// 空 run 也必须输出 [] 而不是 null（下游 jq 脚本依赖）。
	if !bytes.Contains(b, []byte(`"items":[]`)) || !bytes.Contains(b, []byte(`"errors":[]`)) {
		t.Fatalf("空数组输出不符合契约：%s", string(b))
	}
	if r.HasFailures() {
		t.Fatalf("空 run 不应有失败")
	}
}

func TestPolicy_EffectiveDegradesInvalidCombinations(t *testing.T) {
	p := Policy{ByYear: true, ByMonth: false, ByDay: true}.Effective()
	if !p.ByYear || p.ByMonth || p.ByDay {
		t.Fatalf("ByDay 缺少 ByMonth 时应降级为仅按年：%+v", p)
	}

	p = Policy{ByYear: false, ByMonth: true, ByDay: true}.Effective()
	if p.ByYear || p.ByMonth || p.ByDay || p.Structured() {
		t.Fatalf("缺少 ByYear 时应完全平铺：%+v", p)
	}
}

func TestParseDeleteMode(t *testing.T) {
	for in, want := range map[string]DeleteMode{"": DeleteNone, "none": DeleteNone, "Copied": DeleteCopied, " all ": DeleteAll} {
		got, err := ParseDeleteMode(in)
		if err != nil {
			t.Fatalf("ParseDeleteMode(%q) 不期望错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDeleteMode(%q)=%q，期望 %q", in, got, want)
		}
	}
	if _, err := ParseDeleteMode("sometimes"); err == nil {
		t.Fatalf("期望非法值报错")
	}
}
