package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/infra/fsx"
)

var march15 = time.Date(2021, 3, 15, 10, 0, 0, 0, time.Local)

func TestDestDir_Composition(t *testing.T) {
	target := filepath.FromSlash("/dst")

	cases := []struct {
		name string
		p    domain.Policy
		want string
	}{
		{"flat", domain.Policy{}, target},
		{"year", domain.Policy{ByYear: true}, filepath.Join(target, "2021")},
		{"year-month", domain.Policy{ByYear: true, ByMonth: true}, filepath.Join(target, "2021", "3")},
		{"year-month-day", domain.Policy{ByYear: true, ByMonth: true, ByDay: true}, filepath.Join(target, "2021", "3", "15")},
		{"zero-pad", domain.Policy{ByYear: true, ByMonth: true, ByDay: true, ZeroPad: true}, filepath.Join(target, "2021", "03", "15")},
		{"day-without-month", domain.Policy{ByYear: true, ByDay: true}, filepath.Join(target, "2021")},
		{"month-without-year", domain.Policy{ByMonth: true, ByDay: true}, target},
	}
	for _, tc := range cases {
		if got := DestDir(target, tc.p, march15); got != tc.want {
			t.Fatalf("%s：期望 %q，实际 %q", tc.name, tc.want, got)
		}
	}
}

func TestPlanCopy_CreatesDirsAndKeepsName(t *testing.T) {
	fsys := afero.NewMemMapFs()
	c := domain.Candidate{AbsPath: "/src/IMG_0001.JPG", Name: "IMG_0001.JPG", CreatedAt: march15}

	plan, err := PlanCopy(fsys, "/dst", domain.Policy{ByYear: true, ByMonth: true}, c)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	wantDst := filepath.Join("/dst", "2021", "3", "IMG_0001.JPG")
	if plan.DstAbs != wantDst {
		t.Fatalf("期望 dst=%q，实际=%q", wantDst, plan.DstAbs)
	}
	ok, err := afero.DirExists(fsys, filepath.Join("/dst", "2021", "3"))
	if err != nil || !ok {
		t.Fatalf("目录应已创建：ok=%v err=%v", ok, err)
	}
}

func TestPlanCopy_Idempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	c := domain.Candidate{AbsPath: "/src/a.jpg", Name: "a.jpg", CreatedAt: march15}
	p := domain.Policy{ByYear: true, ByMonth: true, ByDay: true}

	first, err := PlanCopy(fsys, "/dst", p, c)
	if err != nil {
		t.Fatalf("第一次不期望错误：%v", err)
	}
	second, err := PlanCopy(fsys, "/dst", p, c)
	if err != nil {
		t.Fatalf("目录已存在时不应失败：%v", err)
	}
	if first != second {
		t.Fatalf("两次计划应一致：%+v vs %+v", first, second)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/dst/2021", []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := EnsureDir(fsys, "/dst/2021")
	if !fsx.IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}
