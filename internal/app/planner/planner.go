package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/infra/fsx"
)

// DestDir 计算目标目录（纯函数，不触碰文件系统）。
//
// 结构：target[/YYYY[/M[/D]]]；策略先经 Effective 降级。
// 月/日默认不补零（"3"），ZeroPad=true 时为 "03"。
func DestDir(target string, p domain.Policy, created time.Time) string {
	p = p.Effective()
	dir := filepath.Clean(target)
	if !p.ByYear {
		return dir
	}

	dir = filepath.Join(dir, fmt.Sprintf("%04d", created.Year()))
	if p.ByMonth {
		dir = filepath.Join(dir, formatPart(int(created.Month()), p.ZeroPad))
		if p.ByDay {
			dir = filepath.Join(dir, formatPart(created.Day(), p.ZeroPad))
		}
	}
	return dir
}

func formatPart(n int, zeroPad bool) string {
	if zeroPad {
		return fmt.Sprintf("%02d", n)
	}
	return strconv.Itoa(n)
}

// EnsureDir 幂等地创建目录：已存在则直接返回；被非目录占用则返回 PathTypeConflictError。
// 并发/上一次 run 已创建的情况同样视为成功。
func EnsureDir(fsys afero.Fs, dir string) error {
	fi, err := fsys.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		// MkdirAll 与其他创建者竞争时，目录可能刚好被建好：再确认一次。
		if fi, e := fsys.Stat(dir); e == nil && fi.IsDir() {
			return nil
		}
		return err
	}
	return nil
}

// PlanCopy 为单个候选文件生成复制计划，并创建所需的中间目录。
// 目标文件名总是原文件名：不改名，也不为冲突加后缀。
func PlanCopy(fsys afero.Fs, target string, p domain.Policy, c domain.Candidate) (domain.CopyPlan, error) {
	dir := DestDir(target, p, c.CreatedAt)
	if err := EnsureDir(fsys, dir); err != nil {
		return domain.CopyPlan{}, err
	}
	return domain.CopyPlan{
		SrcAbs: c.AbsPath,
		DstDir: dir,
		DstAbs: filepath.Join(dir, c.Name),
	}, nil
}
