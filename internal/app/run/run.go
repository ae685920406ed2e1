package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/John-Robertt/imgsort/internal/app/planner"
	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/infra/fsx"
	"github.com/John-Robertt/imgsort/internal/infra/lock"
	"github.com/John-Robertt/imgsort/internal/scan"
)

// acquireLock 只在真实文件系统上加 flock；内存文件系统没有跨进程并发可言。
// 测试可替换它来模拟锁冲突。
var acquireLock = func(fsys afero.Fs, target string) (release func() error, err error) {
	if _, ok := fsys.(*afero.OsFs); !ok {
		return func() error { return nil }, nil
	}
	l, err := lock.Acquire(target)
	if err != nil {
		return nil, err
	}
	return l.Release, nil
}

var newRunID = func() string { return uuid.NewString() }

// Execute 同步执行一次 Sort Run，并返回对外稳定的 RunReport。
//
// 阶段：Collecting → Processing → (Deleting) → Completed。
// - 单条文件失败只影响自身（降级为 Error 事件 + item 失败），不中断后续文件
// - 收集失败/锁冲突同样发 Error，然后照常 Completed
// - OnCompleted 恰好调用一次，且在所有其他事件之后（即便中途 panic 也会先发出）
//
// 处理严格串行：事件顺序即收集顺序。run 开始后不响应取消。
func Execute(ctx context.Context, fsys afero.Fs, req domain.Request, obs Observer) (rr domain.RunReport) {
	if obs == nil {
		obs = Funcs{}
	}
	r := &runner{
		fsys: fsys,
		req:  normalizeRequest(req),
		obs:  obs,
		log:  zerolog.Ctx(ctx),
	}
	r.rr = domain.RunReport{
		RunID:     newRunID(),
		Source:    r.req.Source,
		Target:    r.req.Target,
		Policy:    r.req.Policy,
		Delete:    r.req.Delete,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.FileResult, 0, 128),
	}

	defer func() {
		r.rr.FinishedAt = time.Now().UTC()
		r.rr.Finalize()
		rr = r.rr
		r.log.Info().
			Str("run_id", rr.RunID).
			Int("copied", rr.Summary.Copied).
			Int("exists", rr.Summary.Exists).
			Int("failed", rr.Summary.Failed).
			Int("deleted", rr.Summary.Deleted).
			Int("errors", len(rr.Errors)).
			Dur("elapsed", rr.FinishedAt.Sub(rr.StartedAt)).
			Msg("整理完成")
		r.obs.OnCompleted()
	}()

	r.run()
	return rr
}

type runner struct {
	fsys afero.Fs
	req  domain.Request
	obs  Observer
	log  *zerolog.Logger
	rr   domain.RunReport

	// selfDst 记录目标路径与源路径相同的文件（target==source 平铺时）：永不删除。
	selfDst map[int]bool
}

func normalizeRequest(req domain.Request) domain.Request {
	req.Source = filepath.Clean(req.Source)
	req.Target = filepath.Clean(req.Target)
	req.Policy = req.Policy.Effective()
	if req.Delete == "" {
		req.Delete = domain.DeleteNone
	}
	return req
}

func (r *runner) run() {
	r.log.Info().
		Str("run_id", r.rr.RunID).
		Str("source", r.req.Source).
		Str("target", r.req.Target).
		Bool("recursive", r.req.Policy.Recursive).
		Str("delete", string(r.req.Delete)).
		Msg("开始整理")

	release, err := acquireLock(r.fsys, r.req.Target)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			r.runError(domain.ErrCodeLockBusy, fmt.Sprintf("目标目录正被另一个任务使用：%s", r.req.Target))
		} else {
			r.runError(domain.ErrCodeLockFailed, fmt.Sprintf("获取目标目录锁失败：%v", err))
		}
		return
	}
	defer func() {
		if err := release(); err != nil {
			r.log.Warn().Err(err).Msg("释放锁失败")
		}
	}()

	// Collecting
	var exclude []string
	if r.req.Target != r.req.Source && isUnder(r.req.Target, r.req.Source) {
		exclude = append(exclude, r.req.Target)
	}
	files, err := scan.ScanImages(r.fsys, r.req.Source, r.req.Policy.Recursive, exclude, r.log)
	if err != nil {
		r.runError(domain.ErrCodeCollectFailed, fmt.Sprintf("收集文件失败：%v", err))
		return
	}
	r.log.Debug().Int("candidates", len(files)).Msg("收集完成")

	// Processing
	r.selfDst = make(map[int]bool)
	for i := range files {
		r.rr.Items = append(r.rr.Items, r.processOne(i, files[i]))
	}

	// Deleting：总是在全部复制之后，基于原始候选列表。
	if r.req.Delete != domain.DeleteNone {
		r.deleteOriginals(files)
	}
}

func (r *runner) processOne(idx int, c domain.Candidate) domain.FileResult {
	res := domain.FileResult{Src: c.RelPath, Status: domain.FileStatusFailed}

	plan, err := planner.PlanCopy(r.fsys, r.req.Target, r.req.Policy, c)
	if err != nil {
		dir := planner.DestDir(r.req.Target, r.req.Policy, c.CreatedAt)
		res.Dst = r.relTarget(filepath.Join(dir, c.Name))
		res.ErrorCode = domain.ErrCodeMkdirFailed
		if fsx.IsPathTypeConflict(err) {
			res.ErrorCode = domain.ErrCodeTargetConflict
		}
		res.ErrorMsg = fmt.Sprintf("创建目录失败：%v", err)
		r.fileError(c, res)
		return res
	}
	res.Dst = r.relTarget(plan.DstAbs)

	if plan.DstAbs == filepath.Clean(c.AbsPath) {
		r.selfDst[idx] = true
		res.Status = domain.FileStatusExists
		r.log.Debug().Str("dst", plan.DstAbs).Msg("目标即源文件，跳过")
		r.obs.OnAlreadyExists(plan.DstAbs)
		return res
	}

	err = fsx.CopyNoOverwrite(r.fsys, plan.SrcAbs, plan.DstAbs)
	switch {
	case err == nil:
		res.Status = domain.FileStatusCopied
		r.log.Debug().Str("src", plan.SrcAbs).Str("dst", plan.DstAbs).Msg("已复制")
		r.obs.OnSuccess(plan.SrcAbs)
	case errors.Is(err, os.ErrExist):
		res.Status = domain.FileStatusExists
		r.log.Debug().Str("dst", plan.DstAbs).Msg("目标已存在，跳过")
		r.obs.OnAlreadyExists(plan.DstAbs)
	case fsx.IsPathTypeConflict(err):
		res.ErrorCode = domain.ErrCodeTargetConflict
		res.ErrorMsg = err.Error()
		r.fileError(c, res)
	default:
		res.ErrorCode = domain.ErrCodeCopyFailed
		res.ErrorMsg = fmt.Sprintf("复制失败：%v", err)
		r.fileError(c, res)
	}
	return res
}

// deleteOriginals 删除原文件。
//
// - copied：只删除本次复制成功的文件
// - all：删除全部候选（包括“已存在”而跳过、甚至复制失败的文件），保留旧版行为
//
// 删除失败逐条捕获并发 Error，不中断其余删除。
func (r *runner) deleteOriginals(files []domain.Candidate) {
	for i := range files {
		it := &r.rr.Items[i]
		if r.selfDst[i] {
			continue
		}
		if r.req.Delete == domain.DeleteCopied && it.Status != domain.FileStatusCopied {
			continue
		}

		if err := r.fsys.Remove(files[i].AbsPath); err != nil {
			it.DeleteStatus = domain.DeleteStatusFailed
			it.DeleteMsg = fmt.Sprintf("删除原文件失败：%v", err)
			r.log.Warn().Err(err).Str("src", files[i].AbsPath).Msg("删除原文件失败")
			r.obs.OnError(fmt.Sprintf("%s：%s", files[i].AbsPath, it.DeleteMsg))
			continue
		}
		it.DeleteStatus = domain.DeleteStatusDeleted
		r.log.Debug().Str("src", files[i].AbsPath).Msg("已删除原文件")
	}
}

func (r *runner) fileError(c domain.Candidate, res domain.FileResult) {
	r.log.Warn().Str("src", c.AbsPath).Str("error_code", res.ErrorCode).Msg(res.ErrorMsg)
	r.obs.OnError(fmt.Sprintf("%s：%s", c.AbsPath, res.ErrorMsg))
}

func (r *runner) runError(code, msg string) {
	r.rr.Errors = append(r.rr.Errors, domain.RunError{ErrorCode: code, ErrorMsg: msg})
	r.log.Error().Str("error_code", code).Msg(msg)
	r.obs.OnError(msg)
}

func (r *runner) relTarget(abs string) string {
	rel, err := filepath.Rel(r.req.Target, abs)
	if err != nil {
		return abs
	}
	return rel
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(base, string(filepath.Separator))+string(filepath.Separator))
}
