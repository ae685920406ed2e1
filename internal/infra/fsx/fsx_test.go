package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// denyCreateFs 拒绝在指定目录下创建文件，用来模拟目标目录只读。
type denyCreateFs struct {
	afero.Fs
	dir string
}

func (d denyCreateFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 && filepath.Dir(name) == d.dir {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

func TestCopyNoOverwrite_CopiesBytesAndMode(t *testing.T) {
	fsys := afero.NewMemMapFs()
	mtime := time.Date(2021, 3, 15, 9, 30, 0, 0, time.UTC)
	if err := afero.WriteFile(fsys, "/src/a.jpg", []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := fsys.Chtimes("/src/a.jpg", mtime, mtime); err != nil {
		t.Fatalf("Chtimes 失败：%v", err)
	}
	if err := fsys.MkdirAll("/dst", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	if err := CopyNoOverwrite(fsys, "/src/a.jpg", "/dst/a.jpg"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := afero.ReadFile(fsys, "/dst/a.jpg")
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "jpeg-bytes" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	fi, err := fsys.Stat("/dst/a.jpg")
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("权限位应保留：%v", fi.Mode().Perm())
	}
	if !fi.ModTime().Equal(mtime) {
		t.Fatalf("mtime 应保留：%v", fi.ModTime())
	}
	if _, err := fsys.Stat("/src/a.jpg"); err != nil {
		t.Fatalf("源文件不应被移动：%v", err)
	}
}

func TestCopyNoOverwrite_ExistingKeepsBytes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/src/a.jpg", []byte("new"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := afero.WriteFile(fsys, "/dst/a.jpg", []byte("old"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := CopyNoOverwrite(fsys, "/src/a.jpg", "/dst/a.jpg")
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("期望 os.ErrExist，实际：%v", err)
	}
	b, _ := afero.ReadFile(fsys, "/dst/a.jpg")
	if string(b) != "old" {
		t.Fatalf("已存在文件不应被覆盖：%q", string(b))
	}
}

func TestCopyNoOverwrite_DirInTheWay(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/src/a.jpg", []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := fsys.MkdirAll("/dst/a.jpg", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := CopyNoOverwrite(fsys, "/src/a.jpg", "/dst/a.jpg")
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func TestCopyNoOverwrite_MissingSourceLeavesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/dst", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	if err := CopyNoOverwrite(fsys, "/src/gone.jpg", "/dst/gone.jpg"); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if ok, _ := afero.Exists(fsys, "/dst/gone.jpg"); ok {
		t.Fatalf("失败时不应留下目标文件")
	}
}

func TestCopyNoOverwrite_PermissionDenied(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := afero.WriteFile(base, "/src/a.jpg", []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := base.MkdirAll("/dst", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	fsys := denyCreateFs{Fs: base, dir: "/dst"}

	err := CopyNoOverwrite(fsys, "/src/a.jpg", "/dst/a.jpg")
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("期望 os.ErrPermission，实际：%v", err)
	}
}

func TestWriteFileAtomic_SuccessAndNoTempLeft(t *testing.T) {
	fsys := afero.NewMemMapFs()

	if err := WriteFileAtomic(fsys, "/reports", "a.json", []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := afero.ReadFile(fsys, "/reports/a.json")
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	assertNoTemp(t, fsys, "/reports", "a.json")
}

func TestWriteFileAtomic_RenameFail_CleanupTemp(t *testing.T) {
	fsys := afero.NewMemMapFs()

	old := renameFunc
	renameFunc = func(afero.Fs, string, string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	err := WriteFileAtomic(fsys, "/reports", "a.json", []byte("hello"))
	if err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	assertNoTemp(t, fsys, "/reports", "a.json")
	if ok, _ := afero.Exists(fsys, "/reports/a.json"); ok {
		t.Fatalf("不应写出最终文件")
	}
}

func TestWriteFileAtomic_ReplacesExisting(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := WriteFileAtomic(fsys, "/reports", "a.json", []byte("v1")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomic(fsys, "/reports", "a.json", []byte("v2")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, _ := afero.ReadFile(fsys, "/reports/a.json")
	if string(b) != "v2" {
		t.Fatalf("期望覆盖为 v2，实际：%q", string(b))
	}
}

func TestWriteFileAtomicNoOverwrite_Existing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/reports/a.json", []byte("v1"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := WriteFileAtomicNoOverwrite(fsys, "/reports", "a.json", []byte("v2"))
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("期望 os.ErrExist，实际：%v", err)
	}
}

func TestWriteFileAtomicNoOverwrite_TargetConflictDir(t *testing.T) {
	fsys := afero.NewMemMapFs()

	// 目标路径是目录：应返回 PathTypeConflictError，而不是 os.ErrExist。
	if err := fsys.MkdirAll("/reports/a.json", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomicNoOverwrite(fsys, "/reports", "a.json", []byte("hello"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func assertNoTemp(t *testing.T, fsys afero.Fs, dir, name string) {
	t.Helper()
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}
