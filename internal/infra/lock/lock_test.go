package lock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquire_SecondHolderIsBusy(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer first.Release()

	if _, err := Acquire(dir); !errors.Is(err, ErrBusy) {
		t.Fatalf("期望 ErrBusy，实际：%v", err)
	}
}

func TestAcquire_ReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("释放失败：%v", err)
	}

	second, err := Acquire(dir)
	if err != nil {
		t.Fatalf("释放后应可再次获取：%v", err)
	}
	defer second.Release()
	if second.Path() != filepath.Join(dir, FileName) {
		t.Fatalf("锁文件路径不正确：%q", second.Path())
	}
}

func TestAcquire_CreatesMissingTarget(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet")

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer l.Release()
}

func TestRelease_NilIsNoop(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil 锁释放不应报错：%v", err)
	}
}
