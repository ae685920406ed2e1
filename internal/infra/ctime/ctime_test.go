package ctime

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestCreatedAt_MemFsFallsBackToModTime(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/a.jpg", []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	want := time.Date(2021, 3, 15, 12, 0, 0, 0, time.Local)
	if err := fsys.Chtimes("/a.jpg", want, want); err != nil {
		t.Fatalf("Chtimes 失败：%v", err)
	}
	fi, err := fsys.Stat("/a.jpg")
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}

	got := CreatedAt(fsys, "/a.jpg", fi)
	if !got.Equal(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestCreatedAt_OsFsUsesBirthTimeWhenAvailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}

	birth := time.Date(2019, 7, 1, 8, 0, 0, 0, time.Local)
	old := birthTimeFunc
	birthTimeFunc = func(string, os.FileInfo) (time.Time, bool) { return birth, true }
	defer func() { birthTimeFunc = old }()

	if got := CreatedAt(afero.NewOsFs(), path, fi); !got.Equal(birth) {
		t.Fatalf("期望 birth time %v，实际 %v", birth, got)
	}
}

func TestCreatedAt_OsFsWithoutBirthTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes 失败：%v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}

	old := birthTimeFunc
	birthTimeFunc = func(string, os.FileInfo) (time.Time, bool) { return time.Time{}, false }
	defer func() { birthTimeFunc = old }()

	if got := CreatedAt(afero.NewOsFs(), path, fi); !got.Equal(mtime) {
		t.Fatalf("不支持 birth time 时应退化为 ModTime：期望 %v，实际 %v", mtime, got)
	}
}
