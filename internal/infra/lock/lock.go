package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName 是放在 target 根目录下的锁文件名。
const FileName = ".imgsort.lock"

// ErrBusy 表示同一 target 上已有另一个 run 持有锁。
var ErrBusy = errors.New("另一个整理任务正在使用该目标目录")

// Lock 是 target 级别的独占锁（进程间有效）。
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire 在 targetDir 下获取非阻塞独占锁；被占用时返回 ErrBusy。
// targetDir 不存在时会先创建。
func Acquire(targetDir string) (*Lock, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建目标目录失败：%w", err)
	}
	p := filepath.Join(targetDir, FileName)
	fl := flock.New(p)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取锁失败：%w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return &Lock{path: p, fl: fl}, nil
}

func (l *Lock) Path() string { return l.path }

// Release 释放锁；锁文件本身保留（flock 语义下残留文件无害）。
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
