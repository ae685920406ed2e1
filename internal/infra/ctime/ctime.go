// Package ctime 读取文件的创建时间（birth time）。
//
// 只有真实文件系统（afero.OsFs）才尝试读取平台的 birth time；
// 内存文件系统或平台不支持时退化为 ModTime。
package ctime

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

// 通过可替换的函数指针，让测试能稳定模拟“不支持 birth time”。
var birthTimeFunc = birthTime

// CreatedAt 返回 path 的创建时间（本地时区）。
func CreatedAt(fsys afero.Fs, path string, fi os.FileInfo) time.Time {
	if _, ok := fsys.(*afero.OsFs); ok {
		if t, ok := birthTimeFunc(path, fi); ok && !t.IsZero() {
			return t.Local()
		}
	}
	if fi == nil {
		return time.Time{}
	}
	return fi.ModTime().Local()
}
