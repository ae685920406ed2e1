//go:build linux

package ctime

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// statx 是 Linux 上唯一能拿到 btime 的接口；老内核/部分文件系统不返回 STATX_BTIME。
func birthTime(path string, _ os.FileInfo) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
