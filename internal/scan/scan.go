package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/text/cases"

	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/infra/ctime"
)

// ScanImages 收集 root 下扩展名为 .jpg/.png 的文件。
//
// 规则（硬约束）：
// - 扩展名匹配不区分大小写（.JPG 也算）
// - recursive=false 只看 root 的直接子项；true 时无深度限制
// - 符号链接目录不跟随（walk 基于 Lstat），因此不会出现环
// - 无权限的目录静默跳过（整棵子树缺席），不影响其他目录
// - excludeDirs 为绝对路径（通常是位于 source 内部的 target），整棵子树排除
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ScanImages(fsys afero.Fs, root string, recursive bool, excludeDirs []string, log *zerolog.Logger) ([]domain.Candidate, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	root = filepath.Clean(root)
	excluded := buildExcluded(excludeDirs)
	fold := cases.Fold()

	files := make([]domain.Candidate, 0, 128)
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrPermission) {
				log.Debug().Err(walkErr).Str("path", path).Msg("目录无权限，跳过")
				if info == nil || info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return walkErr
		}

		if info.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()
		ext := fold.String(filepath.Ext(name))
		if !isImageExt(ext) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.Candidate{
			AbsPath:   path,
			RelPath:   rel,
			Name:      name,
			Ext:       ext,
			Size:      info.Size(),
			CreatedAt: ctime.CreatedAt(fsys, path, info),
		})
		return nil
	})
	// root 本身无权限时 afero.Walk 会把 SkipDir 原样返回：按“跳过”处理。
	if errors.Is(err, filepath.SkipDir) {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("root", root).Bool("recursive", recursive).Int("files", len(files)).Msg("扫描完成")
	return files, nil
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".png":
		return true
	default:
		return false
	}
}

func buildExcluded(excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(x))
	}
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
