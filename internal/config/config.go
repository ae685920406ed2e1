package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/imgsort/internal/domain"
	"github.com/John-Robertt/imgsort/internal/logging"
)

const (
	// ErrCodeNotFound 表示需要配置文件（CLI 未给全 source/target）但找不到。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示 CLI 与配置文件都没有给出 source 或 target。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

// 按顺序探测的默认配置文件名（位于 cwd）。
var defaultNames = []string{"imgsort.toml", "imgsort.yaml", "imgsort.yml"}

// CLIArgs 保留“是否显式指定”的信息，保证覆盖优先级可实现：
// 例如 --recursive=false 必须能覆盖 config.recursive=true。
type CLIArgs struct {
	ConfigPath string

	Source string
	Target string

	Recursive    bool
	RecursiveSet bool
	ByYear       bool
	ByYearSet    bool
	ByMonth      bool
	ByMonthSet   bool
	ByDay        bool
	ByDaySet     bool
	ZeroPad      bool
	ZeroPadSet   bool

	Delete    string
	DeleteSet bool

	Report    bool
	ReportSet bool
	ReportDir string

	LogLevel string
	LogFile  string

	Cron string
}

// FileConfig 对应 imgsort.toml / imgsort.yaml。未知字段视为错误（避免拼写错误被静默忽略）。
type FileConfig struct {
	Source string `toml:"source" yaml:"source"`
	Target string `toml:"target" yaml:"target"`

	Recursive *bool `toml:"recursive" yaml:"recursive"`
	ByYear    *bool `toml:"by_year" yaml:"by_year"`
	ByMonth   *bool `toml:"by_month" yaml:"by_month"`
	ByDay     *bool `toml:"by_day" yaml:"by_day"`
	ZeroPad   *bool `toml:"zero_pad" yaml:"zero_pad"`

	Delete string `toml:"delete" yaml:"delete"`

	Report    *bool  `toml:"report" yaml:"report"`
	ReportDir string `toml:"report_dir" yaml:"report_dir"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
	LogFile  string `toml:"log_file" yaml:"log_file"`

	Cron string `toml:"cron" yaml:"cron"`
}

// EffectiveConfig 是合并并校验后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Source string
	Target string
	Policy domain.Policy
	Delete domain.DeleteMode

	Report    bool
	ReportDir string // 为空表示使用 <target>/.imgsort/reports

	LogLevel string
	LogFile  string

	Cron string

	// ConfigFile 是实际读取的配置文件；未读取任何文件时为空。
	ConfigFile string
}

// Request 把配置转换为一次 Sort Run 的输入。
func (e EffectiveConfig) Request() domain.Request {
	return domain.Request{
		Source: e.Source,
		Target: e.Target,
		Policy: e.Policy,
		Delete: e.Delete,
	}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：缺少 source 或 target", e.Code)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) 指定了 --config：该文件必须存在
// 2) 否则依次探测 <cwd>/imgsort.toml、imgsort.yaml、imgsort.yml（可选）
// 3) CLI 未同时给出 source 与 target 时，配置文件变为必选
//
// 覆盖优先级：CLI > 配置文件 > 默认值。
// 相对路径：CLI 中的相对 cwd，配置文件中的相对配置文件所在目录。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	needFile := strings.TrimSpace(cli.Source) == "" || strings.TrimSpace(cli.Target) == ""

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		for _, name := range defaultNames {
			p := filepath.Join(cwdAbs, name)
			fc, exists, err = readFileConfig(p)
			if err != nil {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
			}
			if exists {
				cfgPath = p
				break
			}
		}
		if !exists && needFile {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: filepath.Join(cwdAbs, defaultNames[0]), Err: os.ErrNotExist}
		}
	}
	if !exists {
		cfgPath = ""
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	cfgDir := cwdAbs
	if cfgPath != "" {
		cfgDir = filepath.Dir(cfgPath)
	}

	source := pickPath(cwdAbs, cli.Source, cfgDir, fc.Source)
	target := pickPath(cwdAbs, cli.Target, cfgDir, fc.Target)
	if source == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath, Err: fmt.Errorf("缺少 source")}
	}
	if target == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath, Err: fmt.Errorf("缺少 target")}
	}

	policy := domain.Policy{
		Recursive: pickBool(cli.Recursive, cli.RecursiveSet, fc.Recursive, false),
		ByYear:    pickBool(cli.ByYear, cli.ByYearSet, fc.ByYear, false),
		ByMonth:   pickBool(cli.ByMonth, cli.ByMonthSet, fc.ByMonth, false),
		ByDay:     pickBool(cli.ByDay, cli.ByDaySet, fc.ByDay, false),
		ZeroPad:   pickBool(cli.ZeroPad, cli.ZeroPadSet, fc.ZeroPad, false),
	}

	deleteRaw := fc.Delete
	if cli.DeleteSet {
		deleteRaw = cli.Delete
	}
	del, err := domain.ParseDeleteMode(deleteRaw)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	logLevel := firstNonEmpty(cli.LogLevel, fc.LogLevel)
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff := EffectiveConfig{
		Source:     source,
		Target:     target,
		Policy:     policy,
		Delete:     del,
		Report:     pickBool(cli.Report, cli.ReportSet, fc.Report, true),
		ReportDir:  pickPath(cwdAbs, cli.ReportDir, cfgDir, fc.ReportDir),
		LogLevel:   logLevel,
		LogFile:    pickPath(cwdAbs, cli.LogFile, cfgDir, fc.LogFile),
		Cron:       strings.TrimSpace(firstNonEmpty(cli.Cron, fc.Cron)),
		ConfigFile: cfgPath,
	}
	if err := validateDirs(eff); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return eff, nil
}

// validateDirs 只在配置层校验目录；核心流程假定 source/target 合法。
func validateDirs(eff EffectiveConfig) error {
	fi, err := os.Stat(eff.Source)
	if err != nil {
		return fmt.Errorf("source 不可用：%w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("source 不是目录：%q", eff.Source)
	}

	if fi, err := os.Stat(eff.Target); err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("target 不是目录：%q", eff.Target)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("target 不可用：%w", err)
	}
	return nil
}

func pickPath(cwdAbs, cliVal, cfgDir, fileVal string) string {
	if strings.TrimSpace(cliVal) != "" {
		return absCleanFrom(cwdAbs, cliVal)
	}
	if strings.TrimSpace(fileVal) != "" {
		return absCleanFrom(cfgDir, fileVal)
	}
	return ""
}

func pickBool(cliVal, cliSet bool, fileVal *bool, def bool) bool {
	if cliSet {
		return cliVal
	}
	if fileVal != nil {
		return *fileVal
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析配置文件（按扩展名选择 TOML 或 YAML）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return FileConfig{}, true, err
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return FileConfig{}, true, err
		}
	}
	return fc, true, nil
}
