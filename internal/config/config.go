package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/ADF/internal/fingerprint"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 adf.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// DefaultStrategy 是指纹策略的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultStrategy = fingerprint.StrategyContent
	// DefaultAlgo 是 content 策略的默认摘要算法。
	DefaultAlgo = fingerprint.AlgoMD5
	// DefaultConcurrency 是并发的内置默认值（当配置未指定时）。
	DefaultConcurrency = 4
)

// CLIArgs 包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Strategy    string
	StrategySet bool

	Algo    string
	AlgoSet bool

	Apply    bool
	ApplySet bool

	MoveTo    string
	MoveToSet bool

	CSV    string
	CSVSet bool

	// Keep 是本次要标记为保留的文件夹（相对扫描根），可重复指定。
	Keep []string
}

// FileConfig 对应 adf.json 的解析结构。
type FileConfig struct {
	Path        string   `json:"path"`
	Strategy    string   `json:"strategy"`
	Algo        string   `json:"algo"`
	Apply       *bool    `json:"apply"`
	Concurrency int      `json:"concurrency"`
	Extensions  []string `json:"extensions"`
	ExcludeDirs []string `json:"exclude_dirs"`
	MoveTo      string   `json:"move_to"`
	CSV         string   `json:"csv"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Strategy fingerprint.Strategy
	Algo     fingerprint.Algo
	Apply    bool

	Concurrency int
	Extensions  []string
	ExcludeDirs []string

	// MoveTo 为空表示不移动重复文件；非空时已解析为绝对路径（相对值相对扫描根）。
	MoveTo string
	// CSV 为空表示不导出报表；非空时已解析为绝对路径（相对值相对 cwd）。
	CSV string

	Keep []string
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
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
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

// LoadEffective 按文档约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/adf.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/adf.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - strategy/algo/apply/move_to/csv：CLI > config > 默认
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
	)

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/adf.json。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath = filepath.Join(absPath, "adf.json")

		fc, _, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}

		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/adf.json，且其中必须包含 path。
	cfgPath = filepath.Join(cwdAbs, "adf.json")
	var exists bool
	fc, exists, err = readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(cwdAbs, absPath, cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// strategy：CLI > config > 默认 content
	rawStrategy := string(DefaultStrategy)
	if cli.StrategySet {
		rawStrategy = cli.Strategy
	} else if strings.TrimSpace(fc.Strategy) != "" {
		rawStrategy = fc.Strategy
	}
	strategy, err := fingerprint.ParseStrategy(rawStrategy)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// algo：CLI > config > 默认 md5（仅 content 策略消费，其余策略忽略）
	rawAlgo := string(DefaultAlgo)
	if cli.AlgoSet {
		rawAlgo = cli.Algo
	} else if strings.TrimSpace(fc.Algo) != "" {
		rawAlgo = fc.Algo
	}
	algo, err := fingerprint.ParseAlgo(rawAlgo)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// apply：CLI > config > 默认 false
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围约定 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	// move_to：CLI > config；相对路径相对扫描根解析。
	moveTo := ""
	if cli.MoveToSet {
		moveTo = cli.MoveTo
	} else {
		moveTo = fc.MoveTo
	}
	if strings.TrimSpace(moveTo) != "" {
		moveTo = absCleanFrom(absPath, moveTo)
	} else {
		moveTo = ""
	}

	// csv：CLI > config；相对路径相对 cwd 解析（报表是给调用者的，不属于音乐库）。
	csvPath := ""
	if cli.CSVSet {
		csvPath = cli.CSV
	} else {
		csvPath = fc.CSV
	}
	if strings.TrimSpace(csvPath) != "" {
		csvPath = absCleanFrom(cwdAbs, csvPath)
	} else {
		csvPath = ""
	}

	exts := fc.Extensions
	for i, e := range exts {
		e = strings.TrimSpace(e)
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = e
	}

	return EffectiveConfig{
		Path:        absPath,
		Strategy:    strategy,
		Algo:        algo,
		Apply:       apply,
		Concurrency: concurrency,
		Extensions:  append([]string(nil), exts...),
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		MoveTo:      moveTo,
		CSV:         csvPath,
		Keep:        append([]string(nil), cli.Keep...),
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
