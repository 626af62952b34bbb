package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/ADF/internal/domain"
)

// DefaultExtensions 是未配置 extensions 时的目标扩展名。
var DefaultExtensions = []string{".mp3"}

// ScanAudio 扫描 root 下的音频文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - 永久排除：<root>/cache/（keep.json 等工具自身产物的位置）
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 扩展名匹配大小写不敏感
//
// 容错（与“单文件失败不致命”的整体策略一致）：
// - 子目录不可读（权限等）：静默跳过该子树，不中断扫描
// - 单个文件 stat 失败：跳过该文件
// - root 自身遍历失败（例如扫描途中被删除）：返回错误，由上层转为致命错误
//
// 注意：扫描阶段只做 stat（DirEntry.Info），不读文件内容；结果按 RelPath 稳定排序，
// 使下游分组顺序在同一文件系统快照内可复现。
func ScanAudio(root string, exts []string, excludeDirs []string) ([]domain.AudioFile, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)
	target := normalizeExts(exts)

	files := make([]domain.AudioFile, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// root 自身出错（不存在/不可读/被删除）会让整次扫描失去意义。
			if filepath.Clean(path) == root {
				return walkErr
			}
			// 子目录/子文件出错：跳过即可，不让单个坏目录拖垮整次扫描。
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := target[ext]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// stat 失败：该文件降级为“不存在”，扫描继续。
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		files = append(files, domain.AudioFile{
			AbsPath: path,
			RelPath: rel,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// normalizeExts 把扩展名统一为“小写 + 带点”的集合；空列表退回 DefaultExtensions。
func normalizeExts(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return m
}

func buildExcluded(root string, excludeDirs []string) []string {
	cacheDir := filepath.Join(root, "cache")

	excluded := make([]string, 0, 1+len(excludeDirs))
	excluded = append(excluded, filepath.Clean(cacheDir))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
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
