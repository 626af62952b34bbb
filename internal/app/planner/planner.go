package planner

import (
	"path/filepath"
	"sort"

	"github.com/John-Robertt/ADF/internal/domain"
)

// PlanMoves 为重复组生成确定性的移动计划（不做任何写入/移动）。
//
// 规则：
// - 每组保留首个成员（组内已按 RelPath 排序，即字典序最小者），其余成员移动到 destDir
// - 成员所在目录被标记为 keep 的成员跳过（保留决策来自 consumer 持有的 folder → keep 映射）
// - 已经位于 destDir 内的成员跳过（避免自我移动）
// - 目标名取原文件名；执行阶段若发现目标已存在，以 _1、_2… 后缀解决（见 fsx.NextAvailableName）
//
// 返回的 kept 是被 keep 决策跳过的成员（RelPath，已排序），便于上层展示。
func PlanMoves(destDir string, groups []domain.Group, keepFolder func(folderRel string) bool) (plans []domain.MovePlan, kept []string) {
	destDir = filepath.Clean(destDir)
	plans = make([]domain.MovePlan, 0, 16)
	kept = make([]string, 0, 4)

	for _, g := range groups {
		for i, f := range g.Files {
			if i == 0 {
				continue // 每组保留首个成员
			}
			if filepath.Clean(filepath.Dir(f.AbsPath)) == destDir {
				continue
			}
			if keepFolder != nil && keepFolder(relFolder(f.RelPath)) {
				kept = append(kept, f.RelPath)
				continue
			}
			plans = append(plans, domain.MovePlan{
				SrcAbs: f.AbsPath,
				SrcRel: f.RelPath,
				DstAbs: filepath.Join(destDir, filepath.Base(f.AbsPath)),
			})
		}
	}

	sort.Slice(plans, func(i, j int) bool { return plans[i].SrcRel < plans[j].SrcRel })
	sort.Strings(kept)
	return plans, kept
}

// relFolder 取成员所在目录相对 root 的路径；root 直属文件归为 "."。
func relFolder(rel string) string {
	d := filepath.Dir(rel)
	if d == "" {
		return "."
	}
	return d
}
