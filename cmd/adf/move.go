package main

import (
	"path/filepath"

	"github.com/John-Robertt/ADF/internal/domain"
	"github.com/John-Robertt/ADF/internal/infra/fsx"
)

// executeMoves 按计划移动文件（仅 apply 模式调用）。
//
// 规则：
// - 目标目录不存在则创建
// - 目标名冲突以 _1、_2… 后缀解决（包括本批内多个同名源：前一个移动落地后，
//   后一个会探测到并顺延）
// - 单个文件失败不中断整批：记为 failed，继续后面的
func executeMoves(destDir string, plans []domain.MovePlan) (results []domain.MoveResult, failed int) {
	results = make([]domain.MoveResult, 0, len(plans))
	if len(plans) == 0 {
		return results, 0
	}

	if err := fsx.EnsureDir(destDir); err != nil {
		for _, p := range plans {
			results = append(results, domain.MoveResult{
				Src:    p.SrcRel,
				Dst:    p.DstAbs,
				Status: domain.MoveStatusFailed,
				Error:  err.Error(),
			})
		}
		return results, len(plans)
	}

	for _, p := range plans {
		dst, err := fsx.NextAvailableName(destDir, filepath.Base(p.DstAbs))
		if err == nil {
			err = fsx.Rename(p.SrcAbs, dst)
		}
		if err != nil {
			// EXDEV 也走这里：fsx 包装后的错误信息会点名跨设备，不做隐式 copy+delete。
			results = append(results, domain.MoveResult{
				Src:    p.SrcRel,
				Dst:    p.DstAbs,
				Status: domain.MoveStatusFailed,
				Error:  err.Error(),
			})
			failed++
			continue
		}
		results = append(results, domain.MoveResult{
			Src:    p.SrcRel,
			Dst:    dst,
			Status: domain.MoveStatusMoved,
		})
	}
	return results, failed
}
