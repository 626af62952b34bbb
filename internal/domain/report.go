package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	MoveStatusPlanned = "planned"
	MoveStatusMoved   = "moved"
	MoveStatusKept    = "kept"
	MoveStatusFailed  = "failed"
)

// 配置阶段的 error_code（config_not_found 等）由 internal/config 定义，
// 经 config.Code(err) 原样进入报表。
const (
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeScanFailed   = "scan_failed"
	ErrCodeExportFailed = "export_failed"
	ErrCodeMoveFailed   = "move_failed"
	ErrCodeIOFailed     = "io_failed"
)

// ScanReport 是对外稳定输出（stdout JSON）的结构。
type ScanReport struct {
	Root     string `json:"root"`
	Strategy string `json:"strategy"`
	Algo     string `json:"algo,omitempty"` // 仅 content 策略
	DryRun   bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	Summary ReportSummary `json:"summary"`
	Groups  []Group       `json:"groups"`
	Moves   []MoveResult  `json:"moves,omitempty"`
}

type ReportSummary struct {
	Files      int `json:"files"`
	Groups     int `json:"groups"`
	Duplicates int `json:"duplicates"`
	// WastedBytes 是冗余成员（每组保留首个成员之后的其余成员）占用的字节数。
	WastedBytes int64 `json:"wasted_bytes"`
}

type MoveResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"` // 仅 failed
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) groups/moves 稳定排序（组按首个成员 RelPath；moves 按 Src）
// 3) summary 的 Groups/Duplicates/WastedBytes 由 groups 计算得出（Files 由调用方填写）
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Groups == nil {
		r.Groups = []Group{}
	}

	sort.SliceStable(r.Groups, func(i, j int) bool {
		a, b := r.Groups[i], r.Groups[j]
		if len(a.Files) == 0 || len(b.Files) == 0 {
			return len(a.Files) > len(b.Files)
		}
		return a.Files[0].RelPath < b.Files[0].RelPath
	})
	sort.SliceStable(r.Moves, func(i, j int) bool { return r.Moves[i].Src < r.Moves[j].Src })

	r.Summary.Groups = len(r.Groups)
	r.Summary.Duplicates = 0
	r.Summary.WastedBytes = 0
	for _, g := range r.Groups {
		for i, f := range g.Files {
			if i == 0 {
				continue // 每组保留首个成员
			}
			r.Summary.Duplicates++
			r.Summary.WastedBytes += f.Size
		}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	return json.Marshal(Alias(r))
}
