package run

import "github.com/John-Robertt/ADF/internal/domain"

// EventKind 是进度事件的封闭类别（enum + 穷举 switch，而不是开放接口）。
type EventKind int

const (
	EventTotal EventKind = iota + 1
	EventProgress
	EventDone
	EventError
)

// Event 是 worker → consumer 单向通道上的进度事件。
//
// 顺序契约（consumer 可依赖）：
// - 恰好一个 Total 先于所有 Progress
// - Progress 严格递增，最终 Processed == Total
// - 恰好一个终止事件（Done 或 Error），发送后通道关闭
//
// Done 携带最终组列表，所有权移交给 consumer；worker 不再持有引用。
type Event struct {
	Kind EventKind

	Total     int // EventTotal
	Processed int // EventProgress

	Groups []domain.Group // EventDone

	ErrorCode string // EventError
	ErrorMsg  string // EventError
}
