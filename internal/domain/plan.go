package domain

// MovePlan 规划一次重复文件的移动（只描述 src/dst；真正执行必须遵守“移动最后一步”）。
// 命名冲突（目标已存在同名文件）由执行阶段解决，这里的 DstAbs 只是基础目标名。
type MovePlan struct {
	SrcAbs string
	SrcRel string
	DstAbs string
}
