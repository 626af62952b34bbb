package domain

// WorkGroup 是按 fingerprint key 聚合后的工作单元。
// 为了数据局部性，WorkGroup 只保存文件下标（指向 []AudioFile），避免复制大结构体。
type WorkGroup struct {
	Key     string
	FileIdx []int
}
