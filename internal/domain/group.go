package domain

// MetaRecord 是按“尽力而为”读取的标签元数据。
//
// 约束：
// - 读取失败一律降级为零值记录（空字段），绝不让单个坏文件中断扫描
// - 多值标签取第一个值
// - Duration 格式为 m:ss（例如 "3:05"）；无法解析时为空串
type MetaRecord struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration string `json:"duration"`
}

// GroupFile 是重复组内的单个成员。元数据与路径并行挂载（顺序一致）。
type GroupFile struct {
	AbsPath string     `json:"-"`
	RelPath string     `json:"path"`
	Size    int64      `json:"size"`
	Meta    MetaRecord `json:"meta"`
}

// Group 是一个重复组：≥2 个成员共享同一 fingerprint key。
//
// 不变量：
// - 成员数 ≥2（单例组永不物化）
// - 任何路径只出现在一个组里
// - Files 按 RelPath 字典序稳定排序
type Group struct {
	Key string `json:"key"`

	// Size/Hash 是便于展示/导出的“隐含 key 信息”：
	// - content 策略：组内共同的字节大小 + 十六进制摘要
	// - size 策略：组内共同的字节大小
	// - name 策略：两者均为零值（成员大小可能不同）
	Size int64  `json:"size,omitempty"`
	Hash string `json:"hash,omitempty"`

	Files []GroupFile `json:"files"`
}
