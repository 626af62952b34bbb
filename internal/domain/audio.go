package domain

// AudioFile 描述一次扫描得到的音频文件（扫描阶段只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 必须是小写且含点（例如 ".mp3"）
// - Size 来自扫描时的 stat；stat 失败的文件不会进入结果
type AudioFile struct {
	AbsPath string
	RelPath string
	Base    string // filename without ext
	Ext     string // ".mp3"
	Size    int64
}
