// Package meta 按“尽力而为”读取音频标签与播放时长。
//
// 失败策略（硬约束）：任何打开/解析/格式错误都降级为空字段，绝不向调用方抛错——
// 单个坏文件不允许中断整次扫描。
package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	flac "github.com/go-flac/go-flac"
	mp3 "github.com/tcolgate/mp3"

	"github.com/John-Robertt/ADF/internal/domain"
)

// ReadTags 读取 title/artist/album。多值字段由底层库取第一个值。
func ReadTags(path string) domain.MetaRecord {
	f, err := os.Open(path)
	if err != nil {
		return domain.MetaRecord{}
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || m == nil {
		return domain.MetaRecord{}
	}
	return domain.MetaRecord{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
}

// ReadDuration 读取播放时长并格式化为 m:ss；无法解析（未知格式/坏文件）返回空串。
func ReadDuration(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return FormatDuration(mp3Duration(path))
	case ".flac":
		return FormatDuration(flacDuration(path))
	default:
		return ""
	}
}

// Read 组合 ReadTags + ReadDuration（分组后只对多成员组的成员调用，约束 I/O 成本）。
func Read(path string) domain.MetaRecord {
	rec := ReadTags(path)
	rec.Duration = ReadDuration(path)
	return rec
}

// FormatDuration 输出 m:ss（例如 197s → "3:17"）；非正时长返回空串。
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// mp3Duration 逐帧解码累加帧时长。遇到坏帧即停，返回已累计的部分
// （部分时长比没有好；坏文件自然累计为 0 → 空串）。
func mp3Duration(path string) time.Duration {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		// io.EOF 是正常结束；坏帧同样停止累加，保留已有部分。
		if err := dec.Decode(&frame, &skipped); err != nil {
			return total
		}
		total += frame.Duration()
	}
}

// flacDuration 从 STREAMINFO 计算：SampleCount / SampleRate。
func flacDuration(path string) time.Duration {
	f, err := flac.ParseFile(path)
	if err != nil {
		return 0
	}
	info, err := f.GetStreamInfo()
	if err != nil || info == nil || info.SampleRate <= 0 || info.SampleCount <= 0 {
		return 0
	}
	secs := float64(info.SampleCount) / float64(info.SampleRate)
	return time.Duration(secs * float64(time.Second))
}
