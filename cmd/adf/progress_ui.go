package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/ADF/internal/config"
	"github.com/John-Robertt/ADF/internal/domain"
)

// progressUI 是一个“简洁版”的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：引擎只发事件，CLI 决定如何展示
// - keepalive：长时间无进度时也会定期输出一行，降低等待焦虑
//
// 所有方法都由消费事件的同一个 goroutine 调用（包括 ticker 驱动的 OnTick），
// 因此不需要锁。
type progressUI struct {
	w io.Writer

	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int

	// throttle 限制 Progress 行的频率：大库每个文件一行会刷屏。
	throttle  time.Duration
	keepalive time.Duration
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:         w,
		throttle:  500 * time.Millisecond,
		keepalive: 2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (不移动/不落盘)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] ADF scan (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  strategy: %s\n", eff.Strategy)
	if eff.Strategy == "content" {
		fmt.Fprintf(p.w, "  algo: %s\n", eff.Algo)
	}
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  extensions: %s\n", formatStringListJSON(eff.Extensions))
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 cache/\n", formatStringListJSON(eff.ExcludeDirs))
	if eff.MoveTo != "" {
		fmt.Fprintf(p.w, "  move_to: %s\n", eff.MoveTo)
	}
	if eff.CSV != "" {
		fmt.Fprintf(p.w, "  csv: %s\n", eff.CSV)
	}
	if len(eff.Keep) > 0 {
		fmt.Fprintf(p.w, "  keep: %s\n", formatStringListJSON(eff.Keep))
	}
	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  cache: %s\n", filepath.Join(eff.Path, "cache"))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnTotal(total int) {
	p.total = total
	fmt.Fprintf(p.w, "枚举: files=%d (%s)\n", total, formatShortDuration(time.Since(p.startedAt)))
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnProgress(processed int) {
	p.done = processed

	// 最后一个文件无条件输出，中间的节流。
	if processed < p.total && time.Since(p.lastPrinted) < p.throttle {
		return
	}
	p.printProgress()
}

// OnTick 是 ticker 驱动的 keepalive：进度长期不动（大文件哈希中）也要让用户看到活着。
func (p *progressUI) OnTick() {
	if p.total == 0 || p.done >= p.total {
		return
	}
	if time.Since(p.lastPrinted) < p.keepalive {
		return
	}
	p.printProgress()
}

func (p *progressUI) printProgress() {
	fmt.Fprintf(p.w, "进度: %d/%d elapsed=%s\n", p.done, p.total, formatElapsed(time.Since(p.startedAt)))
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnDone(rr domain.ScanReport) {
	fmt.Fprintf(p.w, "分组: groups=%d duplicates=%d wasted=%s (%s)\n",
		rr.Summary.Groups, rr.Summary.Duplicates, formatBytes(rr.Summary.WastedBytes),
		formatShortDuration(rr.FinishedAt.Sub(rr.StartedAt)),
	)
	moved, planned, kept, failed := 0, 0, 0, 0
	for _, m := range rr.Moves {
		switch m.Status {
		case domain.MoveStatusMoved:
			moved++
		case domain.MoveStatusPlanned:
			planned++
		case domain.MoveStatusKept:
			kept++
		case domain.MoveStatusFailed:
			failed++
		}
	}
	if moved+planned+kept+failed > 0 {
		fmt.Fprintf(p.w, "移动: moved=%d planned=%d kept=%d failed=%d\n", moved, planned, kept, failed)
	}
	fmt.Fprintln(p.w)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnError(code, msg string) {
	fmt.Fprintf(p.w, "失败: %s: %s\n", code, msg)
	p.lastPrinted = time.Now()
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
