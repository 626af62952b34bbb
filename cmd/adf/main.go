package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/ADF/internal/app/planner"
	"github.com/John-Robertt/ADF/internal/app/run"
	"github.com/John-Robertt/ADF/internal/config"
	"github.com/John-Robertt/ADF/internal/domain"
	"github.com/John-Robertt/ADF/internal/export"
	"github.com/John-Robertt/ADF/internal/infra/fsx"
	"github.com/John-Robertt/ADF/internal/infra/keep"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "scan":
		if code := scanCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func scanCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printScanUsage()
			return 0
		}
	}

	sa, err := parseScanArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printScanUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:        sa.Path,
		Strategy:    sa.Strategy,
		StrategySet: sa.StrategySet,
		Algo:        sa.Algo,
		AlgoSet:     sa.AlgoSet,
		Apply:       sa.Apply,
		ApplySet:    sa.ApplySet,
		MoveTo:      sa.MoveTo,
		MoveToSet:   sa.MoveToSet,
		CSV:         sa.CSV,
		CSVSet:      sa.CSVSet,
		Keep:        sa.Keep,
	})
	if err != nil {
		rr := reportForStartupError(cwd, sa, config.Code(err), err.Error())
		emitReport(rr)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var ui *progressUI
	if interactive {
		ui = newProgressUI(progressW)
		ui.OnStart(eff)
	}

	rr := execute(context.Background(), eff, ui)

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Status == domain.StatusOK {
		return 0
	}
	return 1
}

// execute 跑完一次完整流程：扫描分组（引擎）→ 保留决策 → CSV 导出 → 移动（或规划）。
// 引擎失败后不再执行任何消费步骤。
func execute(ctx context.Context, eff config.EffectiveConfig, ui *progressUI) domain.ScanReport {
	rr := domain.ScanReport{
		Root:      eff.Path,
		Strategy:  string(eff.Strategy),
		DryRun:    !eff.Apply,
		StartedAt: time.Now(),
		Status:    domain.StatusOK,
	}
	if eff.Strategy == "content" {
		rr.Algo = string(eff.Algo)
	}

	fail := func(code, msg string) domain.ScanReport {
		rr.Status = domain.StatusFailed
		rr.ErrorCode = code
		rr.ErrorMsg = msg
		rr.FinishedAt = time.Now()
		rr.Finalize()
		if ui != nil {
			ui.OnError(code, msg)
		}
		return rr
	}

	// 移动目标若在 root 之下，必须从枚举中排除：上一次 apply 移过去的文件
	// 不该在下一次扫描里再被当成重复。
	excludeDirs := eff.ExcludeDirs
	if eff.MoveTo != "" {
		excludeDirs = append(append([]string(nil), excludeDirs...), eff.MoveTo)
	}

	events, err := run.Start(ctx, run.Request{
		Root:        eff.Path,
		Strategy:    eff.Strategy,
		Algo:        eff.Algo,
		Extensions:  eff.Extensions,
		ExcludeDirs: excludeDirs,
		Concurrency: eff.Concurrency,
	})
	if err != nil {
		return fail(domain.ErrCodeInvalidInput, err.Error())
	}

	groups, total, errCode, errMsg := consume(events, ui)
	if errCode != "" {
		return fail(errCode, errMsg)
	}
	rr.Summary.Files = total
	rr.Groups = groups

	// 保留决策：dry-run 下 Store 只读；--keep 只有 apply 时才落盘。
	store := keep.New(eff.Path, !eff.Apply)
	if len(eff.Keep) > 0 && eff.Apply {
		if err := store.Mark(eff.Keep); err != nil {
			return fail(domain.ErrCodeIOFailed, fmt.Sprintf("写入保留决策失败：%v", err))
		}
	}
	keepMap, err := store.Load()
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Sprintf("读取保留决策失败：%v", err))
	}
	// --keep 在 dry-run 下不落盘，但本次运行内仍然生效（让用户预览 apply 的效果）。
	for _, f := range eff.Keep {
		keepMap[filepath.Clean(strings.TrimSpace(f))] = true
	}

	if eff.CSV != "" {
		if err := writeCSV(eff.CSV, groups); err != nil {
			return fail(domain.ErrCodeExportFailed, fmt.Sprintf("导出 CSV 失败：%v", err))
		}
	}

	if eff.MoveTo != "" {
		plans, kept := planner.PlanMoves(eff.MoveTo, groups, func(folder string) bool {
			return keepMap[folder]
		})
		for _, rel := range kept {
			rr.Moves = append(rr.Moves, domain.MoveResult{Src: rel, Status: domain.MoveStatusKept})
		}
		if eff.Apply {
			results, failed := executeMoves(eff.MoveTo, plans)
			rr.Moves = append(rr.Moves, results...)
			if failed > 0 {
				rr.Status = domain.StatusFailed
				rr.ErrorCode = domain.ErrCodeMoveFailed
				rr.ErrorMsg = fmt.Sprintf("%d 个文件移动失败", failed)
			}
		} else {
			for _, p := range plans {
				rr.Moves = append(rr.Moves, domain.MoveResult{
					Src:    p.SrcRel,
					Dst:    p.DstAbs,
					Status: domain.MoveStatusPlanned,
				})
			}
		}
	}

	rr.FinishedAt = time.Now()
	rr.Finalize()
	if ui != nil {
		ui.OnDone(rr)
	}
	return rr
}

// consume 读取事件直到通道关闭。引擎保证恰好一个终止事件，所以
// Done 与 Error 不会同时出现。Ticker 只喂 keepalive，不参与流程控制。
func consume(events <-chan run.Event, ui *progressUI) (groups []domain.Group, total int, errCode, errMsg string) {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return groups, total, errCode, errMsg
			}
			switch ev.Kind {
			case run.EventTotal:
				total = ev.Total
				if ui != nil {
					ui.OnTotal(ev.Total)
				}
			case run.EventProgress:
				if ui != nil {
					ui.OnProgress(ev.Processed)
				}
			case run.EventDone:
				groups = ev.Groups
			case run.EventError:
				errCode, errMsg = ev.ErrorCode, ev.ErrorMsg
			}
		case <-t.C:
			if ui != nil {
				ui.OnTick()
			}
		}
	}
}

type scanArgs struct {
	Path string

	Strategy    string
	StrategySet bool

	Algo    string
	AlgoSet bool

	Apply    bool
	ApplySet bool

	MoveTo    string
	MoveToSet bool

	CSV    string
	CSVSet bool

	Keep []string
}

func parseScanArgs(args []string) (scanArgs, error) {
	sa := scanArgs{}

	// takeValue 同时支持 --flag value 与 --flag=value 两种写法。
	takeValue := func(name, a string, i *int) (string, bool, error) {
		if a == name {
			if *i+1 >= len(args) {
				return "", false, fmt.Errorf("%s 需要一个值", name)
			}
			*i++
			return args[*i], true, nil
		}
		if strings.HasPrefix(a, name+"=") {
			return strings.TrimPrefix(a, name+"="), true, nil
		}
		return "", false, nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]

		if v, ok, err := takeValue("--strategy", a, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			sa.Strategy = v
			sa.StrategySet = true
			continue
		}
		if v, ok, err := takeValue("--algo", a, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			sa.Algo = v
			sa.AlgoSet = true
			continue
		}
		if v, ok, err := takeValue("--move-to", a, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			sa.MoveTo = v
			sa.MoveToSet = true
			continue
		}
		if v, ok, err := takeValue("--csv", a, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			sa.CSV = v
			sa.CSVSet = true
			continue
		}
		if v, ok, err := takeValue("--keep", a, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			if strings.TrimSpace(v) == "" {
				return scanArgs{}, fmt.Errorf("--keep 不能为空")
			}
			sa.Keep = append(sa.Keep, v)
			continue
		}

		switch {
		case a == "--apply":
			sa.Apply = true
			sa.ApplySet = true
		case strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				sa.Apply = true
			case "false":
				sa.Apply = false
			default:
				return scanArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			sa.ApplySet = true
		case strings.HasPrefix(a, "-"):
			return scanArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if sa.Path != "" {
				return scanArgs{}, fmt.Errorf("重复的 path：%q 与 %q", sa.Path, a)
			}
			sa.Path = a
		}
	}

	if sa.StrategySet {
		switch sa.Strategy {
		case "content", "name", "size":
			// ok
		case "":
			return scanArgs{}, fmt.Errorf("--strategy 不能为空")
		default:
			return scanArgs{}, fmt.Errorf("--strategy 只能是 content、name 或 size，实际是 %q", sa.Strategy)
		}
	}
	if sa.AlgoSet {
		switch strings.ToLower(sa.Algo) {
		case "md5", "sha1", "sha256":
			// ok
		case "":
			return scanArgs{}, fmt.Errorf("--algo 不能为空")
		default:
			return scanArgs{}, fmt.Errorf("--algo 只能是 md5、sha1 或 sha256，实际是 %q", sa.Algo)
		}
	}

	return sa, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  adf scan [path] [--strategy content|name|size] [--algo md5|sha1|sha256]
           [--csv FILE] [--move-to DIR] [--keep DIR]... [--apply[=true|false]]

命令：
  scan    扫描音频库并找出重复文件（默认 dry-run）

使用 "adf scan --help" 查看详细说明。
`)
}

func printScanUsage() {
	fmt.Fprint(os.Stdout, `用法：
  adf scan [path] [--strategy content|name|size] [--algo md5|sha1|sha256]
           [--csv FILE] [--move-to DIR] [--keep DIR]... [--apply[=true|false]]

参数：
  --strategy  重复判定策略：content（内容哈希）|name（标题/文件名）|size（字节数）；默认 content
  --algo      content 策略的摘要算法：md5|sha1|sha256；默认 md5
  --csv       把分组导出为 CSV 报表（分号分隔；相对路径相对当前目录）
  --move-to   把每组除首个成员外的重复文件移动到该目录（相对路径相对扫描根）
  --keep      标记文件夹为保留（其中的重复成员不移动）；可重复；apply 时写入 cache/keep.json
  --apply     真正移动文件并持久化 --keep（默认 dry-run 只规划不落盘）
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.ScanReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：files=%d groups=%d duplicates=%d wasted=%s\n",
			rr.Summary.Files, rr.Summary.Groups, rr.Summary.Duplicates, formatBytes(rr.Summary.WastedBytes),
		)
		if rr.Status == domain.StatusFailed {
			fmt.Fprintf(os.Stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
			for _, m := range rr.Moves {
				if m.Status == domain.MoveStatusFailed {
					fmt.Fprintf(os.Stderr, "%s %s: %s\n", m.Src, m.Status, m.Error)
				}
			}
		}
		if len(rr.Groups) > 0 {
			renderGroupTable(os.Stdout, rr.Groups)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ScanReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：files=%d groups=%d duplicates=%d wasted=%s\n",
		rr.Summary.Files, rr.Summary.Groups, rr.Summary.Duplicates, formatBytes(rr.Summary.WastedBytes),
	)
	if rr.Status == domain.StatusFailed {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
}

func reportForStartupError(cwd string, sa scanArgs, code, msg string) domain.ScanReport {
	now := time.Now().UTC()
	rr := domain.ScanReport{
		Root:       cwd,
		Strategy:   sa.Strategy,
		DryRun:     !(sa.ApplySet && sa.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Status:     domain.StatusFailed,
		ErrorCode:  code,
		ErrorMsg:   msg,
	}
	rr.Finalize()
	return rr
}

func writeCSV(path string, groups []domain.Group) error {
	b, err := export.EncodeCSV(groups)
	if err != nil {
		return err
	}
	// 原子替换：报表要么是完整的旧版，要么是完整的新版。
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	// 这几行用于降低“完成后不知道产物在哪”的摩擦，且不影响 stdout JSON 契约。
	if w == nil {
		return
	}
	if eff.CSV != "" {
		fmt.Fprintf(w, "csv: %s\n", eff.CSV)
	}
	if eff.MoveTo != "" {
		fmt.Fprintf(w, "move_to: %s\n", eff.MoveTo)
	}
}
