package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/John-Robertt/ADF/internal/app"
	"github.com/John-Robertt/ADF/internal/domain"
	"github.com/John-Robertt/ADF/internal/fingerprint"
	"github.com/John-Robertt/ADF/internal/meta"
	"github.com/John-Robertt/ADF/internal/scan"
)

// Request 是一次扫描的不可变输入（构造一次、消费一次，扫描期间不得修改）。
type Request struct {
	Root        string
	Strategy    fingerprint.Strategy
	Algo        fingerprint.Algo // 仅 content 策略使用
	Extensions  []string
	ExcludeDirs []string

	// Concurrency 是指纹计算（哈希/读标签）的并发度；<1 按 1 处理。
	// 事件通道仍然只有一个生产者：worker 的结果先汇入内部 results 通道，再由单一发射方计数发送。
	Concurrency int
}

// InvalidInputError 表示 root 不是可读目录。该错误同步返回，扫描不会开始，也不会产生事件。
type InvalidInputError struct {
	Root string
	Err  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("root 不是可读目录 %q：%v", e.Root, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// eventBuffer 给 consumer 留出的缓冲：短暂的消费停顿不会阻塞 worker。
const eventBuffer = 64

// Start 启动一次异步扫描，返回只读事件通道。
//
// 约束：
// - root 校验是同步的：失败返回 *InvalidInputError
// - 每次发送都 select ctx.Done()：consumer 取消（抛弃 worker）后不再读取，
//   worker 也不会被永久阻塞——后续事件直接丢弃，worker 自行收尾
// - 单文件失败（不可读/坏标签/stat 失败）永不产生 Error 事件，只降级该文件；
//   Error 只用于致命的枚举失败（例如 root 在扫描途中被删除）
// - 一次 Start 对应一次扫描；调用方需要串行化多次扫描（CLI 每次进程只扫一次）
func Start(ctx context.Context, req Request) (<-chan Event, error) {
	root, err := checkRoot(req.Root)
	if err != nil {
		return nil, err
	}
	// 引擎内部只见 clean + absolute 的 root（AudioFile.AbsPath 的不变量由此成立，
	// 不依赖调用方先做规范化）。
	req.Root = root

	ch := make(chan Event, eventBuffer)
	go func() {
		defer close(ch)
		scanOnce(ctx, req, ch)
	}()
	return ch, nil
}

// checkRoot 校验 root 是可读目录，并返回其 clean + absolute 形式。
func checkRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", &InvalidInputError{Root: root, Err: fmt.Errorf("路径为空")}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidInputError{Root: root, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", &InvalidInputError{Root: root, Err: err}
	}
	if !fi.IsDir() {
		return "", &InvalidInputError{Root: root, Err: fmt.Errorf("不是目录")}
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", &InvalidInputError{Root: root, Err: err}
	}
	_ = f.Close()
	return abs, nil
}

// emit 发送一个事件；consumer 已取消时返回 false（事件丢弃，调用方应尽快收尾）。
func emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func scanOnce(ctx context.Context, req Request, ch chan<- Event) {
	files, err := scan.ScanAudio(req.Root, req.Extensions, req.ExcludeDirs)
	if err != nil {
		emit(ctx, ch, Event{
			Kind:      EventError,
			ErrorCode: domain.ErrCodeScanFailed,
			ErrorMsg:  fmt.Sprintf("扫描失败：%v", err),
		})
		return
	}

	if !emit(ctx, ch, Event{Kind: EventTotal, Total: len(files)}) {
		return
	}

	keys, oks, aborted := fingerprintAll(ctx, req, files, ch)
	if aborted {
		return
	}

	groups := materialize(req, files, app.GroupByKey(files, keys, oks))
	emit(ctx, ch, Event{Kind: EventDone, Groups: groups})
}

// fingerprintAll 为每个文件计算 key，并为“每个被检视的文件”恰好发送一个 Progress 事件
// （严格递增，最终等于 Total）。返回 aborted=true 表示 consumer 已取消。
func fingerprintAll(ctx context.Context, req Request, files []domain.AudioFile, ch chan<- Event) (keys []string, oks []bool, aborted bool) {
	keys = make([]string, len(files))
	oks = make([]bool, len(files))

	processed := 0
	progress := func() bool {
		processed++
		return emit(ctx, ch, Event{Kind: EventProgress, Processed: processed})
	}

	switch req.Strategy {
	case fingerprint.StrategySize:
		// size key 在扫描阶段已就绪，不需要任何额外 I/O。
		for i := range files {
			keys[i] = fingerprint.SizeKey(files[i])
			oks[i] = true
			if !progress() {
				return nil, nil, true
			}
		}
		return keys, oks, false

	case fingerprint.StrategyName:
		// name 策略需要逐个读标签（I/O），走 worker pool。
		pending := make([]int, len(files))
		for i := range pending {
			pending[i] = i
		}
		if poolFingerprint(ctx, req, files, pending, keys, oks, progress) {
			return nil, nil, true
		}
		return keys, oks, false

	default: // fingerprint.StrategyContent
		// 必做优化：先按 size 分桶。size 唯一的文件不可能有重复，
		// 直接计入进度并跳过哈希（多数文件 size 唯一时可省掉几乎全部读盘）。
		bySize := make(map[int64]int, len(files))
		for i := range files {
			bySize[files[i].Size]++
		}

		pending := make([]int, 0, len(files))
		for i := range files {
			if bySize[files[i].Size] == 1 {
				if !progress() {
					return nil, nil, true
				}
				continue
			}
			pending = append(pending, i)
		}
		if poolFingerprint(ctx, req, files, pending, keys, oks, progress) {
			return nil, nil, true
		}
		return keys, oks, false
	}
}

type fpResult struct {
	idx int
	key string
	ok  bool
}

// poolFingerprint 用 worker pool 并发计算 idxs 指向的文件的 key。
// 结果汇入带缓冲的 results 通道，由当前 goroutine（事件通道的唯一生产者）串行消费并计数；
// 这保证了 Progress 的严格递增，即使指纹计算本身是并发的。
// 返回 true 表示 consumer 已取消（遗留的 worker 会自行跑完，结果直接丢弃）。
func poolFingerprint(ctx context.Context, req Request, files []domain.AudioFile, idxs []int, keys []string, oks []bool, progress func() bool) (aborted bool) {
	if len(idxs) == 0 {
		return false
	}

	workers := req.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(idxs) {
		workers = len(idxs)
	}

	jobs := make(chan int)
	// results 缓冲到全量：worker 的发送永不阻塞，取消时可以直接丢下它们返回。
	results := make(chan fpResult, len(idxs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				var r fpResult
				r.idx = i
				switch req.Strategy {
				case fingerprint.StrategyName:
					r.key = fingerprint.NameKey(files[i], meta.ReadTags(files[i].AbsPath).Title)
					r.ok = true
				default: // content
					r.key, r.ok = fingerprint.ContentKey(files[i], req.Algo)
				}
				results <- r
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, i := range idxs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		keys[r.idx] = r.key
		oks[r.idx] = r.ok
		if !progress() {
			return true
		}
	}
	return false
}

// materialize 把 WorkGroup 物化为对外的 Group：回填组级 size/hash（content/size 策略），
// 并解析成员元数据。元数据只为多成员组的成员解析——单例在分组阶段已被丢弃，
// 这把标签 I/O 限制在真正需要展示的文件上。
func materialize(req Request, files []domain.AudioFile, items []domain.WorkGroup) []domain.Group {
	groups := make([]domain.Group, 0, len(items))
	for _, it := range items {
		g := domain.Group{
			Key:   it.Key,
			Files: make([]domain.GroupFile, 0, len(it.FileIdx)),
		}

		switch req.Strategy {
		case fingerprint.StrategyContent:
			g.Size = files[it.FileIdx[0]].Size
			if i := strings.IndexByte(it.Key, ':'); i >= 0 {
				g.Hash = it.Key[i+1:]
			}
		case fingerprint.StrategySize:
			g.Size = files[it.FileIdx[0]].Size
		case fingerprint.StrategyName:
			// 成员大小可能不同，组级 size/hash 留零值。
		}

		for _, idx := range it.FileIdx {
			f := files[idx]
			g.Files = append(g.Files, domain.GroupFile{
				AbsPath: f.AbsPath,
				RelPath: f.RelPath,
				Size:    f.Size,
				Meta:    meta.Read(f.AbsPath),
			})
		}
		groups = append(groups, g)
	}
	return groups
}
