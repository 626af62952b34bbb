package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/ADF/internal/domain"
)

func TestCLI_NoTTY_StdoutOnlyScanReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 ScanReport JSON（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()

	// 最小输入：一对内容相同的文件和一个不同的。
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("创建目录失败：%v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("写入文件失败：%v", err)
		}
	}
	write("a/one.mp3", "same-bytes")
	write("b/two.mp3", "same-bytes")
	write("c/other.mp3", "different")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/adf", "scan", root)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rr domain.ScanReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 ScanReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Status != domain.StatusOK {
		t.Fatalf("期望 status=ok，实际 %q（%s: %s）", rr.Status, rr.ErrorCode, rr.ErrorMsg)
	}
	if rr.Summary.Files != 3 || rr.Summary.Groups != 1 || rr.Summary.Duplicates != 1 {
		t.Fatalf("期望 files=3 groups=1 duplicates=1，实际 %+v", rr.Summary)
	}
	if !rr.DryRun {
		t.Fatal("期望默认 dry-run")
	}

	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "完成：files=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
