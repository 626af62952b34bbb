package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRename_Basic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dst := filepath.Join(dir, "b.mp3")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}

	if err := Rename(src, dst); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("目标不存在：%v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("源文件应已消失")
	}
}

func TestNextAvailableName_NoConflict(t *testing.T) {
	dir := t.TempDir()
	got, err := NextAvailableName(dir, "x.mp3")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != filepath.Join(dir, "x.mp3") {
		t.Fatalf("期望原名可用，实际 %q", got)
	}
}

func TestNextAvailableName_SuffixOnConflict(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"x.mp3", "x_1.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("写文件失败：%v", err)
		}
	}

	got, err := NextAvailableName(dir, "x.mp3")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != filepath.Join(dir, "x_2.mp3") {
		t.Fatalf("期望 x_2.mp3，实际 %q", got)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("幂等调用不应报错：%v", err)
	}

	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
	if err := EnsureDir(file); err == nil {
		t.Fatalf("目标是文件时应报错")
	}
}

func TestWriteFileAtomicReplace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	if err := WriteFileAtomicReplace(dir, "r.csv", []byte("v1")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomicReplace(dir, "r.csv", []byte("v2")); err != nil {
		t.Fatalf("覆盖写不应报错：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "r.csv"))
	if err != nil {
		t.Fatalf("读回失败：%v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("期望 v2，实际 %q", b)
	}

	// 不应遗留临时文件。
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望只有目标文件，实际 %d 个", len(entries))
	}
}
