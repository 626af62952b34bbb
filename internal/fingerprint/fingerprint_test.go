package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/ADF/internal/domain"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"content", "name", "size"} {
		got, err := ParseStrategy(s)
		if err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
		if string(got) != s {
			t.Fatalf("期望 %q，实际 %q", s, got)
		}
	}
	if _, err := ParseStrategy("fuzzy"); err == nil {
		t.Fatalf("期望非法策略报错")
	}
	if _, err := ParseStrategy(""); err == nil {
		t.Fatalf("期望空策略报错")
	}
}

func TestParseAlgo(t *testing.T) {
	got, err := ParseAlgo("SHA256")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != AlgoSHA256 {
		t.Fatalf("期望 sha256，实际 %q", got)
	}
	if _, err := ParseAlgo("crc32"); err == nil {
		t.Fatalf("期望非法算法报错")
	}
}

func TestContentKey_SameBytesDifferentNames(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, filepath.Join(root, "a.mp3"), "identical bytes")
	b := writeFile(t, filepath.Join(root, "sub", "renamed.mp3"), "identical bytes")
	c := writeFile(t, filepath.Join(root, "c.mp3"), "different bytess")

	for _, algo := range []Algo{AlgoMD5, AlgoSHA1, AlgoSHA256} {
		ka, oka := ContentKey(a, algo)
		kb, okb := ContentKey(b, algo)
		kc, okc := ContentKey(c, algo)
		if !oka || !okb || !okc {
			t.Fatalf("[%s] 期望全部可用", algo)
		}
		// 内容相同 → key 相同（与路径无关）；内容不同 → key 不同。
		if ka != kb {
			t.Fatalf("[%s] 期望同内容同 key：%q vs %q", algo, ka, kb)
		}
		if ka == kc {
			t.Fatalf("[%s] 期望不同内容不同 key", algo)
		}
	}
}

func TestContentKey_AlgosDisagreeOnDigestNotGrouping(t *testing.T) {
	root := t.TempDir()
	f := writeFile(t, filepath.Join(root, "a.mp3"), "payload")

	k1, _ := ContentKey(f, AlgoMD5)
	k2, _ := ContentKey(f, AlgoSHA256)
	if k1 == k2 {
		t.Fatalf("期望不同算法产生不同摘要")
	}
}

func TestContentKey_UnreadableExcluded(t *testing.T) {
	f := domain.AudioFile{AbsPath: filepath.Join(t.TempDir(), "gone.mp3"), Size: 10}
	if _, ok := ContentKey(f, AlgoMD5); ok {
		t.Fatalf("期望不可读文件 ok=false")
	}
}

func TestNameKey(t *testing.T) {
	f := domain.AudioFile{Base: "track01"}
	if got := NameKey(f, "Song"); got != "Song" {
		t.Fatalf("期望标签优先：%q", got)
	}
	if got := NameKey(f, "  "); got != "track01" {
		t.Fatalf("期望空标题退回基名：%q", got)
	}
}

func TestSizeKey(t *testing.T) {
	if got := SizeKey(domain.AudioFile{Size: 100}); got != "100" {
		t.Fatalf("期望 \"100\"，实际 %q", got)
	}
}

func writeFile(t *testing.T, path, content string) domain.AudioFile {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir 失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
	return domain.AudioFile{
		AbsPath: path,
		Base:    "a",
		Size:    int64(len(content)),
	}
}
