package app

import (
	"testing"

	"github.com/John-Robertt/ADF/internal/domain"
)

func TestGroupByKey_DropsSingletons(t *testing.T) {
	files := []domain.AudioFile{
		{RelPath: "a.mp3"},
		{RelPath: "b.mp3"},
		{RelPath: "c.mp3"},
	}
	keys := []string{"100", "100", "101"}
	oks := []bool{true, true, true}

	items := GroupByKey(files, keys, oks)
	if len(items) != 1 {
		t.Fatalf("期望 1 个组，实际 %d", len(items))
	}
	if len(items[0].FileIdx) != 2 {
		t.Fatalf("期望组内 2 个成员，实际 %d", len(items[0].FileIdx))
	}
	if items[0].FileIdx[0] != 0 || items[0].FileIdx[1] != 1 {
		t.Fatalf("期望成员为 {a,b}，实际 %v", items[0].FileIdx)
	}
}

func TestGroupByKey_ExcludedNeverMatches(t *testing.T) {
	files := []domain.AudioFile{
		{RelPath: "a.mp3"},
		{RelPath: "b.mp3"},
		{RelPath: "c.mp3"},
	}
	// b 的 fingerprint 不可用：即使 key 碰巧为空串，也不得与任何文件配对。
	keys := []string{"k", "", "k"}
	oks := []bool{true, false, true}

	items := GroupByKey(files, keys, oks)
	if len(items) != 1 {
		t.Fatalf("期望 1 个组，实际 %d", len(items))
	}
	for _, idx := range items[0].FileIdx {
		if idx == 1 {
			t.Fatalf("被排除的文件不应出现在任何组里")
		}
	}
}

func TestGroupByKey_NoIndexInTwoGroups(t *testing.T) {
	files := []domain.AudioFile{
		{RelPath: "1.mp3"}, {RelPath: "2.mp3"}, {RelPath: "3.mp3"},
		{RelPath: "4.mp3"}, {RelPath: "5.mp3"},
	}
	keys := []string{"x", "y", "x", "y", "x"}
	oks := []bool{true, true, true, true, true}

	items := GroupByKey(files, keys, oks)
	seen := map[int]bool{}
	for _, it := range items {
		if len(it.FileIdx) < 2 {
			t.Fatalf("出现了单例组：%v", it)
		}
		for _, idx := range it.FileIdx {
			if seen[idx] {
				t.Fatalf("下标 %d 出现在两个组里", idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != 5 {
		t.Fatalf("期望 5 个成员全部入组，实际 %d", len(seen))
	}
}

func TestGroupByKey_DeterministicOrder(t *testing.T) {
	files := []domain.AudioFile{
		{RelPath: "z/1.mp3"},
		{RelPath: "a/1.mp3"},
		{RelPath: "z/2.mp3"},
		{RelPath: "a/2.mp3"},
	}
	keys := []string{"k2", "k1", "k2", "k1"}
	oks := []bool{true, true, true, true}

	items := GroupByKey(files, keys, oks)
	if len(items) != 2 {
		t.Fatalf("期望 2 个组，实际 %d", len(items))
	}
	// 组按首个成员 RelPath 排序：a/* 在前。
	if items[0].Key != "k1" || items[1].Key != "k2" {
		t.Fatalf("期望组序 k1,k2，实际 %q,%q", items[0].Key, items[1].Key)
	}
	// 组内按 RelPath 排序。
	if files[items[0].FileIdx[0]].RelPath != "a/1.mp3" {
		t.Fatalf("期望组内首成员 a/1.mp3，实际 %q", files[items[0].FileIdx[0]].RelPath)
	}
}

func TestGroupByKey_Empty(t *testing.T) {
	items := GroupByKey(nil, nil, nil)
	if len(items) != 0 {
		t.Fatalf("期望空结果，实际 %d", len(items))
	}
}
