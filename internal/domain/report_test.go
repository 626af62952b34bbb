package domain

import (
	"strings"
	"testing"
	"time"
)

func TestScanReport_FinalizeSummary(t *testing.T) {
	r := ScanReport{
		Groups: []Group{
			{Key: "100:aa", Size: 100, Files: []GroupFile{
				{RelPath: "b/x.mp3", Size: 100},
				{RelPath: "a/x.mp3", Size: 100},
				{RelPath: "c/x.mp3", Size: 100},
			}},
			{Key: "200:bb", Size: 200, Files: []GroupFile{
				{RelPath: "a/y.mp3", Size: 200},
				{RelPath: "d/y.mp3", Size: 200},
			}},
		},
	}
	r.Finalize()

	if r.Summary.Groups != 2 {
		t.Fatalf("期望 groups=2，实际 %d", r.Summary.Groups)
	}
	if r.Summary.Duplicates != 3 {
		t.Fatalf("期望 duplicates=3，实际 %d", r.Summary.Duplicates)
	}
	if r.Summary.WastedBytes != 100+100+200 {
		t.Fatalf("期望 wasted=400，实际 %d", r.Summary.WastedBytes)
	}
}

func TestScanReport_FinalizeSortsGroupsByFirstMember(t *testing.T) {
	r := ScanReport{
		Groups: []Group{
			{Key: "k2", Files: []GroupFile{{RelPath: "z/1.mp3"}, {RelPath: "z/2.mp3"}}},
			{Key: "k1", Files: []GroupFile{{RelPath: "a/1.mp3"}, {RelPath: "a/2.mp3"}}},
		},
	}
	r.Finalize()
	if r.Groups[0].Key != "k1" {
		t.Fatalf("期望首组为 k1，实际 %q", r.Groups[0].Key)
	}
}

func TestScanReport_FinalizeUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	r := ScanReport{
		StartedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, loc),
		FinishedAt: time.Date(2024, 6, 1, 12, 1, 0, 0, loc),
	}
	r.Finalize()
	if r.StartedAt.Location() != time.UTC || r.FinishedAt.Location() != time.UTC {
		t.Fatalf("期望时间为 UTC：%v %v", r.StartedAt, r.FinishedAt)
	}
	if r.Groups == nil {
		t.Fatalf("期望 Finalize 后 Groups 非 nil（稳定 JSON 输出）")
	}

	b, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(string(b), `"groups":[]`) {
		t.Fatalf("期望 JSON 含空 groups 数组：%s", b)
	}
}
