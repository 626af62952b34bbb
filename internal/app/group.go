package app

import (
	"sort"

	"github.com/John-Robertt/ADF/internal/domain"
)

// GroupByKey 把文件按 fingerprint key 分桶为 WorkGroup（WorkGroup 只存 file index）。
//
// 约束：
// - keys/oks 与 files 等长、按下标对齐；oks[i]=false 的文件（fingerprint 不可用）不参与分组
// - 只保留成员数 ≥2 的桶：单例组永不物化
// - 任何下标最多出现在一个组里（key 相等是等价关系，分桶天然满足）
// - items 稳定排序：按组内首个成员的 RelPath 字典序
// - 组内 FileIdx 稳定排序：按 RelPath 字典序
//
// 分桶是 O(n) 的；对本包定义的等价 key 而言，它与“逐对比较 + 排除”算法产出完全相同的划分。
func GroupByKey(files []domain.AudioFile, keys []string, oks []bool) []domain.WorkGroup {
	index := make(map[string]int, 128)
	buckets := make([]domain.WorkGroup, 0, 128)

	for i := range files {
		if !oks[i] {
			continue
		}
		k := keys[i]
		if idx, ok := index[k]; ok {
			buckets[idx].FileIdx = append(buckets[idx].FileIdx, i)
			continue
		}
		index[k] = len(buckets)
		buckets = append(buckets, domain.WorkGroup{
			Key:     k,
			FileIdx: []int{i},
		})
	}

	items := make([]domain.WorkGroup, 0, len(buckets))
	for _, b := range buckets {
		if len(b.FileIdx) < 2 {
			continue
		}
		items = append(items, b)
	}

	for i := range items {
		sort.Slice(items[i].FileIdx, func(a, b int) bool {
			ia := items[i].FileIdx[a]
			ib := items[i].FileIdx[b]
			return files[ia].RelPath < files[ib].RelPath
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return files[items[i].FileIdx[0]].RelPath < files[items[j].FileIdx[0]].RelPath
	})
	return items
}
