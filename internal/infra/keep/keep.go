// Package keep 持久化“保留文件夹”的决策：folder（相对扫描根的目录）→ 保留。
// 被标记保留的文件夹里的重复成员不会被移动（决策由 consumer 持有并消费，
// 分组引擎对它一无所知）。
package keep

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/ADF/internal/infra/fsx"
)

// Store 提供 <root>/cache/keep.json 的读写（cache/ 被扫描永久排除，不会被当成音频扫到）。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true），任何写入都返回 ErrReadOnly
// - apply：允许写（ReadOnly=false），写入是原子替换
type Store struct {
	Root     string // <root>（扫描根目录）
	ReadOnly bool
}

var ErrReadOnly = errors.New("keep: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// Path 返回决策文件的绝对路径。
func (s Store) Path() string {
	return filepath.Join(s.Root, "cache", "keep.json")
}

// Load 读取全部决策。文件不存在返回空映射且不报错；文件损坏则报错
// （损坏的决策文件不该被静默清空——那会让用户已经做过的保留决定悄悄失效）。
func (s Store) Load() (map[string]bool, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}

	m := map[string]bool{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("keep.json 无效：%w", err)
	}
	return m, nil
}

// Mark 把 folders 标记为保留并合并写回（原子替换）。ReadOnly 时返回 ErrReadOnly。
func (s Store) Mark(folders []string) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if len(folders) == 0 {
		return nil
	}

	m, err := s.Load()
	if err != nil {
		return err
	}
	for _, f := range folders {
		f = filepath.Clean(strings.TrimSpace(f))
		if f == "" || f == "." {
			f = "."
		}
		m[f] = true
	}

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, "cache"), "keep.json", b)
}
