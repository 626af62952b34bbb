// Package export 把重复分组渲染为 CSV 报表（分号分隔，带 UTF-8 BOM，
// 方便直接在 Excel 里打开而不乱码）。
package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"

	"github.com/John-Robertt/ADF/internal/domain"
)

// utf8BOM 让 Excel 把文件识别为 UTF-8。
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV 生成报表字节流。
//
// 规则：
// - 表头固定为 title;artist;album;folder
// - 每个分组的每个成员一行，folder 取成员所在目录的基名
// - 行顺序与分组顺序一致（调用方保证分组已排序）
func EncodeCSV(groups []domain.Group) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write([]string{"title", "artist", "album", "folder"}); err != nil {
		return nil, err
	}
	for _, g := range groups {
		for _, f := range g.Files {
			row := []string{
				f.Meta.Title,
				f.Meta.Artist,
				f.Meta.Album,
				filepath.Base(filepath.Dir(f.AbsPath)),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
