package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/ADF/internal/domain"
)

// renderGroupTable 把重复组渲染为交互终端的表格（组间用分隔线区分）。
// 仅用于 stdout 为 TTY 的场景；非 TTY 输出 JSON，不走这里。
func renderGroupTable(w io.Writer, groups []domain.Group) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "文件", "标题", "时长", "大小"})

	for gi, g := range groups {
		for _, f := range g.Files {
			tw.AppendRow(table.Row{
				gi + 1,
				f.RelPath,
				f.Meta.Title,
				f.Meta.Duration,
				formatBytes(f.Size),
			})
		}
		if gi < len(groups)-1 {
			tw.AppendSeparator()
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 80},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 40},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	fmt.Fprintln(w, tw.Render())
}
