package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/highlight"
	"github.com/ByLCY/folio/store"
)

// StoreGroup 汇总数据库相关的子命令。
type StoreGroup struct {
	Add    StoreAddCmd    `cmd:"" help:"新增一条高亮"`
	List   StoreListCmd   `cmd:"" help:"列出高亮"`
	Remove StoreRemoveCmd `cmd:"" help:"按 id 删除高亮"`
	Export StoreExportCmd `cmd:"" help:"导出为高亮表 (.folio)"`
	Import StoreImportCmd `cmd:"" help:"从高亮表 (.folio) 导入"`
}

type StoreAddCmd struct {
	Scope string   `short:"s" required:"" help:"作用域（章节 key）"`
	Color string   `short:"c" default:"yellow" enum:"yellow,green,blue,red" help:"高亮颜色"`
	Note  string   `help:"备注"`
	Tags  []string `help:"标签，可重复或用逗号分隔"`
	Text  string   `arg:"" help:"高亮文本"`
}

func (c *StoreAddCmd) Run() error {
	color, err := highlight.ParseColor(c.Color)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		h, err := st.Add(ctx, highlight.Draft{Text: c.Text, Color: color, Scope: c.Scope, Note: c.Note, Tags: c.Tags})
		if err != nil {
			return err
		}
		fmt.Println(h.ID)
		return nil
	})
}

type StoreListCmd struct {
	Scope string `short:"s" help:"只列出该作用域，留空列出全部"`
}

func (c *StoreListCmd) Run() error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		hs, err := list(ctx, st, c.Scope)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCOPE\tCOLOR\tCREATED\tTEXT")
		for _, h := range hs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", h.ID, h.Scope, h.Color, h.CreatedAt.Format("2006-01-02 15:04"), oneLine(h.Text))
		}
		return w.Flush()
	})
}

type StoreRemoveCmd struct {
	IDs []string `arg:"" name:"id" help:"要删除的高亮 id"`
}

func (c *StoreRemoveCmd) Run() error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		for _, id := range c.IDs {
			if err := st.Remove(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

type StoreExportCmd struct {
	Scope string `short:"s" help:"只导出该作用域，留空导出全部"`
	Out   string `short:"o" default:"-" help:"输出路径，- 表示标准输出"`
}

func (c *StoreExportCmd) Run() error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		hs, err := list(ctx, st, c.Scope)
		if err != nil {
			return err
		}
		return writeOutput(c.Out, func(w io.Writer) error { return dsl.Write(w, hs) })
	})
}

type StoreImportCmd struct {
	Sheet string `arg:"" help:"高亮表文件" type:"existingfile"`
}

func (c *StoreImportCmd) Run() error {
	f, err := os.Open(c.Sheet)
	if err != nil {
		return fmt.Errorf("无法打开高亮表 %s: %w", c.Sheet, err)
	}
	defer f.Close()
	hs, err := dsl.Load(f)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		for _, h := range hs {
			if _, err := st.Import(ctx, h); err != nil {
				return err
			}
		}
		fmt.Printf("已导入 %d 条高亮\n", len(hs))
		return nil
	})
}

func withStore(f func(context.Context, *store.Store) error) error {
	st, err := store.Open(CLI.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	return f(context.Background(), st)
}

func list(ctx context.Context, st *store.Store, scope string) ([]highlight.Highlight, error) {
	if scope == "" {
		return st.All(ctx)
	}
	return st.List(ctx, scope)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:40]) + "…"
	}
	return s
}
