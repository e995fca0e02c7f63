package mvc

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"strings"
)

// ViewSuffix 视图文件的后缀，users/index 对应 users/index.view.html
const ViewSuffix = ".view.html"

type TemplateEngine interface {
	// Render 渲染页面
	// tplName 模板的名字，按名索引
	// data 渲染页面用的数据
	Render(ctx context.Context, tplName string, data any) ([]byte, error)
}

type GoTemplateEngine struct {
	T *template.Template
}

// NewGoTemplateEngine 加载 fsys 下所有的 *.view.html，模板名就是相对路径
func NewGoTemplateEngine(fsys fs.FS, funcs template.FuncMap) (*GoTemplateEngine, error) {
	t := template.New("").Funcs(funcs)
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ViewSuffix) {
			return nil
		}
		bs, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = t.New(path).Parse(string(bs))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &GoTemplateEngine{T: t}, nil
}

func (g *GoTemplateEngine) Render(ctx context.Context, tplName string, data any) ([]byte, error) {
	tpl := g.T.Lookup(tplName + ViewSuffix)
	if tpl == nil {
		return nil, &ViewNotFoundError{View: tplName}
	}
	bs := &bytes.Buffer{}
	err := tpl.Execute(bs, data)
	return bs.Bytes(), err
}
