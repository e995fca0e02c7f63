package orm

import (
	"regexp"
	"strings"

	"github.com/coderi421/mvc/orm/internal/errs"
)

// columnPattern 列名只允许 name 或者 table.name 两种形式
var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type builder struct {
	core
	sb   strings.Builder // sb is used to build the SQL query string.
	args []any           // args holds the arguments for the query.
}

// reset 清空上一次 Build 的结果，同一个 builder 可以多次 Build
func (b *builder) reset() {
	b.sb.Reset()
	b.args = nil
}

// quote 按照方言给标识符加上引号，table.name 会被拆开分别引用
func (b *builder) quote(name string) {
	q := b.dialect.quoter()
	for i, part := range strings.Split(name, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		b.sb.WriteByte(q)
		b.sb.WriteString(part)
		b.sb.WriteByte(q)
	}
}

func (b *builder) buildColumn(col string) error {
	if !columnPattern.MatchString(col) {
		return errs.NewErrInvalidColumn(col)
	}
	b.quote(col)
	return nil
}

// param 写入占位符并记录参数，参数按照出现顺序绑定
func (b *builder) param(val any) {
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, val)
	b.sb.WriteString(b.dialect.placeholder(len(b.args)))
}

func (b *builder) build() *Query {
	b.sb.WriteByte(';')
	return &Query{
		SQL:  b.sb.String(),
		Args: b.args,
	}
}
