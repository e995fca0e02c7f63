package orm

import (
	"context"
)

// RawQuerier 执行用户给出的原生查询
type RawQuerier struct {
	core
	sess Session
	sql  string
	args []any
}

// RawQuery 创建一个 RawQuerier 实例
// 参数按照占位符的顺序传入，占位符的写法取决于驱动
func RawQuery(sess Session, query string, args ...any) *RawQuerier {
	r := &RawQuerier{
		sess: sess,
		sql:  query,
		args: args,
	}
	if sess != nil {
		r.core = sess.getCore()
	}
	return r
}

func (r *RawQuerier) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}

// Get 返回全部的行
func (r *RawQuerier) Get(ctx context.Context) ([]Row, error) {
	if r.sess == nil {
		return nil, ErrNilSession
	}
	q, _ := r.Build()
	return r.rowsOf(ctx, r.sess, q)
}

// First 返回第一行，没有数据的时候返回 ErrNoRows
func (r *RawQuerier) First(ctx context.Context) (Row, error) {
	rows, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}
