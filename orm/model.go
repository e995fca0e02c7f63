package orm

import (
	"context"

	"github.com/coderi421/mvc/orm/model"
)

// ModelOption is a function type that modifies a Model.
type ModelOption func(m *Model)

// Model 单表的记录网关，只读。
// 所有的查询都从 Query 返回的新 Selector 开始，Model 本身不保存查询条件
type Model struct {
	sess       Session
	table      string
	primaryKey string
}

// NewModel 以 table 为表名创建网关，主键默认是 id
func NewModel(sess Session, table string, opts ...ModelOption) *Model {
	m := &Model{
		sess:       sess,
		table:      table,
		primaryKey: model.DefaultPrimaryKey,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewModelFor 从结构体 T 的元数据中得到表名和主键
func NewModelFor[T any](sess Session, opts ...model.Option) (*Model, error) {
	if sess == nil {
		return nil, ErrNilSession
	}
	meta, err := sess.getCore().r.Register(new(T), opts...)
	if err != nil {
		return nil, err
	}
	return NewModel(sess, meta.TableName, ModelWithPrimaryKey(meta.PrimaryKey)), nil
}

func ModelWithPrimaryKey(column string) ModelOption {
	return func(m *Model) {
		m.primaryKey = column
	}
}

func (m *Model) Table() string {
	return m.table
}

func (m *Model) PrimaryKey() string {
	return m.primaryKey
}

// Query 每次调用都返回一个全新的 Selector
func (m *Model) Query() *Selector {
	return NewSelector(m.sess).From(m.table)
}

func (m *Model) Where(column string, op string, value any) *Selector {
	return m.Query().Where(column, op, value)
}

// All 返回表里的全部数据，顺序由数据库决定
func (m *Model) All(ctx context.Context) ([]Row, error) {
	return m.Query().Get(ctx)
}

// Find 按照主键查找，不存在时返回 ErrNoRows
func (m *Model) Find(ctx context.Context, id any) (Row, error) {
	return m.Query().Where(m.primaryKey, "=", id).First(ctx)
}

func (m *Model) Paginate(ctx context.Context, perPage int, page int) (*Page, error) {
	return m.Query().Paginate(ctx, perPage, page)
}
