package orm

// Query 构造完成的 SQL 语句和参数
type Query struct {
	SQL  string
	Args []any
}

type QueryBuilder interface {
	Build() (*Query, error)
}
