package orm

import (
	"context"
	"database/sql"
)

var _ Session = &DB{}

// Session 代表一个抽象的概念，即会话
// 只读网关不需要事务，所以目前只有 DB 一个实现
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
