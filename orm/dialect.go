package orm

import (
	"strconv"

	"github.com/coderi421/mvc/orm/internal/errs"
)

var (
	MySQL      Dialect = &mysqlDialect{}
	SQLite3    Dialect = &sqlite3Dialect{}
	PostgreSQL Dialect = &postgresDialect{}
)

// Dialect 屏蔽不同数据库之间标识符引号和占位符的差异
type Dialect interface {
	// Name 方言名字，同时用作 trace 中的 db.system
	Name() string
	quoter() byte
	// placeholder 返回第 n 个参数的占位符，n 从 1 开始
	placeholder(n int) string
}

type standardSQL struct {
}

func (s *standardSQL) Name() string {
	return "other_sql"
}

func (s *standardSQL) quoter() byte {
	return '"'
}

func (s *standardSQL) placeholder(int) string {
	return "?"
}

type mysqlDialect struct {
	standardSQL
}

func (m *mysqlDialect) Name() string {
	return "mysql"
}

func (m *mysqlDialect) quoter() byte {
	return '`'
}

type sqlite3Dialect struct {
	standardSQL
}

func (s *sqlite3Dialect) Name() string {
	return "sqlite"
}

func (s *sqlite3Dialect) quoter() byte {
	return '`'
}

// postgresDialect 使用 "name" 引用标识符，$1 $2 作为占位符
type postgresDialect struct {
	standardSQL
}

func (p *postgresDialect) Name() string {
	return "postgresql"
}

func (p *postgresDialect) placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// DialectOf 根据 database/sql 的驱动名找到对应的方言
func DialectOf(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite3":
		return SQLite3, nil
	case "pgx", "postgres":
		return PostgreSQL, nil
	default:
		return nil, errs.NewErrUnsupportedDriver(driver)
	}
}
