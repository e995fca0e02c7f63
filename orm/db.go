package orm

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/coderi421/mvc/orm/internal/valuer"
	"github.com/coderi421/mvc/orm/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type DBOption func(*DB)

// DB 是 sql.DB 的装饰器
type DB struct {
	core
	db *sql.DB
}

// Open 创建一个 DB 实例。
// 默认情况下，方言根据 driver 推断，例如 mysql，sqlite3，pgx
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	dialect, err := DialectOf(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// 用户显式传入的方言优先
	return OpenDB(db, append([]DBOption{DBWithDialect(dialect)}, opts...)...)
}

// OpenDB 可以利用 OpenDB 来传入一个 mock 的 DB
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			dialect:    MySQL,
			r:          model.NewRegistry(),
			valCreator: valuer.NewReflectValue,
			logger:     slog.Default(),
			tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		},
		db: db,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBWithLogger 每条语句都会以 debug 级别输出到 logger
func DBWithLogger(logger *slog.Logger) DBOption {
	return func(db *DB) {
		db.logger = logger
	}
}

// DBWithTracer 默认使用全局的 TracerProvider
func DBWithTracer(tracer trace.Tracer) DBOption {
	return func(db *DB) {
		db.tracer = tracer
	}
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// Dialect 当前使用的方言
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
