package orm

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/coderi421/mvc/orm/internal/errs"
	"github.com/coderi421/mvc/orm/internal/valuer"
	"github.com/coderi421/mvc/orm/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/mvc/orm"

type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // Row 到 struct 的映射实现
	logger     *slog.Logger
	tracer     trace.Tracer
}

// query 执行一条查询语句，scan 负责消费结果集
// 每条语句都会记录 debug 日志并开启一个 span
func (c core) query(ctx context.Context, sess Session, q *Query, scan func(rows *sql.Rows) error) error {
	ctx, span := c.tracer.Start(ctx, "orm.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", c.dialect.Name()),
			attribute.String("db.statement", q.SQL),
		))
	defer span.End()

	start := time.Now()
	err := c.doQuery(ctx, sess, q, scan)
	c.logger.DebugContext(ctx, "orm: query",
		slog.String("sql", q.SQL),
		slog.Any("args", q.Args),
		slog.Duration("duration", time.Since(start)),
		slog.Any("err", err))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c core) doQuery(ctx context.Context, sess Session, q *Query, scan func(rows *sql.Rows) error) error {
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return errs.NewQueryExecutionError(q.SQL, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if err = scan(rows); err != nil {
		return errs.NewQueryExecutionError(q.SQL, err)
	}
	if err = rows.Err(); err != nil {
		return errs.NewQueryExecutionError(q.SQL, err)
	}
	return nil
}

// rowsOf 把结果集全部读成 Row
func (c core) rowsOf(ctx context.Context, sess Session, q *Query) ([]Row, error) {
	var res []Row
	err := c.query(ctx, sess, q, func(rows *sql.Rows) error {
		ms, err := valuer.ScanRows(rows)
		if err != nil {
			return err
		}
		res = make([]Row, 0, len(ms))
		for _, m := range ms {
			res = append(res, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
