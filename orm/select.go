package orm

import (
	"context"
	"database/sql"

	"github.com/coderi421/mvc/orm/internal/errs"
)

const (
	DefaultPerPage = 10
	DefaultPage    = 1
)

// Selector 用于构造 SELECT 语句。
// 一个 Selector 只对应一次逻辑查询，不要在多个查询之间复用
type Selector struct {
	builder

	sess    Session
	table   string
	where   []predicate // 多个条件使用 AND 连接
	groupBy string
	orderBy []orderBy

	limit   int
	limited bool // Limit(0) 也是一个合法的 limit，需要和未设置区分开
	offset  int
}

// NewSelector creates a new instance of Selector.
func NewSelector(sess Session) *Selector {
	s := &Selector{sess: sess}
	if sess != nil {
		s.core = sess.getCore()
	}
	return s
}

// From sets the table name for the selector.
func (s *Selector) From(tbl string) *Selector {
	s.table = tbl
	return s
}

// Where 追加一个查询条件，op 在 Build 的时候校验
func (s *Selector) Where(column string, op string, value any) *Selector {
	s.where = append(s.where, predicate{column: column, op: op, value: value})
	return s
}

// OrderBy 按照调用顺序追加排序，direction 只能是 ASC 或者 DESC
func (s *Selector) OrderBy(column string, direction string) *Selector {
	s.orderBy = append(s.orderBy, orderBy{column: column, direction: direction})
	return s
}

func (s *Selector) GroupBy(column string) *Selector {
	s.groupBy = column
	return s
}

func (s *Selector) Limit(limit int) *Selector {
	s.limit = limit
	s.limited = true
	return s
}

// Offset 为 0 时不会输出 OFFSET
func (s *Selector) Offset(offset int) *Selector {
	s.offset = offset
	return s
}

// Build 输出顺序为 WHERE, GROUP BY, ORDER BY, LIMIT, OFFSET
func (s *Selector) Build() (*Query, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}

	s.sb.WriteString("SELECT * FROM ")
	s.quote(s.table)

	if err := s.buildWhere(); err != nil {
		return nil, err
	}
	if err := s.buildGroupBy(); err != nil {
		return nil, err
	}
	if err := s.buildOrderBy(); err != nil {
		return nil, err
	}

	// 分页
	if s.limit < 0 {
		return nil, errs.NewErrInvalidLimit("limit", s.limit)
	}
	if s.offset < 0 {
		return nil, errs.NewErrInvalidLimit("offset", s.offset)
	}
	if s.limited {
		s.sb.WriteString(" LIMIT ")
		s.param(s.limit)
	}
	if s.offset > 0 {
		s.sb.WriteString(" OFFSET ")
		s.param(s.offset)
	}

	return s.build(), nil
}

// buildCount 只保留 WHERE 和 GROUP BY，排序和分页对总数没有影响。
// 有 GROUP BY 的时候统计的是分组的数量
func (s *Selector) buildCount() (*Query, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}

	if s.groupBy == "" {
		s.sb.WriteString("SELECT COUNT(*) FROM ")
		s.quote(s.table)
		if err := s.buildWhere(); err != nil {
			return nil, err
		}
		return s.build(), nil
	}

	s.sb.WriteString("SELECT COUNT(*) FROM (SELECT ")
	if err := s.buildColumn(s.groupBy); err != nil {
		return nil, err
	}
	s.sb.WriteString(" FROM ")
	s.quote(s.table)
	if err := s.buildWhere(); err != nil {
		return nil, err
	}
	if err := s.buildGroupBy(); err != nil {
		return nil, err
	}
	s.sb.WriteString(") AS ")
	s.quote("grouped")
	return s.build(), nil
}

func (s *Selector) prepare() error {
	if s.dialect == nil {
		return errs.ErrNilSession
	}
	if s.table == "" {
		return errs.ErrEmptyTable
	}
	if !columnPattern.MatchString(s.table) {
		return errs.NewErrInvalidColumn(s.table)
	}
	s.reset()
	return nil
}

func (s *Selector) buildWhere() error {
	if len(s.where) == 0 {
		return nil
	}
	// 类似这种可有可无的部分，都要在前面加一个空格
	s.sb.WriteString(" WHERE ")
	for i, p := range s.where {
		if i > 0 {
			s.sb.WriteString(" AND ")
		}
		o, err := parseOp(p.op)
		if err != nil {
			return err
		}
		if err = s.buildColumn(p.column); err != nil {
			return err
		}
		s.sb.WriteByte(' ')
		s.sb.WriteString(o.String())
		s.sb.WriteByte(' ')
		s.param(p.value)
	}
	return nil
}

func (s *Selector) buildGroupBy() error {
	if s.groupBy == "" {
		return nil
	}
	s.sb.WriteString(" GROUP BY ")
	return s.buildColumn(s.groupBy)
}

func (s *Selector) buildOrderBy() error {
	if len(s.orderBy) == 0 {
		return nil
	}
	s.sb.WriteString(" ORDER BY ")
	for i, ob := range s.orderBy {
		if i > 0 {
			s.sb.WriteByte(',')
		}
		d, err := parseDirection(ob.direction)
		if err != nil {
			return err
		}
		if err = s.buildColumn(ob.column); err != nil {
			return err
		}
		s.sb.WriteByte(' ')
		s.sb.WriteString(d)
	}
	return nil
}

// Get 执行查询，按照数据库返回的顺序输出全部的行
func (s *Selector) Get(ctx context.Context) ([]Row, error) {
	q, err := s.Build()
	if err != nil {
		return nil, err
	}
	return s.rowsOf(ctx, s.sess, q)
}

// First 返回结果集的第一行，没有数据的时候返回 ErrNoRows
func (s *Selector) First(ctx context.Context) (Row, error) {
	rows, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

// Count 统计满足 WHERE 条件的行数
func (s *Selector) Count(ctx context.Context) (int64, error) {
	q, err := s.buildCount()
	if err != nil {
		return 0, err
	}
	var total int64
	err = s.query(ctx, s.sess, q, func(rows *sql.Rows) error {
		if !rows.Next() {
			return ErrNoRows
		}
		return rows.Scan(&total)
	})
	return total, err
}

// Paginate 查询第 page 页，每页 perPage 条。
// perPage 和 page 为 0 的时候使用默认值，负数返回错误。
// 数据和总数是两次独立的查询，两次查询之间的写入会导致结果不一致
func (s *Selector) Paginate(ctx context.Context, perPage int, page int) (*Page, error) {
	if perPage < 0 {
		return nil, errs.ErrInvalidPerPage
	}
	if page < 0 {
		return nil, errs.ErrInvalidPage
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page == 0 {
		page = DefaultPage
	}

	data, err := s.Limit(perPage).Offset((page - 1) * perPage).Get(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	return newPage(data, perPage, page, total), nil
}
