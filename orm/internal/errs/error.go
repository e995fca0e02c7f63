package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errors.New("orm: 没有数据")
	// ErrPointerOnly 只支持一级指针作为输入
	// 例如 *User
	ErrPointerOnly    = errors.New("orm: 只支持指向结构体的一级指针")
	ErrEmptyTable     = errors.New("orm: 未指定表名")
	ErrNilSession     = errors.New("orm: session 为 nil")
	ErrInvalidPerPage = errors.New("orm: perPage 必须为正数")
	ErrInvalidPage    = errors.New("orm: page 必须为正数")

	ErrInvalidOperator  = errors.New("orm: 不支持的操作符")
	ErrInvalidDirection = errors.New("orm: 不支持的排序方向")
	ErrInvalidColumn    = errors.New("orm: 非法列名")
	ErrInvalidLimit     = errors.New("orm: limit 和 offset 不能为负数")
)

func NewErrInvalidOperator(op string) error {
	return fmt.Errorf("%w %q", ErrInvalidOperator, op)
}

func NewErrInvalidDirection(dir string) error {
	return fmt.Errorf("%w %q，只允许 ASC 或 DESC", ErrInvalidDirection, dir)
}

func NewErrInvalidColumn(col string) error {
	return fmt.Errorf("%w %q", ErrInvalidColumn, col)
}

func NewErrInvalidLimit(name string, val int) error {
	return fmt.Errorf("%w: %s=%d", ErrInvalidLimit, name, val)
}

func NewErrUnknownField(name string) error {
	return fmt.Errorf("orm: 未知字段 %s", name)
}

func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("orm: 未知列 %s", name)
}

func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 非法标签值 %s", pair)
}

func NewErrUnsupportedDriver(driver string) error {
	return fmt.Errorf("orm: 不支持的驱动 %s", driver)
}

func NewErrCannotConvert(col string, from any, to string) error {
	return fmt.Errorf("orm: 列 %s 的值 %v (%T) 无法转换为 %s", col, from, from, to)
}

// QueryExecutionError 包装数据库执行阶段的错误，保留出错的 SQL
type QueryExecutionError struct {
	SQL string
	Err error
}

func NewQueryExecutionError(sql string, err error) *QueryExecutionError {
	return &QueryExecutionError{SQL: sql, Err: err}
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("orm: 执行查询失败 [%s]: %v", e.SQL, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}
