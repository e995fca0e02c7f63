package orm

import "github.com/coderi421/mvc/orm/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errs.ErrNoRows

	ErrEmptyTable       = errs.ErrEmptyTable
	ErrNilSession       = errs.ErrNilSession
	ErrInvalidOperator  = errs.ErrInvalidOperator
	ErrInvalidDirection = errs.ErrInvalidDirection
	ErrInvalidColumn    = errs.ErrInvalidColumn
	ErrInvalidLimit     = errs.ErrInvalidLimit
	ErrInvalidPerPage   = errs.ErrInvalidPerPage
	ErrInvalidPage      = errs.ErrInvalidPage
)

// QueryExecutionError 数据库执行失败，Err 是驱动返回的原始错误
type QueryExecutionError = errs.QueryExecutionError
