package orm

import (
	"strings"

	"github.com/coderi421/mvc/orm/internal/errs"
)

type op string

const (
	opEQ      op = "="
	opNE      op = "!="
	opLTGT    op = "<>"
	opLT      op = "<"
	opLTE     op = "<="
	opGT      op = ">"
	opGTE     op = ">="
	opLike    op = "LIKE"
	opNotLike op = "NOT LIKE"
)

func (o op) String() string {
	return string(o)
}

// supportedOps WHERE 中允许出现的操作符，其余一律拒绝
var supportedOps = map[op]struct{}{
	opEQ: {}, opNE: {}, opLTGT: {}, opLT: {}, opLTE: {},
	opGT: {}, opGTE: {}, opLike: {}, opNotLike: {},
}

// parseOp 大小写不敏感，"not   like" 也会被规整成 NOT LIKE
func parseOp(s string) (op, error) {
	o := op(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	if _, ok := supportedOps[o]; !ok {
		return "", errs.NewErrInvalidOperator(s)
	}
	return o, nil
}

// predicate 代表一个查询条件 column op value
// 多个 predicate 之间使用 AND 连接
type predicate struct {
	column string
	op     string
	value  any
}

const (
	ASC  = "ASC"
	DESC = "DESC"
)

type orderBy struct {
	column    string
	direction string
}

func parseDirection(s string) (string, error) {
	d := strings.ToUpper(strings.TrimSpace(s))
	if d != ASC && d != DESC {
		return "", errs.NewErrInvalidDirection(s)
	}
	return d, nil
}
