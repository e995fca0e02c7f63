package orm

import (
	"github.com/coderi421/mvc/orm/internal/errs"
)

// Row 一行数据，key 是列名
type Row map[string]any

// ScanAs 按照列名把 rows 映射成 T。
// 列必须都能在 T 的元数据中找到
func ScanAs[T any](sess Session, rows []Row) ([]*T, error) {
	if sess == nil {
		return nil, errs.ErrNilSession
	}
	c := sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return nil, err
	}

	res := make([]*T, 0, len(rows))
	for _, row := range rows {
		t := new(T)
		if err = c.valCreator(t, meta).SetColumns(row); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}
