package valuer

import (
	"database/sql"

	"github.com/coderi421/mvc/orm/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// SetColumns 把一行数据按照列名设置到结构体上
	SetColumns(row map[string]any) error
}

// Creator 本质上也可以看所是 factory 模式，极其简单的 factory 模式
type Creator func(val any, meta *model.Model) Value

// ScanRows 读取全部结果，每一行都以列名为 key。
// 驱动返回的 []byte 会被转换成 string
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := make([]map[string]any, 0, 8)
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if bs, ok := vals[i].([]byte); ok {
				row[col] = string(bs)
				continue
			}
			row[col] = vals[i]
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
