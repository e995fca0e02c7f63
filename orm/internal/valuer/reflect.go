package valuer

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/coderi421/mvc/orm/internal/errs"
	"github.com/coderi421/mvc/orm/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return &reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

// SetColumns 将数据库中的数据设置到对应的 struct 上
// 列名必须能在 ColumnMap 里找到，否则返回 ErrUnknownColumn
func (r reflectValue) SetColumns(row map[string]any) error {
	for col, src := range row {
		// 找到 db column name 对应的映射信息
		fd, ok := r.meta.ColumnMap[col]
		if !ok {
			return errs.NewErrUnknownColumn(col)
		}
		if err := assign(r.val.Field(fd.Index), src); err != nil {
			return fmt.Errorf("%w: %v", errs.NewErrCannotConvert(col, src, fd.Type.String()), err)
		}
	}
	return nil
}

// assign 把驱动返回的值 src 写入 dst
// src 的类型只会是 nil, int64, float64, bool, string, time.Time 中的一种
func assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	// sql.NullString 之类的类型自己知道怎么处理
	if dst.CanAddr() {
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(src)
		}
	}

	if dst.Kind() == reflect.Pointer {
		nv := reflect.New(dst.Type().Elem())
		if err := assign(nv.Elem(), src); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		switch v := src.(type) {
		case time.Time:
			dst.SetString(v.Format(time.RFC3339))
		default:
			dst.SetString(fmt.Sprint(v))
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := asInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return strconv.ErrRange
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := asInt64(src)
		if err != nil {
			return err
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return strconv.ErrRange
		}
		dst.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := asFloat64(src)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		switch v := src.(type) {
		case int64:
			dst.SetBool(v != 0)
			return nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}
	case reflect.Slice:
		// []byte
		if s, ok := src.(string); ok && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(s))
			return nil
		}
	}
	return fmt.Errorf("unsupported conversion %T -> %s", src, dst.Type())
}

func asInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, strconv.ErrSyntax
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("unsupported conversion %T -> int64", src)
}

func asFloat64(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("unsupported conversion %T -> float64", src)
}
