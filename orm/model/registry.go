package model

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/coderi421/mvc/orm/internal/errs"
)

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...Option) (*Model, error)
}

// 这种包变量对测试不友好，缺乏隔离
//
//	var defaultRegistry = &registry{}
type registry struct {
	// reflect.Type 可以解决命名冲突的问题
	// 例如都是 User，但是一个映射过去 buyer_t，一个映射过去 seller_t
	models sync.Map
}

func NewRegistry() Registry {
	return &registry{}
}

// Get 查找元数据模型
// If the model is not found in the registry, it is parsed and stored for future use.
func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	m, ok := r.models.Load(typ)
	if ok {
		return m.(*Model), nil
	}

	return r.Register(val)
}

// Register parses val, applies opts and stores the result.
// A second Register for the same type replaces the previous model.
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}

	r.models.Store(reflect.TypeOf(val), m)
	return m, nil
}

// parseModel
// orm:"key1=value1,key2=value2"
func (r *registry) parseModel(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	// 只支持一级指针，例如 *User。不支持 **User 和 User
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()

	numField := typ.NumField()
	fds := make(map[string]*Field, numField)
	colMap := make(map[string]*Field, numField)
	primaryKey := ""

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)
		// 非导出字段无法通过反射赋值，直接跳过
		if !fdStruct.IsExported() {
			continue
		}

		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}
		if tags[tagKeyColumn] == "-" {
			continue
		}

		colName := tags[tagKeyColumn]
		if colName == "" {
			// ItemId -> item_id
			colName = underscoreName(fdStruct.Name)
		}
		if tags[tagKeyPrimaryKey] == "true" {
			primaryKey = colName
		}

		f := &Field{
			ColName: colName,
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Index:   i,
		}
		fds[fdStruct.Name] = f
		colMap[colName] = f
	}

	var tableName string
	if tn, ok := val.(TableName); ok {
		tableName = tn.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(typ.Name())
	}
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}

	return &Model{
		TableName:  tableName,
		PrimaryKey: primaryKey,
		FieldMap:   fds,
		ColumnMap:  colMap,
	}, nil
}

// parseTag parses the orm struct tag into key-value pairs.
// An empty tag yields an empty map so that callers never deal with nil.
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		return map[string]string{}, nil
	}

	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}

	return res, nil
}

// underscoreName UserName -> user_name
func underscoreName(name string) string {
	var buf []byte
	for i, v := range name {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(unicode.ToLower(v)))
		} else {
			buf = append(buf, byte(v))
		}
	}
	return string(buf)
}

// WithTableName is an Option that sets the table name for a Model.
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithPrimaryKey overrides the primary key column.
func WithPrimaryKey(column string) Option {
	return func(model *Model) error {
		model.PrimaryKey = column
		return nil
	}
}

// WithColumnName sets the column name for the given Go field and keeps
// ColumnMap in sync with it.
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}

		if model.PrimaryKey == fd.ColName {
			model.PrimaryKey = columnName
		}
		delete(model.ColumnMap, fd.ColName)
		fd.ColName = columnName
		model.ColumnMap[columnName] = fd
		return nil
	}
}
