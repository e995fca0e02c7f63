package mvc

import (
	"errors"
	"fmt"
)

var (
	// ErrRouteTableFrozen 开始处理请求之后再注册路由
	ErrRouteTableFrozen = errors.New("mvc: 服务已经启动，不允许继续注册路由")
	// ErrUnsupportedMethod 只支持 GET POST PUT DELETE
	ErrUnsupportedMethod = errors.New("mvc: 不支持的 HTTP 方法")
	ErrNoTemplateEngine  = errors.New("mvc: 没有设置模板引擎")
)

// RouteCompilationError 路由模板不合法
type RouteCompilationError struct {
	Template string
	Reason   string
}

func (e *RouteCompilationError) Error() string {
	return fmt.Sprintf("mvc: 非法路由 [%s]: %s", e.Template, e.Reason)
}

// ViewNotFoundError 找不到视图文件
type ViewNotFoundError struct {
	View string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("mvc: 找不到视图 [%s]", e.View)
}
