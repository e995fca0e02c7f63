package mvc

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/gotomicro/ekit/slice"
)

// supportedMethods 每个方法一张路由表
var supportedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
}

const defaultNotFoundPath = "/miscellaneous/404"

// route 注册之后就不会再修改
type route struct {
	method   string
	template string
	// pattern = baseURL + template，匹配的是完整的请求地址
	pattern    string
	compiled   *regexp.Regexp
	paramNames []string
	handler    HandleFunc
}

// router 按照方法分组，每组内按照注册顺序排列。
// 匹配的时候按顺序扫描，第一个命中的路由生效，没有优先级之分
type router struct {
	baseURL      string
	notFoundPath string
	routes       map[string][]*route

	// frozen 开始处理请求后为 true，此后路由表只读，读取不需要加锁
	frozen atomic.Bool
}

func newRouter(baseURL string, notFoundPath string) *router {
	if notFoundPath == "" {
		notFoundPath = defaultNotFoundPath
	}
	return &router{
		baseURL:      baseURL,
		notFoundPath: notFoundPath,
		routes:       make(map[string][]*route, len(supportedMethods)),
	}
}

// addRoute 注册路由
//
//	@Description:
//	  - 相同的路由可以重复注册，先注册的生效
//	  - template 必须以 / 开头，{name} 代表一个路径参数，匹配一段不包含 / 的内容
//	  - 参数名只能由字母、数字和下划线组成，并且同一个路由里面不能重名
//	  - 开始处理请求之后不能再注册
//	    @receiver r
//	    @param method HTTP 方法，只支持 GET POST PUT DELETE
//	    @param template 路由模板，例如 /users/{id}
//	    @param handler 路由处理函数
func (r *router) addRoute(method string, template string, handler HandleFunc) error {
	if r.frozen.Load() {
		return ErrRouteTableFrozen
	}
	if !slice.Contains[string](supportedMethods, method) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	compiled, names, err := compileTemplate(r.baseURL, template)
	if err != nil {
		return err
	}

	r.routes[method] = append(r.routes[method], &route{
		method:     method,
		template:   template,
		pattern:    r.baseURL + template,
		compiled:   compiled,
		paramNames: names,
		handler:    handler,
	})
	return nil
}

// compileTemplate 把 /users/{id} 编译成 ^/users/(?P<id>[^/]+)$
// baseURL 和模板中的字面量都会被转义
func compileTemplate(baseURL string, template string) (*regexp.Regexp, []string, error) {
	if template == "" {
		return nil, nil, &RouteCompilationError{Template: template, Reason: "路由不能为空"}
	}
	if template[0] != '/' {
		return nil, nil, &RouteCompilationError{Template: template, Reason: "路由必须以 / 开头"}
	}

	var (
		sb    strings.Builder
		names []string
	)
	sb.WriteByte('^')
	sb.WriteString(regexp.QuoteMeta(baseURL))

	rest := template
	for rest != "" {
		open := strings.IndexAny(rest, "{}")
		if open < 0 {
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		if rest[open] == '}' {
			return nil, nil, &RouteCompilationError{Template: template, Reason: "括号不匹配"}
		}
		sb.WriteString(regexp.QuoteMeta(rest[:open]))

		end := strings.IndexAny(rest[open+1:], "{}")
		if end < 0 || rest[open+1+end] == '{' {
			return nil, nil, &RouteCompilationError{Template: template, Reason: "括号不匹配"}
		}
		name := rest[open+1 : open+1+end]
		if name == "" {
			return nil, nil, &RouteCompilationError{Template: template, Reason: "参数名不能为空"}
		}
		if !isWord(name) {
			return nil, nil, &RouteCompilationError{Template: template,
				Reason: fmt.Sprintf("参数名 %s 只能包含字母、数字和下划线", name)}
		}
		if slice.Contains[string](names, name) {
			return nil, nil, &RouteCompilationError{Template: template,
				Reason: fmt.Sprintf("参数名 %s 重复", name)}
		}
		names = append(names, name)
		sb.WriteString("(?P<")
		sb.WriteString(name)
		sb.WriteString(">[^/]+)")

		rest = rest[open+1+end+1:]
	}
	sb.WriteByte('$')

	compiled, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, nil, &RouteCompilationError{Template: template, Reason: err.Error()}
	}
	return compiled, names, nil
}

func isWord(s string) bool {
	for _, c := range s {
		if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// findRoute 按照注册顺序查找第一个匹配的路由
// 不支持的方法没有路由表，永远找不到
func (r *router) findRoute(method string, fullPath string) (*matchInfo, bool) {
	for _, rt := range r.routes[method] {
		m := rt.compiled.FindStringSubmatch(fullPath)
		if m == nil {
			continue
		}
		params := make(map[string]string, len(rt.paramNames))
		for _, name := range rt.paramNames {
			params[name] = m[rt.compiled.SubexpIndex(name)]
		}
		return &matchInfo{route: rt, pathParams: params}, true
	}
	return nil, false
}

// dispatch 执行命中的路由。
// 没有命中的时候重定向到 notFoundPath，如果当前请求的就是 notFoundPath，那么只返回 404，避免循环重定向
func (r *router) dispatch(ctx *Context, method string, fullPath string) {
	mi, ok := r.findRoute(method, fullPath)
	if !ok {
		notFound := r.baseURL + r.notFoundPath
		if fullPath == notFound {
			ctx.RespStatusCode = http.StatusNotFound
			return
		}
		ctx.Resp.Header().Set("Location", notFound)
		ctx.RespStatusCode = http.StatusFound
		return
	}

	ctx.PathParams = mi.pathParams
	ctx.MatchedRoute = mi.route.template
	mi.route.handler(ctx)
}

func (r *router) freeze() {
	r.frozen.Store(true)
}

// RouteInfo 对外暴露的路由信息
type RouteInfo struct {
	Method   string
	Template string
	Pattern  string
}

// list 按照 GET POST PUT DELETE 的顺序输出，同一方法内保持注册顺序
func (r *router) list() []RouteInfo {
	res := make([]RouteInfo, 0, 16)
	for _, method := range supportedMethods {
		for _, rt := range r.routes[method] {
			res = append(res, RouteInfo{Method: rt.method, Template: rt.template, Pattern: rt.pattern})
		}
	}
	return res
}

type matchInfo struct {
	route      *route
	pathParams map[string]string
}
