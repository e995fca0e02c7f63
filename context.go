package mvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultErrorPath = "/error/500"

// Context 一次请求的上下文
type Context struct {
	// 将 http.Request 和 http.ResponseWriter 封装到 Context 里面
	// 这样就可以在业务逻辑里面使用了
	Req *http.Request
	// Resp 原生的 ResponseWriter。当你直接使用 Resp 的时候，
	// 那么相当于你绕开了 RespStatusCode 和 RespData。
	// 响应头可以直接设置，响应体请使用 RespData
	Resp       http.ResponseWriter
	PathParams map[string]string
	// 缓存的响应部分
	// 这部分数据会在最后刷新
	RespStatusCode int
	RespData       []byte

	// 缓存的数据
	queryValues url.Values

	// 命中的路由模板，例如 /users/{id}
	MatchedRoute string
	// RequestID 对应 X-Request-Id
	RequestID string

	// 通过 ctx 将 template engine 传递下去
	tplEngine TemplateEngine
	baseURL   string
	errorPath string

	// 用户可以自由决定在这里存储什么，
	// 但是要注意
	// 1. UserValues 在初始状态的时候总是 nil，你需要自己手动初始化
	// 懒汉模式 => 在第一次使用的时候初始化
	UserValues map[string]any
}

// Render 渲染视图 tplName，例如 users/index 对应 users/index.view.html。
// 视图不存在的时候重定向到错误页，并且返回 *ViewNotFoundError
func (c *Context) Render(tplName string, data any) error {
	if c.tplEngine == nil {
		c.RespStatusCode = http.StatusInternalServerError
		return ErrNoTemplateEngine
	}
	bs, err := c.tplEngine.Render(c.Req.Context(), tplName, data)
	if err != nil {
		var vnf *ViewNotFoundError
		if errors.As(err, &vnf) {
			c.Redirect(c.errorPath)
			return err
		}
		c.RespStatusCode = http.StatusInternalServerError
		return err
	}
	c.Resp.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.RespStatusCode = http.StatusOK
	c.RespData = bs
	return nil
}

// Redirect 302 到 baseURL + "/" + path
func (c *Context) Redirect(path string) {
	c.Resp.Header().Set("Location", c.baseURL+"/"+strings.TrimPrefix(path, "/"))
	c.RespStatusCode = http.StatusFound
	c.RespData = nil
}

// Back 回到 Referer，没有 Referer 的时候回到首页
func (c *Context) Back() {
	ref := c.Req.Referer()
	if ref == "" {
		ref = c.baseURL + "/"
	}
	c.Resp.Header().Set("Location", ref)
	c.RespStatusCode = http.StatusFound
	c.RespData = nil
}

// Resource 静态资源的地址
func (c *Context) Resource(path string) string {
	return c.baseURL + "/resources/" + strings.TrimPrefix(path, "/")
}

// QueryValue Query 和表单比起来，它没有缓存，所以需要自己缓存起来，不然每次都要解析
func (c *Context) QueryValue(key string) StringValue {
	if c.queryValues == nil {
		c.queryValues = c.Req.URL.Query()
	}

	vals, ok := c.queryValues[key]
	if !ok {
		return StringValue{err: errors.New("mvc: 找不到这个 key")}
	}
	if len(vals) == 1 {
		return StringValue{val: vals[0]}
	}
	return StringValue{val: vals[0], multiVal: vals}
}

func (c *Context) PathValue(key string) StringValue {
	val, ok := c.PathParams[key]
	if !ok {
		return StringValue{err: errors.New("mvc: 找不到这个 key")}
	}
	return StringValue{val: val}
}

func (c *Context) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.Resp, cookie)
}

func (c *Context) RespJSONOK(val any) error {
	return c.RespJSON(http.StatusOK, val)
}

func (c *Context) RespJSON(code int, val any) error {
	bs, err := json.Marshal(val)
	if err != nil {
		return err
	}
	// 这里缓存起来，最后统一写回
	c.Resp.Header().Set("Content-Type", "application/json")
	c.RespStatusCode = code
	c.RespData = bs
	return nil
}

type StringValue struct {
	val      string
	multiVal []string
	err      error
}

func (s StringValue) String() (string, error) {
	return s.val, s.err
}

func (s StringValue) StringMultiVal() ([]string, error) {
	if s.multiVal == nil && s.err == nil {
		return []string{s.val}, nil
	}
	return s.multiVal, s.err
}

func (s StringValue) ToInt64() (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return strconv.ParseInt(s.val, 10, 64)
}

// ToInt 参数不存在的时候返回 def
func (s StringValue) ToInt(def int) (int, error) {
	if s.err != nil {
		return def, nil
	}
	return strconv.Atoi(s.val)
}
