package mvc

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// HandleFunc 业务逻辑，路径参数在 ctx.PathParams 里面
type HandleFunc func(ctx *Context)

var _ Server = (*HTTPServer)(nil)

// Server is the interface that wraps the basic ServeHTTP method.
// here is the interface of core API
type Server interface {
	// Handler ServeHTTP should write reply headers and data to the ResponseWriter
	// 继承 http.Handler 接口
	http.Handler

	// Start starts the HTTP server.
	// addr 是监听地址。如果只指定端口，可以使用 ":8081"
	// 或者 "localhost:8082"
	Start(addr string) error

	// AddRoute add the route to the server.
	// AddRoute 路由注册功能
	// method 是 HTTP 方法
	// path 是路由
	// handleFunc 是你的业务逻辑
	AddRoute(method string, path string, handleFunc HandleFunc)
}

type HTTPServerOption func(server *HTTPServer)

type HTTPServer struct {
	*router

	baseURL string
	// withHost baseURL 带有 scheme 和 host 的时候，匹配的是完整的 URL
	withHost     bool
	notFoundPath string
	errorPath    string

	tplEngine TemplateEngine
	logger    *slog.Logger
	tracer    trace.Tracer
	// requests 为 nil 的时候不统计
	requests *prometheus.SummaryVec

	mu  sync.Mutex
	srv *http.Server
}

// NewHTTPServer 创建服务器，路由的 baseURL 在创建时确定
func NewHTTPServer(opts ...HTTPServerOption) *HTTPServer {
	res := &HTTPServer{
		notFoundPath: defaultNotFoundPath,
		errorPath:    defaultErrorPath,
		logger:       slog.Default(),
		tracer:       otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(res)
	}
	if u, err := url.Parse(res.baseURL); err == nil && u.Host != "" {
		res.withHost = true
	}
	res.router = newRouter(res.baseURL, res.notFoundPath)
	return res
}

// ServerWithBaseURL 例如 http://localhost:8080 或者 /app，末尾的 / 会被去掉
func ServerWithBaseURL(baseURL string) HTTPServerOption {
	return func(server *HTTPServer) {
		server.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// ServerWithNotFoundPath 没有命中路由时重定向的目标，默认 /miscellaneous/404
func ServerWithNotFoundPath(path string) HTTPServerOption {
	return func(server *HTTPServer) {
		server.notFoundPath = path
	}
}

// ServerWithErrorPath 视图渲染失败时重定向的目标，默认 /error/500
func ServerWithErrorPath(path string) HTTPServerOption {
	return func(server *HTTPServer) {
		server.errorPath = path
	}
}

func ServerWithTemplateEngine(tplEngine TemplateEngine) HTTPServerOption {
	return func(server *HTTPServer) {
		server.tplEngine = tplEngine
	}
}

func ServerWithLogger(logger *slog.Logger) HTTPServerOption {
	return func(server *HTTPServer) {
		server.logger = logger
	}
}

func ServerWithTracer(tracer trace.Tracer) HTTPServerOption {
	return func(server *HTTPServer) {
		server.tracer = tracer
	}
}

// ServerWithRegisterer 在 reg 上注册请求耗时的统计
func ServerWithRegisterer(reg prometheus.Registerer) HTTPServerOption {
	return func(server *HTTPServer) {
		server.requests = newRequestSummary()
		reg.MustRegister(server.requests)
	}
}

// ServeHTTP is the entry point for a request handler.
// ServeHTTP 处理请求的入口，第一次调用之后路由表就不能再修改了
func (s *HTTPServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.freeze()

	// 将 http.Request 和 http.ResponseWriter 封装到 Context 里面
	ctx := &Context{
		Req:       request,
		Resp:      writer,
		tplEngine: s.tplEngine,
		baseURL:   s.baseURL,
		errorPath: s.errorPath,
	}

	s.serve(ctx)
}

// serve 固定的处理流程：request id，trace，执行路由，刷新响应，记录指标和访问日志
func (s *HTTPServer) serve(ctx *Context) {
	start := time.Now()
	s.setRequestID(ctx)
	span := s.startSpan(ctx)

	s.dispatchSafely(ctx)
	s.flashResp(ctx)

	s.endSpan(ctx, span)
	s.observe(ctx, time.Since(start))
	s.accessLog(ctx, time.Since(start))
}

// dispatchSafely 业务 panic 的时候返回 500
func (s *HTTPServer) dispatchSafely(ctx *Context) {
	defer func() {
		if err := recover(); err != nil {
			ctx.RespStatusCode = http.StatusInternalServerError
			ctx.RespData = []byte(http.StatusText(http.StatusInternalServerError))
			s.logPanic(ctx, err)
		}
	}()
	s.dispatch(ctx, ctx.Req.Method, s.fullPath(ctx.Req))
}

// fullPath 拼接出用于匹配的完整地址，查询参数不参与匹配
func (s *HTTPServer) fullPath(req *http.Request) string {
	if !s.withHost {
		return req.URL.Path
	}
	scheme := "http"
	if req.TLS != nil || strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + req.Host + req.URL.Path
}

// flashResp 把缓存的响应写回去
func (s *HTTPServer) flashResp(ctx *Context) {
	if ctx.RespStatusCode == 0 {
		ctx.RespStatusCode = http.StatusOK
	}
	ctx.Resp.WriteHeader(ctx.RespStatusCode)
	if len(ctx.RespData) == 0 {
		return
	}
	if _, err := ctx.Resp.Write(ctx.RespData); err != nil {
		s.logger.ErrorContext(ctx.Req.Context(), "mvc: 写入响应失败", slog.Any("err", err))
	}
}

// AddRoute 注册路由，模板非法或者服务已经启动的时候 panic
func (s *HTTPServer) AddRoute(method string, path string, handleFunc HandleFunc) {
	if err := s.addRoute(method, path, handleFunc); err != nil {
		panic(err)
	}
}

func (s *HTTPServer) Get(path string, handleFunc HandleFunc) {
	s.AddRoute(http.MethodGet, path, handleFunc)
}

func (s *HTTPServer) Post(path string, handleFunc HandleFunc) {
	s.AddRoute(http.MethodPost, path, handleFunc)
}

func (s *HTTPServer) Put(path string, handleFunc HandleFunc) {
	s.AddRoute(http.MethodPut, path, handleFunc)
}

func (s *HTTPServer) Delete(path string, handleFunc HandleFunc) {
	s.AddRoute(http.MethodDelete, path, handleFunc)
}

// Routes 已经注册的全部路由
func (s *HTTPServer) Routes() []RouteInfo {
	return s.list()
}

// Start starts the HTTP server.
func (s *HTTPServer) Start(addr string) error {
	s.freeze()

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("mvc: 服务启动", slog.String("addr", l.Addr().String()), slog.String("base_url", s.baseURL))
	return srv.Serve(l)
}

// Shutdown 优雅退出，Start 会返回 http.ErrServerClosed
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
