package mvc

import (
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/coderi421/mvc"

	// HeaderRequestID 客户端传了就沿用，没有传就生成一个
	HeaderRequestID = "X-Request-Id"

	unknownRoute = "unknown"
)

func (s *HTTPServer) setRequestID(ctx *Context) {
	id := ctx.Req.Header.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	ctx.RequestID = id
	ctx.Resp.Header().Set(HeaderRequestID, id)
}

// startSpan 尝试和客户端的 trace 结合在一起
// 路由还没有匹配，所以先叫 unknown，结束的时候再改名
func (s *HTTPServer) startSpan(ctx *Context) trace.Span {
	reqCtx := otel.GetTextMapPropagator().Extract(ctx.Req.Context(), propagation.HeaderCarrier(ctx.Req.Header))
	reqCtx, span := s.tracer.Start(reqCtx, unknownRoute, trace.WithSpanKind(trace.SpanKindServer))

	span.SetAttributes(
		attribute.String("http.method", ctx.Req.Method),
		attribute.String("http.url", ctx.Req.URL.String()),
		attribute.String("http.host", ctx.Req.Host),
		attribute.String("http.request_id", ctx.RequestID),
	)

	// 再次封装 req，handler 里面的 orm 查询会成为子 span
	ctx.Req = ctx.Req.WithContext(reqCtx)
	return span
}

func (s *HTTPServer) endSpan(ctx *Context, span trace.Span) {
	span.SetName(routeOf(ctx))
	span.SetAttributes(attribute.Int("http.status", ctx.RespStatusCode))
	if ctx.RespStatusCode >= 500 {
		span.SetStatus(codes.Error, strconv.Itoa(ctx.RespStatusCode))
	}
	span.End()
}

func newRequestSummary() *prometheus.SummaryVec {
	return prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "mvc",
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP 请求耗时，单位毫秒",
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,  // 99 线
			0.999: 0.0001, // 999 线
		},
	}, []string{"pattern", "method", "status"})
}

func (s *HTTPServer) observe(ctx *Context, duration time.Duration) {
	if s.requests == nil {
		return
	}
	s.requests.WithLabelValues(routeOf(ctx), ctx.Req.Method,
		strconv.Itoa(ctx.RespStatusCode)).Observe(float64(duration.Milliseconds()))
}

func (s *HTTPServer) accessLog(ctx *Context, duration time.Duration) {
	s.logger.LogAttrs(ctx.Req.Context(), slog.LevelInfo, "access",
		slog.String("host", ctx.Req.Host),
		slog.String("route", ctx.MatchedRoute),
		slog.String("http_method", ctx.Req.Method),
		slog.String("path", ctx.Req.URL.Path),
		slog.Int("status", ctx.RespStatusCode),
		slog.Duration("duration", duration),
		slog.String("request_id", ctx.RequestID),
	)
}

func (s *HTTPServer) logPanic(ctx *Context, err any) {
	s.logger.LogAttrs(ctx.Req.Context(), slog.LevelError, "mvc: panic",
		slog.Any("panic", err),
		slog.String("route", ctx.MatchedRoute),
		slog.String("request_id", ctx.RequestID),
		slog.String("stack", string(debug.Stack())),
	)
}

func routeOf(ctx *Context) string {
	if ctx.MatchedRoute == "" {
		return unknownRoute
	}
	return ctx.MatchedRoute
}
