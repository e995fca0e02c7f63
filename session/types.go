package session

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrSessionNotFound = errors.New("session: 找不到 session")
	ErrKeyNotFound     = errors.New("session: 找不到这个 key")
)

// Session 这个通常是一个接口，用来表示一个 session 结构体必须要实现的方法
// session 对应的结构体，需要存在 Store 里面
type Session interface {
	// Get 获取 session 的值，key 不存在的时候返回 ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)
	// Set 设置 session 的值
	Set(ctx context.Context, key string, val string) error
	// Delete 删除 key，key 不存在也不会报错
	Delete(ctx context.Context, key string) error
	// ID 获取 session 的 ID
	ID() string
}

type Store interface {
	// Generate 生成一个 session
	Generate(ctx context.Context, id string) (Session, error)
	// Refresh 这种设计是一直用同一个 id 的
	// 如果想支持 Refresh 换 ID，那么可以重新生成一个，并移除原有的
	Refresh(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	// Get session 不存在的时候返回 ErrSessionNotFound
	Get(ctx context.Context, id string) (Session, error)
}

// Propagator 处理请求中的 session id
type Propagator interface {
	// Inject 将 session id 注入到里面
	// Inject 必须是幂等的
	Inject(id string, writer http.ResponseWriter) error
	// Extract 将 session id 从 http.Request 中提取出来
	// 例如从 cookie 中将 session id 提取出来
	Extract(req *http.Request) (string, error)
	// Remove 将 session id 从 http.ResponseWriter 中删除
	// 例如删除对应的 cookie
	Remove(writer http.ResponseWriter) error
}
