package session

import (
	"errors"

	"github.com/coderi421/mvc"
	"github.com/google/uuid"
)

// flashPrefix 闪存消息在 session 中的 key 前缀
const flashPrefix = "_flash_"

// Manager 为了简化使用，提供了一些常用的方法
type Manager struct {
	Store
	Propagator
	SessCtxKey string // 在 context 中的备份，方便使用
}

// GetSession 先从 ctx.UserValues 里面找，找不到再去 Store 里面找
func (m *Manager) GetSession(ctx *mvc.Context) (Session, error) {
	if ctx.UserValues == nil {
		ctx.UserValues = make(map[string]any, 1)
	}

	val, ok := ctx.UserValues[m.SessCtxKey]
	if ok {
		return val.(Session), nil
	}

	id, err := m.Extract(ctx.Req)
	if err != nil {
		return nil, err
	}

	sess, err := m.Get(ctx.Req.Context(), id)
	if err != nil {
		return nil, err
	}

	ctx.UserValues[m.SessCtxKey] = sess
	return sess, nil
}

// InitSession 以 id 创建 session，并且把 id 写回给客户端
func (m *Manager) InitSession(ctx *mvc.Context, id string) (Session, error) {
	sess, err := m.Generate(ctx.Req.Context(), id)
	if err != nil {
		return nil, err
	}

	if err = m.Inject(id, ctx.Resp); err != nil {
		return nil, err
	}

	if ctx.UserValues == nil {
		ctx.UserValues = make(map[string]any, 1)
	}
	ctx.UserValues[m.SessCtxKey] = sess
	return sess, nil
}

// GetOrInitSession 请求没有携带有效的 session 的时候，用一个随机 id 新建一个
func (m *Manager) GetOrInitSession(ctx *mvc.Context) (Session, error) {
	sess, err := m.GetSession(ctx)
	if err == nil {
		return sess, nil
	}
	return m.InitSession(ctx, uuid.NewString())
}

// RefreshSession 延长过期时间
func (m *Manager) RefreshSession(ctx *mvc.Context) (Session, error) {
	sess, err := m.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if err = m.Refresh(ctx.Req.Context(), sess.ID()); err != nil {
		return nil, err
	}

	if err = m.Inject(sess.ID(), ctx.Resp); err != nil {
		return nil, err
	}

	return sess, nil
}

// RemoveSession 同时删除服务端的数据和客户端的 id
func (m *Manager) RemoveSession(ctx *mvc.Context) error {
	sess, err := m.GetSession(ctx)
	if err != nil {
		return err
	}

	if err = m.Store.Remove(ctx.Req.Context(), sess.ID()); err != nil {
		return err
	}
	delete(ctx.UserValues, m.SessCtxKey)

	return m.Propagator.Remove(ctx.Resp)
}

// Flash 保存一条只读一次的消息，通常在重定向之前调用
func (m *Manager) Flash(ctx *mvc.Context, key string, msg string) error {
	sess, err := m.GetOrInitSession(ctx)
	if err != nil {
		return err
	}
	return sess.Set(ctx.Req.Context(), flashPrefix+key, msg)
}

// PullFlash 读取并删除消息，没有消息的时候返回空字符串
func (m *Manager) PullFlash(ctx *mvc.Context, key string) (string, error) {
	sess, err := m.GetSession(ctx)
	if err != nil {
		// 没有 session 自然也没有消息
		return "", nil
	}
	msg, err := sess.Get(ctx.Req.Context(), flashPrefix+key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return msg, sess.Delete(ctx.Req.Context(), flashPrefix+key)
}
