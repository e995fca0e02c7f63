package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coderi421/mvc/session"
	cache "github.com/patrickmn/go-cache"
)

// Store 利用 go-cache 来帮助我们管理过期时间
type Store struct {
	// 如果难以确保同一个 id 不会被多个 goroutine 来操作，就加上这个
	mutex      sync.RWMutex
	c          *cache.Cache
	expiration time.Duration
}

// NewStore expiration 是 session 的过期时间，过期的 session 每秒清理一次
func NewStore(expiration time.Duration) *Store {
	return &Store{
		c:          cache.New(expiration, time.Second),
		expiration: expiration,
	}
}

func (s *Store) Generate(_ context.Context, id string) (session.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sess := &memorySession{
		id:   id,
		data: make(map[string]string),
	}
	s.c.Set(id, sess, s.expiration)
	return sess, nil
}

func (s *Store) Refresh(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sess, ok := s.c.Get(id)
	if !ok {
		return session.ErrSessionNotFound
	}
	s.c.Set(id, sess, s.expiration)
	return nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.c.Delete(id)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (session.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sess, ok := s.c.Get(id)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess.(*memorySession), nil
}

type memorySession struct {
	mutex sync.RWMutex
	id    string
	data  map[string]string
}

func (m *memorySession) Get(_ context.Context, key string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return "", session.ErrKeyNotFound
	}
	return val, nil
}

func (m *memorySession) Set(_ context.Context, key string, val string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.data[key] = val
	return nil
}

func (m *memorySession) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memorySession) ID() string {
	return m.id
}
