package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coderi421/mvc/session"
	redis "github.com/redis/go-redis/v9"
)

var errSessionAlreadyExist = errors.New("redis-session: session id 已经存在")

type StoreOption func(store *Store)

// Store 每个 session 对应 redis 里面的一个 hash
type Store struct {
	prefix     string // redis 中 key 的前缀
	client     redis.Cmdable
	expiration time.Duration
}

// NewStore 默认的前缀是 session，过期时间 15 分钟
func NewStore(client redis.Cmdable, opts ...StoreOption) *Store {
	res := &Store{
		client:     client,
		prefix:     "session",
		expiration: time.Minute * 15,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func WithPrefix(prefix string) StoreOption {
	return func(store *Store) {
		store.prefix = prefix
	}
}

func WithExpiration(expiration time.Duration) StoreOption {
	return func(store *Store) {
		store.expiration = expiration
	}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("%s_%s", s.prefix, id)
}

// Generate 创建并设置过期时间要保证原子性，所以用 lua 脚本
// exists 返回的是 0 或者 1，在 lua 里面 0 也是真值，所以要显式比较
func (s *Store) Generate(ctx context.Context, id string) (session.Session, error) {
	const lua = `
if redis.call("exists", KEYS[1]) == 1
then
	return -1
end
redis.call("hset", KEYS[1], ARGV[1], ARGV[2])
return redis.call("pexpire", KEYS[1], ARGV[3])
`
	key := s.key(id)
	res, err := s.client.Eval(ctx, lua, []string{key}, "_sess_id", id, s.expiration.Milliseconds()).Int()
	if err != nil {
		return nil, err
	}
	if res < 0 {
		return nil, errSessionAlreadyExist
	}
	return s.newSession(key, id), nil
}

func (s *Store) Refresh(ctx context.Context, id string) error {
	affected, err := s.client.Expire(ctx, s.key(id), s.expiration).Result()
	if err != nil {
		return err
	}
	if !affected {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *Store) Get(ctx context.Context, id string) (session.Session, error) {
	key := s.key(id)
	cnt, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if cnt == 0 {
		return nil, session.ErrSessionNotFound
	}
	return s.newSession(key, id), nil
}

func (s *Store) newSession(key, id string) *redisSession {
	return &redisSession{
		key:    key,
		id:     id,
		client: s.client,
	}
}

type redisSession struct {
	key    string
	id     string
	client redis.Cmdable
}

func (r *redisSession) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrKeyNotFound
	}
	return val, err
}

// Set session 已经过期的时候不能再写入，不然会留下一个永不过期的 key
func (r *redisSession) Set(ctx context.Context, key string, val string) error {
	const lua = `
if redis.call("exists", KEYS[1]) == 1
then
	return redis.call("hset", KEYS[1], ARGV[1], ARGV[2])
end
return -1
`
	res, err := r.client.Eval(ctx, lua, []string{r.key}, key, val).Int()
	if err != nil {
		return err
	}
	if res < 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (r *redisSession) Delete(ctx context.Context, key string) error {
	return r.client.HDel(ctx, r.key, key).Err()
}

func (r *redisSession) ID() string {
	return r.id
}
