package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"archivault/pkg/core"
	"archivault/pkg/storage"
	"archivault/pkg/types"

	"github.com/redis/go-redis/v9"
)

// CachedStore 是 storage.Store 的装饰器，在底层后端（通常是 S3）
// 前面加一层 Redis 存在性缓存。只缓存“这个 Hash 存在”这一事实，
// 不缓存 blob 字节本身——内容可能很大，Redis 内存只花在刀刃上。
type CachedStore struct {
	backend storage.Store
	client  *redis.Client
	ttl     time.Duration
}

type Config struct {
	// RedisURL 标准连接串: redis://<user>:<password>@<host>:<port>/<db>
	RedisURL string
	TTL      time.Duration
}

func NewCachedStore(backend storage.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CachedStore{backend: backend, client: client, ttl: cfg.TTL}, nil
}

func (s *CachedStore) cacheKey(hash types.Hash) string {
	return "av:blob:" + string(hash)
}

// Has 先查 Redis；缓存故障时降级为直查后端。
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := s.cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Warn("redis existence check failed, falling through", "err", err)
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	// 异步回填，不阻塞读路径
	if found {
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, key, "1", s.ttl)
		}()
	}

	return found, nil
}

// Put 借助 Has 的缓存结果跳过重复上传。
func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// 上传成功后才写缓存；写失败无所谓，下次回填
	s.client.Set(ctx, s.cacheKey(obj.ID()), "1", s.ttl)
	return nil
}

// Get 透传，blob 字节不走缓存。
func (s *CachedStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	return s.backend.Get(ctx, hash)
}
