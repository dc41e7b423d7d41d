// pkg/app/app.go
package app

import (
	"context"
	"fmt"

	"archivault/pkg/meta"
	"archivault/pkg/service"
	"archivault/pkg/storage"
	"archivault/pkg/storage/cache"
	"archivault/pkg/storage/disk"
	"archivault/pkg/storage/memory"
	"archivault/pkg/storage/s3"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store   storage.Store
	Meta    *meta.Repository
	Service *service.Service
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 初始化 blob 存储层 (Dependency Injection)
	store, err := initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 2. 初始化元数据层
	db, err := meta.NewDB(ctx, meta.Config{
		Driver:   viper.GetString("database.driver"),
		DSN:      viper.GetString("database.dsn"),
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init metadata store: %w", err)
	}

	repo := meta.NewRepository(db)
	return &App{
		Store:   store,
		Meta:    repo,
		Service: service.New(repo, store),
	}, nil
}

// initStore 按配置组装 blob 存储，可选地套一层 Redis 存在性缓存
func initStore(ctx context.Context) (storage.Store, error) {
	var backend storage.Store
	var err error

	switch typ := viper.GetString("storage.type"); typ {
	case "memory":
		backend = memory.NewAdapter()

	case "", "disk":
		path := viper.GetString("storage.path")
		if path == "" {
			return nil, fmt.Errorf("storage path not set")
		}
		backend, err = disk.NewAdapter(path)
		if err != nil {
			return nil, err
		}

	case "s3":
		bucket := viper.GetString("storage.s3.bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3 bucket is required")
		}
		backend, err = s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          bucket,
			AccessKeyID:     viper.GetString("storage.s3.access_key_id"),
			SecretAccessKey: viper.GetString("storage.s3.secret_access_key"),
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", typ)
	}

	// Redis 只做存在性缓存，配了就启用
	if redisURL := viper.GetString("cache.redis_url"); redisURL != "" {
		return cache.NewCachedStore(backend, cache.Config{
			RedisURL: redisURL,
			TTL:      viper.GetDuration("cache.ttl"),
		})
	}
	return backend, nil
}
