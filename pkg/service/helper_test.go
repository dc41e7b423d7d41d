package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"archivault/pkg/meta"
	"archivault/pkg/storage/memory"
	"archivault/pkg/types"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupService 构建完整的内存版服务：SQLite 内存元数据 + 内存 blob 层。
func setupService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&meta.ResourceModel{}, &meta.VersionModel{}))

	return New(meta.NewRepository(metaDB), memory.NewAdapter())
}

func mustCreateObject(t *testing.T, svc *Service, path types.Path, msgAndArgs ...any) *Resource {
	t.Helper()
	res, err := svc.CreateObject(context.Background(), path)
	require.NoError(t, err, msgAndArgs...)
	return res
}

func mustPutContent(t *testing.T, svc *Service, path types.Path, contentType, content string, msgAndArgs ...any) {
	t.Helper()
	_, err := svc.PutContent(context.Background(), path, contentType, []byte(content))
	require.NoError(t, err, msgAndArgs...)
}

// mustReadContent 读取并关闭内容流。
func mustReadContent(t *testing.T, svc *Service, path types.Path) string {
	t.Helper()
	rc, _, err := svc.GetContent(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func mustSnapshot(t *testing.T, svc *Service, path types.Path, name string, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, svc.CreateVersion(context.Background(), path, name), msgAndArgs...)
}
