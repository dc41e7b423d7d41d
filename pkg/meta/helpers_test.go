package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"archivault/pkg/types"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo 构建隔离的测试环境（按测试名隔离的内存 SQLite）。
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&ResourceModel{}, &VersionModel{}))

	return NewRepository(metaDB)
}

// mockSnapshotHash 生成合法的测试用快照 Hash。
func mockSnapshotHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// mustCreateLive 插入一行 live 资源，失败直接终止测试。
func mustCreateLive(t *testing.T, repo *Repository, path types.Path, kind string, msgAndArgs ...any) *ResourceModel {
	t.Helper()
	res := &ResourceModel{
		Path:  path.String(),
		Kind:  kind,
		State: string(StateLive),
	}
	require.NoError(t, repo.CreateResource(context.Background(), res), msgAndArgs...)
	return res
}

// mustInsertVersion 插入一条版本记录并自动分配序号。
func mustInsertVersion(t *testing.T, repo *Repository, path types.Path, name, snapshotHash string, msgAndArgs ...any) {
	t.Helper()
	ctx := context.Background()
	seq, err := repo.NextVersionSeq(ctx, path)
	require.NoError(t, err)
	err = repo.InsertVersion(ctx, &VersionModel{
		Path:         path.String(),
		Name:         name,
		Seq:          seq,
		SnapshotHash: snapshotHash,
	})
	require.NoError(t, err, msgAndArgs...)
}
