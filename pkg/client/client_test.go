package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/rdf"
	"archivault/pkg/server"
	"archivault/pkg/service"
	"archivault/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const dcTitle = "http://purl.org/dc/elements/1.1/title"

// setupClient 起一个完整的内存版服务端并返回指向它的客户端。
func setupClient(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&meta.ResourceModel{}, &meta.VersionModel{}))

	svc := service.New(meta.NewRepository(metaDB), memory.NewAdapter())
	ts := httptest.NewServer(server.New(svc))
	t.Cleanup(ts.Close)

	repo, err := New(ts.URL, WithRetryMax(0))
	require.NoError(t, err)
	return repo
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://somewhere")
	assert.Error(t, err)

	repo, err := New("http://localhost:8474/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8474/rest", repo.BaseURL())
}

func TestObjectRoundTrip(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	obj, err := repo.CreateObject(ctx, "col1")
	require.NoError(t, err)
	assert.Equal(t, "col1", obj.Path().String())

	// 属性补丁后重新拉取可见
	patch := fmt.Sprintf("INSERT DATA { <> <%s> 'My Collection' . }", dcTitle)
	require.NoError(t, obj.UpdateProperties(ctx, patch))

	obj, err = repo.GetObject(ctx, "col1")
	require.NoError(t, err)

	// Properties 序列可反复迭代
	for range 2 {
		found := false
		for tr := range obj.Properties() {
			if tr.Predicate == dcTitle && tr.Object.Value == "My Collection" {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestTypedErrors(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	_, err := repo.GetObject(ctx, "missing")
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsRepositoryError(err))

	obj, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	// 重复创建 → Conflict
	_, err = repo.CreateObject(ctx, "obj")
	assert.True(t, core.IsConflict(err))

	// 非法补丁 → ParseError
	err = obj.UpdateProperties(ctx, "INSERT GARBAGE")
	var perr *rdf.ParseError
	assert.ErrorAs(t, err, &perr)

	// 删除后 → Gone，错误信息里带 410 Gone
	require.NoError(t, obj.Delete(ctx))
	_, err = repo.GetObject(ctx, "obj")
	assert.True(t, core.IsGone(err))
	assert.Contains(t, err.Error(), "410 Gone")

	// 服务端不可达 → TransportError
	dead, err := New("http://127.0.0.1:1", WithRetryMax(0))
	require.NoError(t, err)
	_, err = dead.GetObject(ctx, "x")
	var terr *core.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestExistsAndForceDelete(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "obj")
	require.NoError(t, err)
	assert.False(t, ok)

	obj, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	ok, err = repo.Exists(ctx, "obj")
	require.NoError(t, err)
	assert.True(t, ok)

	// ForceDelete 之后路径立刻可复用
	require.NoError(t, obj.ForceDelete(ctx))
	ok, err = repo.Exists(ctx, "obj")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.CreateObject(ctx, "obj")
	assert.NoError(t, err)
}

func TestMintedResources(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	// 空路径 → 根下铸造
	minted, err := repo.CreateResource(ctx, "")
	require.NoError(t, err)
	assert.False(t, minted.Path().IsRoot())

	// 对象方法铸造子对象
	child, err := minted.CreateObject(ctx)
	require.NoError(t, err)
	assert.True(t, minted.Path().IsAncestorOf(child.Path()))

	parent, err := repo.GetObject(ctx, minted.Path())
	require.NoError(t, err)
	assert.Contains(t, parent.Children(), child.Path())
}

func TestDatastreamContent(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	ds, err := repo.CreateDatastream(ctx, "obj/ds", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)

	rc, err := ds.Content(ctx)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, ds.UpdateContent(ctx, "text/plain", strings.NewReader("world")))
	rc, err = ds.Content(ctx)
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "world", string(data))

	// 数据流句柄和对象句柄不可混用
	_, err = repo.GetObject(ctx, "obj/ds")
	assert.True(t, core.IsConflict(err))
	_, err = repo.GetDatastream(ctx, "obj")
	assert.True(t, core.IsConflict(err))
}

func TestRedirectDatastream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("live remote"))
	}))
	defer upstream.Close()

	repo := setupClient(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	ds, err := repo.CreateOrUpdateRedirectDatastream(ctx, "obj/ext", upstream.URL)
	require.NoError(t, err)

	rc, err := ds.Content(ctx)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "live remote", string(data))
}

func TestVersionWorkflow(t *testing.T) {
	repo := setupClient(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)
	ds, err := repo.CreateDatastream(ctx, "obj/ds", "text/plain", strings.NewReader("v1 bytes"))
	require.NoError(t, err)

	require.NoError(t, ds.CreateVersionSnapshot(ctx, "v1"))
	require.NoError(t, ds.UpdateContent(ctx, "text/plain", strings.NewReader("v2 bytes")))
	require.NoError(t, ds.CreateVersionSnapshot(ctx, "v2"))

	names, err := ds.VersionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, names)

	// 冻结视图拿冻结字节，live 不受影响
	frozen, err := repo.GetDatastreamVersion(ctx, "obj/ds", "v1")
	require.NoError(t, err)
	rc, err := frozen.Content(ctx)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "v1 bytes", string(data))

	// 冻结视图拒绝写操作
	err = frozen.UpdateContent(ctx, "text/plain", strings.NewReader("nope"))
	assert.True(t, core.IsConflict(err))
	err = frozen.UpdateProperties(ctx, "INSERT DATA { <> <"+dcTitle+"> 'x' . }")
	assert.True(t, core.IsConflict(err))

	// 回滚
	require.NoError(t, ds.RevertToVersion(ctx, "v1"))
	rc, err = ds.Content(ctx)
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "v1 bytes", string(data))

	// 最后一个版本删不掉
	require.NoError(t, ds.DeleteVersion(ctx, "v1"))
	err = ds.DeleteVersion(ctx, "v2")
	assert.True(t, core.IsConflict(err))
}
