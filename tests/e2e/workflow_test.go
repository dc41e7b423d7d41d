package e2e

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"archivault/pkg/client"
	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/rdf"
	"archivault/pkg/server"
	"archivault/pkg/service"
	"archivault/pkg/storage/disk"
	"archivault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	dcTitle      = "http://purl.org/dc/elements/1.1/title"
	dcIdentifier = "http://purl.org/dc/elements/1.1/identifier"
)

// setupRepository 起一个完整的服务端栈：真实磁盘 blob 存储 + 内存 SQLite
// 元数据，HTTP 之上再套客户端。这是离生产形态最近的一套测试环境。
func setupRepository(t *testing.T) *client.Repository {
	t.Helper()

	// 基础存储 (Disk)
	diskStore, err := disk.NewAdapter(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)

	// 关键：使用内存 SQLite 代替 Postgres，保证测试极速运行且无外部依赖
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&meta.ResourceModel{}, &meta.VersionModel{}))

	svc := service.New(meta.NewRepository(metaDB), diskStore)
	ts := httptest.NewServer(server.New(svc))
	t.Cleanup(ts.Close)

	repo, err := client.New(ts.URL)
	require.NoError(t, err)
	return repo
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func titleOf(t *testing.T, props iter.Seq[rdf.Triple]) string {
	t.Helper()
	for tr := range props {
		if tr.Predicate == dcTitle {
			return tr.Object.Value
		}
	}
	return ""
}

// TestWorkflow_ObjectCRUD 覆盖对象从创建到墓碑清除的完整生命周期。
func TestWorkflow_ObjectCRUD(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	// 1. 创建前不存在
	ok, err := repo.Exists(ctx, "testObject")
	require.NoError(t, err)
	assert.False(t, ok)

	obj, err := repo.CreateObject(ctx, "testObject")
	require.NoError(t, err)

	ok, err = repo.Exists(ctx, "testObject")
	require.NoError(t, err)
	assert.True(t, ok)

	// 2. 属性补丁 → 重新拉取可见
	err = obj.UpdateProperties(ctx, fmt.Sprintf(
		"INSERT DATA { <> <%s> 'Test Object' . <> <%s> 'obj-001' . }", dcTitle, dcIdentifier))
	require.NoError(t, err)

	obj, err = repo.GetObject(ctx, "testObject")
	require.NoError(t, err)
	assert.Equal(t, "Test Object", titleOf(t, obj.Properties()))

	// 3. DELETE DATA 移除单个属性，其余保留
	err = obj.UpdateProperties(ctx, fmt.Sprintf(
		"DELETE DATA { <> <%s> 'Test Object' . }", dcTitle))
	require.NoError(t, err)

	obj, err = repo.GetObject(ctx, "testObject")
	require.NoError(t, err)
	assert.Empty(t, titleOf(t, obj.Properties()))

	// 4. 删除 → 路径 Gone，且错误信息里带 410 Gone
	require.NoError(t, obj.Delete(ctx))
	_, err = repo.GetObject(ctx, "testObject")
	assert.True(t, core.IsGone(err))
	assert.Contains(t, err.Error(), "410 Gone")

	// 墓碑挡住重建
	_, err = repo.CreateObject(ctx, "testObject")
	assert.True(t, core.IsGone(err))

	// 5. 清掉墓碑后路径复用
	require.NoError(t, repo.RemoveTombstone(ctx, "testObject"))
	_, err = repo.GetObject(ctx, "testObject")
	assert.True(t, core.IsNotFound(err))

	_, err = repo.CreateObject(ctx, "testObject")
	assert.NoError(t, err)
}

// TestWorkflow_MintedIdentifiers 验证服务端铸造的标识符互不相同且挂对地方。
func TestWorkflow_MintedIdentifiers(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	a, err := repo.CreateResource(ctx, "")
	require.NoError(t, err)
	b, err := repo.CreateResource(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path(), b.Path())

	child, err := a.CreateObject(ctx)
	require.NoError(t, err)
	assert.True(t, a.Path().IsAncestorOf(child.Path()))
}

// TestWorkflow_DatastreamVersioning 重演数据流的内容历史：
// hello/v1 → world/v2，live 是最新的，冻结视图各归各。
func TestWorkflow_DatastreamVersioning(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	ds, err := repo.CreateDatastream(ctx, "obj/ds", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	require.NoError(t, ds.CreateVersionSnapshot(ctx, "v1"))

	require.NoError(t, ds.UpdateContent(ctx, "text/plain", strings.NewReader("world")))
	require.NoError(t, ds.CreateVersionSnapshot(ctx, "v2"))

	// live 是最新内容
	rc, err := ds.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", readAll(t, rc))

	// 冻结内容各归各
	v1, err := repo.GetDatastreamVersion(ctx, "obj/ds", "v1")
	require.NoError(t, err)
	rc, err = v1.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", readAll(t, rc))

	// 版本列表按创建顺序
	names, err := ds.VersionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, names)

	// 回滚改 live，不动版本列表
	require.NoError(t, ds.RevertToVersion(ctx, "v1"))
	rc, err = ds.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", readAll(t, rc))

	names, err = ds.VersionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, names)

	// 删到最后一个版本时拒绝
	require.NoError(t, ds.DeleteVersion(ctx, "v2"))
	err = ds.DeleteVersion(ctx, "v1")
	assert.True(t, core.IsConflict(err))

	names, err = ds.VersionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, names)
}

// TestWorkflow_ObjectVersioning 验证对象属性的冻结视图。
func TestWorkflow_ObjectVersioning(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	obj, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)
	require.NoError(t, obj.CreateVersionSnapshot(ctx, "empty"))

	require.NoError(t, obj.UpdateProperties(ctx,
		fmt.Sprintf("INSERT DATA { <> <%s> 'Titled' . }", dcTitle)))
	require.NoError(t, obj.CreateVersionSnapshot(ctx, "titled"))

	frozen, err := repo.GetObjectVersion(ctx, "obj", "empty")
	require.NoError(t, err)
	assert.Empty(t, titleOf(t, frozen.Properties()))

	frozen, err = repo.GetObjectVersion(ctx, "obj", "titled")
	require.NoError(t, err)
	assert.Equal(t, "Titled", titleOf(t, frozen.Properties()))

	// 冻结视图拒绝写
	err = frozen.UpdateProperties(ctx, "INSERT DATA { <> <"+dcTitle+"> 'x' . }")
	assert.True(t, core.IsConflict(err))
}

// TestWorkflow_RedirectDatastream 验证 redirect 数据流每次读取都
// 实时解引用目标，目标内容变了读到的就变。
func TestWorkflow_RedirectDatastream(t *testing.T) {
	var serves atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := serves.Add(1)
		fmt.Fprintf(w, "generation %d", n)
	}))
	defer upstream.Close()

	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)

	ds, err := repo.CreateOrUpdateRedirectDatastream(ctx, "obj/ext", upstream.URL)
	require.NoError(t, err)

	rc, err := ds.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "generation 1", readAll(t, rc))

	rc, err = ds.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "generation 2", readAll(t, rc))
}

// TestWorkflow_MoveCopy 验证子树搬迁和深拷贝的语义差异。
func TestWorkflow_MoveCopy(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	src, err := repo.CreateObject(ctx, "src")
	require.NoError(t, err)
	_, err = repo.CreateObject(ctx, "src/a")
	require.NoError(t, err)
	_, err = repo.CreateDatastream(ctx, "src/a/ds", "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)

	// COPY：目标子资源数与源一致，源不受影响
	require.NoError(t, src.Copy(ctx, "copied"))

	srcNow, err := repo.GetObject(ctx, "src")
	require.NoError(t, err)
	copied, err := repo.GetObject(ctx, "copied")
	require.NoError(t, err)
	assert.Equal(t, len(srcNow.Children()), len(copied.Children()))

	ds, err := repo.GetDatastream(ctx, "copied/a/ds")
	require.NoError(t, err)
	rc, err := ds.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payload", readAll(t, rc))

	// MOVE：内容随迁，源留墓碑
	require.NoError(t, src.Move(ctx, "moved"))
	_, err = repo.GetObject(ctx, "src")
	assert.True(t, core.IsGone(err))

	_, err = repo.GetDatastream(ctx, "moved/a/ds")
	require.NoError(t, err)

	// 子孙路径不留墓碑，直接 NotFound
	_, err = repo.GetObject(ctx, "src/a")
	assert.True(t, core.IsNotFound(err))

	// ForceMove 之后源路径立即可复用
	moved, err := repo.GetObject(ctx, "moved")
	require.NoError(t, err)
	require.NoError(t, moved.ForceMove(ctx, "final"))
	_, err = repo.GetObject(ctx, "moved")
	assert.True(t, core.IsNotFound(err))
	_, err = repo.CreateObject(ctx, "moved")
	assert.NoError(t, err)
}

// TestWorkflow_VersionHistoryTravelsWithMove 搬迁后版本历史仍可用。
func TestWorkflow_VersionHistoryTravelsWithMove(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)
	ds, err := repo.CreateDatastream(ctx, "obj/ds", "text/plain", strings.NewReader("archived"))
	require.NoError(t, err)
	require.NoError(t, ds.CreateVersionSnapshot(ctx, "keep"))

	obj, err := repo.GetObject(ctx, "obj")
	require.NoError(t, err)
	require.NoError(t, obj.ForceMove(ctx, "relocated"))

	frozen, err := repo.GetDatastreamVersion(ctx, "relocated/ds", "keep")
	require.NoError(t, err)
	rc, err := frozen.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "archived", readAll(t, rc))
}

// TestWorkflow_PatchIsAtomic 非法补丁不落任何修改。
func TestWorkflow_PatchIsAtomic(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	obj, err := repo.CreateObject(ctx, "obj")
	require.NoError(t, err)
	require.NoError(t, obj.UpdateProperties(ctx,
		fmt.Sprintf("INSERT DATA { <> <%s> 'Stable' . }", dcTitle)))

	err = obj.UpdateProperties(ctx, "INSERT DATA { <> missing-brackets 'x' . }")
	var perr *rdf.ParseError
	assert.ErrorAs(t, err, &perr)

	obj, err = repo.GetObject(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, "Stable", titleOf(t, obj.Properties()))
}

// TestWorkflow_PathHierarchy 父级必须先存在，且数据流不能当容器。
func TestWorkflow_PathHierarchy(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.CreateObject(ctx, "a/b/c")
	assert.True(t, core.IsNotFound(err))

	_, err = repo.CreateObject(ctx, "a")
	require.NoError(t, err)
	_, err = repo.CreateDatastream(ctx, "a/ds", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	// 数据流下面不能再挂子资源
	_, err = repo.CreateObject(ctx, "a/ds/child")
	assert.True(t, core.IsConflict(err))

	// 保留段前缀不能出现在用户路径里
	_, parseErr := types.ParsePath("a/fcr:evil")
	assert.Error(t, parseErr)
}
