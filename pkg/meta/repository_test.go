package meta

import (
	"context"
	"strings"
	"testing"

	"archivault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_ResourceCRUD(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created := mustCreateLive(t, repo, "col/item", "object")

	stored, err := repo.GetResource(ctx, "col/item")
	require.NoError(t, err)
	assert.Equal(t, created.Path, stored.Path)
	assert.Equal(t, string(StateLive), stored.State)

	_, err = repo.GetResource(ctx, "col/other")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	// 主键冲突
	err = repo.CreateResource(ctx, &ResourceModel{Path: "col/item", Kind: "object", State: string(StateLive)})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRepository_ListChildrenAndSubtree(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, p := range []string{"a", "a/b", "a/b/c", "a/d", "ab"} {
		mustCreateLive(t, repo, types.Path(p), "object")
	}

	children, err := repo.ListChildren(ctx, "a")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "a/b", children[0].Path)
	assert.Equal(t, "a/d", children[1].Path)

	subtree, err := repo.ListSubtree(ctx, "a", true)
	require.NoError(t, err)
	require.Len(t, subtree, 4, "prefix 'ab' must not leak into subtree of 'a'")
	assert.Equal(t, "a", subtree[0].Path, "parent rows come first")
}

func TestRepository_LikePrefixEscaping(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// '_' 是合法路径字符，LIKE 里必须被转义
	mustCreateLive(t, repo, "a_b", "object")
	mustCreateLive(t, repo, "axb", "object")
	mustCreateLive(t, repo, "a_b/child", "object")

	subtree, err := repo.ListSubtree(ctx, "a_b", false)
	require.NoError(t, err)
	require.Len(t, subtree, 1)
	assert.Equal(t, "a_b/child", subtree[0].Path)

	assert.True(t, strings.HasPrefix(likePrefix("a_b"), `a\_b`))
}

func TestRepository_DeleteSubtree(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustCreateLive(t, repo, "x", "object")
	mustCreateLive(t, repo, "x/y", "datastream")
	mustInsertVersion(t, repo, "x/y", "v1", mockSnapshotHash("x/y v1"))

	require.NoError(t, repo.DeleteSubtree(ctx, "x"))

	_, err := repo.GetResource(ctx, "x")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	_, err = repo.GetResource(ctx, "x/y")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	count, err := repo.CountVersions(ctx, "x/y")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_VersionOrderingAndUniqueness(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustCreateLive(t, repo, "res", "object")
	mustInsertVersion(t, repo, "res", "V1", mockSnapshotHash("s1"))
	mustInsertVersion(t, repo, "res", "V2", mockSnapshotHash("s2"))

	// 同名版本冲突
	err := repo.InsertVersion(ctx, &VersionModel{Path: "res", Name: "V1", Seq: 99, SnapshotHash: mockSnapshotHash("dup")})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	versions, err := repo.ListVersions(ctx, "res")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "V1", versions[0].Name)
	assert.Equal(t, "V2", versions[1].Name)
	assert.Less(t, versions[0].Seq, versions[1].Seq)

	// 同名版本可以挂在不同资源上
	mustCreateLive(t, repo, "other", "object")
	mustInsertVersion(t, repo, "other", "V1", mockSnapshotHash("s3"))
}

func TestRepository_DeleteVersion(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsertVersion(t, repo, "res", "V1", mockSnapshotHash("s1"))

	require.NoError(t, repo.DeleteVersion(ctx, "res", "V1"))
	assert.ErrorIs(t, repo.DeleteVersion(ctx, "res", "V1"), ErrVersionNotFound)

	_, err := repo.GetVersion(ctx, "res", "V1")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestRepository_TransactionRollback(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *Repository) error {
		if err := tx.CreateResource(ctx, &ResourceModel{Path: "tx/a", Kind: "object", State: string(StateLive)}); err != nil {
			return err
		}
		return assert.AnError // 强制回滚
	})
	require.Error(t, err)

	_, err = repo.GetResource(ctx, "tx/a")
	assert.ErrorIs(t, err, ErrResourceNotFound, "rolled-back row must not be visible")
}
