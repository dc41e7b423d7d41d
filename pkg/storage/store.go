package storage

import (
	"context"
	"errors"
	"io"

	"archivault/pkg/core"
	"archivault/pkg/types"
)

var (
	ErrNotFound = errors.New("blob not found")
)

// Store 是内容寻址 blob 层的后端接口。数据流字节和版本快照
// 文档都按 Hash 存取；写入天然幂等，copy/version 只共享 Hash
// 引用，从不复制字节。
type Store interface {
	// Put 持久化一个内容寻址对象。同一 Hash 重复写入是空操作。
	Put(ctx context.Context, obj core.Object) error

	// Get 按 Hash 读取。返回 io.ReadCloser 以支持大内容流式读取，
	// 调用方必须读完或显式 Close。
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在（去重与缓存预检用）。
	Has(ctx context.Context, hash types.Hash) (bool, error)
}

// GetBytes 读取并完整排空一个 blob，保证底层流在所有路径上被关闭。
func GetBytes(ctx context.Context, s Store, hash types.Hash) ([]byte, error) {
	rc, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
