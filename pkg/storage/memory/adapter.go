package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"archivault/pkg/core"
	"archivault/pkg/storage"
	"archivault/pkg/types"
)

// Adapter 是纯内存的 storage.Store 实现，服务参考实现与测试用。
type Adapter struct {
	mu    sync.RWMutex
	blobs map[types.Hash][]byte
}

func NewAdapter() *Adapter {
	return &Adapter{blobs: make(map[types.Hash][]byte)}
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[obj.ID()]; ok {
		return nil
	}
	s.blobs[obj.ID()] = bytes.Clone(obj.Bytes())
	return nil
}

func (s *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[hash]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[hash]
	return ok, nil
}
