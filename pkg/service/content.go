package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"archivault/pkg/core"
	"archivault/pkg/meta"
	"archivault/pkg/rdf"
	"archivault/pkg/types"
)

// PutContent 创建或整体替换数据流内容。返回值标记是否新建了资源。
// 字节先落 blob 层（内容寻址、幂等），行内只换指针，天然原子。
func (s *Service) PutContent(ctx context.Context, path types.Path, contentType string, data []byte) (bool, error) {
	blob := core.NewBlob(data)
	if err := s.blobs.Put(ctx, blob); err != nil {
		return false, fmt.Errorf("failed to store content blob: %w", err)
	}
	return s.upsertDatastream(ctx, path, func(row *meta.ResourceModel) {
		row.ContentHash = blob.ID().String()
		row.ContentType = contentType
		row.ContentSize = blob.Size()
		row.RedirectURL = ""
	})
}

// PutRedirect 创建或更新 redirect 数据流：只存目标 URL，
// 读取时实时解引用。
func (s *Service) PutRedirect(ctx context.Context, path types.Path, targetURL string) (bool, error) {
	if targetURL == "" {
		return false, &core.ConflictError{Msg: "redirect target URL must not be empty"}
	}
	return s.upsertDatastream(ctx, path, func(row *meta.ResourceModel) {
		row.ContentHash = ""
		row.ContentType = ""
		row.ContentSize = 0
		row.RedirectURL = targetURL
	})
}

func (s *Service) upsertDatastream(ctx context.Context, path types.Path, mutate func(*meta.ResourceModel)) (bool, error) {
	created := false
	err := s.meta.Transaction(ctx, func(tx *meta.Repository) error {
		row, err := tx.GetResource(ctx, path)
		switch {
		case err == meta.ErrResourceNotFound:
			if cerr := checkDestination(ctx, tx, path); cerr != nil {
				return cerr
			}
			props, perr := propsToJSON(rdf.NewPropertySet())
			if perr != nil {
				return perr
			}
			row = &meta.ResourceModel{
				Path:       path.String(),
				Kind:       string(types.KindDatastream),
				State:      string(meta.StateLive),
				Properties: props,
			}
			mutate(row)
			created = true
			return tx.CreateResource(ctx, row)
		case err != nil:
			return err
		case row.State == string(meta.StateTombstoned):
			return &core.GoneError{Path: path}
		case row.Kind != string(types.KindDatastream):
			return &core.ConflictError{Msg: fmt.Sprintf("resource %q is an object and carries no content", path)}
		default:
			mutate(row)
			return tx.SaveResource(ctx, row)
		}
	})
	return created, err
}

// GetContent 返回数据流当前内容的可读流与内容类型。
// redirect 数据流在此刻解引用目标，返回目标的当前字节。
// 调用方负责读完或关闭返回的流。
func (s *Service) GetContent(ctx context.Context, path types.Path) (io.ReadCloser, string, error) {
	row, err := getLive(ctx, s.meta, path)
	if err != nil {
		return nil, "", err
	}
	if row.Kind != string(types.KindDatastream) {
		return nil, "", &core.ConflictError{Msg: fmt.Sprintf("resource %q is an object and carries no content", path)}
	}
	return s.openContent(ctx, types.Hash(row.ContentHash), row.ContentType, row.RedirectURL)
}

// openContent 按内容指针打开流：redirect 优先，其次 blob 层。
func (s *Service) openContent(ctx context.Context, contentHash types.Hash, contentType, redirectURL string) (io.ReadCloser, string, error) {
	if redirectURL != "" {
		return s.dereference(ctx, redirectURL)
	}
	if contentHash.IsZero() {
		// 数据流存在但从未写入内容：按空内容处理
		return io.NopCloser(noBytes{}), contentType, nil
	}
	rc, err := s.blobs.Get(ctx, contentHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open content blob %s: %w", contentHash, err)
	}
	return rc, contentType, nil
}

func (s *Service) dereference(ctx context.Context, target string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &core.TransportError{Op: "dereference redirect", Err: err}
	}
	resp, err := s.fetch.Do(req)
	if err != nil {
		return nil, "", &core.TransportError{Op: "dereference redirect", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", &core.Error{Op: "dereference redirect", Msg: fmt.Sprintf("target %q answered status %d", target, resp.StatusCode)}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

type noBytes struct{}

func (noBytes) Read([]byte) (int, error) { return 0, io.EOF }
